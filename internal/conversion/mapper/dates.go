// Package mapper transforms tokenized HL7 v2 segments into FHIR R4
// resources. Every mapper is a total function: malformed sub-fields are
// omitted from the resource, and a segment with no usable data yields
// nil rather than a partial resource.
package mapper

import "strings"

// FormatDate converts an HL7 DT value (YYYYMMDD) to a FHIR date. A TS
// value at minute or second precision is truncated to its date part;
// any other length yields "", never an error.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 8, 12, 14:
	default:
		return ""
	}
	if !isDigits(s) {
		return ""
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:8]
}

// FormatDateTime converts an HL7 TS value to a FHIR dateTime:
// YYYYMMDD becomes a date, YYYYMMDDHHMM and YYYYMMDDHHMMSS become
// local date-times. Anything else yields "".
func FormatDateTime(s string) string {
	s = strings.TrimSpace(s)
	// Degree-of-precision suffixes and zone offsets are dropped.
	if i := strings.IndexAny(s, "+-."); i >= 0 {
		s = s[:i]
	}
	if !isDigits(s) {
		return ""
	}
	switch len(s) {
	case 8:
		return FormatDate(s)
	case 12:
		return FormatDate(s) + "T" + s[8:10] + ":" + s[10:12] + ":00"
	case 14:
		return FormatDate(s) + "T" + s[8:10] + ":" + s[10:12] + ":" + s[12:14]
	default:
		return ""
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
