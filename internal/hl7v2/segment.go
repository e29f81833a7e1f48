package hl7v2

import "strings"

// Segment is one HL7 line: a 3-letter type tag and its raw fields.
// Field numbering follows the HL7 convention: field 0 is the segment
// name itself, user data starts at 1. For MSH the field separator
// counts as MSH-1, so MSH-9 is the message type even though it sits at
// split position 8.
type Segment struct {
	name   string
	fields []string
	delims Delimiters
}

// Name returns the segment type tag (PID, PV1, ...).
func (s Segment) Name() string {
	return s.name
}

// FieldCount returns the highest addressable field number.
func (s Segment) FieldCount() int {
	n := len(s.fields) - 1
	if s.name == "MSH" {
		n++
	}
	return n
}

// Field returns the field at the given 1-based index. Indices beyond
// the segment's field count return the empty value, never an error.
func (s Segment) Field(i int) FieldValue {
	if i < 1 {
		return FieldValue{d: s.delims}
	}
	if s.name == "MSH" {
		if i == 1 {
			return FieldValue{raw: string(s.delims.Field), d: s.delims}
		}
		i--
	}
	if i >= len(s.fields) {
		return FieldValue{d: s.delims}
	}
	return FieldValue{raw: s.fields[i], d: s.delims}
}

// Repetitions splits the field at the given index on the repetition
// separator, one FieldValue per repetition. Empty fields yield nil.
func (s Segment) Repetitions(i int) []FieldValue {
	return s.Field(i).Repetitions()
}

// FieldValue is a single field's raw text. It decomposes on demand
// into repetitions, components and subcomponents.
type FieldValue struct {
	raw string
	d   Delimiters
}

// String returns the raw field text.
func (v FieldValue) String() string {
	return v.raw
}

// IsEmpty reports whether the field carries no data. The HL7 null
// value `""` counts as empty.
func (v FieldValue) IsEmpty() bool {
	return v.raw == "" || v.raw == `""`
}

// Repetitions splits on the repetition separator. A field with no
// data yields nil; a field with no separator yields itself.
func (v FieldValue) Repetitions() []FieldValue {
	if v.IsEmpty() {
		return nil
	}
	parts := strings.Split(v.raw, string(v.d.Repetition))
	out := make([]FieldValue, 0, len(parts))
	for _, p := range parts {
		out = append(out, FieldValue{raw: p, d: v.d})
	}
	return out
}

// First returns the first repetition. Callers that expect a scalar
// field consume this and ignore the rest by policy.
func (v FieldValue) First() FieldValue {
	reps := v.Repetitions()
	if len(reps) == 0 {
		return FieldValue{d: v.d}
	}
	return reps[0]
}

// Components returns the ordered component strings of this value.
func (v FieldValue) Components() []string {
	if v.IsEmpty() {
		return nil
	}
	return strings.Split(v.raw, string(v.d.Component))
}

// Component returns the 1-based component, or "" when out of range.
func (v FieldValue) Component(i int) string {
	comps := v.Components()
	if i < 1 || i > len(comps) {
		return ""
	}
	c := comps[i-1]
	if c == `""` {
		return ""
	}
	return c
}

// Subcomponent returns the 1-based subcomponent of the 1-based
// component, or "" when out of range.
func (v FieldValue) Subcomponent(comp, sub int) string {
	c := v.Component(comp)
	if c == "" {
		return ""
	}
	parts := strings.Split(c, string(v.d.Subcomponent))
	if sub < 1 || sub > len(parts) {
		return ""
	}
	return parts[sub-1]
}
