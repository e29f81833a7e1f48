package mapper

import (
	"strings"

	"github.com/fhirhub/fhirhub/internal/conversion/codes"
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/hl7v2"
)

// MapPatient builds a FHIR Patient from a PID segment. It returns nil
// when the segment carries neither an identifier nor a name, since a
// subject-less conversion is meaningless.
func MapPatient(pid hl7v2.Segment) *fhir.Patient {
	patient := &fhir.Patient{
		ResourceType: "Patient",
		Identifier:   mapPatientIdentifiers(pid.Repetitions(3)),
		Name:         mapNames(pid.Repetitions(5)),
		Gender:       codes.Gender.Translate(pid.Field(8).First().Component(1)).Code,
		BirthDate:    FormatDate(pid.Field(7).First().String()),
		Address:      mapAddresses(pid.Repetitions(11)),
	}

	patient.Telecom = append(patient.Telecom, mapTelecoms(pid.Repetitions(13), "home")...)
	patient.Telecom = append(patient.Telecom, mapTelecoms(pid.Repetitions(14), "work")...)

	if len(patient.Identifier) == 0 && len(patient.Name) == 0 {
		return nil
	}
	return patient
}

// mapPatientIdentifiers converts every CX repetition of PID-3. The
// identifier type comes from the explicit type component when present,
// else from recognizing a national health identifier in the assigning
// authority, defaulting to PI (patient internal).
func mapPatientIdentifiers(reps []hl7v2.FieldValue) []fhir.Identifier {
	var out []fhir.Identifier
	for _, rep := range reps {
		value := rep.Component(1)
		if value == "" {
			continue
		}

		authority := rep.Subcomponent(4, 1)
		universalID := rep.Subcomponent(4, 2)
		typeCode := rep.Component(5)
		if typeCode == "" {
			typeCode = inferIdentifierType(value, authority)
		}

		m := codes.IdentifierType.Translate(typeCode)
		id := fhir.Identifier{
			Value: value,
			Type: &fhir.CodeableConcept{
				Coding: []fhir.Coding{{System: m.System, Code: m.Code, Display: m.Display}},
			},
			System: identifierSystemURI(m.Code, authority, universalID),
		}
		out = append(out, id)
	}
	return out
}

// inferIdentifierType recognizes French national identifiers by the
// assigning authority name; everything else is a patient-internal id.
func inferIdentifierType(value, authority string) string {
	upper := strings.ToUpper(authority)
	switch {
	case strings.Contains(upper, "INS-NIR"), strings.Contains(upper, "NIR"):
		return "INS"
	case strings.Contains(upper, "INS"):
		return "INS"
	case len(value) == 15 && isDigits(value):
		// A bare 15-digit value is the NIR layout.
		return "INS"
	default:
		return "PI"
	}
}

// identifierSystemURI derives the identifier system: the national INS
// namespace for INS identifiers, the declared universal id for OID
// authorities, else a normalized local namespace.
func identifierSystemURI(typeCode, authority, universalID string) string {
	if typeCode == "NI" {
		if strings.Contains(strings.ToUpper(authority), "NIA") {
			return fhir.SystemINSNIA
		}
		return fhir.SystemINSNIR
	}
	if isOID(universalID) {
		return "urn:oid:" + universalID
	}
	if authority != "" {
		return "urn:system:" + normalizeToken(authority)
	}
	return ""
}

// normalizeToken lowercases a namespace name and collapses anything
// that is not alphanumeric to single dashes.
func normalizeToken(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
