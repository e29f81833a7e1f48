package mapper

import (
	"strings"

	"github.com/fhirhub/fhirhub/internal/conversion/codes"
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/hl7v2"
)

// relationshipWords recognizes relationship names spelled out in the
// NK1-3 composite instead of coded.
var relationshipWords = map[string]string{
	"SPOUSE":   "SPO",
	"EPOUX":    "SPO",
	"EPOUSE":   "SPO",
	"PARTNER":  "PTR",
	"CONJOINT": "PTR",
	"CHILD":    "CHD",
	"ENFANT":   "CHD",
	"GUARDIAN": "GRD",
	"TUTEUR":   "GRD",
	"PARENT":   "PAR",
	"PERE":     "PAR",
	"MERE":     "PAR",
	"SIBLING":  "SIB",
	"FRERE":    "SIB",
	"SOEUR":    "SIB",
}

// MapRelatedPerson builds a FHIR RelatedPerson from an NK1 segment.
// It returns nil when no name is present. The relationship coding is
// emitted only for the fixed set of recognized codes (spouse, partner,
// child, guardian, parent, sibling); anything else is left uncoded
// rather than guessed.
func MapRelatedPerson(nk1 hl7v2.Segment, patientRef string) *fhir.RelatedPerson {
	names := mapNames(nk1.Repetitions(2))
	if len(names) == 0 {
		return nil
	}

	rp := &fhir.RelatedPerson{
		ResourceType: "RelatedPerson",
		Patient:      fhir.Reference{Reference: patientRef, Type: "Patient"},
		Name:         names,
		Address:      mapAddresses(nk1.Repetitions(4)),
		Telecom:      mapTelecoms(nk1.Repetitions(5), "home"),
	}

	if code, ok := recognizeRelationship(nk1.Field(3).First()); ok {
		m := codes.Relationship.Translate(code)
		rp.Relationship = []fhir.CodeableConcept{{
			Coding: []fhir.Coding{{System: m.System, Code: m.Code, Display: m.Display}},
		}}
	}

	return rp
}

// recognizeRelationship scans the composite relationship field for one
// of the known codes or their spelled-out names.
func recognizeRelationship(v hl7v2.FieldValue) (string, bool) {
	for _, comp := range v.Components() {
		token := strings.ToUpper(strings.TrimSpace(comp))
		if codes.Relationship.Known(token) {
			return token, true
		}
		if code, ok := relationshipWords[token]; ok {
			return code, true
		}
	}
	return "", false
}
