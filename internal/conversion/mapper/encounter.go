package mapper

import (
	"github.com/fhirhub/fhirhub/internal/conversion/codes"
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/hl7v2"
)

// dischargeDispositions are the PV1-36 codes that mark a stay as
// complete (HL7 table 0112 discharge set).
var dischargeDispositions = map[string]bool{
	"01": true, "02": true, "03": true, "04": true,
	"05": true, "06": true, "07": true, "08": true,
	"09": true, "20": true, "30": true,
}

// MapEncounter builds a FHIR Encounter from a PV1 segment. The subject
// reference must point at the Patient produced from the same message.
// It returns nil when PV1 carries no class, no visit number and no
// period, since such a segment adds nothing.
func MapEncounter(pv1 hl7v2.Segment, patientRef string) *fhir.Encounter {
	classCode := pv1.Field(2).First().Component(1)
	visitNumber := pv1.Field(19).First().Component(1)
	admit := FormatDateTime(pv1.Field(44).First().String())
	discharge := FormatDateTime(pv1.Field(45).First().String())
	disposition := pv1.Field(36).First().Component(1)

	if classCode == "" && visitNumber == "" && admit == "" && discharge == "" {
		return nil
	}

	class := codes.EncounterClass.Translate(classCode)
	enc := &fhir.Encounter{
		ResourceType: "Encounter",
		Status:       encounterStatus(discharge, disposition),
		Class:        fhir.Coding{System: class.System, Code: class.Code, Display: class.Display},
		Subject:      &fhir.Reference{Reference: patientRef, Type: "Patient"},
	}

	if visitNumber != "" {
		enc.Identifier = []fhir.Identifier{{
			Value: visitNumber,
			Type: &fhir.CodeableConcept{
				Coding: []fhir.Coding{{
					System:  fhir.SystemIdentifierType,
					Code:    "VN",
					Display: "Visit number",
				}},
			},
		}}
	}

	if admit != "" || discharge != "" {
		enc.Period = &fhir.Period{Start: admit, End: discharge}
	}

	if disposition != "" {
		enc.Hospitalization = &fhir.EncounterHospitalization{
			DischargeDisposition: &fhir.CodeableConcept{Text: disposition},
		}
	}

	if loc := pv1.Field(3).First(); !loc.IsEmpty() {
		enc.Location = []fhir.EncounterLocation{{
			Location: fhir.Reference{Display: locationDisplay(loc)},
			Status:   "active",
		}}
	}

	return enc
}

// encounterStatus derives the FHIR status: a discharge time or a
// completing disposition code means the stay is over.
func encounterStatus(discharge, disposition string) string {
	if discharge != "" || dischargeDispositions[disposition] {
		return "finished"
	}
	return "in-progress"
}

// locationDisplay joins the PL components (unit, room, bed) for a
// human-readable display.
func locationDisplay(v hl7v2.FieldValue) string {
	out := ""
	for _, i := range []int{1, 2, 3} {
		if c := v.Component(i); c != "" {
			if out != "" {
				out += " "
			}
			out += c
		}
	}
	return out
}
