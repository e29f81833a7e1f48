package mapper

import (
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/hl7v2"
)

// MapCoverage builds a FHIR Coverage from an IN1 segment. It returns
// nil unless a plan id, an insurer id or an insured name is present.
//
// The subscriber id is taken from the IN1-36 policy number. Legacy
// feeds that leave IN1-36 empty but fill the insured-name field fall
// back to its first component; that component is the insured's family
// name in the IN1 layout, so the fallback is kept only for
// compatibility with those feeds and is expected to be retired.
func MapCoverage(in1 hl7v2.Segment, patientRef string) *fhir.Coverage {
	planID := in1.Field(2).First().Component(1)
	insurerID := in1.Field(3).First().Component(1)
	insurerName := firstSubcomponent(in1.Field(4).First(), 1)
	insuredName := in1.Field(16).First().Component(1)
	policyNumber := in1.Field(36).First().String()

	if planID == "" && insurerID == "" && insuredName == "" {
		return nil
	}

	cov := &fhir.Coverage{
		ResourceType: "Coverage",
		Status:       "active",
		Beneficiary:  fhir.Reference{Reference: patientRef, Type: "Patient"},
	}

	if planID != "" {
		cov.Type = mapCodeableConcept(in1.Field(2).First())
		cov.Class = []fhir.CoverageClass{{
			Type: fhir.CodeableConcept{
				Coding: []fhir.Coding{{
					System: "http://terminology.hl7.org/CodeSystem/coverage-class",
					Code:   "plan",
				}},
			},
			Value: planID,
		}}
	}

	if policyNumber != "" {
		cov.SubscriberID = policyNumber
		cov.Identifier = []fhir.Identifier{{Value: policyNumber}}
	} else if insuredName != "" {
		cov.SubscriberID = insuredName
	}

	if insurerID != "" || insurerName != "" {
		payor := fhir.Reference{Display: insurerName, Type: "Organization"}
		if insurerID != "" {
			payor.Identifier = &fhir.Identifier{Value: insurerID}
		}
		cov.Payor = []fhir.Reference{payor}
	}

	start := FormatDate(in1.Field(12).First().String())
	end := FormatDate(in1.Field(13).First().String())
	if start != "" || end != "" {
		cov.Period = &fhir.Period{Start: start, End: end}
	}

	return cov
}
