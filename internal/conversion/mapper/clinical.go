package mapper

import (
	"strconv"
	"strings"

	"github.com/fhirhub/fhirhub/internal/conversion/codes"
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/hl7v2"
)

// MapObservation builds a FHIR Observation from an OBX segment. The
// value type code (OBX-2) selects the FHIR value[x] representation:
// NM/SN become a quantity, CE a codeable concept, everything else a
// string. A segment with neither code nor value yields nil.
func MapObservation(obx hl7v2.Segment, patientRef string) *fhir.Observation {
	code := mapCodeableConcept(obx.Field(3).First())
	value := obx.Field(5).First()
	if code == nil && value.IsEmpty() {
		return nil
	}

	obs := &fhir.Observation{
		ResourceType:      "Observation",
		Status:            codes.ObservationStatus.Translate(obx.Field(11).First().String()).Code,
		Subject:           &fhir.Reference{Reference: patientRef, Type: "Patient"},
		EffectiveDateTime: FormatDateTime(obx.Field(14).First().String()),
	}
	if code != nil {
		obs.Code = *code
	}

	valueType := strings.ToUpper(obx.Field(2).First().String())
	unit := obx.Field(6).First().Component(1)

	switch valueType {
	case "NM", "SN":
		if q := mapQuantity(value, unit); q != nil {
			obs.ValueQuantity = q
		} else if !value.IsEmpty() {
			obs.ValueString = value.String()
		}
	case "CE", "CWE":
		obs.ValueCodeableConcept = mapCodeableConcept(value)
	default:
		if !value.IsEmpty() {
			obs.ValueString = value.String()
		}
	}

	return obs
}

// mapQuantity parses an NM or SN value. The SN layout puts a
// comparator in the first component and the number in the second.
func mapQuantity(v hl7v2.FieldValue, unit string) *fhir.Quantity {
	num := v.Component(1)
	if f, err := strconv.ParseFloat(num, 64); err == nil {
		return &fhir.Quantity{Value: &f, Unit: unit, System: quantitySystem(unit)}
	}

	// SN: <comparator>^<num1>
	comparator := num
	if f, err := strconv.ParseFloat(v.Component(2), 64); err == nil {
		return &fhir.Quantity{
			Value:      &f,
			Comparator: comparator,
			Unit:       unit,
			System:     quantitySystem(unit),
		}
	}
	return nil
}

func quantitySystem(unit string) string {
	if unit == "" {
		return ""
	}
	return fhir.SystemUCUM
}

// MapCondition builds a FHIR Condition from a DG1 segment. It returns
// nil when the segment has neither a diagnosis code nor a description.
func MapCondition(dg1 hl7v2.Segment, patientRef, encounterRef string) *fhir.Condition {
	code := mapCodeableConcept(dg1.Field(3).First())
	description := dg1.Field(4).First().String()
	if code == nil && description == "" {
		return nil
	}
	if code == nil {
		code = &fhir.CodeableConcept{Text: description}
	} else if code.Text == "" {
		code.Text = description
	}

	cond := &fhir.Condition{
		ResourceType: "Condition",
		Code:         code,
		Subject:      fhir.Reference{Reference: patientRef, Type: "Patient"},
		ClinicalStatus: &fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System: "http://terminology.hl7.org/CodeSystem/condition-clinical",
				Code:   "active",
			}},
		},
		OnsetDateTime: FormatDateTime(dg1.Field(5).First().String()),
	}
	if encounterRef != "" {
		cond.Encounter = &fhir.Reference{Reference: encounterRef, Type: "Encounter"}
	}
	return cond
}

// MapProcedure builds a FHIR Procedure from a PR1 segment. It returns
// nil when no procedure code is present.
func MapProcedure(pr1 hl7v2.Segment, patientRef, encounterRef string) *fhir.Procedure {
	code := mapCodeableConcept(pr1.Field(3).First())
	if code == nil {
		return nil
	}
	if code.Text == "" {
		code.Text = pr1.Field(4).First().String()
	}

	proc := &fhir.Procedure{
		ResourceType:      "Procedure",
		Status:            "completed",
		Code:              code,
		Subject:           fhir.Reference{Reference: patientRef, Type: "Patient"},
		PerformedDateTime: FormatDateTime(pr1.Field(5).First().String()),
	}
	if encounterRef != "" {
		proc.Encounter = &fhir.Reference{Reference: encounterRef, Type: "Encounter"}
	}
	return proc
}

// allergyCategories maps AL1-2 allergen type codes to FHIR categories.
var allergyCategories = map[string]string{
	"DA": "medication",
	"MA": "medication",
	"FA": "food",
	"EA": "environment",
	"AA": "environment",
	"PA": "environment",
	"LA": "environment",
}

// allergySeverities maps AL1-4 severity codes to FHIR reaction
// severity.
var allergySeverities = map[string]string{
	"SV": "severe",
	"MO": "moderate",
	"MI": "mild",
	"U":  "",
}

// MapAllergyIntolerance builds a FHIR AllergyIntolerance from an AL1
// segment. It returns nil when the allergen field carries neither a
// code nor a description.
func MapAllergyIntolerance(al1 hl7v2.Segment, patientRef string) *fhir.AllergyIntolerance {
	code := mapCodeableConcept(al1.Field(3).First())
	if code == nil {
		return nil
	}

	allergy := &fhir.AllergyIntolerance{
		ResourceType: "AllergyIntolerance",
		Code:         code,
		Patient:      fhir.Reference{Reference: patientRef, Type: "Patient"},
		ClinicalStatus: &fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System: "http://terminology.hl7.org/CodeSystem/allergyintolerance-clinical",
				Code:   "active",
			}},
		},
	}

	if cat, ok := allergyCategories[strings.ToUpper(al1.Field(2).First().Component(1))]; ok {
		allergy.Category = []string{cat}
	}

	severity := allergySeverities[strings.ToUpper(al1.Field(4).First().Component(1))]
	if reaction := al1.Field(5).First().String(); reaction != "" || severity != "" {
		r := fhir.AllergyIntoleranceReaction{Severity: severity}
		if reaction != "" {
			r.Manifestation = []fhir.CodeableConcept{{Text: reaction}}
		}
		if len(r.Manifestation) > 0 {
			allergy.Reaction = []fhir.AllergyIntoleranceReaction{r}
		}
	}

	return allergy
}
