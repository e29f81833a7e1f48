package mapper

import (
	"encoding/json"
	"testing"
)

func TestMapObservationNumericValue(t *testing.T) {
	obx := segment(t, "OBX|1|NM|8867-4^Heart rate^LN||72|/min^per minute|||||F|||20240326100615")
	obs := MapObservation(obx, patientRef)
	if obs == nil {
		t.Fatal("expected an observation")
	}

	if obs.Status != "final" {
		t.Errorf("expected final, got %s", obs.Status)
	}
	if len(obs.Code.Coding) != 1 || obs.Code.Coding[0].Code != "8867-4" {
		t.Errorf("unexpected code: %+v", obs.Code)
	}
	if obs.Code.Coding[0].System != "http://loinc.org" {
		t.Errorf("expected LOINC system, got %s", obs.Code.Coding[0].System)
	}
	q := obs.ValueQuantity
	if q == nil || q.Value == nil || *q.Value != 72 || q.Unit != "/min" {
		t.Errorf("unexpected quantity: %+v", q)
	}
	if q.System == "" {
		t.Error("expected UCUM system on a unit-bearing quantity")
	}
	if obs.EffectiveDateTime != "2024-03-26T10:06:15" {
		t.Errorf("unexpected effective: %s", obs.EffectiveDateTime)
	}
}

func TestMapObservationStructuredNumeric(t *testing.T) {
	obx := segment(t, "OBX|1|SN|2093-3^Cholesterol^LN||<^5.2|mmol/L")
	obs := MapObservation(obx, patientRef)
	if obs == nil {
		t.Fatal("expected an observation")
	}
	q := obs.ValueQuantity
	if q == nil || q.Value == nil || *q.Value != 5.2 || q.Comparator != "<" {
		t.Errorf("unexpected quantity: %+v", q)
	}
}

func TestMapObservationZeroValueSurvivesMarshal(t *testing.T) {
	obx := segment(t, "OBX|1|NM|8310-5^Temperature^LN||0|Cel")
	obs := MapObservation(obx, patientRef)
	if obs == nil {
		t.Fatal("expected an observation")
	}
	q := obs.ValueQuantity
	if q == nil || q.Value == nil || *q.Value != 0 {
		t.Fatalf("expected a zero-valued quantity, got %+v", q)
	}

	raw, err := json.Marshal(obs)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	vq, ok := m["valueQuantity"].(map[string]any)
	if !ok {
		t.Fatalf("missing valueQuantity: %s", raw)
	}
	if v, ok := vq["value"].(float64); !ok || v != 0 {
		t.Errorf("measured zero lost in marshaling: %s", raw)
	}
}

func TestMapObservationNonNumericFallsBackToString(t *testing.T) {
	obx := segment(t, "OBX|1|NM|X^Y||POSITIF")
	obs := MapObservation(obx, patientRef)
	if obs == nil {
		t.Fatal("expected an observation")
	}
	if obs.ValueQuantity != nil {
		t.Errorf("non-numeric NM should not yield a quantity: %+v", obs.ValueQuantity)
	}
	if obs.ValueString != "POSITIF" {
		t.Errorf("expected string fallback, got %q", obs.ValueString)
	}
}

func TestMapObservationCodedValue(t *testing.T) {
	obx := segment(t, "OBX|1|CE|X^Y||260385009^Negative^SCT")
	obs := MapObservation(obx, patientRef)
	if obs == nil {
		t.Fatal("expected an observation")
	}
	cc := obs.ValueCodeableConcept
	if cc == nil || len(cc.Coding) != 1 || cc.Coding[0].Code != "260385009" {
		t.Errorf("unexpected coded value: %+v", cc)
	}
	if cc.Coding[0].System != "http://snomed.info/sct" {
		t.Errorf("expected SNOMED system, got %s", cc.Coding[0].System)
	}
}

func TestMapObservationTextValue(t *testing.T) {
	obx := segment(t, "OBX|1|ST|X^Y||Bruit au poumon droit|||||||")
	obs := MapObservation(obx, patientRef)
	if obs == nil {
		t.Fatal("expected an observation")
	}
	if obs.ValueString != "Bruit au poumon droit" {
		t.Errorf("unexpected value: %q", obs.ValueString)
	}
}

func TestMapObservationAbsent(t *testing.T) {
	if obs := MapObservation(segment(t, "OBX|1|ST"), patientRef); obs != nil {
		t.Errorf("expected nil observation, got %+v", obs)
	}
}

func TestMapCondition(t *testing.T) {
	dg1 := segment(t, "DG1|1||I10^Hypertension essentielle^I10||20230115")
	cond := MapCondition(dg1, patientRef, "urn:uuid:enc-1")
	if cond == nil {
		t.Fatal("expected a condition")
	}
	if cond.Code.Coding[0].System != "http://hl7.org/fhir/sid/icd-10" {
		t.Errorf("expected ICD-10 system, got %s", cond.Code.Coding[0].System)
	}
	if cond.Encounter == nil || cond.Encounter.Reference != "urn:uuid:enc-1" {
		t.Errorf("unexpected encounter ref: %+v", cond.Encounter)
	}
	if cond.OnsetDateTime != "2023-01-15" {
		t.Errorf("unexpected onset: %s", cond.OnsetDateTime)
	}
	if cond.ClinicalStatus == nil || cond.ClinicalStatus.Coding[0].Code != "active" {
		t.Errorf("unexpected clinical status: %+v", cond.ClinicalStatus)
	}
}

func TestMapConditionDescriptionOnly(t *testing.T) {
	cond := MapCondition(segment(t, "DG1|1|||Douleur thoracique"), patientRef, "")
	if cond == nil {
		t.Fatal("expected a condition")
	}
	if cond.Code.Text != "Douleur thoracique" {
		t.Errorf("unexpected text: %q", cond.Code.Text)
	}
	if cond.Encounter != nil {
		t.Errorf("expected no encounter ref, got %+v", cond.Encounter)
	}
}

func TestMapConditionAbsent(t *testing.T) {
	if cond := MapCondition(segment(t, "DG1|1"), patientRef, ""); cond != nil {
		t.Errorf("expected nil condition, got %+v", cond)
	}
}

func TestMapProcedure(t *testing.T) {
	pr1 := segment(t, "PR1|1||DZEA003^Coronarographie^CCAM||20240326")
	proc := MapProcedure(pr1, patientRef, "urn:uuid:enc-1")
	if proc == nil {
		t.Fatal("expected a procedure")
	}
	if proc.Status != "completed" {
		t.Errorf("expected completed, got %s", proc.Status)
	}
	if proc.Code.Coding[0].System != "urn:oid:1.2.250.1.213.2.5" {
		t.Errorf("expected CCAM system, got %s", proc.Code.Coding[0].System)
	}
	if proc.PerformedDateTime != "2024-03-26" {
		t.Errorf("unexpected performed: %s", proc.PerformedDateTime)
	}
}

func TestMapProcedureAbsent(t *testing.T) {
	if proc := MapProcedure(segment(t, "PR1|1"), patientRef, ""); proc != nil {
		t.Errorf("expected nil procedure, got %+v", proc)
	}
}

func TestMapAllergyIntolerance(t *testing.T) {
	al1 := segment(t, "AL1|1|DA|70618^Penicilline|SV|Urticaire")
	allergy := MapAllergyIntolerance(al1, patientRef)
	if allergy == nil {
		t.Fatal("expected an allergy")
	}
	if len(allergy.Category) != 1 || allergy.Category[0] != "medication" {
		t.Errorf("unexpected category: %v", allergy.Category)
	}
	if len(allergy.Reaction) != 1 {
		t.Fatalf("expected 1 reaction, got %d", len(allergy.Reaction))
	}
	r := allergy.Reaction[0]
	if r.Severity != "severe" {
		t.Errorf("expected severe, got %s", r.Severity)
	}
	if len(r.Manifestation) != 1 || r.Manifestation[0].Text != "Urticaire" {
		t.Errorf("unexpected manifestation: %+v", r.Manifestation)
	}
}

func TestMapAllergyNoReactionWithoutManifestation(t *testing.T) {
	allergy := MapAllergyIntolerance(segment(t, "AL1|1|FA|123^Arachide|MO"), patientRef)
	if allergy == nil {
		t.Fatal("expected an allergy")
	}
	if len(allergy.Reaction) != 0 {
		t.Errorf("severity alone should not create a reaction: %+v", allergy.Reaction)
	}
	if allergy.Category[0] != "food" {
		t.Errorf("unexpected category: %v", allergy.Category)
	}
}

func TestMapAllergyAbsent(t *testing.T) {
	if allergy := MapAllergyIntolerance(segment(t, "AL1|1|DA"), patientRef); allergy != nil {
		t.Errorf("expected nil allergy, got %+v", allergy)
	}
}
