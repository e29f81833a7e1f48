package mapper

import "testing"

func TestMapRelatedPersonCodedRelationship(t *testing.T) {
	nk1 := segment(t, "NK1|1|DURAND^MARIE|SPO^Epouse|5 RUE DU BAC^^PARIS^^75007|0611111111")
	rp := MapRelatedPerson(nk1, patientRef)
	if rp == nil {
		t.Fatal("expected a related person")
	}

	if len(rp.Name) != 1 || rp.Name[0].Family != "DURAND" {
		t.Errorf("unexpected name: %+v", rp.Name)
	}
	if len(rp.Relationship) != 1 {
		t.Fatalf("expected a relationship coding, got %+v", rp.Relationship)
	}
	coding := rp.Relationship[0].Coding[0]
	if coding.Code != "SPS" {
		t.Errorf("expected SPS, got %s", coding.Code)
	}
	if len(rp.Address) != 1 || rp.Address[0].City != "PARIS" {
		t.Errorf("unexpected address: %+v", rp.Address)
	}
	if len(rp.Telecom) != 1 || rp.Telecom[0].Value != "0611111111" {
		t.Errorf("unexpected telecom: %+v", rp.Telecom)
	}
}

func TestMapRelatedPersonSpelledOutRelationship(t *testing.T) {
	rp := MapRelatedPerson(segment(t, "NK1|1|DURAND^PAUL|^CONJOINT"), patientRef)
	if rp == nil {
		t.Fatal("expected a related person")
	}
	if len(rp.Relationship) != 1 || rp.Relationship[0].Coding[0].Code != "DOMPART" {
		t.Errorf("expected the partner coding, got %+v", rp.Relationship)
	}
}

func TestMapRelatedPersonUnknownRelationshipOmitted(t *testing.T) {
	rp := MapRelatedPerson(segment(t, "NK1|1|DURAND^LUC|XXX^Voisin"), patientRef)
	if rp == nil {
		t.Fatal("expected a related person")
	}
	if len(rp.Relationship) != 0 {
		t.Errorf("unrecognized relationship should be left uncoded: %+v", rp.Relationship)
	}
}

func TestMapRelatedPersonAbsent(t *testing.T) {
	if rp := MapRelatedPerson(segment(t, "NK1|1||SPO"), patientRef); rp != nil {
		t.Errorf("expected nil related person, got %+v", rp)
	}
}
