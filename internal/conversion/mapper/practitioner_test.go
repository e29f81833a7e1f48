package mapper

import (
	"testing"

	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
)

func TestMapPractitionerRPPS(t *testing.T) {
	rol := segment(t, "ROL|1|AD|OD^Medecin|10003719000^MARTIN^SOPHIE^^^DR^^^RPPS&1.2.250.1.71.4.2.1&ISO")
	p := MapPractitioner(rol)
	if p == nil {
		t.Fatal("expected a practitioner")
	}

	id := p.Identifier[0]
	if id.Value != "10003719000" {
		t.Errorf("unexpected identifier value: %s", id.Value)
	}
	if id.System != fhir.SystemRPPS {
		t.Errorf("expected the RPPS system, got %s", id.System)
	}
	if id.Type.Coding[0].Code != "RPPS" {
		t.Errorf("expected RPPS type, got %s", id.Type.Coding[0].Code)
	}

	n := p.Name[0]
	if n.Family != "MARTIN" || len(n.Given) != 1 || n.Given[0] != "SOPHIE" {
		t.Errorf("unexpected name: %+v", n)
	}
	if len(n.Prefix) != 1 || n.Prefix[0] != "DR" {
		t.Errorf("unexpected prefix: %v", n.Prefix)
	}
}

func TestMapPractitionerDegree(t *testing.T) {
	p := MapPractitioner(segment(t, "ROL|1|AD|OD|10003719000^MARTIN^SOPHIE^^^^MD^^RPPS"))
	if p == nil {
		t.Fatal("expected a practitioner")
	}
	if len(p.Qualification) != 1 {
		t.Fatalf("expected 1 qualification, got %d", len(p.Qualification))
	}
	coding := p.Qualification[0].Code.Coding[0]
	if coding.System != fhir.SystemDegree || coding.Code != "MD" {
		t.Errorf("unexpected degree coding: %+v", coding)
	}

	p = MapPractitioner(segment(t, "ROL|1|AD|OD|10003719000^MARTIN^SOPHIE"))
	if len(p.Qualification) != 0 {
		t.Errorf("no degree component should yield no qualification")
	}
}

func TestMapPractitionerUnknownAuthority(t *testing.T) {
	p := MapPractitioner(segment(t, "ROL|1|AD|OD|999^DUPOND^ALAIN^^^^^^HOPITAL-SUD"))
	if p == nil {
		t.Fatal("expected a practitioner")
	}
	id := p.Identifier[0]
	if id.System != "" {
		t.Errorf("unknown authority should carry no system, got %s", id.System)
	}
	if id.Type.Coding[0].Code != "PRN" {
		t.Errorf("expected PRN type, got %s", id.Type.Coding[0].Code)
	}
}

func TestMapPractitionerRequiresIDAndName(t *testing.T) {
	tests := []string{
		"ROL|1|AD|OD|^MARTIN^SOPHIE",
		"ROL|1|AD|OD|10003719000",
		"ROL|1|AD|OD",
	}
	for _, line := range tests {
		if p := MapPractitioner(segment(t, line)); p != nil {
			t.Errorf("%s: expected nil practitioner, got %+v", line, p)
		}
	}
}

func TestMapPractitionerRole(t *testing.T) {
	rol := segment(t, "ROL|1|AD|AT^Medecin traitant|10003719000^MARTIN^SOPHIE|20240101|20241231")
	pr := MapPractitionerRole(rol, "urn:uuid:prac-1", "urn:uuid:org-1")
	if pr == nil {
		t.Fatal("expected a practitioner role")
	}

	if pr.Practitioner.Reference != "urn:uuid:prac-1" {
		t.Errorf("unexpected practitioner ref: %+v", pr.Practitioner)
	}
	if pr.Organization == nil || pr.Organization.Reference != "urn:uuid:org-1" {
		t.Errorf("unexpected organization ref: %+v", pr.Organization)
	}
	if pr.Code[0].Coding[0].Code != "AT" {
		t.Errorf("unexpected role code: %+v", pr.Code)
	}
	if pr.Code[0].Text != "Medecin traitant" {
		t.Errorf("unexpected role text: %q", pr.Code[0].Text)
	}
	if pr.Period == nil || pr.Period.Start != "2024-01-01" || pr.Period.End != "2024-12-31" {
		t.Errorf("unexpected period: %+v", pr.Period)
	}
}

func TestMapPractitionerRoleWithoutCode(t *testing.T) {
	rol := segment(t, "ROL|1|AD||10003719000^MARTIN^SOPHIE")
	if pr := MapPractitionerRole(rol, "urn:uuid:prac-1", ""); pr != nil {
		t.Errorf("expected nil role, got %+v", pr)
	}
}

func TestMapRoleOrganization(t *testing.T) {
	rol := segment(t, "ROL|1|AD|OD|999^DUPOND^ALAIN^^^^^^HOPITAL-SUD&1.2.250.1.71.4.2.2&ISO")
	org := MapRoleOrganization(rol)
	if org == nil {
		t.Fatal("expected an organization")
	}
	if org.Name != "HOPITAL-SUD" {
		t.Errorf("unexpected name: %s", org.Name)
	}
	if len(org.Identifier) != 1 || org.Identifier[0].Value != "1.2.250.1.71.4.2.2" {
		t.Errorf("unexpected identifier: %+v", org.Identifier)
	}
}

func TestMapRoleOrganizationSkipsRegistries(t *testing.T) {
	for _, line := range []string{
		"ROL|1|AD|OD|10003719000^MARTIN^SOPHIE^^^^^^RPPS",
		"ROL|1|AD|OD|751234567^DURAND^PAUL^^^^^^ADELI",
		"ROL|1|AD|OD|999^DUPOND^ALAIN",
	} {
		if org := MapRoleOrganization(segment(t, line)); org != nil {
			t.Errorf("%s: expected nil organization, got %+v", line, org)
		}
	}
}
