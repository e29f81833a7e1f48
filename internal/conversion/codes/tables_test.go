package codes

import "testing"

func TestGenderTable(t *testing.T) {
	tests := []struct {
		hl7  string
		want string
	}{
		{"M", "male"},
		{"F", "female"},
		{"O", "other"},
		{"A", "other"},
		{"U", "unknown"},
		{"N", "unknown"},
		{"", "unknown"},
		{"Z", "unknown"},
	}

	for _, tt := range tests {
		if got := Gender.Translate(tt.hl7).Code; got != tt.want {
			t.Errorf("gender %q: expected %s, got %s", tt.hl7, tt.want, got)
		}
	}
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		table Table
		want  string
	}{
		{NameUse, "official"},
		{AddressUse, "home"},
		{AddressType, "both"},
		{ContactPointUse, "home"},
		{EncounterClass, "IMP"},
	}

	for _, tt := range tests {
		if got := tt.table.Translate("NOPE").Code; got != tt.want {
			t.Errorf("%s: expected default %s for unknown code, got %s", tt.table.Name(), tt.want, got)
		}
		if got := tt.table.Translate("").Code; got != tt.want {
			t.Errorf("%s: expected default %s for absent code, got %s", tt.table.Name(), tt.want, got)
		}
	}
}

func TestContactPointSystemDefaults(t *testing.T) {
	// Unknown equipment type maps to other; an absent equipment code
	// means a plain phone number.
	if got := ContactPointSystem.Translate("XYZ").Code; got != "other" {
		t.Errorf("unknown equipment: expected other, got %s", got)
	}
	if got := ContactPointSystem.Translate("").Code; got != "phone" {
		t.Errorf("absent equipment: expected phone, got %s", got)
	}
	if got := ContactPointSystem.Translate("FX").Code; got != "fax" {
		t.Errorf("FX: expected fax, got %s", got)
	}
}

func TestPassthroughTables(t *testing.T) {
	m := Relationship.Translate("XCUSTOM")
	if m.Code != "XCUSTOM" || m.Display != "XCUSTOM" {
		t.Errorf("relationship passthrough: got %+v", m)
	}

	m = IdentifierType.Translate("ZZZ")
	if m.Code != "ZZZ" || m.Display != "ZZZ" {
		t.Errorf("identifier-type passthrough: got %+v", m)
	}
	if m.System == "" {
		t.Error("identifier-type passthrough should keep the v2-0203 system")
	}

	m = RoleType.Translate("CUSTODIAN")
	if m.Code != "CUSTODIAN" || m.Display != "CUSTODIAN" {
		t.Errorf("role-type passthrough: got %+v", m)
	}
}

func TestKnownRelationships(t *testing.T) {
	tests := map[string]string{
		"SPO": "SPS",
		"PTR": "DOMPART",
		"CHD": "CHILD",
		"GRD": "GUARD",
		"PAR": "PRN",
		"SIB": "SIB",
	}
	for hl7, want := range tests {
		if !Relationship.Known(hl7) {
			t.Errorf("expected %s to be a known relationship", hl7)
		}
		if got := Relationship.Translate(hl7).Code; got != want {
			t.Errorf("relationship %s: expected %s, got %s", hl7, want, got)
		}
	}
	if Relationship.Known("FND") {
		t.Error("FND should not be a known relationship")
	}
}
