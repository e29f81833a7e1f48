package mapper

import (
	"strings"

	"github.com/fhirhub/fhirhub/internal/conversion/codes"
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/hl7v2"
)

// MapPractitioner builds a FHIR Practitioner from a ROL segment's
// role-person field (ROL-4, XCN). It returns nil unless both an
// identifier and at least one name component are present.
func MapPractitioner(rol hl7v2.Segment) *fhir.Practitioner {
	person := rol.Field(4).First()
	id := person.Component(1)
	family := firstSubcomponent(person, 2)
	given := person.Component(3)

	if id == "" || (family == "" && given == "") {
		return nil
	}

	name := fhir.HumanName{Use: "official", Family: family}
	if given != "" {
		name.Given = append(name.Given, given)
	}
	for _, g := range strings.Fields(person.Component(4)) {
		if !containsString(name.Given, g) {
			name.Given = append(name.Given, g)
		}
	}
	if prefix := person.Component(6); prefix != "" {
		name.Prefix = []string{prefix}
	}

	typeCode, system := practitionerIdentifierSystem(person)
	m := codes.IdentifierType.Translate(typeCode)

	p := &fhir.Practitioner{
		ResourceType: "Practitioner",
		Identifier: []fhir.Identifier{{
			Value:  id,
			System: system,
			Type: &fhir.CodeableConcept{
				Coding: []fhir.Coding{{System: m.System, Code: m.Code, Display: m.Display}},
			},
		}},
		Name: []fhir.HumanName{name},
	}

	// XCN-7 carries the degree; informationless codes are pruned later.
	if degree := person.Component(7); degree != "" {
		p.Qualification = []fhir.PractitionerQualification{{
			Code: fhir.CodeableConcept{
				Coding: []fhir.Coding{{System: fhir.SystemDegree, Code: degree}},
			},
		}}
	}
	return p
}

// practitionerIdentifierSystem recognizes the French professional
// registries from the XCN assigning authority (component 9).
func practitionerIdentifierSystem(person hl7v2.FieldValue) (typeCode, system string) {
	authority := strings.ToUpper(person.Subcomponent(9, 1))
	switch {
	case strings.Contains(authority, "RPPS"):
		return "RPPS", fhir.SystemRPPS
	case strings.Contains(authority, "ADELI"):
		return "ADELI", fhir.SystemADELI
	default:
		return "PRN", ""
	}
}

// MapPractitionerRole builds the PractitionerRole for a ROL segment's
// practitioner, linked to the assigning-authority organization when one
// exists. It returns nil when ROL-3 declares no role code.
func MapPractitionerRole(rol hl7v2.Segment, practitionerRef, orgRef string) *fhir.PractitionerRole {
	role := rol.Field(3).First()
	code := role.Component(1)
	if code == "" {
		return nil
	}

	m := codes.RoleType.Translate(code)
	text := role.Component(2)
	if text == "" {
		text = m.Display
	}

	pr := &fhir.PractitionerRole{
		ResourceType: "PractitionerRole",
		Practitioner: &fhir.Reference{Reference: practitionerRef, Type: "Practitioner"},
		Code: []fhir.CodeableConcept{{
			Coding: []fhir.Coding{{System: m.System, Code: m.Code, Display: m.Display}},
			Text:   text,
		}},
	}
	if orgRef != "" {
		pr.Organization = &fhir.Reference{Reference: orgRef, Type: "Organization"}
	}

	start := FormatDateTime(rol.Field(5).First().String())
	end := FormatDateTime(rol.Field(6).First().String())
	if start != "" || end != "" {
		pr.Period = &fhir.Period{Start: start, End: end}
	}
	return pr
}

// MapRoleOrganization builds an Organization from the assigning
// authority namespace of the ROL practitioner (XCN component 9). Feeds
// that scope practitioner ids to a structure name this way get one
// Organization per distinct namespace.
func MapRoleOrganization(rol hl7v2.Segment) *fhir.Organization {
	person := rol.Field(4).First()
	name := person.Subcomponent(9, 1)
	if name == "" || strings.EqualFold(name, "RPPS") || strings.EqualFold(name, "ADELI") {
		// National registries are identifier namespaces, not facilities.
		return nil
	}

	org := &fhir.Organization{ResourceType: "Organization", Name: name}
	if universalID := person.Subcomponent(9, 2); universalID != "" {
		system := ""
		if isOID(universalID) {
			system = fhir.SystemFINESS
		}
		org.Identifier = []fhir.Identifier{{System: system, Value: universalID}}
	}
	return org
}
