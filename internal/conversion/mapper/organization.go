package mapper

import (
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/hl7v2"
)

// MapFacilityOrganizations builds Organizations from the MSH sending
// (MSH-4) and receiving (MSH-6) facilities. Facilities without a name
// are skipped; the assembler deduplicates by derived id.
func MapFacilityOrganizations(msh hl7v2.Segment) []*fhir.Organization {
	var out []*fhir.Organization
	for _, i := range []int{4, 6} {
		if org := mapFacility(msh.Field(i).First()); org != nil {
			out = append(out, org)
		}
	}
	return out
}

// mapFacility converts an HD value (namespace&universalID&type) to an
// Organization keyed by its namespace identifier, or by a normalized
// form of the name when no universal id is declared.
func mapFacility(v hl7v2.FieldValue) *fhir.Organization {
	name := firstSubcomponent(v, 1)
	if name == "" {
		return nil
	}
	universalID := v.Subcomponent(1, 2)
	if universalID == "" {
		universalID = v.Component(2)
	}

	org := &fhir.Organization{
		ResourceType: "Organization",
		Name:         name,
	}
	if universalID != "" {
		system := ""
		if isOID(universalID) {
			system = fhir.SystemFINESS
		}
		org.Identifier = []fhir.Identifier{{System: system, Value: universalID}}
	}
	return org
}

// OrganizationKey derives the dedup identity for an organization: the
// explicit namespace identifier when present, else the normalized name.
func OrganizationKey(org *fhir.Organization) string {
	if len(org.Identifier) > 0 && org.Identifier[0].Value != "" {
		return normalizeToken(org.Identifier[0].Value)
	}
	return normalizeToken(org.Name)
}
