package mapper

import (
	"strings"

	"github.com/fhirhub/fhirhub/internal/conversion/codes"
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/hl7v2"
)

// mapName converts one XPN repetition to a FHIR HumanName. A component
// holding several space-separated given names (the French compound
// first-name convention) is split into separate entries, deduplicated
// against names already collected.
func mapName(v hl7v2.FieldValue) *fhir.HumanName {
	family := firstSubcomponent(v, 1)
	given := v.Component(2)
	middle := v.Component(3)
	suffix := v.Component(4)
	prefix := v.Component(5)
	use := codes.NameUse.Translate(v.Component(7)).Code

	name := &fhir.HumanName{Family: family, Use: use}
	if given != "" {
		name.Given = append(name.Given, given)
	}
	for _, g := range strings.Fields(middle) {
		if !containsString(name.Given, g) {
			name.Given = append(name.Given, g)
		}
	}
	if prefix != "" {
		name.Prefix = []string{prefix}
	}
	if suffix != "" {
		name.Suffix = []string{suffix}
	}

	if name.Family == "" && len(name.Given) == 0 {
		return nil
	}
	return name
}

// mapNames converts every XPN repetition, keeping the richer entry when
// two repetitions collapse to the same family+use pair: an official
// name, or the one with strictly more given names, wins.
func mapNames(reps []hl7v2.FieldValue) []fhir.HumanName {
	var names []fhir.HumanName
	for _, rep := range reps {
		n := mapName(rep)
		if n == nil {
			continue
		}
		replaced := false
		for i := range names {
			if names[i].Family == n.Family && names[i].Use == n.Use {
				if len(n.Given) > len(names[i].Given) {
					names[i] = *n
				}
				replaced = true
				break
			}
		}
		if !replaced {
			names = append(names, *n)
		}
	}
	return names
}

// mapAddress converts one XAD repetition to a FHIR Address. Empty
// repetitions yield nil.
func mapAddress(v hl7v2.FieldValue) *fhir.Address {
	if v.IsEmpty() {
		return nil
	}

	addr := &fhir.Address{
		City:       v.Component(3),
		State:      v.Component(4),
		PostalCode: v.Component(5),
		Country:    v.Component(6),
		District:   v.Component(9),
	}
	for _, c := range []string{firstSubcomponent(v, 1), v.Component(2)} {
		if c != "" {
			addr.Line = append(addr.Line, c)
		}
	}

	if len(addr.Line) == 0 && addr.City == "" && addr.State == "" &&
		addr.PostalCode == "" && addr.Country == "" && addr.District == "" {
		return nil
	}

	addr.Use = codes.AddressUse.Translate(v.Component(7)).Code
	addr.Type = codes.AddressType.Translate(v.Component(7)).Code
	return addr
}

func mapAddresses(reps []hl7v2.FieldValue) []fhir.Address {
	var out []fhir.Address
	for _, rep := range reps {
		if a := mapAddress(rep); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// mapTelecom converts one XTN repetition to a FHIR ContactPoint.
// The value is the phone number in component 1 or, for internet
// equipment, the address in component 4.
func mapTelecom(v hl7v2.FieldValue, defaultUse string) *fhir.ContactPoint {
	value := v.Component(1)
	if value == "" {
		value = v.Component(4)
	}
	if value == "" {
		return nil
	}

	use := defaultUse
	if code := v.Component(2); code != "" {
		use = codes.ContactPointUse.Translate(code).Code
	}

	return &fhir.ContactPoint{
		System: codes.ContactPointSystem.Translate(v.Component(3)).Code,
		Value:  value,
		Use:    use,
	}
}

func mapTelecoms(reps []hl7v2.FieldValue, defaultUse string) []fhir.ContactPoint {
	var out []fhir.ContactPoint
	for _, rep := range reps {
		if t := mapTelecom(rep, defaultUse); t != nil {
			out = append(out, *t)
		}
	}
	return out
}

// mapCodeableConcept converts a CE/CWE value (code^text^system) to a
// FHIR CodeableConcept. Both code and text absent yields nil.
func mapCodeableConcept(v hl7v2.FieldValue) *fhir.CodeableConcept {
	code := v.Component(1)
	text := v.Component(2)
	system := v.Component(3)
	if code == "" && text == "" {
		return nil
	}

	cc := &fhir.CodeableConcept{Text: text}
	if code != "" {
		cc.Coding = []fhir.Coding{{
			System:  codingSystemURI(system),
			Code:    code,
			Display: text,
		}}
	}
	return cc
}

// codingSystemURI resolves an HL7 coding system name to a canonical
// URI. Well-known names map to their FHIR systems; raw OIDs become
// urn:oid: URIs; anything else passes through.
func codingSystemURI(name string) string {
	switch strings.ToUpper(name) {
	case "":
		return ""
	case "LN", "LOINC":
		return fhir.SystemLOINC
	case "SCT", "SNM", "SNOMED", "SNOMED-CT":
		return fhir.SystemSNOMED
	case "I10", "ICD10", "ICD-10":
		return fhir.SystemICD10
	case "CCAM":
		return fhir.SystemCCAM
	case "UCUM":
		return fhir.SystemUCUM
	}
	if isOID(name) {
		return "urn:oid:" + name
	}
	return name
}

// isOID reports whether s looks like a dotted OID.
func isOID(s string) bool {
	if s == "" {
		return false
	}
	dotted := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
		case s[i] == '.':
			dotted = true
		default:
			return false
		}
	}
	return dotted && s[0] != '.' && s[len(s)-1] != '.'
}

// firstSubcomponent returns component i reduced to its first
// subcomponent, for fields where trailing subcomponents carry
// assigning-authority noise rather than user data.
func firstSubcomponent(v hl7v2.FieldValue, i int) string {
	if sub := v.Subcomponent(i, 1); sub != "" {
		return sub
	}
	return v.Component(i)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
