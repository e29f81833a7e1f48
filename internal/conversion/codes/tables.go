// Package codes provides the static HL7 v2 to FHIR code translation
// tables. Every table is immutable, carries an explicit default, and is
// safe for unlimited concurrent readers; no table depends on the remote
// terminology service.
package codes

import fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"

// Mapping is one translated code: the FHIR code, its display text and
// the code system it belongs to.
type Mapping struct {
	Code    string
	Display string
	System  string
}

// Table maps HL7 v2 codes to FHIR codings. Lookup never fails: unmapped
// input yields the table's default, or the raw code passed through as
// both code and display for pass-through tables.
type Table struct {
	name        string
	entries     map[string]Mapping
	def         Mapping
	absentDef   *Mapping
	passthrough bool
}

// Name returns the table's identifier, used in logs and tests.
func (t Table) Name() string {
	return t.name
}

// Translate resolves an HL7 code. Absent or unrecognized codes return
// the default; pass-through tables echo the raw code instead.
func (t Table) Translate(hl7Code string) Mapping {
	if hl7Code == "" {
		if t.absentDef != nil {
			return *t.absentDef
		}
		return t.def
	}
	if m, ok := t.entries[hl7Code]; ok {
		return m
	}
	if t.passthrough {
		return Mapping{Code: hl7Code, Display: hl7Code, System: t.def.System}
	}
	return t.def
}

// Known reports whether the code has an explicit entry.
func (t Table) Known(hl7Code string) bool {
	_, ok := t.entries[hl7Code]
	return ok
}

// Gender translates HL7 administrative sex (table 0001) to FHIR
// administrative gender.
var Gender = Table{
	name: "gender",
	entries: map[string]Mapping{
		"M": {Code: "male", Display: "Male"},
		"F": {Code: "female", Display: "Female"},
		"O": {Code: "other", Display: "Other"},
		"A": {Code: "other", Display: "Other"},
		"U": {Code: "unknown", Display: "Unknown"},
		"N": {Code: "unknown", Display: "Unknown"},
	},
	def: Mapping{Code: "unknown", Display: "Unknown"},
}

// NameUse translates HL7 name type codes (table 0200) to FHIR name use.
var NameUse = Table{
	name: "name-use",
	entries: map[string]Mapping{
		"L": {Code: "official", Display: "Official"},
		"D": {Code: "usual", Display: "Usual"},
		"M": {Code: "maiden", Display: "Maiden"},
		"N": {Code: "nickname", Display: "Nickname"},
		"S": {Code: "anonymous", Display: "Anonymous"},
		"T": {Code: "temp", Display: "Temp"},
		"A": {Code: "nickname", Display: "Nickname"},
	},
	def: Mapping{Code: "official", Display: "Official"},
}

// AddressUse translates HL7 address type (table 0190) to FHIR address use.
var AddressUse = Table{
	name: "address-use",
	entries: map[string]Mapping{
		"H":  {Code: "home", Display: "Home"},
		"L":  {Code: "home", Display: "Home"},
		"B":  {Code: "work", Display: "Work"},
		"O":  {Code: "work", Display: "Work"},
		"C":  {Code: "temp", Display: "Temporary"},
		"BA": {Code: "old", Display: "Old"},
	},
	def: Mapping{Code: "home", Display: "Home"},
}

// AddressType translates HL7 address type to FHIR postal/physical/both.
var AddressType = Table{
	name: "address-type",
	entries: map[string]Mapping{
		"M":  {Code: "postal", Display: "Postal"},
		"SH": {Code: "postal", Display: "Postal"},
		"BR": {Code: "physical", Display: "Physical"},
		"F":  {Code: "physical", Display: "Physical"},
	},
	def: Mapping{Code: "both", Display: "Postal & Physical"},
}

// ContactPointSystem translates HL7 telecommunication equipment type
// (table 0202). Unknown equipment maps to other; an absent equipment
// code means a plain phone number.
var ContactPointSystem = Table{
	name: "contact-point-system",
	entries: map[string]Mapping{
		"PH":       {Code: "phone", Display: "Phone"},
		"CP":       {Code: "phone", Display: "Phone"},
		"FX":       {Code: "fax", Display: "Fax"},
		"BP":       {Code: "pager", Display: "Pager"},
		"Internet": {Code: "email", Display: "Email"},
		"X.400":    {Code: "email", Display: "Email"},
		"MD":       {Code: "other", Display: "Other"},
		"TDD":      {Code: "other", Display: "Other"},
	},
	def:       Mapping{Code: "other", Display: "Other"},
	absentDef: &Mapping{Code: "phone", Display: "Phone"},
}

// ContactPointUse translates HL7 telecommunication use (table 0201).
var ContactPointUse = Table{
	name: "contact-point-use",
	entries: map[string]Mapping{
		"PRN": {Code: "home", Display: "Home"},
		"ORN": {Code: "temp", Display: "Temp"},
		"VHN": {Code: "temp", Display: "Temp"},
		"WPN": {Code: "work", Display: "Work"},
		"ASN": {Code: "work", Display: "Work"},
		"PRS": {Code: "mobile", Display: "Mobile"},
		"NET": {Code: "home", Display: "Home"},
	},
	def: Mapping{Code: "home", Display: "Home"},
}

// EncounterClass translates HL7 patient class (table 0004) to the FHIR
// v3-ActCode encounter class.
var EncounterClass = Table{
	name: "encounter-class",
	entries: map[string]Mapping{
		"I": {Code: "IMP", Display: "inpatient encounter", System: fhir.SystemActCode},
		"O": {Code: "AMB", Display: "ambulatory", System: fhir.SystemActCode},
		"E": {Code: "EMER", Display: "emergency", System: fhir.SystemActCode},
		"P": {Code: "PRENC", Display: "pre-admission", System: fhir.SystemActCode},
		"R": {Code: "AMB", Display: "ambulatory", System: fhir.SystemActCode},
		"B": {Code: "AMB", Display: "ambulatory", System: fhir.SystemActCode},
		"N": {Code: "NONAC", Display: "inpatient non-acute", System: fhir.SystemActCode},
	},
	def: Mapping{Code: "IMP", Display: "inpatient encounter", System: fhir.SystemActCode},
}

// Relationship translates the next-of-kin relationship codes the engine
// recognizes (HL7 table 0063 subset) to FHIR v3-RoleCode. Anything else
// passes through untouched; the RelatedPerson mapper only emits codings
// for explicitly known values.
var Relationship = Table{
	name: "relationship",
	entries: map[string]Mapping{
		"SPO": {Code: "SPS", Display: "spouse", System: fhir.SystemRoleCode},
		"PTR": {Code: "DOMPART", Display: "domestic partner", System: fhir.SystemRoleCode},
		"CHD": {Code: "CHILD", Display: "child", System: fhir.SystemRoleCode},
		"GRD": {Code: "GUARD", Display: "guardian", System: fhir.SystemRoleCode},
		"PAR": {Code: "PRN", Display: "parent", System: fhir.SystemRoleCode},
		"SIB": {Code: "SIB", Display: "sibling", System: fhir.SystemRoleCode},
	},
	def:         Mapping{System: fhir.SystemRoleCode},
	passthrough: true,
}

// IdentifierType supplies display text for HL7 identifier type codes
// (table 0203). Unknown codes pass through.
var IdentifierType = Table{
	name: "identifier-type",
	entries: map[string]Mapping{
		"PI":   {Code: "PI", Display: "Patient internal identifier", System: fhir.SystemIdentifierType},
		"MR":   {Code: "MR", Display: "Medical record number", System: fhir.SystemIdentifierType},
		"NI":   {Code: "NI", Display: "National unique individual identifier", System: fhir.SystemIdentifierType},
		"INS":  {Code: "NI", Display: "National unique individual identifier", System: fhir.SystemIdentifierType},
		"PPN":  {Code: "PPN", Display: "Passport number", System: fhir.SystemIdentifierType},
		"SS":   {Code: "SS", Display: "Social security number", System: fhir.SystemIdentifierType},
		"RI":   {Code: "RI", Display: "Resource identifier", System: fhir.SystemIdentifierType},
		"RPPS": {Code: "RPPS", Display: "National professional identifier", System: fhir.SystemIdentifierType},
		"ADELI": {Code: "ADELI", Display: "National professional identifier", System: fhir.SystemIdentifierType},
	},
	def:         Mapping{System: fhir.SystemIdentifierType},
	passthrough: true,
}

// RoleType translates HL7 provider role codes (table 0443) used in ROL
// segments. Unknown codes pass through as both code and display.
var RoleType = Table{
	name: "role-type",
	entries: map[string]Mapping{
		"AD": {Code: "AD", Display: "Admitting provider", System: fhir.SystemProviderRole},
		"AT": {Code: "AT", Display: "Attending provider", System: fhir.SystemProviderRole},
		"CP": {Code: "CP", Display: "Consulting provider", System: fhir.SystemProviderRole},
		"PP": {Code: "PP", Display: "Primary care provider", System: fhir.SystemProviderRole},
		"RP": {Code: "RP", Display: "Referring provider", System: fhir.SystemProviderRole},
		"RT": {Code: "RT", Display: "Referred to provider", System: fhir.SystemProviderRole},
		"FHCP": {Code: "FHCP", Display: "Family health care professional", System: fhir.SystemProviderRole},
	},
	def:         Mapping{System: fhir.SystemProviderRole},
	passthrough: true,
}

// ObservationStatus translates HL7 result status (OBX-11, table 0085).
var ObservationStatus = Table{
	name: "observation-status",
	entries: map[string]Mapping{
		"F": {Code: "final", Display: "Final"},
		"P": {Code: "preliminary", Display: "Preliminary"},
		"C": {Code: "corrected", Display: "Corrected"},
		"X": {Code: "cancelled", Display: "Cancelled"},
		"D": {Code: "entered-in-error", Display: "Entered in error"},
		"W": {Code: "entered-in-error", Display: "Entered in error"},
	},
	def: Mapping{Code: "final", Display: "Final"},
}
