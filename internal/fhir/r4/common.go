// Package r4 provides FHIR R4 data structures for the HL7 conversion engine.
//
// Dates and instants are carried as strings because HL7 source values have
// no time zone; formatting is the mappers' responsibility.
package r4

// Identifier represents a FHIR Identifier.
type Identifier struct {
	Use      string           `json:"use,omitempty"` // usual | official | temp | secondary | old
	Type     *CodeableConcept `json:"type,omitempty"`
	System   string           `json:"system,omitempty"`
	Value    string           `json:"value,omitempty"`
	Period   *Period          `json:"period,omitempty"`
	Assigner *Reference       `json:"assigner,omitempty"`
}

// CodeableConcept represents a concept with text and codings.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Coding represents a code from a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Version string `json:"version,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// Reference represents a reference to another resource.
type Reference struct {
	Reference  string      `json:"reference,omitempty"`
	Type       string      `json:"type,omitempty"`
	Identifier *Identifier `json:"identifier,omitempty"`
	Display    string      `json:"display,omitempty"`
}

// Period represents a time period with FHIR dateTime bounds.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Quantity represents a measured amount. Value is a pointer so a
// measured zero survives marshaling.
type Quantity struct {
	Value      *float64 `json:"value,omitempty"`
	Comparator string   `json:"comparator,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	System     string   `json:"system,omitempty"`
	Code       string   `json:"code,omitempty"`
}

// HumanName represents a human name.
type HumanName struct {
	Use    string   `json:"use,omitempty"` // usual | official | temp | nickname | anonymous | old | maiden
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
	Suffix []string `json:"suffix,omitempty"`
	Period *Period  `json:"period,omitempty"`
}

// Address represents a postal address.
type Address struct {
	Use        string   `json:"use,omitempty"`  // home | work | temp | old | billing
	Type       string   `json:"type,omitempty"` // postal | physical | both
	Text       string   `json:"text,omitempty"`
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	District   string   `json:"district,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
	Period     *Period  `json:"period,omitempty"`
}

// ContactPoint represents a contact detail.
type ContactPoint struct {
	System string  `json:"system,omitempty"` // phone | fax | email | pager | url | sms | other
	Value  string  `json:"value,omitempty"`
	Use    string  `json:"use,omitempty"` // home | work | temp | old | mobile
	Rank   int     `json:"rank,omitempty"`
	Period *Period `json:"period,omitempty"`
}

// Annotation represents a note or comment.
type Annotation struct {
	AuthorString string `json:"authorString,omitempty"`
	Time         string `json:"time,omitempty"`
	Text         string `json:"text"`
}

// OperationOutcome represents errors and warnings from FHIR operations.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

// OperationOutcomeIssue represents a single issue in an OperationOutcome.
type OperationOutcomeIssue struct {
	Severity    string           `json:"severity"` // fatal | error | warning | information
	Code        string           `json:"code"`
	Details     *CodeableConcept `json:"details,omitempty"`
	Diagnostics string           `json:"diagnostics,omitempty"`
}

// NewErrorOutcome creates an OperationOutcome with a single error issue.
func NewErrorOutcome(code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{Severity: "error", Code: code, Diagnostics: diagnostics},
		},
	}
}

// Standard terminology systems.
const (
	SystemIdentifierType = "http://terminology.hl7.org/CodeSystem/v2-0203"
	SystemProviderRole   = "http://terminology.hl7.org/CodeSystem/v2-0443"
	SystemDegree         = "http://terminology.hl7.org/CodeSystem/v2-0360"
	SystemActCode        = "http://terminology.hl7.org/CodeSystem/v3-ActCode"
	SystemRoleCode       = "http://terminology.hl7.org/CodeSystem/v3-RoleCode"
	SystemSNOMED         = "http://snomed.info/sct"
	SystemLOINC          = "http://loinc.org"
	SystemICD10          = "http://hl7.org/fhir/sid/icd-10"
	SystemUCUM           = "http://unitsofmeasure.org"
)

// French national identifier systems (ANS conventions). INS identifiers
// carry the national OIDs; RPPS and ADELI identify health professionals,
// FINESS identifies facilities.
const (
	SystemINSNIR = "urn:oid:1.2.250.1.213.1.4.8"
	SystemINSNIA = "urn:oid:1.2.250.1.213.1.4.9"
	// RPPS and ADELI share the national professional identifier namespace.
	SystemRPPS   = "urn:oid:1.2.250.1.71.4.2.1"
	SystemADELI  = SystemRPPS
	SystemFINESS = "urn:oid:1.2.250.1.71.4.2.2"
	SystemCCAM   = "urn:oid:1.2.250.1.213.2.5"
)
