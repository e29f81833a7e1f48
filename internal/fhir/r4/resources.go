package r4

// Patient is the FHIR Patient resource.
type Patient struct {
	ResourceType string         `json:"resourceType"`
	ID           string         `json:"id,omitempty"`
	Identifier   []Identifier   `json:"identifier,omitempty"`
	Name         []HumanName    `json:"name,omitempty"`
	Telecom      []ContactPoint `json:"telecom,omitempty"`
	Gender       string         `json:"gender,omitempty"` // male | female | other | unknown
	BirthDate    string         `json:"birthDate,omitempty"`
	Address      []Address      `json:"address,omitempty"`
}

// Practitioner is the FHIR Practitioner resource.
type Practitioner struct {
	ResourceType  string                      `json:"resourceType"`
	ID            string                      `json:"id,omitempty"`
	Identifier    []Identifier                `json:"identifier,omitempty"`
	Name          []HumanName                 `json:"name,omitempty"`
	Telecom       []ContactPoint              `json:"telecom,omitempty"`
	Address       []Address                   `json:"address,omitempty"`
	Qualification []PractitionerQualification `json:"qualification,omitempty"`
}

// PractitionerQualification is a certification or training entry.
type PractitionerQualification struct {
	Identifier []Identifier    `json:"identifier,omitempty"`
	Code       CodeableConcept `json:"code"`
	Period     *Period         `json:"period,omitempty"`
}

// PractitionerRole links a practitioner to an organization and encounter
// context with a role code.
type PractitionerRole struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id,omitempty"`
	Identifier   []Identifier      `json:"identifier,omitempty"`
	Practitioner *Reference        `json:"practitioner,omitempty"`
	Organization *Reference        `json:"organization,omitempty"`
	Code         []CodeableConcept `json:"code,omitempty"`
	Period       *Period           `json:"period,omitempty"`
}

// Organization is the FHIR Organization resource.
type Organization struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id,omitempty"`
	Identifier   []Identifier      `json:"identifier,omitempty"`
	Name         string            `json:"name,omitempty"`
	Type         []CodeableConcept `json:"type,omitempty"`
	Telecom      []ContactPoint    `json:"telecom,omitempty"`
	Address      []Address         `json:"address,omitempty"`
}

// RelatedPerson is a person related to the patient (next of kin).
type RelatedPerson struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id,omitempty"`
	Identifier   []Identifier      `json:"identifier,omitempty"`
	Patient      Reference         `json:"patient"`
	Relationship []CodeableConcept `json:"relationship,omitempty"`
	Name         []HumanName       `json:"name,omitempty"`
	Telecom      []ContactPoint    `json:"telecom,omitempty"`
	Address      []Address         `json:"address,omitempty"`
}

// Encounter is the FHIR Encounter resource.
type Encounter struct {
	ResourceType string                  `json:"resourceType"`
	ID           string                  `json:"id,omitempty"`
	Identifier   []Identifier            `json:"identifier,omitempty"`
	Status       string                  `json:"status,omitempty"` // planned | in-progress | finished | ...
	Class        Coding                  `json:"class,omitempty"`
	Type         []CodeableConcept       `json:"type,omitempty"`
	Subject      *Reference              `json:"subject,omitempty"`
	Participant  []EncounterParticipant  `json:"participant,omitempty"`
	Period       *Period                 `json:"period,omitempty"`
	Hospitalization *EncounterHospitalization `json:"hospitalization,omitempty"`
	Location     []EncounterLocation     `json:"location,omitempty"`
}

// EncounterParticipant links a practitioner to the encounter.
type EncounterParticipant struct {
	Type       []CodeableConcept `json:"type,omitempty"`
	Individual *Reference        `json:"individual,omitempty"`
}

// EncounterHospitalization carries admission details.
type EncounterHospitalization struct {
	AdmitSource          *CodeableConcept `json:"admitSource,omitempty"`
	DischargeDisposition *CodeableConcept `json:"dischargeDisposition,omitempty"`
}

// EncounterLocation places the encounter in a physical location.
type EncounterLocation struct {
	Location Reference `json:"location"`
	Status   string    `json:"status,omitempty"`
}

// Coverage is the FHIR Coverage resource (insurance).
type Coverage struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id,omitempty"`
	Identifier   []Identifier      `json:"identifier,omitempty"`
	Status       string            `json:"status,omitempty"`
	Type         *CodeableConcept  `json:"type,omitempty"`
	SubscriberID string            `json:"subscriberId,omitempty"`
	Beneficiary  Reference         `json:"beneficiary"`
	Period       *Period           `json:"period,omitempty"`
	Payor        []Reference       `json:"payor,omitempty"`
	Class        []CoverageClass   `json:"class,omitempty"`
}

// CoverageClass identifies the plan or group.
type CoverageClass struct {
	Type  CodeableConcept `json:"type"`
	Value string          `json:"value"`
	Name  string          `json:"name,omitempty"`
}

// Observation is the FHIR Observation resource.
type Observation struct {
	ResourceType         string           `json:"resourceType"`
	ID                   string           `json:"id,omitempty"`
	Identifier           []Identifier     `json:"identifier,omitempty"`
	Status               string           `json:"status,omitempty"`
	Code                 CodeableConcept  `json:"code"`
	Subject              *Reference       `json:"subject,omitempty"`
	Encounter            *Reference       `json:"encounter,omitempty"`
	EffectiveDateTime    string           `json:"effectiveDateTime,omitempty"`
	ValueQuantity        *Quantity        `json:"valueQuantity,omitempty"`
	ValueString          string           `json:"valueString,omitempty"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept,omitempty"`
	Note                 []Annotation     `json:"note,omitempty"`
}

// Condition is the FHIR Condition resource (diagnosis).
type Condition struct {
	ResourceType       string            `json:"resourceType"`
	ID                 string            `json:"id,omitempty"`
	Identifier         []Identifier      `json:"identifier,omitempty"`
	ClinicalStatus     *CodeableConcept  `json:"clinicalStatus,omitempty"`
	VerificationStatus *CodeableConcept  `json:"verificationStatus,omitempty"`
	Category           []CodeableConcept `json:"category,omitempty"`
	Code               *CodeableConcept  `json:"code,omitempty"`
	Subject            Reference         `json:"subject"`
	Encounter          *Reference        `json:"encounter,omitempty"`
	OnsetDateTime      string            `json:"onsetDateTime,omitempty"`
	RecordedDate       string            `json:"recordedDate,omitempty"`
}

// Procedure is the FHIR Procedure resource.
type Procedure struct {
	ResourceType      string           `json:"resourceType"`
	ID                string           `json:"id,omitempty"`
	Identifier        []Identifier     `json:"identifier,omitempty"`
	Status            string           `json:"status,omitempty"`
	Code              *CodeableConcept `json:"code,omitempty"`
	Subject           Reference        `json:"subject"`
	Encounter         *Reference       `json:"encounter,omitempty"`
	PerformedDateTime string           `json:"performedDateTime,omitempty"`
}

// AllergyIntolerance is the FHIR AllergyIntolerance resource.
type AllergyIntolerance struct {
	ResourceType string                       `json:"resourceType"`
	ID           string                       `json:"id,omitempty"`
	Identifier   []Identifier                 `json:"identifier,omitempty"`
	ClinicalStatus *CodeableConcept           `json:"clinicalStatus,omitempty"`
	Category     []string                     `json:"category,omitempty"` // food | medication | environment | biologic
	Criticality  string                       `json:"criticality,omitempty"`
	Code         *CodeableConcept             `json:"code,omitempty"`
	Patient      Reference                    `json:"patient"`
	Reaction     []AllergyIntoleranceReaction `json:"reaction,omitempty"`
}

// AllergyIntoleranceReaction describes an adverse reaction event.
type AllergyIntoleranceReaction struct {
	Manifestation []CodeableConcept `json:"manifestation"`
	Severity      string            `json:"severity,omitempty"` // mild | moderate | severe
}
