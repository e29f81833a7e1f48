// Package conversion turns HL7 v2.5 messages into FHIR R4 transaction
// bundles. The engine tokenizes the message, maps each supported
// segment through the mapper package, assembles a patient-first bundle
// with urn:uuid fullUrls, and sanitizes the marshaled output.
package conversion

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fhirhub/fhirhub/internal/conversion/mapper"
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/hl7v2"
)

// Engine converts HL7 v2.5 messages. The zero options give a
// deterministic engine: the same message always yields the same
// bundle, ids included.
type Engine struct {
	ids   IDGenerator
	clock func() time.Time
	log   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides the resource id derivation.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock overrides the bundle timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.clock = fn }
}

// WithLogger attaches a logger for per-message mapping diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an engine with deterministic ids, the system
// clock and a no-op logger.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		ids:   DeterministicIDs(),
		clock: time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one conversion.
type Result struct {
	MessageType   string         `json:"messageType"`
	ControlID     string         `json:"controlId"`
	ResourceCount int            `json:"resourceCount"`
	Bundle        map[string]any `json:"bundle"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// Convert maps one raw HL7 message to a FHIR transaction bundle.
// Unmappable segments are skipped with a warning on the result; the
// conversion fails only when the message itself is unusable: empty,
// headerless, or without a mappable patient.
func (e *Engine) Convert(raw string) (*Result, error) {
	msg := hl7v2.Tokenize(raw)
	if len(msg.Segments) == 0 {
		return nil, ErrEmptyMessage
	}
	header, ok := msg.Header()
	if !ok {
		return nil, ErrNoHeader
	}

	controlID := header.Field(10).First().String()
	res := &Result{
		MessageType: messageType(header),
		ControlID:   controlID,
	}
	if controlID == "" {
		res.warn("MSH-10 is empty, resource ids derive from an empty control id")
	}

	pid, hasPID := msg.Segment("PID")
	if !hasPID {
		return nil, ErrNoSubject
	}
	patient := mapper.MapPatient(pid)
	if patient == nil {
		return nil, ErrNoSubject
	}

	a := &assembler{
		engine:    e,
		result:    res,
		controlID: controlID,
		bundle: fhir.NewTransactionBundle(
			e.ids.BundleID(controlID),
			e.clock().UTC().Format(time.RFC3339),
		),
		orgRefs:  map[string]string{},
		pracRefs: map[string]string{},
	}

	patientRef := a.add(patient, "Patient", patientKey(patient), &patient.ID)

	encounterRef := a.addEncounter(msg, patientRef)
	a.addOrganizations(msg)
	a.addPractitioners(msg, a.orgRefs)
	a.addSegments(msg, "NK1", func(s hl7v2.Segment, i int) (any, string, *string) {
		rp := mapper.MapRelatedPerson(s, patientRef)
		if rp == nil {
			return nil, "", nil
		}
		return rp, fmt.Sprintf("nk1:%d", i), &rp.ID
	}, "RelatedPerson")
	a.addSegments(msg, "IN1", func(s hl7v2.Segment, i int) (any, string, *string) {
		cov := mapper.MapCoverage(s, patientRef)
		if cov == nil {
			return nil, "", nil
		}
		// Keyed by position as well as policy number: two plans can
		// legitimately share a subscriber id, and each IN1 is its own
		// Coverage.
		return cov, fmt.Sprintf("in1:%d/%s", i, cov.SubscriberID), &cov.ID
	}, "Coverage")
	a.addSegments(msg, "OBX", func(s hl7v2.Segment, i int) (any, string, *string) {
		obs := mapper.MapObservation(s, patientRef)
		if obs == nil {
			return nil, "", nil
		}
		return obs, fmt.Sprintf("obx:%d", i), &obs.ID
	}, "Observation")
	a.addSegments(msg, "DG1", func(s hl7v2.Segment, i int) (any, string, *string) {
		cond := mapper.MapCondition(s, patientRef, encounterRef)
		if cond == nil {
			return nil, "", nil
		}
		return cond, fmt.Sprintf("dg1:%d", i), &cond.ID
	}, "Condition")
	a.addSegments(msg, "PR1", func(s hl7v2.Segment, i int) (any, string, *string) {
		proc := mapper.MapProcedure(s, patientRef, encounterRef)
		if proc == nil {
			return nil, "", nil
		}
		return proc, fmt.Sprintf("pr1:%d", i), &proc.ID
	}, "Procedure")
	a.addSegments(msg, "AL1", func(s hl7v2.Segment, i int) (any, string, *string) {
		allergy := mapper.MapAllergyIntolerance(s, patientRef)
		if allergy == nil {
			return nil, "", nil
		}
		return allergy, fmt.Sprintf("al1:%d", i), &allergy.ID
	}, "AllergyIntolerance")

	doc, err := marshalBundle(a.bundle)
	if err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}
	res.Bundle = Sanitize(doc)
	res.ResourceCount = len(a.bundle.Entry)

	e.log.Debug("message converted",
		zap.String("message_type", res.MessageType),
		zap.String("control_id", res.ControlID),
		zap.Int("resources", res.ResourceCount),
		zap.Int("warnings", len(res.Warnings)))

	return res, nil
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// messageType renders MSH-9 as code^trigger.
func messageType(header hl7v2.Segment) string {
	v := header.Field(9).First()
	code := v.Component(1)
	if trigger := v.Component(2); trigger != "" {
		return code + "^" + trigger
	}
	return code
}

// patientKey picks the natural key the patient id derives from: the
// first identifier value, which MapPatient guarantees unless the
// patient was matched on name alone.
func patientKey(p *fhir.Patient) string {
	if len(p.Identifier) > 0 {
		return p.Identifier[0].Value
	}
	return "pid"
}

// assembler accumulates bundle entries for one message, deduplicating
// organizations and practitioners across segments.
type assembler struct {
	engine    *Engine
	result    *Result
	controlID string
	bundle    *fhir.Bundle
	encounter *fhir.Encounter
	orgRefs   map[string]string
	pracRefs  map[string]string
}

// add assigns the resource its derived id, stores it back through
// idField, and appends the bundle entry. It returns the urn:uuid
// reference other resources use to point at this one.
func (a *assembler) add(resource any, resourceType, key string, idField *string) string {
	id := a.engine.ids.ResourceID(a.controlID, resourceType, key)
	*idField = id
	ref := "urn:uuid:" + id
	a.bundle.AddEntry(ref, resource, resourceType)
	return ref
}

func (a *assembler) addEncounter(msg *hl7v2.Message, patientRef string) string {
	pv1, ok := msg.Segment("PV1")
	if !ok {
		return ""
	}
	enc := mapper.MapEncounter(pv1, patientRef)
	if enc == nil {
		a.result.warn("PV1: no mappable content, skipped")
		return ""
	}
	key := "pv1"
	if len(enc.Identifier) > 0 {
		key = enc.Identifier[0].Value
	}
	// Kept for addPractitioners: ROL participants are appended before
	// the bundle is marshaled.
	a.encounter = enc
	return a.add(enc, "Encounter", key, &enc.ID)
}

// addOrganizations collects the MSH facilities and the assigning
// authority structures of every ROL practitioner, one entry per
// distinct derived key.
func (a *assembler) addOrganizations(msg *hl7v2.Message) {
	header, _ := msg.Header()
	orgs := mapper.MapFacilityOrganizations(header)
	for _, rol := range msg.All("ROL") {
		if org := mapper.MapRoleOrganization(rol); org != nil {
			orgs = append(orgs, org)
		}
	}
	for _, org := range orgs {
		key := mapper.OrganizationKey(org)
		if _, seen := a.orgRefs[key]; seen {
			continue
		}
		a.orgRefs[key] = a.add(org, "Organization", key, &org.ID)
	}
}

// addPractitioners maps every ROL segment to a Practitioner plus its
// PractitionerRole, and registers each role as an encounter
// participant. A practitioner repeated across ROL segments is emitted
// once; each ROL still contributes its own role.
func (a *assembler) addPractitioners(msg *hl7v2.Message, orgRefs map[string]string) {
	for _, rol := range msg.All("ROL") {
		prac := mapper.MapPractitioner(rol)
		if prac == nil {
			a.result.warn("ROL: practitioner needs an id and a name, skipped")
			continue
		}
		key := prac.Identifier[0].Value
		pracRef, seen := a.pracRefs[key]
		if !seen {
			pracRef = a.add(prac, "Practitioner", key, &prac.ID)
			a.pracRefs[key] = pracRef
		}

		orgRef := ""
		if org := mapper.MapRoleOrganization(rol); org != nil {
			orgRef = orgRefs[mapper.OrganizationKey(org)]
		}
		role := mapper.MapPractitionerRole(rol, pracRef, orgRef)
		if role == nil {
			continue
		}
		roleKey := key + "/" + role.Code[0].Coding[0].Code
		a.add(role, "PractitionerRole", roleKey, &role.ID)

		if a.encounter != nil {
			a.encounter.Participant = append(a.encounter.Participant, fhir.EncounterParticipant{
				Type:       role.Code,
				Individual: &fhir.Reference{Reference: pracRef, Type: "Practitioner"},
			})
		}
	}
}

// addSegments runs one mapper over every repetition of a segment,
// warning on those the mapper rejects.
func (a *assembler) addSegments(msg *hl7v2.Message, name string,
	fn func(hl7v2.Segment, int) (any, string, *string), resourceType string) {
	for i, s := range msg.All(name) {
		resource, key, idField := fn(s, i)
		if resource == nil {
			a.result.warn("%s: no mappable content, skipped", name)
			continue
		}
		a.add(resource, resourceType, key, idField)
	}
}

func marshalBundle(b *fhir.Bundle) (map[string]any, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
