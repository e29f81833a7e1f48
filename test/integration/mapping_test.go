// Package integration contains end-to-end tests for the conversion
// engine: a full French ADT message in, a complete FHIR transaction
// bundle out.
package integration

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fhirhub/fhirhub/internal/conversion"
	"github.com/fhirhub/fhirhub/pkg/idempotency"
)

// seg builds a pipe-delimited segment with values at the given 1-based
// field positions.
func seg(name string, fields map[int]string) string {
	max := 0
	for i := range fields {
		if i > max {
			max = i
		}
	}
	parts := make([]string, max+1)
	parts[0] = name
	for i, v := range fields {
		parts[i] = v
	}
	return strings.Join(parts, "|")
}

// admissionMessage is a representative ADT^A01 as produced by a French
// hospital information system: INS patient identity, inpatient visit,
// attending with an RPPS number, next of kin, AMO coverage, vitals, a
// coded diagnosis, a CCAM procedure and a drug allergy.
func admissionMessage() string {
	return strings.Join([]string{
		"MSH|^~\\&|SIH|HOPITAL NORD|INTEROP|CLINIQUE SUD|20240326100000||ADT^A01|MSG00042|P|2.5",
		"PID|1||278036512345678^^^INS-NIR&1.2.250.1.213.1.4.8&ISO^INS~7812345^^^SIH^PI||DUPONT^JEANNE^MARIE^^^^L||19780312|F|||12 RUE DE LA PAIX^^PARIS^^75002^FRA^H||0612345678^PRN^CP",
		seg("PV1", map[int]string{1: "1", 2: "I", 3: "CARDIO^201^A", 19: "VN2024001", 44: "20240326093000"}),
		"ROL|1|AD|AT^Medecin traitant|10003719000^MARTIN^SOPHIE^^^DR^^^RPPS&1.2.250.1.71.4.2.1&ISO",
		"ROL|2|AD|OD|999^DUPOND^ALAIN^^^^^^HOPITAL-SUD&1.2.250.1.71.4.2.2&ISO",
		"NK1|1|DURAND^PAUL|SPO^Epoux|5 RUE DU BAC^^PARIS^^75007|0611111111",
		seg("IN1", map[int]string{1: "1", 2: "AMO^Assurance Maladie Obligatoire", 36: "POL123456"}),
		"OBX|1|NM|8867-4^Heart rate^LN||72|/min^per minute|||||F|||20240326100615",
		"OBX|2|ST|X^Observation||Bruit au poumon droit",
		"DG1|1||I10^Hypertension essentielle^I10||20230115",
		"PR1|1||DZEA003^Coronarographie^CCAM||20240326",
		"AL1|1|DA|70618^Penicilline|SV|Urticaire",
	}, "\r")
}

func fixedEngine() *conversion.Engine {
	return conversion.NewEngine(conversion.WithClock(func() time.Time {
		return time.Date(2024, 3, 26, 10, 0, 0, 0, time.UTC)
	}))
}

func resourcesByType(t *testing.T, res *conversion.Result) map[string][]map[string]any {
	t.Helper()
	entries, ok := res.Bundle["entry"].([]any)
	if !ok {
		t.Fatalf("bundle has no entries")
	}
	out := map[string][]map[string]any{}
	for _, e := range entries {
		entry := e.(map[string]any)
		resource := entry["resource"].(map[string]any)
		rt := resource["resourceType"].(string)
		out[rt] = append(out[rt], resource)
	}
	return out
}

func TestAdmissionMessageProducesFullBundle(t *testing.T) {
	res, err := fixedEngine().Convert(admissionMessage())
	if err != nil {
		t.Fatal(err)
	}

	if res.MessageType != "ADT^A01" {
		t.Errorf("unexpected message type: %s", res.MessageType)
	}
	if res.ControlID != "MSG00042" {
		t.Errorf("unexpected control id: %s", res.ControlID)
	}

	byType := resourcesByType(t, res)
	want := map[string]int{
		"Patient":            1,
		"Encounter":          1,
		"Practitioner":       2,
		"PractitionerRole":   2,
		"RelatedPerson":      1,
		"Coverage":           1,
		"Observation":        2,
		"Condition":          1,
		"Procedure":          1,
		"AllergyIntolerance": 1,
	}
	for rt, n := range want {
		if got := len(byType[rt]); got != n {
			t.Errorf("expected %d %s resources, got %d", n, rt, got)
		}
	}
	// MSH-4 and MSH-6 facilities plus the ROL assigning authority.
	if got := len(byType["Organization"]); got < 3 {
		t.Errorf("expected at least 3 organizations, got %d", got)
	}
}

func TestAdmissionMessageIdentifierSystems(t *testing.T) {
	res, err := fixedEngine().Convert(admissionMessage())
	if err != nil {
		t.Fatal(err)
	}
	byType := resourcesByType(t, res)

	patient := byType["Patient"][0]
	identifiers := patient["identifier"].([]any)
	foundINS := false
	for _, i := range identifiers {
		id := i.(map[string]any)
		if id["system"] == "urn:oid:1.2.250.1.213.1.4.8" && id["value"] == "278036512345678" {
			foundINS = true
		}
	}
	if !foundINS {
		t.Errorf("patient is missing the INS-NIR identifier: %v", identifiers)
	}

	foundRPPS := false
	for _, p := range byType["Practitioner"] {
		ids, _ := p["identifier"].([]any)
		for _, i := range ids {
			id := i.(map[string]any)
			if id["system"] == "urn:oid:1.2.250.1.71.4.2.1" && id["value"] == "10003719000" {
				foundRPPS = true
			}
		}
	}
	if !foundRPPS {
		t.Error("no practitioner carries the RPPS identifier")
	}

	proc := byType["Procedure"][0]
	coding := proc["code"].(map[string]any)["coding"].([]any)[0].(map[string]any)
	if coding["system"] != "urn:oid:1.2.250.1.213.2.5" || coding["code"] != "DZEA003" {
		t.Errorf("unexpected procedure coding: %v", coding)
	}
}

func TestAdmissionMessageReferenceIntegrity(t *testing.T) {
	res, err := fixedEngine().Convert(admissionMessage())
	if err != nil {
		t.Fatal(err)
	}

	entries := res.Bundle["entry"].([]any)
	fullURLs := map[string]string{}
	for _, e := range entries {
		entry := e.(map[string]any)
		resource := entry["resource"].(map[string]any)
		fullURLs[entry["fullUrl"].(string)] = resource["resourceType"].(string)
	}

	// Every reference in the bundle must resolve to an entry fullUrl.
	var check func(path string, v any)
	check = func(path string, v any) {
		switch node := v.(type) {
		case map[string]any:
			if ref, ok := node["reference"].(string); ok {
				if _, found := fullURLs[ref]; !found {
					t.Errorf("%s: dangling reference %s", path, ref)
				}
			}
			for k, child := range node {
				check(path+"."+k, child)
			}
		case []any:
			for i, child := range node {
				check(fmt.Sprintf("%s[%d]", path, i), child)
			}
		}
	}
	check("bundle", res.Bundle)
}

func TestAdmissionMessageDeterministicReplay(t *testing.T) {
	e := fixedEngine()

	first, err := e.Convert(admissionMessage())
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Convert(admissionMessage())
	if err != nil {
		t.Fatal(err)
	}

	a, _ := json.Marshal(first.Bundle)
	b, _ := json.Marshal(second.Bundle)
	if string(a) != string(b) {
		t.Error("replaying the same message produced a different bundle")
	}
}

func TestIdempotencyKeyTracksContent(t *testing.T) {
	msg := []byte(admissionMessage())

	k1 := idempotency.GenerateKey("file-ingester", "adm_042.hl7", msg)
	k2 := idempotency.GenerateKey("file-ingester", "adm_042.hl7", msg)
	if k1 != k2 {
		t.Error("same source, name and content must yield the same key")
	}

	if k := idempotency.GenerateKey("file-ingester", "adm_043.hl7", msg); k == k1 {
		t.Error("a different file name must yield a different key")
	}
	if k := idempotency.GenerateKey("file-ingester", "adm_042.hl7", []byte("MSH|other")); k == k1 {
		t.Error("different content must yield a different key")
	}
}
