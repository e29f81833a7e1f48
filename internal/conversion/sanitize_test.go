package conversion

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSanitizeDropsHollowStructures(t *testing.T) {
	doc := map[string]any{
		"resourceType": "Patient",
		"id":           "abc",
		"gender":       "",
		"name": []any{
			map[string]any{"use": "official"},
			map[string]any{"family": "DOE", "given": []any{"JOHN", ""}},
		},
		"address": []any{
			map[string]any{"use": "home", "type": "both"},
		},
		"identifier": []any{
			map[string]any{"system": "urn:oid:1.2.3", "value": ""},
			map[string]any{"value": "123"},
		},
		"maritalStatus": map[string]any{"coding": []any{map[string]any{"display": "Marié"}}},
	}

	got := Sanitize(doc)

	want := map[string]any{
		"resourceType": "Patient",
		"id":           "abc",
		"name": []any{
			map[string]any{"family": "DOE", "given": []any{"JOHN"}},
		},
		"identifier": []any{
			map[string]any{"value": "123"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected result:\ngot  %v\nwant %v", got, want)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	doc := map[string]any{
		"resourceType": "Patient",
		"name": []any{
			map[string]any{"family": "DOE", "use": ""},
			map[string]any{"use": "maiden"},
		},
		"telecom": []any{map[string]any{"system": "phone"}},
	}

	once := Sanitize(doc)
	first, _ := json.Marshal(once)
	second, _ := json.Marshal(Sanitize(once))
	if string(first) != string(second) {
		t.Errorf("sanitizing twice changed the document:\nfirst  %s\nsecond %s", first, second)
	}
}

func TestSanitizeAddressCountryException(t *testing.T) {
	doc := map[string]any{
		"resourceType": "Patient",
		"address": []any{
			map[string]any{"use": "home", "country": "FRA"},
			map[string]any{"use": "home", "country": "BEL"},
			map[string]any{"country": "BEL"},
		},
	}

	got := Sanitize(doc)

	want := map[string]any{
		"resourceType": "Patient",
		"address": []any{
			map[string]any{"use": "home", "country": "BEL"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected result:\ngot  %v\nwant %v", got, want)
	}
}

func TestSanitizeDropsGenericQualifications(t *testing.T) {
	doc := map[string]any{
		"resourceType": "Practitioner",
		"qualification": []any{
			map[string]any{"code": map[string]any{"coding": []any{
				map[string]any{"system": "http://terminology.hl7.org/CodeSystem/v2-0360", "code": "UNK"},
			}}},
			map[string]any{"code": map[string]any{"coding": []any{
				map[string]any{"system": "http://terminology.hl7.org/CodeSystem/v2-0360", "code": "MD"},
			}}},
		},
	}

	got := Sanitize(doc)

	quals, ok := got["qualification"].([]any)
	if !ok || len(quals) != 1 {
		t.Fatalf("expected 1 surviving qualification, got %v", got["qualification"])
	}
	coding := quals[0].(map[string]any)["code"].(map[string]any)["coding"].([]any)[0].(map[string]any)
	if coding["code"] != "MD" {
		t.Errorf("wrong qualification survived: %v", coding)
	}
}

func TestSanitizeKeepsNumbersAndBooleans(t *testing.T) {
	doc := map[string]any{
		"resourceType":  "Observation",
		"valueQuantity": map[string]any{"value": float64(0), "unit": "mg"},
		"active":        false,
	}
	got := Sanitize(doc)
	if _, ok := got["valueQuantity"]; !ok {
		t.Error("a zero-valued quantity is still a value")
	}
	if _, ok := got["active"]; !ok {
		t.Error("false is still a value")
	}
}
