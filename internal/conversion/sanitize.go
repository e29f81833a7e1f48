package conversion

// Sanitize prunes a marshaled resource (or bundle) of the hollow
// structures HL7 mapping tends to leave behind: empty strings, empty
// arrays and objects, and list entries that lost their payload field.
// It mutates and returns its argument and is idempotent, so callers
// may run it on already-sanitized documents.
func Sanitize(doc map[string]any) map[string]any {
	sanitizeMap(doc)
	return doc
}

// entryRequirements lists, per containing key, the fields at least one
// of which a list entry must keep to survive. A name without family or
// given, or an identifier without a value, carries no information.
var entryRequirements = map[string][]string{
	"name":       {"family", "given"},
	"address":    {"line", "city", "district", "state", "postalCode"},
	"telecom":    {"value"},
	"identifier": {"value"},
	"coding":     {"system", "code"},
	"payor":      {"display", "identifier", "reference"},
}

// defaultCountry is the country every domestic feed stamps on its
// addresses; alone it says nothing about where the patient lives.
const defaultCountry = "FRA"

// genericQualifications are degree codes that state no actual
// qualification. An entry whose codings are all generic is dropped.
var genericQualifications = map[string]struct{}{
	"UNK": {},
	"NI":  {},
	"NA":  {},
}

func sanitizeMap(m map[string]any) {
	for k, v := range m {
		switch t := v.(type) {
		case map[string]any:
			sanitizeMap(t)
			if len(t) == 0 {
				delete(m, k)
			}
		case []any:
			s := sanitizeSlice(k, t)
			if len(s) == 0 {
				delete(m, k)
			} else {
				m[k] = s
			}
		case string:
			if t == "" && k != "resourceType" && k != "id" {
				delete(m, k)
			}
		case nil:
			delete(m, k)
		}
	}
}

func sanitizeSlice(key string, s []any) []any {
	required := entryRequirements[key]
	out := s[:0]
	for _, v := range s {
		switch t := v.(type) {
		case map[string]any:
			sanitizeMap(t)
			if len(t) == 0 {
				continue
			}
			if !hasAny(t, required) && !foreignAddress(key, t) {
				continue
			}
			if key == "qualification" && genericQualification(t) {
				continue
			}
			out = append(out, t)
		case string:
			if t == "" {
				continue
			}
			out = append(out, t)
		case nil:
			continue
		default:
			out = append(out, v)
		}
	}
	return out
}

// foreignAddress reports whether an address entry that lost all its
// significant fields still locates the patient: a non-default country
// together with a use code.
func foreignAddress(key string, m map[string]any) bool {
	if key != "address" {
		return false
	}
	country, _ := m["country"].(string)
	if country == "" || country == defaultCountry {
		return false
	}
	_, hasUse := m["use"]
	return hasUse
}

// genericQualification reports whether every coding of a qualification
// entry is on the generic-code list.
func genericQualification(m map[string]any) bool {
	code, ok := m["code"].(map[string]any)
	if !ok {
		return true
	}
	codings, ok := code["coding"].([]any)
	if !ok || len(codings) == 0 {
		_, hasText := code["text"]
		return !hasText
	}
	for _, c := range codings {
		coding, ok := c.(map[string]any)
		if !ok {
			continue
		}
		value, _ := coding["code"].(string)
		if _, generic := genericQualifications[value]; !generic && value != "" {
			return false
		}
	}
	return true
}

// hasAny reports whether the entry kept at least one of the required
// fields after pruning. An empty requirement list keeps everything.
func hasAny(m map[string]any, keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
