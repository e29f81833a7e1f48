package terminology

import (
	"context"

	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
)

// systemNames maps the coding system URIs the conversion engine emits
// to their registry names. The French OIDs come from the ANS
// identifier registry.
var systemNames = map[string]string{
	fhir.SystemINSNIR: "INS-NIR",
	fhir.SystemINSNIA: "INS-NIA",
	fhir.SystemRPPS:   "RPPS/ADELI",
	fhir.SystemFINESS: "FINESS",
	fhir.SystemCCAM:   "CCAM",
	fhir.SystemLOINC:  "LOINC",
	fhir.SystemSNOMED: "SNOMED CT",
	fhir.SystemICD10:  "ICD-10",
	fhir.SystemUCUM:   "UCUM",
}

// Static validates against the embedded system table only. It has no
// per-code knowledge: a non-empty code in a known system passes. This
// keeps offline conversions permissive rather than dropping codings a
// server could have confirmed.
type Static struct{}

// NewStatic returns the embedded provider.
func NewStatic() *Static { return &Static{} }

func (*Static) Lookup(_ context.Context, system, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	_, known := systemNames[system]
	return known, nil
}

func (*Static) SystemName(system string) string {
	return systemNames[system]
}
