package ingest

import "testing"

func TestOutputName(t *testing.T) {
	tests := []struct {
		input        string
		conversionID string
		want         string
	}{
		{"admission.hl7", "2f1c", "admission_2f1c.json"},
		{"batch_07.txt", "9a40", "batch_07_9a40.json"},
		{".hl7", "2f1c", "2f1c.json"},
	}
	for _, tt := range tests {
		if got := outputName(tt.input, tt.conversionID); got != tt.want {
			t.Errorf("outputName(%q, %q): expected %q, got %q", tt.input, tt.conversionID, tt.want, got)
		}
	}
}

func TestIsHL7File(t *testing.T) {
	for _, name := range []string{"a.hl7", "a.HL7", "a.txt"} {
		if !isHL7File(name) {
			t.Errorf("expected %q to be picked up", name)
		}
	}
	for _, name := range []string{"a.json", "a.hl7.bak", "a"} {
		if isHL7File(name) {
			t.Errorf("expected %q to be skipped", name)
		}
	}
}
