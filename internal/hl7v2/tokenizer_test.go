package hl7v2

import "testing"

const sampleADT = "MSH|^~\\&|MEDIWARE|HOPITAL_NORD|FHIRHUB|ANS|20240326100615||ADT^A01|MSG00001|P|2.5\r" +
	"PID|1||123456^^^HOPITAL_NORD^PI~278036512345678^^^INS-NIR^INS||DUPONT^JEAN^MARIE CLAUDE^^^^L||19480909|M\r" +
	"PV1|1|I|UF1234^201^A||||||||||||||||VN20240001"

func TestTokenizeSegments(t *testing.T) {
	msg := Tokenize(sampleADT)

	if len(msg.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(msg.Segments))
	}
	want := []string{"MSH", "PID", "PV1"}
	for i, name := range want {
		if msg.Segments[i].Name() != name {
			t.Errorf("segment %d: expected %s, got %s", i, name, msg.Segments[i].Name())
		}
	}
}

func TestTokenizeLineEndings(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"cr", "MSH|^~\\&|A\rPID|1"},
		{"lf", "MSH|^~\\&|A\nPID|1"},
		{"crlf", "MSH|^~\\&|A\r\nPID|1"},
		{"mixed", "MSH|^~\\&|A\r\nPID|1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Tokenize(tt.raw)
			if len(msg.Segments) != 2 {
				t.Fatalf("expected 2 segments, got %d", len(msg.Segments))
			}
			if msg.Segments[1].Name() != "PID" {
				t.Errorf("expected PID, got %s", msg.Segments[1].Name())
			}
		})
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "\r\n", "   "} {
		msg := Tokenize(raw)
		if len(msg.Segments) != 0 {
			t.Errorf("input %q: expected zero segments, got %d", raw, len(msg.Segments))
		}
	}
}

func TestResolveDelimitersFromHeader(t *testing.T) {
	msg := Tokenize("MSH#*%!?#SENDER#FAC\rPID#1##A*B%C")

	if msg.Delims.Field != '#' {
		t.Errorf("expected field separator '#', got %q", msg.Delims.Field)
	}
	if msg.Delims.Component != '*' {
		t.Errorf("expected component separator '*', got %q", msg.Delims.Component)
	}
	if msg.Delims.Repetition != '%' {
		t.Errorf("expected repetition separator '%%', got %q", msg.Delims.Repetition)
	}
	if msg.Delims.Subcomponent != '?' {
		t.Errorf("expected subcomponent separator '?', got %q", msg.Delims.Subcomponent)
	}

	pid, ok := msg.Segment("PID")
	if !ok {
		t.Fatal("PID segment not found")
	}
	reps := pid.Repetitions(3)
	if len(reps) != 2 {
		t.Fatalf("expected 2 repetitions, got %d", len(reps))
	}
	if got := reps[0].Component(2); got != "B" {
		t.Errorf("expected component B, got %q", got)
	}
}

func TestResolveDelimitersDefaultsWithoutHeader(t *testing.T) {
	msg := Tokenize("PID|1||123")
	if msg.Delims != DefaultDelimiters() {
		t.Errorf("expected default delimiters, got %+v", msg.Delims)
	}
}

func TestHeaderLookup(t *testing.T) {
	msg := Tokenize(sampleADT)
	msh, ok := msg.Header()
	if !ok {
		t.Fatal("expected MSH header")
	}
	if got := msh.Field(9).Component(1); got != "ADT" {
		t.Errorf("expected message code ADT, got %q", got)
	}
	if got := msh.Field(10).String(); got != "MSG00001" {
		t.Errorf("expected control id MSG00001, got %q", got)
	}
}
