// Package hl7v2 provides a tokenizer and field accessor for HL7 v2.x
// pipe-delimited messages. Fields are addressed with HL7's 1-based
// numbering; repetition, component and subcomponent splitting is lazy
// and driven by the delimiters declared in the MSH header.
package hl7v2

import "strings"

// Delimiters holds the special characters used to split a message.
type Delimiters struct {
	Field        byte
	Component    byte
	Repetition   byte
	Escape       byte
	Subcomponent byte
}

// DefaultDelimiters returns the standard HL7 v2 delimiter set: | ^ ~ \ &.
func DefaultDelimiters() Delimiters {
	return Delimiters{
		Field:        '|',
		Component:    '^',
		Repetition:   '~',
		Escape:       '\\',
		Subcomponent: '&',
	}
}

// Message is a tokenized HL7 message: an ordered list of segments plus
// the delimiter set resolved from its header.
type Message struct {
	Segments []Segment
	Delims   Delimiters
}

// Tokenize splits raw message text into segments using the delimiters
// declared in the MSH header, falling back to the defaults when the
// header is absent or truncated. Empty input yields a message with zero
// segments; the tokenizer itself never fails.
func Tokenize(raw string) *Message {
	return TokenizeWith(raw, resolveDelimiters(raw))
}

// TokenizeWith tokenizes with an explicit delimiter set, ignoring
// whatever the header declares.
func TokenizeWith(raw string, d Delimiters) *Message {
	msg := &Message{Delims: d}

	for _, line := range splitSegments(raw) {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		fields := strings.Split(line, string(d.Field))
		msg.Segments = append(msg.Segments, Segment{
			name:   fields[0],
			fields: fields,
			delims: d,
		})
	}

	return msg
}

// splitSegments normalizes line endings to the canonical CR segment
// separator and splits on it.
func splitSegments(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\r")
	raw = strings.ReplaceAll(raw, "\n", "\r")
	return strings.Split(raw, "\r")
}

// resolveDelimiters reads MSH-1 and MSH-2 from the first MSH line.
// A message of the form MSH|^~\&|... declares the field separator at
// offset 3 and the component, repetition, escape and subcomponent
// characters in the next four positions.
func resolveDelimiters(raw string) Delimiters {
	d := DefaultDelimiters()

	raw = strings.TrimLeft(raw, "\r\n \t")
	if !strings.HasPrefix(raw, "MSH") {
		return d
	}
	if len(raw) > 3 {
		d.Field = raw[3]
	}
	enc := raw[min(4, len(raw)):]
	if i := strings.IndexByte(enc, d.Field); i >= 0 {
		enc = enc[:i]
	}
	if len(enc) > 0 {
		d.Component = enc[0]
	}
	if len(enc) > 1 {
		d.Repetition = enc[1]
	}
	if len(enc) > 2 {
		d.Escape = enc[2]
	}
	if len(enc) > 3 {
		d.Subcomponent = enc[3]
	}
	return d
}

// Header returns the MSH segment, if present.
func (m *Message) Header() (Segment, bool) {
	return m.Segment("MSH")
}

// Segment returns the first segment with the given name.
func (m *Message) Segment(name string) (Segment, bool) {
	for _, s := range m.Segments {
		if s.name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// All returns every segment with the given name, in message order.
func (m *Message) All(name string) []Segment {
	var out []Segment
	for _, s := range m.Segments {
		if s.name == name {
			out = append(out, s)
		}
	}
	return out
}
