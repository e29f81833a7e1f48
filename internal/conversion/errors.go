package conversion

import "errors"

// Fatal conversion errors. Anything else that goes wrong during
// mapping is downgraded to a warning on the result: a segment that
// cannot be mapped costs its resource, not the whole bundle.
var (
	// ErrEmptyMessage is returned when the input contains no segments.
	ErrEmptyMessage = errors.New("message contains no segments")

	// ErrNoHeader is returned when the first segment is not an MSH.
	ErrNoHeader = errors.New("message has no MSH header")

	// ErrNoSubject is returned when the PID segment is missing or
	// carries neither an identifier nor a name. Every resource in the
	// bundle references the patient, so there is nothing to build.
	ErrNoSubject = errors.New("message carries no mappable patient")
)
