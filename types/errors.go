package types

import "errors"

// Sentinel error kinds per spec section 7. Every package-level error the
// transcoder returns wraps one of these with fmt.Errorf("...: %w", ...)
// so callers can errors.Is against a stable kind, matching the teacher's
// fmt.Errorf wrapping style throughout tasks/*.go.
var (
	// ErrSchemaVersionMissing: the prefix scan did not locate a
	// schemaVersion marker at all.
	ErrSchemaVersionMissing = errors.New("epcisconv: schemaVersion marker not found in input prefix")

	// ErrUnsupportedVersion: a schemaVersion marker was found but its
	// value isn't 1.2 or 2.0.
	ErrUnsupportedVersion = errors.New("epcisconv: unsupported schema version")

	// ErrUnsupportedConversion: the requested (from,to) pair has no
	// defined path, notably any `* -> (JSON,1.2)` request.
	ErrUnsupportedConversion = errors.New("epcisconv: unsupported conversion path")

	// ErrMalformedInput: the XML or JSON input failed to parse, or
	// violated a structural well-formedness rule (e.g. a malformed EPC
	// URN) the transcoder checks while restructuring.
	ErrMalformedInput = errors.New("epcisconv: malformed input document")

	// ErrValidationFailure: an injected Validator rejected an event or
	// the envelope.
	ErrValidationFailure = errors.New("epcisconv: validation failure")

	// ErrMappingFailure: a user-supplied event mapper returned an error.
	ErrMappingFailure = errors.New("epcisconv: event mapper failed")

	// ErrIOFailure: an upstream or downstream stream error.
	ErrIOFailure = errors.New("epcisconv: stream I/O failure")
)
