package validate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tracekit/epcis-transcode/types"
)

// JSONSchemaValidator validates an event's JSON representation against a
// per-kind github.com/google/jsonschema-go schema. Events whose kind has
// no registered schema pass through unchecked.
type JSONSchemaValidator struct {
	resolved map[string]*jsonschema.Resolved
}

// NewJSONSchemaValidator compiles one schema per event kind. schemas maps
// an event kind name (e.g. "ObjectEvent") to its raw JSON Schema document.
func NewJSONSchemaValidator(schemas map[string]*jsonschema.Schema) (*JSONSchemaValidator, error) {
	v := &JSONSchemaValidator{resolved: make(map[string]*jsonschema.Resolved, len(schemas))}
	for kind, s := range schemas {
		r, err := s.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: compiling JSON schema for %s: %v", types.ErrMappingFailure, kind, err)
		}
		v.resolved[kind] = r
	}
	return v, nil
}

func (v *JSONSchemaValidator) Validate(_ context.Context, eventKind string, payload []byte) error {
	r, ok := v.resolved[eventKind]
	if !ok {
		return nil
	}
	var instance any
	if err := json.Unmarshal(payload, &instance); err != nil {
		return fmt.Errorf("%w: event payload is not valid JSON: %v", types.ErrMalformedInput, err)
	}
	if err := r.Validate(instance); err != nil {
		return fmt.Errorf("%w: %s failed schema validation: %v", types.ErrValidationFailure, eventKind, err)
	}
	return nil
}
