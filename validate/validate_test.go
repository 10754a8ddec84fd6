package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracekit/epcis-transcode/types"
)

func TestNopXSDValidatorAlwaysPasses(t *testing.T) {
	var v NopXSDValidator
	assert.NoError(t, v.Validate(context.Background(), "ObjectEvent", []byte(`not even json`)))
}

func TestJSONSchemaValidatorRejectsMissingRequiredField(t *testing.T) {
	required := true
	schema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"action"},
	}
	_ = required

	v, err := NewJSONSchemaValidator(map[string]*jsonschema.Schema{"ObjectEvent": schema})
	require.NoError(t, err)

	err = v.Validate(context.Background(), "ObjectEvent", []byte(`{"eventTime":"2024-01-01T00:00:00Z"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidationFailure))
}

func TestJSONSchemaValidatorPassesUnknownKind(t *testing.T) {
	v, err := NewJSONSchemaValidator(map[string]*jsonschema.Schema{})
	require.NoError(t, err)
	assert.NoError(t, v.Validate(context.Background(), "ObjectEvent", []byte(`{}`)))
}

func TestChainStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	c := Chain{
		stubValidator{err: nil},
		stubValidator{err: boom},
		stubValidator{err: errors.New("unreachable")},
	}
	err := c.Validate(context.Background(), "ObjectEvent", nil)
	assert.Same(t, boom, err)
}

type stubValidator struct{ err error }

func (s stubValidator) Validate(context.Context, string, []byte) error { return s.err }
