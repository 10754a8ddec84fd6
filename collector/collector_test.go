package collector

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracekit/epcis-transcode/event"
	"github.com/tracekit/epcis-transcode/types"
)

type alwaysFail struct{}

func (alwaysFail) Validate(context.Context, string, []byte) error {
	return errors.New("missing required field: action")
}

func TestValidatingMapperAbortPolicyPropagatesError(t *testing.T) {
	m := NewValidatingMapper(alwaysFail{}, PolicyAbort, nil)
	_, err := m(event.Event{Kind: event.ObjectEvent})
	assert.Error(t, err)
}

func TestValidatingMapperSkipPolicyDropsEvent(t *testing.T) {
	m := NewValidatingMapper(alwaysFail{}, PolicySkip, nil)
	_, err := m(event.Event{Kind: event.ObjectEvent})
	require.Error(t, err)
	assert.True(t, errors.Is(err, event.ErrSkip))
}

func TestValidatingMapperRunsNextFirst(t *testing.T) {
	calledNext := false
	next := func(ev event.Event) (event.Event, error) {
		calledNext = true
		return ev, nil
	}
	m := NewValidatingMapper(nil, PolicyAbort, next)
	_, err := m(event.Event{Kind: event.ObjectEvent})
	require.NoError(t, err)
	assert.True(t, calledNext)
}

func TestNewProblemMapsSentinelErrors(t *testing.T) {
	p := NewProblem(types.ErrValidationFailure)
	assert.Equal(t, 422, p.Status)
	assert.NotEmpty(t, p.Instance)
	assert.True(t, strings.HasPrefix(p.Instance, "urn:uuid:"))
}

func TestWriteProblemXMLProducesNamespacedWrapper(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProblemXML(&buf, NewProblem(types.ErrMalformedInput)))
	out := buf.String()
	assert.Contains(t, out, "<epcis:ProblemResponseBody")
	assert.Contains(t, out, "</epcis:ProblemResponseBody>")
}

func TestWriteProblemJSONIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProblemJSON(&buf, NewProblem(types.ErrIOFailure)))
	assert.Contains(t, buf.String(), `"status":500`)
}
