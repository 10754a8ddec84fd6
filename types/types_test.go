package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolOr(t *testing.T) {
	yes := true
	no := false
	assert.Equal(t, true, BoolOr(&yes, false))
	assert.Equal(t, false, BoolOr(&no, true))
	assert.Equal(t, true, BoolOr(nil, true))
	assert.Equal(t, false, BoolOr(nil, false))
}

func TestConversionRequestValidateRejectsJSONLD12Source(t *testing.T) {
	req := ConversionRequest{
		FromMediaType: JSONLD,
		FromVersion:   V1_2,
		ToMediaType:   XML,
		ToVersion:     V2_0,
	}
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
}

func TestConversionRequestValidateRejectsJSONLD12Target(t *testing.T) {
	req := ConversionRequest{
		ToMediaType: JSONLD,
		ToVersion:   V1_2,
	}
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
}

func TestConversionRequestValidateRejectsUnknownTargetMediaType(t *testing.T) {
	req := ConversionRequest{
		ToMediaType: "TEXT",
		ToVersion:   V2_0,
	}
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
}

func TestConversionRequestValidateRejectsUnknownTargetVersion(t *testing.T) {
	req := ConversionRequest{
		ToMediaType: XML,
		ToVersion:   "9.9",
	}
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
}

func TestConversionRequestValidateAcceptsSupportedPairs(t *testing.T) {
	req := ConversionRequest{
		FromMediaType: XML,
		FromVersion:   V1_2,
		ToMediaType:   JSONLD,
		ToVersion:     V2_0,
	}
	assert.NoError(t, req.Validate())
}

func TestProblemResponseBodyJSONShape(t *testing.T) {
	p := ProblemResponseBody{
		Type:     "about:blank",
		Title:    "malformed input document",
		Status:   400,
		Detail:   "epcisconv: malformed input document: unexpected EOF",
		Instance: "3fa85f64-5717-4562-b3fc-2c963f66afa6",
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded ProblemResponseBody
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p, decoded)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(400), raw["status"])
	assert.Equal(t, p.Instance, raw["instance"])
}
