package version

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracekit/epcis-transcode/types"
)

func TestDetectXML20(t *testing.T) {
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:2" schemaVersion="2.0" creationDate="2024-01-01T00:00:00Z">
</epcis:EPCISDocument>`

	p, err := Detect(strings.NewReader(xmlDoc), 1024)
	require.NoError(t, err)
	assert.Equal(t, types.XML, p.Media)
	assert.Equal(t, types.V2_0, p.Version)
}

func TestDetectXML12SingleQuote(t *testing.T) {
	xmlDoc := `<epcis:EPCISDocument xmlns:epcis='urn:epcglobal:epcis:xsd:1' schemaVersion='1.2'>`
	p, err := Detect(strings.NewReader(xmlDoc), 1024)
	require.NoError(t, err)
	assert.Equal(t, types.V1_2, p.Version)
}

func TestDetectJSON20(t *testing.T) {
	jsonDoc := `{"@context": "https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld", "type": "EPCISDocument", "schemaVersion" : "2.0", "epcisBody": {}}`
	p, err := Detect(strings.NewReader(jsonDoc), 1024)
	require.NoError(t, err)
	assert.Equal(t, types.JSONLD, p.Media)
	assert.Equal(t, types.V2_0, p.Version)
}

func TestDetectMissingMarker(t *testing.T) {
	_, err := Detect(strings.NewReader(`<epcis:EPCISDocument></epcis:EPCISDocument>`), 1024)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSchemaVersionMissing))
}

func TestDetectEmptyStream(t *testing.T) {
	_, err := Detect(strings.NewReader(""), 1024)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSchemaVersionMissing))
}

func TestDetectUnsupportedVersion(t *testing.T) {
	_, err := Detect(strings.NewReader(`<epcis:EPCISDocument schemaVersion="9.9">`), 1024)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedVersion))
}

func TestReconstitutePreservesFullStream(t *testing.T) {
	full := `<epcis:EPCISDocument schemaVersion="2.0">` + strings.Repeat("x", 2000) + `</epcis:EPCISDocument>`
	r := strings.NewReader(full)

	p, err := Detect(r, 64)
	require.NoError(t, err)

	combined := Reconstitute(p, r)
	got, err := io.ReadAll(combined)
	require.NoError(t, err)
	assert.Equal(t, full, string(got))
	assert.True(t, bytes.HasPrefix(got, []byte(`<epcis:EPCISDocument`)))
}
