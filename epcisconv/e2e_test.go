package epcisconv

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracekit/epcis-transcode/types"
)

const objectEvent20XML = `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:2" schemaVersion="2.0" creationDate="2024-01-01T00:00:00Z">
<EPCISBody>
<EventList>
<ObjectEvent>
<eventTime>2024-01-01T00:00:00Z</eventTime>
<eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
<epcList><epc>urn:epc:id:sgtin:0614141.107346.2017</epc></epcList>
<action>OBSERVE</action>
<bizStep>shipping</bizStep>
<readPoint><id>urn:epc:id:sgln:0614141.00777.0</id></readPoint>
<persistentDisposition><set>completeness_verified</set></persistentDisposition>
<sensorElementList><sensorElement><sensorMetadata time="2024-01-01T00:00:00Z"/></sensorElement></sensorElementList>
</ObjectEvent>
</EventList>
</EPCISBody>
</epcis:EPCISDocument>`

const objectEvent12XMLWithErrorDeclaration = `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:1" schemaVersion="1.2" creationDate="2024-01-01T00:00:00Z">
<EPCISBody>
<EventList>
<ObjectEvent>
<eventTime>2024-01-01T00:00:00Z</eventTime>
<eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
<baseExtension>
<errorDeclaration><declarationTime>2024-01-02T00:00:00Z</declarationTime><reason>urn:epcglobal:cbv:er:incorrect_data</reason></errorDeclaration>
</baseExtension>
<epcList><epc>urn:epc:id:sgtin:0614141.107346.2017</epc></epcList>
<action>OBSERVE</action>
<bizStep>shipping</bizStep>
</ObjectEvent>
</EventList>
</EPCISBody>
</epcis:EPCISDocument>`

const combinationOfEvents20XML = `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:2" schemaVersion="2.0">
<EPCISBody>
<EventList>
<ObjectEvent>
<eventTime>2024-01-01T00:00:00Z</eventTime>
<eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
<epcList><epc>urn:epc:id:sgtin:0614141.107346.2017</epc></epcList>
<action>OBSERVE</action>
</ObjectEvent>
<AggregationEvent>
<eventTime>2024-01-01T01:00:00Z</eventTime>
<eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
<parentID>urn:epc:id:sscc:0614141.1234567890</parentID>
<childEPCs><epc>urn:epc:id:sgtin:0614141.107346.2018</epc></childEPCs>
<action>ADD</action>
</AggregationEvent>
</EventList>
</EPCISBody>
</epcis:EPCISDocument>`

func fullFlags() types.ConversionRequest {
	yes := true
	return types.ConversionRequest{
		GenerateGS1CompliantDocument:  &yes,
		IncludeAssociationEvent:       &yes,
		IncludePersistentDisposition:  &yes,
		IncludeSensorElementList:      &yes,
	}
}

// S1: a 2.0 ObjectEvent with all the 2.0-only fields populated, converted
// to JSON, surfaces persistentDisposition/sensorElementList at the top
// level of the event rather than nested under some wrapper.
func TestConvertS1ObjectEventAllFieldsToJSON(t *testing.T) {
	req := fullFlags()
	req.ToMediaType = types.JSONLD
	req.ToVersion = types.V2_0

	c := New(0, 0)
	out, err := c.Convert(context.Background(), strings.NewReader(objectEvent20XML), req, nil)
	require.NoError(t, err)

	body, err := io.ReadAll(out)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))

	events := doc["epcisBody"].(map[string]any)["eventList"].([]any)
	require.Len(t, events, 1)
	ev := events[0].(map[string]any)
	assert.Equal(t, "ObjectEvent", ev["type"])
	assert.Contains(t, ev, "persistentDisposition")
	assert.Contains(t, ev, "sensorElementList")
}

// S2: a 1.2 ObjectEvent carrying an errorDeclaration inside baseExtension,
// converted to JSON, surfaces errorDeclaration as a sibling of eventTime
// with no baseExtension wrapper anywhere in the output.
func TestConvertS2ErrorDeclarationSurfacedFromBaseExtension(t *testing.T) {
	req := fullFlags()
	req.ToMediaType = types.JSONLD
	req.ToVersion = types.V2_0

	c := New(0, 0)
	out, err := c.Convert(context.Background(), strings.NewReader(objectEvent12XMLWithErrorDeclaration), req, nil)
	require.NoError(t, err)

	body, err := io.ReadAll(out)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "baseExtension")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	ev := doc["epcisBody"].(map[string]any)["eventList"].([]any)[0].(map[string]any)
	assert.Contains(t, ev, "errorDeclaration")
	assert.Contains(t, ev, "eventTime")
}

// S3: a document with more than one event kind converts with eventList
// entries in input order, each carrying its own correct type.
func TestConvertS3CombinationOfEventKindsPreservesOrder(t *testing.T) {
	req := fullFlags()
	req.ToMediaType = types.JSONLD
	req.ToVersion = types.V2_0

	c := New(0, 0)
	out, err := c.Convert(context.Background(), strings.NewReader(combinationOfEvents20XML), req, nil)
	require.NoError(t, err)

	body, err := io.ReadAll(out)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	events := doc["epcisBody"].(map[string]any)["eventList"].([]any)
	require.Len(t, events, 2)
	assert.Equal(t, "ObjectEvent", events[0].(map[string]any)["type"])
	assert.Equal(t, "AggregationEvent", events[1].(map[string]any)["type"])
}

// S4: declaring fromMediaType=XML over a JSON input routes the JSON into
// the XML rewrite stage, which fails to parse it; the malformed-input
// error arrives on the output stream, from the returned reader's Read.
// The caller (e.g. cmd/epcisconv) is responsible for turning that into a
// problem-response document.
func TestConvertS4MediaTypeMismatchIsMalformedInput(t *testing.T) {
	jsonInput := `{"@context":"https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld","type":"EPCISDocument","schemaVersion":"2.0","epcisBody":{"eventList":[]}}`

	req := fullFlags()
	req.FromMediaType = types.XML
	req.ToMediaType = types.XML
	req.ToVersion = types.V2_0

	c := New(0, 0)
	out, err := c.Convert(context.Background(), strings.NewReader(jsonInput), req, nil)
	require.NoError(t, err)
	_, err = io.ReadAll(out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedInput))
}

// S5: an unsupported schemaVersion is raised synchronously out of
// Convert, before any stage goroutine starts.
func TestConvertS5UnsupportedSchemaVersionIsSynchronous(t *testing.T) {
	in := `<epcis:EPCISDocument schemaVersion="9.9"><EPCISBody><EventList/></EPCISBody></epcis:EPCISDocument>`

	req := fullFlags()
	req.ToMediaType = types.XML
	req.ToVersion = types.V2_0

	c := New(0, 0)
	_, err := c.Convert(context.Background(), strings.NewReader(in), req, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedVersion))
}

// S6: a null/empty input stream can't be classified at all.
func TestConvertS6EmptyStreamIsSchemaVersionMissing(t *testing.T) {
	req := fullFlags()
	req.ToMediaType = types.XML
	req.ToVersion = types.V2_0

	c := New(0, 0)
	_, err := c.Convert(context.Background(), strings.NewReader(""), req, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSchemaVersionMissing))
}

// Beyond the seed scenarios: exercise every stageKind the router can
// produce, including the two-stage combinations that chain the rewriter
// and the transcoder.

func TestConvertRewriteOnlyXML20To12(t *testing.T) {
	req := fullFlags()
	req.ToMediaType = types.XML
	req.ToVersion = types.V1_2

	c := New(0, 0)
	out, err := c.Convert(context.Background(), strings.NewReader(objectEvent20XML), req, nil)
	require.NoError(t, err)

	body, err := io.ReadAll(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), `schemaVersion="1.2"`)
}

func TestConvertRewriteThenTranscodeXML12ToJSON(t *testing.T) {
	req := fullFlags()
	req.ToMediaType = types.JSONLD
	req.ToVersion = types.V2_0

	c := New(0, 0)
	out, err := c.Convert(context.Background(), strings.NewReader(objectEvent12XMLWithErrorDeclaration), req, nil)
	require.NoError(t, err)

	body, err := io.ReadAll(out)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "2.0", doc["schemaVersion"])
}

func TestConvertJSONThenRewriteToXML12(t *testing.T) {
	var jsonBuf strings.Builder
	req1 := fullFlags()
	req1.ToMediaType = types.JSONLD
	req1.ToVersion = types.V2_0
	c := New(0, 0)
	out1, err := c.Convert(context.Background(), strings.NewReader(objectEvent20XML), req1, nil)
	require.NoError(t, err)
	b, err := io.ReadAll(out1)
	require.NoError(t, err)
	jsonBuf.Write(b)

	req2 := fullFlags()
	req2.ToMediaType = types.XML
	req2.ToVersion = types.V1_2
	out2, err := c.Convert(context.Background(), strings.NewReader(jsonBuf.String()), req2, nil)
	require.NoError(t, err)
	body2, err := io.ReadAll(out2)
	require.NoError(t, err)
	assert.Contains(t, string(body2), `schemaVersion="1.2"`)
	assert.Contains(t, string(body2), "<ObjectEvent>")
}

func TestConvertJSONLDToJSONLDIsRejected(t *testing.T) {
	jsonInput := `{"@context":"https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld","type":"EPCISDocument","schemaVersion":"2.0","epcisBody":{"eventList":[]}}`

	req := fullFlags()
	req.ToMediaType = types.JSONLD
	req.ToVersion = types.V2_0

	c := New(0, 0)
	_, err := c.Convert(context.Background(), strings.NewReader(jsonInput), req, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConversion))
}

func TestConvertCancellationUnblocksProducer(t *testing.T) {
	req := fullFlags()
	req.ToMediaType = types.JSONLD
	req.ToVersion = types.V2_0

	ctx, cancel := context.WithCancel(context.Background())
	c := New(1, 0) // a 1-byte pipe forces the producer to block almost immediately
	out, err := c.Convert(ctx, strings.NewReader(objectEvent20XML), req, nil)
	require.NoError(t, err)

	cancel()
	// Draining should terminate (not hang) once the producer observes
	// the closed read side; it may read zero bytes or an error first.
	_, _ = io.ReadAll(out)
}

func TestDetectVersionStandalone(t *testing.T) {
	p, r, err := DetectVersion(strings.NewReader(objectEvent20XML), 0)
	require.NoError(t, err)
	assert.Equal(t, types.XML, p.Media)
	assert.Equal(t, types.V2_0, p.Version)

	full, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(full), "<epcis:EPCISDocument"))
}
