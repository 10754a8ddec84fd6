package transcode

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracekit/epcis-transcode/event"
)

const sampleXML = `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:2" schemaVersion="2.0" creationDate="2024-01-01T00:00:00Z">
<EPCISBody>
<EventList>
<ObjectEvent>
<eventTime>2024-01-01T00:00:00Z</eventTime>
<eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
<epcList><epc>urn:epc:id:sgtin:0614141.107346.2017</epc><epc>urn:epc:id:sgtin:0614141.107346.2018</epc></epcList>
<action>OBSERVE</action>
<bizStep>shipping</bizStep>
<readPoint><id>urn:epc:id:sgln:0614141.00777.0</id></readPoint>
<quantityList><quantityElement><epcClass>urn:epc:class:lgtin:4012345.012345.998877</epcClass><quantity>10</quantity><uom>KGM</uom></quantityElement></quantityList>
<bizTransactionList><bizTransaction type="urn:epcglobal:cbv:btt:po">urn:epc:id:gdti:0614141.06012.1234</bizTransaction></bizTransactionList>
</ObjectEvent>
</EventList>
</EPCISBody>
</epcis:EPCISDocument>`

func TestXMLToJSONProducesExpectedShape(t *testing.T) {
	var out bytes.Buffer
	err := XMLToJSON(strings.NewReader(sampleXML), &out, nil)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))

	assert.Equal(t, "EPCISDocument", doc["type"])
	assert.Equal(t, "2.0", doc["schemaVersion"])

	body := doc["epcisBody"].(map[string]any)
	events := body["eventList"].([]any)
	require.Len(t, events, 1)

	ev := events[0].(map[string]any)
	assert.Equal(t, "ObjectEvent", ev["type"])
	assert.Equal(t, []any{"urn:epc:id:sgtin:0614141.107346.2017", "urn:epc:id:sgtin:0614141.107346.2018"}, ev["epcList"])
	assert.Equal(t, "OBSERVE", ev["action"])

	readPoint := ev["readPoint"].(map[string]any)
	assert.Equal(t, "urn:epc:id:sgln:0614141.00777.0", readPoint["id"])

	qty := ev["quantityList"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(10), qty["quantity"])

	biz := ev["bizTransactionList"].([]any)[0].(map[string]any)
	assert.Equal(t, "urn:epcglobal:cbv:btt:po", biz["type"])
	assert.Equal(t, "urn:epc:id:gdti:0614141.06012.1234", biz["bizTransaction"])
}

func TestXMLToJSONRejectsNonV2(t *testing.T) {
	doc := strings.Replace(sampleXML, `schemaVersion="2.0"`, `schemaVersion="1.2"`, 1)
	var out bytes.Buffer
	err := XMLToJSON(strings.NewReader(doc), &out, nil)
	assert.Error(t, err)
}

func TestJSONToXMLRoundTripsEventFields(t *testing.T) {
	var jsonOut bytes.Buffer
	require.NoError(t, XMLToJSON(strings.NewReader(sampleXML), &jsonOut, nil))

	var xmlOut bytes.Buffer
	require.NoError(t, JSONToXML(bytes.NewReader(jsonOut.Bytes()), &xmlOut, nil))

	result := xmlOut.String()
	assert.Contains(t, result, "<ObjectEvent>")
	assert.Contains(t, result, "<epc>urn:epc:id:sgtin:0614141.107346.2017</epc>")
	assert.Contains(t, result, `<bizTransaction type="urn:epcglobal:cbv:btt:po">urn:epc:id:gdti:0614141.06012.1234</bizTransaction>`)
	assert.Contains(t, result, "<quantity>10</quantity>")
}

func TestJSONToXMLAppliesMapper(t *testing.T) {
	var jsonOut bytes.Buffer
	require.NoError(t, XMLToJSON(strings.NewReader(sampleXML), &jsonOut, nil))

	called := false
	mapper := func(ev event.Event) (event.Event, error) {
		called = true
		ev.Fields = append(ev.Fields, event.NewScalar("disposition", "in_transit"))
		return ev, nil
	}

	var xmlOut bytes.Buffer
	require.NoError(t, JSONToXML(bytes.NewReader(jsonOut.Bytes()), &xmlOut, mapper))
	assert.True(t, called)
	assert.Contains(t, xmlOut.String(), "<disposition>in_transit</disposition>")
}
