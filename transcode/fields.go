// Package transcode implements the Event Transcoder (spec 4.C): it
// converts 2.0 EPCIS documents between XML and JSON-LD. Schema version
// conversion (1.2<->2.0) is handled upstream by package schema; this
// package only ever sees 2.0 on both sides of the wire.
//
// Grounded on the teacher's tasks/epcis_extractor.go (pulling event
// fields out of an XML tree) and tasks/epcis_builder.go (assembling a
// JSON document from those fields), generalized into a single reversible
// field model (event.Event) instead of one-struct-per-event-type Go
// types, so unknown/vendor fields survive the round trip. Field order
// does not: each event is projected to a Go map before encoding, so JSON
// output keys come out in encoding/json's sorted order, and events
// decoded from JSON carry map iteration order. XML output re-sorts known
// fields into flatOrder; unknown fields follow them in no defined order
// when the event came from JSON.
package transcode

import (
	"strconv"
	"strings"

	"github.com/tracekit/epcis-transcode/event"
)

const epcisContext = "https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld"

// flatOrder lists each event kind's field order in 2.0 XML, used when
// emitting XML from a JSON-decoded event (JSON preserves no schema
// ordering of its own). Any field present on the event but absent from
// this list is appended afterward in the event's own field order.
var flatOrder = map[event.Kind][]string{
	event.ObjectEvent: {
		"eventTime", "eventTimeZoneOffset", "recordTime", "eventID", "errorDeclaration",
		"epcList", "quantityList", "action", "bizStep", "disposition", "readPoint",
		"bizLocation", "bizTransactionList", "sourceList", "destinationList",
		"sensorElementList", "persistentDisposition", "ilmd",
	},
	event.AggregationEvent: {
		"eventTime", "eventTimeZoneOffset", "recordTime", "eventID", "errorDeclaration",
		"parentID", "childEPCs", "childQuantityList", "action", "bizStep", "disposition",
		"readPoint", "bizLocation", "bizTransactionList", "sourceList", "destinationList",
		"sensorElementList", "persistentDisposition",
	},
	event.TransactionEvent: {
		"eventTime", "eventTimeZoneOffset", "recordTime", "eventID", "errorDeclaration",
		"parentID", "epcList", "quantityList", "action", "bizStep", "disposition",
		"readPoint", "bizLocation", "bizTransactionList", "sourceList", "destinationList",
		"sensorElementList", "persistentDisposition",
	},
	event.TransformationEvent: {
		"eventTime", "eventTimeZoneOffset", "recordTime", "eventID", "errorDeclaration",
		"transformationID", "inputEPCList", "inputQuantityList", "outputEPCList",
		"outputQuantityList", "bizStep", "disposition", "readPoint", "bizLocation",
		"bizTransactionList", "sourceList", "destinationList", "sensorElementList",
		"persistentDisposition", "ilmd",
	},
	event.AssociationEvent: {
		"eventTime", "eventTimeZoneOffset", "recordTime", "eventID", "errorDeclaration",
		"parentID", "childEPCs", "childQuantityList", "action", "bizStep", "disposition",
		"readPoint", "bizLocation", "bizTransactionList", "sourceList", "destinationList",
		"sensorElementList", "persistentDisposition",
	},
}

// orderedFields returns ev's fields sorted per flatOrder, with any
// unrecognized fields appended afterward in their original order.
func orderedFields(ev event.Event) []event.Field {
	order, ok := flatOrder[ev.Kind]
	if !ok {
		return ev.Fields
	}
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	known := make([]event.Field, 0, len(ev.Fields))
	var unknown []event.Field
	for _, f := range ev.Fields {
		if _, ok := pos[f.Name]; ok {
			known = append(known, f)
		} else {
			unknown = append(unknown, f)
		}
	}
	sortFieldsByOrder(known, pos)
	return append(known, unknown...)
}

func sortFieldsByOrder(fields []event.Field, pos map[string]int) {
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && pos[fields[j-1].Name] > pos[fields[j].Name]; j-- {
			fields[j-1], fields[j] = fields[j], fields[j-1]
		}
	}
}

// listScalarFields are XML list wrappers whose repeated children are
// plain text values with no attributes (EPC identifier lists).
var listScalarFields = map[string]bool{
	"epcList": true, "childEPCs": true,
	"inputEPCList": true, "outputEPCList": true,
}

// attrTextListFields maps a list field name to the JSON key its items'
// element text collapses into, alongside any XML attributes (GS1's
// attributed-scalar shape: <bizTransaction type="...">value</bizTransaction>).
var attrTextListFields = map[string]string{
	"bizTransactionList": "bizTransaction",
	"sourceList":         "source",
	"destinationList":    "destination",
}

// listItemTag names the XML element each item of a list field is wrapped
// in (e.g. epcList's items are <epc> elements). Used only when rendering
// XML from a JSON-decoded event, since JSON carries no element names for
// array items.
var listItemTag = map[string]string{
	"epcList": "epc", "childEPCs": "epc",
	"inputEPCList": "epc", "outputEPCList": "epc",
	"bizTransactionList": "bizTransaction",
	"sourceList":         "source",
	"destinationList":    "destination",
	"quantityList":       "quantityElement", "childQuantityList": "quantityElement",
	"inputQuantityList": "quantityElement", "outputQuantityList": "quantityElement",
	"sensorElementList": "sensorElement",
}

func itemTagFor(fieldName string) string {
	if tag, ok := listItemTag[fieldName]; ok {
		return tag
	}
	return strings.TrimSuffix(fieldName, "List")
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
