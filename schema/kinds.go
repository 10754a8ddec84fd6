package schema

// fieldSpec describes one of an event kind's structural fields (spec 4.B
// step 3: "event-specific required fields").
type fieldSpec struct {
	name     string
	required bool // emit an empty placeholder in 1.2 output when absent
}

// kindSpec captures the per-event-type shape spec 4.B's restructuring
// algorithm needs: which fields are "primary" (event-specific, placed
// right after baseExtension), whether the kind carries an action field,
// and how many levels of <extension> wrapping the 1.2 EventList uses to
// carry the whole event.
type kindSpec struct {
	tag                       string
	primary                   []fieldSpec
	hasAction                 bool
	bizTransactionListPrimary bool
	// extQuantityField is the name of this kind's quantity-list field
	// that lives in the shared extension group (spec 4.B step 5), or ""
	// if the kind carries its quantity fields among its primary fields
	// instead (TransformationEvent, AssociationEvent).
	extQuantityField string
	wrapLevels        int // 0 = flat child of EventList, 1 = TransformationEvent, 2 = AssociationEvent
}

var kindTable = map[string]kindSpec{
	"ObjectEvent": {
		tag:               "ObjectEvent",
		primary:           []fieldSpec{{"epcList", false}},
		hasAction:         true,
		extQuantityField:  "quantityList",
	},
	"AggregationEvent": {
		tag: "AggregationEvent",
		primary: []fieldSpec{
			{"parentID", false},
			{"childEPCs", false},
		},
		hasAction: true,
		// AggregationEvent's quantity field is spelled childQuantityList
		// in the real GS1 schema, not quantityList.
		extQuantityField: "childQuantityList",
	},
	"TransactionEvent": {
		tag: "TransactionEvent",
		primary: []fieldSpec{
			{"parentID", false},
			{"epcList", false},
			// Open question 9(a): the 1.2 placeholder for a missing
			// required field on TransactionEvent is an empty
			// bizTransactionList, not epcList.
			{"bizTransactionList", true},
		},
		hasAction:                 true,
		bizTransactionListPrimary: true,
		extQuantityField:          "quantityList",
	},
	"TransformationEvent": {
		tag: "TransformationEvent",
		primary: []fieldSpec{
			{"transformationID", false},
			{"inputEPCList", false},
			{"inputQuantityList", false},
			{"outputEPCList", false},
			{"outputQuantityList", false},
		},
		hasAction:  false,
		wrapLevels: 1,
	},
	"AssociationEvent": {
		tag: "AssociationEvent",
		primary: []fieldSpec{
			{"parentID", false},
			{"childEPCs", false},
			{"childQuantityList", false},
		},
		hasAction:  true,
		wrapLevels: 2,
	},
}

// eventKinds lists the five EPCIS event tags in schema declaration order.
var eventKinds = []string{
	"ObjectEvent",
	"AggregationEvent",
	"TransactionEvent",
	"TransformationEvent",
	"AssociationEvent",
}

var topFields = []string{"eventTime", "recordTime", "eventTimeZoneOffset"}
var baseExtensionFields = []string{"eventID", "errorDeclaration"}
var sharedExtensionFields = []string{"sourceList", "destinationList", "ilmd"}
var extensionGroup2 = []string{"sensorElementList", "persistentDisposition"}

// extensionGroup1 returns the shared-extension-group field names for a
// kind, with its quantity-list field (if any) placed first.
func extensionGroup1(ks kindSpec) []string {
	if ks.extQuantityField == "" {
		return sharedExtensionFields
	}
	return append([]string{ks.extQuantityField}, sharedExtensionFields...)
}

// trailingFields returns the common business-context fields (spec 4.B
// step 4), in schema order, for a given kind.
func trailingFields(ks kindSpec) []string {
	var out []string
	if ks.hasAction {
		out = append(out, "action")
	}
	out = append(out, "bizStep", "disposition", "readPoint", "bizLocation")
	if !ks.bizTransactionListPrimary {
		out = append(out, "bizTransactionList")
	}
	return out
}
