// Package event models a single EPCIS event as a dynamic, order-preserving
// bag of fields rather than a fixed Go struct per event type. Spec section
// 3 and the DESIGN NOTES are explicit about this: "Avoid a deep class
// hierarchy... model an event as a tagged value { kind, ordered_fields }".
//
// This generalizes the fixed per-event-type structs the teacher hand-rolled
// in tasks/epcis_extractor.go (ObjectEvent, AggregationEvent, ...): those
// structs only round-trip the fields they happen to declare, which is fine
// for extracting a handful of known shipping fields but cannot preserve
// arbitrary unknown/user-defined fields the way a schema-version-rewriting
// transcoder must (spec invariant 5, "Unknown-field preservation").
package event

import "errors"

// ErrSkip is the sentinel a Mapper returns to drop an event from the
// output entirely (the collector's "skip" validation policy, spec 4.D),
// as distinct from returning any other error, which aborts the
// conversion.
var ErrSkip = errors.New("event: skip this event")

// Kind identifies which EPCIS event type a bag represents.
type Kind string

const (
	ObjectEvent          Kind = "ObjectEvent"
	AggregationEvent     Kind = "AggregationEvent"
	TransactionEvent     Kind = "TransactionEvent"
	TransformationEvent  Kind = "TransformationEvent"
	AssociationEvent     Kind = "AssociationEvent"
)

// ValueKind tags which shape a Field's Value holds.
type ValueKind int

const (
	Scalar ValueKind = iota // string, number, boolean, timestamp - all carried as string
	List                    // ordered list of scalars or child bags
	Bag                     // nested structured bag (its own ordered Field slice)
)

// Value is a tagged variant over scalar / list / bag, per the DESIGN NOTES
// "event representation" guidance. Exactly one of the fields is
// meaningful, selected by Kind.
type Value struct {
	Kind ValueKind

	Scalar string

	// ListScalars holds List values whose items are plain scalars (e.g.
	// epcList/epc, childEPCs/epc).
	ListScalars []string

	// ListBags holds List values whose items are structured (e.g.
	// quantityList/quantityElement, bizTransactionList/bizTransaction).
	ListBags []Field2

	// BagFields holds Bag values: a nested ordered set of fields (e.g.
	// readPoint, bizLocation, sourceList/source with an attribute).
	BagFields []Field
}

// Field2 is an ordered field list used for list-of-bag items: each item in
// a List of kind "bag" is itself an ordered Field slice, plus any XML
// attributes/JSON sibling properties carried alongside chardata (e.g.
// <source type="owning_party">urn:...</source> needs both the "type"
// attribute and the chardata value).
type Field2 struct {
	Attrs []Attr
	// Text is the scalar chardata when the list item is attribute+text
	// (source, destination, bizTransaction, quantity's epcClass form).
	Text string
	// Fields is populated instead of Text when the list item is itself a
	// structured bag (e.g. a full quantityElement with epcClass/quantity/uom).
	Fields []Field
}

// Attr is a single XML attribute / JSON-LD typed-object key, e.g.
// bizTransaction's "type" attribute or quantityElement's "uom".
type Attr struct {
	Name  string
	Value string
}

// Field is one (name, value) pair in an event's ordered field list. Name
// is the EPCIS XML local name (e.g. "eventTime", "epcList", "extension");
// the JSON camelCase projection is derived from it in transcode.
type Field struct {
	Name string
	// Namespace is a slot for the XML namespace URI of the element, and
	// NSPrefix one for the JSON-LD prefix alias of a foreign-namespace
	// field. The transcode decoders leave both empty and the writers do
	// not read them, so a foreign-namespace element crosses the
	// XML<->JSON boundary under its local name only, without its
	// namespace or prefix.
	Namespace string
	NSPrefix  string
	Value     Value
}

// Event is one EPCIS event: its type and its ordered top-level fields.
// Unknown/user-defined fields are ordinary Fields like any other; nothing
// distinguishes a "known" field from an "unknown" one in this struct. The
// schema and transcode packages are the ones that know which field names
// are in the canonical ordering table for a given Kind and schema version.
type Event struct {
	Kind   Kind
	Fields []Field
}

// Get returns the first field with the given name, and whether it exists.
func (e *Event) Get(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Without returns a copy of the event's fields with the named fields
// removed, preserving relative order of the rest.
func (e *Event) Without(names ...string) []Field {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := make([]Field, 0, len(e.Fields))
	for _, f := range e.Fields {
		if !skip[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// NewScalar builds a scalar-valued Field.
func NewScalar(name, value string) Field {
	return Field{Name: name, Value: Value{Kind: Scalar, Scalar: value}}
}

// NewListScalars builds a Field whose value is a list of scalars (e.g.
// epcList/epc).
func NewListScalars(name string, values []string) Field {
	return Field{Name: name, Value: Value{Kind: List, ListScalars: values}}
}

// NewBag builds a Field whose value is a nested structured bag.
func NewBag(name string, fields []Field) Field {
	return Field{Name: name, Value: Value{Kind: Bag, BagFields: fields}}
}

// Mapper transforms one decoded event bag into another before it's
// re-encoded, the hook spec 4.E's Convert operation calls "mapWith": a
// pure function of event-bag to event-bag, independent of wire format.
type Mapper func(Event) (Event, error)
