package transcode

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/tracekit/epcis-transcode/event"
	"github.com/tracekit/epcis-transcode/types"
)

// decodeElement recursively decodes the subtree rooted at start into a
// Field2, preserving element order, text, and attributes so that
// unrecognized/vendor content round-trips untouched.
func decodeElement(dec *xml.Decoder, start xml.StartElement) (event.Field2, error) {
	var el event.Field2
	for _, a := range start.Attr {
		el.Attrs = append(el.Attrs, event.Attr{Name: a.Name.Local, Value: a.Value})
	}

	type group struct {
		name  string
		items []event.Field2
	}
	var order []string
	groups := map[string]*group{}
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return event.Field2{}, fmt.Errorf("%w: decoding <%s>: %v", types.ErrMalformedInput, start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return event.Field2{}, err
			}
			name := t.Name.Local
			g, ok := groups[name]
			if !ok {
				g = &group{name: name}
				groups[name] = g
				order = append(order, name)
			}
			g.items = append(g.items, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			el.Text = strings.TrimSpace(text.String())
			for _, name := range order {
				el.Fields = append(el.Fields, buildField(name, groups[name].items))
			}
			return el, nil
		}
	}
}

// buildField decides, from the decoded occurrences of one child element
// name, whether it's a scalar, a nested object, or a list of either.
//
// EPCIS's own list wrapper elements (epcList, quantityList,
// bizTransactionList, ...) must always project to a JSON array, even when
// a particular document happens to carry only one item - a single <epc>
// inside <epcList> is still a one-element list, not a bare string. Those
// names are recognized up front from the same listScalarFields/
// listItemTag tables fields.go uses when rendering JSON back to XML, so
// the two directions agree on which fields are lists. Everything else
// (readPoint, bizLocation, and other structured one-off elements) falls
// back to the sibling-count heuristic.
func buildField(name string, items []event.Field2) event.Field {
	if listScalarFields[name] {
		scalars := make([]string, len(items))
		for i, it := range items {
			scalars[i] = it.Text
		}
		return event.NewListScalars(name, scalars)
	}
	if _, known := listItemTag[name]; known {
		bags := make([]event.Field2, len(items))
		copy(bags, items)
		return event.Field{Name: name, Value: event.Value{Kind: event.List, ListBags: bags}}
	}

	if len(items) == 1 {
		it := items[0]
		if len(it.Fields) == 0 && len(it.Attrs) == 0 {
			return event.NewScalar(name, it.Text)
		}
		fields := it.Fields
		for _, a := range it.Attrs {
			fields = append([]event.Field{event.NewScalar(a.Name, a.Value)}, fields...)
		}
		return event.NewBag(name, fields)
	}

	allLeaf := true
	for _, it := range items {
		if len(it.Fields) > 0 || len(it.Attrs) > 0 {
			allLeaf = false
			break
		}
	}
	if allLeaf {
		scalars := make([]string, len(items))
		for i, it := range items {
			scalars[i] = it.Text
		}
		return event.NewListScalars(name, scalars)
	}

	bags := make([]event.Field2, len(items))
	copy(bags, items)
	return event.Field{Name: name, Value: event.Value{Kind: event.List, ListBags: bags}}
}

// decodeEventElement decodes one EventList child into an event bag.
func decodeEventElement(dec *xml.Decoder, start xml.StartElement) (event.Event, error) {
	body, err := decodeElement(dec, start)
	if err != nil {
		return event.Event{}, err
	}
	return event.Event{Kind: event.Kind(start.Name.Local), Fields: body.Fields}, nil
}
