package transcode

import (
	"fmt"
	"strconv"

	"github.com/tracekit/epcis-transcode/event"
	"github.com/tracekit/epcis-transcode/types"
)

// EventToJSONValue projects an event bag into the map the JSON-LD
// encoder marshals, applying EPCIS's wrapper-unwrapping and
// attribute-collapsing conventions (spec 4.C "per-event-type field
// projectors").
func EventToJSONValue(ev event.Event) (map[string]any, error) {
	obj := map[string]any{"type": string(ev.Kind)}
	for _, f := range orderedFields(ev) {
		v, err := fieldToJSON(f)
		if err != nil {
			return nil, err
		}
		obj[f.Name] = v
	}
	return obj, nil
}

func fieldToJSON(f event.Field) (any, error) {
	return valueToJSON(f.Name, f.Value)
}

func valueToJSON(name string, v event.Value) (any, error) {
	switch v.Kind {
	case event.Scalar:
		if name == "quantity" {
			return v.Scalar, nil // numeric coercion happens at the quantityElement object level below
		}
		return v.Scalar, nil

	case event.List:
		if listScalarFields[name] || (len(v.ListBags) == 0) {
			return append([]string{}, v.ListScalars...), nil
		}
		textKey, hasTextKey := attrTextListFields[name]
		items := make([]any, 0, len(v.ListBags))
		for _, b := range v.ListBags {
			obj := map[string]any{}
			for _, a := range b.Attrs {
				obj[a.Name] = a.Value
			}
			if hasTextKey && b.Text != "" {
				obj[textKey] = b.Text
			}
			for _, sub := range b.Fields {
				sv, err := fieldToJSON(sub)
				if err != nil {
					return nil, err
				}
				if sub.Name == "quantity" {
					sv = coerceQuantity(sv)
				}
				obj[sub.Name] = sv
			}
			items = append(items, obj)
		}
		return items, nil

	case event.Bag:
		obj := map[string]any{}
		for _, sub := range v.BagFields {
			sv, err := fieldToJSON(sub)
			if err != nil {
				return nil, err
			}
			obj[sub.Name] = sv
		}
		return obj, nil

	default:
		return nil, fmt.Errorf("%w: unrecognized field value kind for %q", types.ErrMappingFailure, name)
	}
}

// coerceQuantity converts a quantity's scalar text into a JSON number
// when it parses as one; GS1's JSON encoding represents quantity as a
// number while XML always carries it as element text.
func coerceQuantity(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return v
	}
	return f
}

// JSONValueToEvent is the inverse of EventToJSONValue: it rebuilds an
// event bag from a decoded JSON object (obj["type"] selects the kind).
func JSONValueToEvent(obj map[string]any) (event.Event, error) {
	kindRaw, ok := obj["type"].(string)
	if !ok {
		return event.Event{}, fmt.Errorf("%w: event object missing string \"type\"", types.ErrMalformedInput)
	}
	ev := event.Event{Kind: event.Kind(kindRaw)}
	for key, val := range obj {
		if key == "type" {
			continue
		}
		f, err := jsonValueToField(key, val)
		if err != nil {
			return event.Event{}, err
		}
		ev.Fields = append(ev.Fields, f)
	}
	return ev, nil
}

func jsonValueToField(name string, val any) (event.Field, error) {
	switch v := val.(type) {
	case nil:
		return event.NewScalar(name, ""), nil
	case string:
		return event.NewScalar(name, v), nil
	case float64:
		return event.NewScalar(name, formatNumber(v)), nil
	case bool:
		if v {
			return event.NewScalar(name, "true"), nil
		}
		return event.NewScalar(name, "false"), nil
	case []any:
		return jsonListToField(name, v)
	case map[string]any:
		fields, err := jsonObjectToFields(v)
		if err != nil {
			return event.Field{}, err
		}
		return event.NewBag(name, fields), nil
	default:
		return event.Field{}, fmt.Errorf("%w: unsupported JSON value for field %q", types.ErrMappingFailure, name)
	}
}

func jsonListToField(name string, items []any) (event.Field, error) {
	if listScalarFields[name] {
		scalars := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return event.Field{}, fmt.Errorf("%w: %q expects an array of strings", types.ErrMalformedInput, name)
			}
			scalars = append(scalars, s)
		}
		return event.NewListScalars(name, scalars), nil
	}

	textKey, hasTextKey := attrTextListFields[name]
	bags := make([]event.Field2, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			return event.Field{}, fmt.Errorf("%w: %q expects an array of objects", types.ErrMalformedInput, name)
		}
		var b event.Field2
		for k, v := range obj {
			if hasTextKey && k == textKey {
				s, _ := v.(string)
				b.Text = s
				continue
			}
			if s, ok := v.(string); ok && hasTextKey {
				// Attribute (e.g. "type") on an attributed-scalar item.
				b.Attrs = append(b.Attrs, event.Attr{Name: k, Value: s})
				continue
			}
			f, err := jsonValueToField(k, v)
			if err != nil {
				return event.Field{}, err
			}
			b.Fields = append(b.Fields, f)
		}
		bags = append(bags, b)
	}
	return event.Field{Name: name, Value: event.Value{Kind: event.List, ListBags: bags}}, nil
}

func jsonObjectToFields(obj map[string]any) ([]event.Field, error) {
	fields := make([]event.Field, 0, len(obj))
	for k, v := range obj {
		f, err := jsonValueToField(k, v)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
