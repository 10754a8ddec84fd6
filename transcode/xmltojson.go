package transcode

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/tracekit/epcis-transcode/event"
	"github.com/tracekit/epcis-transcode/types"
)

// XMLToJSON streams a 2.0 EPCIS XML document from r and writes its
// JSON-LD equivalent to w, never holding more than one event (on either
// side of the conversion) in memory at once. mapper, if non-nil, is
// applied to each decoded event before it's projected to JSON.
func XMLToJSON(r io.Reader, w io.Writer, mapper event.Mapper) error {
	dec := xml.NewDecoder(r)

	root, err := findStartElement(dec, "EPCISDocument")
	if err != nil {
		return err
	}
	attrs := attrMap(root)
	if attrs["schemaVersion"] != string(types.V2_0) {
		return fmt.Errorf("%w: XML->JSON transcoding requires schemaVersion 2.0, got %q", types.ErrUnsupportedConversion, attrs["schemaVersion"])
	}

	out, err := newStreamObj(w)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
	}
	if err := out.field("@context", epcisContext); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
	}
	if err := out.field("type", "EPCISDocument"); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
	}
	if err := out.field("schemaVersion", attrs["schemaVersion"]); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
	}
	if cd, ok := attrs["creationDate"]; ok {
		if err := out.field("creationDate", cd); err != nil {
			return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
		}
	}

	// Walk down to EPCISBody, picking up an optional EPCISHeader along
	// the way.
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "EPCISHeader":
			header, err := decodeElement(dec, se)
			if err != nil {
				return err
			}
			headerObj := map[string]any{}
			for _, f := range header.Fields {
				v, err := fieldToJSON(f)
				if err != nil {
					return err
				}
				headerObj[f.Name] = v
			}
			if err := out.field("epcisHeader", headerObj); err != nil {
				return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
			}
		case "EPCISBody":
			if err := streamEPCISBody(dec, out, mapper); err != nil {
				return err
			}
			if err := out.close(); err != nil {
				return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
			}
			return nil
		}
	}
}

func streamEPCISBody(dec *xml.Decoder, out *streamObj, mapper event.Mapper) error {
	if err := out.rawFieldStart("epcisBody"); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
	}
	if _, err := io.WriteString(out.w, "{"); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
	}

	wroteEventList := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "EventList" {
				// Skip unrecognized EPCISBody content (e.g. a vendor
				// extension element) without materializing it.
				if err := skipElement(dec); err != nil {
					return err
				}
				continue
			}
			if _, err := io.WriteString(out.w, `"eventList":[`); err != nil {
				return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
			}
			arr := &streamArr{w: out.w}
			if err := streamEventList(dec, arr, mapper); err != nil {
				return err
			}
			if err := arr.close(); err != nil {
				return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
			}
			wroteEventList = true
		case xml.EndElement:
			if t.Name.Local == "EPCISBody" {
				if !wroteEventList {
					if _, err := io.WriteString(out.w, `"eventList":[]`); err != nil {
						return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
					}
				}
				_, err := io.WriteString(out.w, "}")
				if err != nil {
					return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
				}
				return nil
			}
		}
	}
}

func streamEventList(dec *xml.Decoder, arr *streamArr, mapper event.Mapper) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			ev, err := decodeEventElement(dec, t)
			if err != nil {
				return err
			}
			if mapper != nil {
				ev, err = mapper(ev)
				if errors.Is(err, event.ErrSkip) {
					continue
				}
				if err != nil {
					return fmt.Errorf("%w: %v", types.ErrMappingFailure, err)
				}
			}
			obj, err := EventToJSONValue(ev)
			if err != nil {
				return err
			}
			if err := arr.item(obj); err != nil {
				return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
			}
		case xml.EndElement:
			if t.Name.Local == "EventList" {
				return nil
			}
		}
	}
}

func findStartElement(dec *xml.Decoder, name string) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("%w: looking for <%s>: %v", types.ErrMalformedInput, name, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != name {
				return xml.StartElement{}, fmt.Errorf("%w: found <%s>, want <%s>", types.ErrMalformedInput, se.Name.Local, name)
			}
			return se, nil
		}
	}
}

func attrMap(se xml.StartElement) map[string]string {
	m := make(map[string]string, len(se.Attr))
	for _, a := range se.Attr {
		m[a.Name.Local] = a.Value
	}
	return m
}

// skipElement discards a subtree the caller doesn't need, without
// building any representation of it in memory.
func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}
