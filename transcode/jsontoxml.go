package transcode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tracekit/epcis-transcode/event"
	"github.com/tracekit/epcis-transcode/types"
)

// JSONToXML streams a 2.0 EPCIS JSON-LD document from r and writes its
// XML equivalent to w.
//
// It assumes "epcisBody" is the last key of the top-level object (true
// of every EPCIS JSON-LD producer this package was grounded on,
// including this package's own XMLToJSON): the XML preamble needs
// schemaVersion/creationDate/epcisHeader before it can start writing,
// and streaming the event array means committing to the preamble before
// epcisBody's contents are read. A document that places epcisBody before
// schemaVersion fails fast with ErrUnsupportedConversion (its version is
// not yet known to be 2.0) rather than buffering the whole input to
// recover. mapper, if non-nil, is applied to each decoded event
// before it's rendered to XML.
func JSONToXML(r io.Reader, w io.Writer, mapper event.Mapper) error {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	var schemaVersion, creationDate string
	var headerFields []event.Field
	haveHeader := false

	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return fmt.Errorf("%w: document has no epcisBody", types.ErrMalformedInput)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected an object key", types.ErrMalformedInput)
		}

		switch key {
		case "schemaVersion":
			if err := dec.Decode(&schemaVersion); err != nil {
				return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
			}
		case "creationDate":
			if err := dec.Decode(&creationDate); err != nil {
				return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
			}
		case "epcisHeader":
			var m map[string]any
			if err := dec.Decode(&m); err != nil {
				return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
			}
			fields, err := jsonObjectToFields(m)
			if err != nil {
				return err
			}
			headerFields = fields
			haveHeader = true
		case "epcisBody":
			if schemaVersion != string(types.V2_0) {
				return fmt.Errorf("%w: JSON->XML transcoding requires schemaVersion 2.0, got %q", types.ErrUnsupportedConversion, schemaVersion)
			}
			if err := writeXMLPreamble(w, creationDate, headerFields, haveHeader); err != nil {
				return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
			}
			if err := streamEPCISBodyFromJSON(dec, w, mapper); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "</epcis:EPCISDocument>"); err != nil {
				return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
			}
			return nil
		default:
			var discard any
			if err := dec.Decode(&discard); err != nil {
				return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
			}
		}
	}
}

func writeXMLPreamble(w io.Writer, creationDate string, headerFields []event.Field, haveHeader bool) error {
	if _, err := io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:2" schemaVersion="2.0"`); err != nil {
		return err
	}
	if creationDate != "" {
		if _, err := fmt.Fprintf(w, ` creationDate="%s"`, attrEscaper.Replace(creationDate)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	if haveHeader {
		headerField := event.NewBag("EPCISHeader", headerFields)
		if err := writeFieldXML(w, headerField); err != nil {
			return err
		}
	}
	return nil
}

func streamEPCISBodyFromJSON(dec *json.Decoder, w io.Writer, mapper event.Mapper) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "<EPCISBody>"); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
	}

	wroteEventList := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			break
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected an object key in epcisBody", types.ErrMalformedInput)
		}
		if key != "eventList" {
			var discard any
			if err := dec.Decode(&discard); err != nil {
				return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
			}
			continue
		}
		if err := expectDelim(dec, '['); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<EventList>"); err != nil {
			return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
		}
		for dec.More() {
			var obj map[string]any
			if err := dec.Decode(&obj); err != nil {
				return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
			}
			ev, err := JSONValueToEvent(obj)
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
			if err := writeEventXML(w, ev); err != nil {
				return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
			}
		}
		if _, err := dec.Token(); err != nil { // closing ']'
			return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
		}
		if _, err := io.WriteString(w, "</EventList>"); err != nil {
			return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
		}
		wroteEventList = true
	}
	if !wroteEventList {
		if _, err := io.WriteString(w, "<EventList></EventList>"); err != nil {
			return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
		}
	}
	if _, err := io.WriteString(w, "</EPCISBody>"); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIOFailure, err)
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
	}
	d, ok := tok.(json.Delim)
	if !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", types.ErrMalformedInput, want, tok)
	}
	return nil
}
