package transcode

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/tracekit/epcis-transcode/event"
	"github.com/tracekit/epcis-transcode/types"
)

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

func writeText(w io.Writer, s string) error {
	return xml.EscapeText(w, []byte(s))
}

// writeEventXML renders one event bag as a self-contained XML element in
// 2.0 field order.
func writeEventXML(w io.Writer, ev event.Event) error {
	if _, err := fmt.Fprintf(w, "<%s>", ev.Kind); err != nil {
		return err
	}
	for _, f := range orderedFields(ev) {
		if err := writeFieldXML(w, f); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "</%s>", ev.Kind)
	return err
}

func writeFieldXML(w io.Writer, f event.Field) error {
	switch f.Value.Kind {
	case event.Scalar:
		if f.Value.Scalar == "" {
			_, err := fmt.Fprintf(w, "<%s/>", f.Name)
			return err
		}
		if _, err := fmt.Fprintf(w, "<%s>", f.Name); err != nil {
			return err
		}
		if err := writeText(w, f.Value.Scalar); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "</%s>", f.Name)
		return err

	case event.List:
		if len(f.Value.ListBags) == 0 && len(f.Value.ListScalars) == 0 {
			_, err := fmt.Fprintf(w, "<%s/>", f.Name)
			return err
		}
		if _, err := fmt.Fprintf(w, "<%s>", f.Name); err != nil {
			return err
		}
		itemTag := itemTagFor(f.Name)
		if len(f.Value.ListBags) == 0 {
			for _, s := range f.Value.ListScalars {
				if _, err := fmt.Fprintf(w, "<%s>", itemTag); err != nil {
					return err
				}
				if err := writeText(w, s); err != nil {
					return err
				}
				if _, err := fmt.Fprintf(w, "</%s>", itemTag); err != nil {
					return err
				}
			}
		} else {
			for _, b := range f.Value.ListBags {
				if err := writeField2XML(w, itemTag, b); err != nil {
					return err
				}
			}
		}
		_, err := fmt.Fprintf(w, "</%s>", f.Name)
		return err

	case event.Bag:
		if _, err := fmt.Fprintf(w, "<%s>", f.Name); err != nil {
			return err
		}
		for _, sub := range f.Value.BagFields {
			if err := writeFieldXML(w, sub); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "</%s>", f.Name)
		return err

	default:
		return fmt.Errorf("%w: unrecognized field value kind for %q", types.ErrMappingFailure, f.Name)
	}
}

func writeField2XML(w io.Writer, tag string, b event.Field2) error {
	if _, err := fmt.Fprintf(w, "<%s", tag); err != nil {
		return err
	}
	for _, a := range b.Attrs {
		if _, err := fmt.Fprintf(w, ` %s="%s"`, a.Name, attrEscaper.Replace(a.Value)); err != nil {
			return err
		}
	}
	if b.Text == "" && len(b.Fields) == 0 {
		_, err := io.WriteString(w, "/>")
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	if b.Text != "" {
		if err := writeText(w, b.Text); err != nil {
			return err
		}
	}
	for _, sub := range b.Fields {
		if err := writeFieldXML(w, sub); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "</%s>", tag)
	return err
}
