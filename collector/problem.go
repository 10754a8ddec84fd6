package collector

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/tracekit/epcis-transcode/types"
)

// problemKind describes the type/title pair for one of the module's
// sentinel error kinds, per spec 4.D's problem-response framing.
type problemKind struct {
	typ    string
	title  string
	status int
}

var problemKinds = []struct {
	err  error
	kind problemKind
}{
	{types.ErrSchemaVersionMissing, problemKind{"https://tracekit.dev/problems/schema-version-missing", "Schema version missing", 400}},
	{types.ErrUnsupportedVersion, problemKind{"https://tracekit.dev/problems/unsupported-version", "Unsupported schema version", 400}},
	{types.ErrUnsupportedConversion, problemKind{"https://tracekit.dev/problems/unsupported-conversion", "Unsupported conversion", 400}},
	{types.ErrMalformedInput, problemKind{"https://tracekit.dev/problems/malformed-input", "Malformed input", 400}},
	{types.ErrValidationFailure, problemKind{"https://tracekit.dev/problems/validation-failure", "Validation failure", 422}},
	{types.ErrMappingFailure, problemKind{"https://tracekit.dev/problems/mapping-failure", "Mapping failure", 422}},
	{types.ErrIOFailure, problemKind{"https://tracekit.dev/problems/io-failure", "I/O failure", 500}},
}

// NewProblem builds a ProblemResponseBody from a conversion error,
// matching it against the module's sentinel error kinds and falling
// back to a generic 500 if err doesn't wrap any of them. Instance is a
// fresh UUID the caller can correlate against logs.
func NewProblem(err error) types.ProblemResponseBody {
	kind := problemKind{"https://tracekit.dev/problems/internal", "Internal error", 500}
	for _, pk := range problemKinds {
		if errors.Is(err, pk.err) {
			kind = pk.kind
			break
		}
	}
	return types.ProblemResponseBody{
		Type:     kind.typ,
		Title:    kind.title,
		Status:   kind.status,
		Detail:   err.Error(),
		Instance: "urn:uuid:" + uuid.NewString(),
	}
}

// WriteProblemJSON encodes p as the JSON problem-response document.
func WriteProblemJSON(w io.Writer, p types.ProblemResponseBody) error {
	return json.NewEncoder(w).Encode(p)
}

// WriteProblemXML hand-writes p as a namespaced
// epcis:ProblemResponseBody element. encoding/xml struct tags can't
// express an arbitrary namespace prefix on the wrapper element (see
// types.ProblemResponseBody), so this writes the element directly.
func WriteProblemXML(w io.Writer, p types.ProblemResponseBody) error {
	if _, err := io.WriteString(w, `<epcis:ProblemResponseBody xmlns:epcis="urn:epcglobal:epcis:xsd:2">`); err != nil {
		return err
	}
	fields := []struct {
		tag string
		val string
	}{
		{"type", p.Type},
		{"title", p.Title},
		{"status", fmt.Sprintf("%d", p.Status)},
		{"detail", p.Detail},
		{"instance", p.Instance},
	}
	for _, f := range fields {
		if f.val == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "<%s>", f.tag); err != nil {
			return err
		}
		if err := xml.EscapeText(w, []byte(f.val)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "</%s>", f.tag); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</epcis:ProblemResponseBody>`)
	return err
}
