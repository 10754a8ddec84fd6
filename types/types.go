// Package types holds the wire-level data shapes shared across the
// transcoder: media types, schema versions, the conversion request, and
// the error envelope. Modeled on the teacher's types/types.go flat-DTO
// style (plain structs, no behavior beyond simple validation).
package types

import "fmt"

// MediaType is the wire representation of an EPCIS document.
type MediaType string

const (
	XML    MediaType = "XML"
	JSONLD MediaType = "JSON_LD"
)

// SchemaVersion is the EPCIS schema generation.
type SchemaVersion string

const (
	V1_2 SchemaVersion = "1.2"
	V2_0 SchemaVersion = "2.0"
)

// ConversionRequest describes a single convert() call: the known or
// to-be-detected source representation, and the requested output
// representation plus GS1/2.0-feature gating flags (spec section 3 and
// section 6 Configuration enumeration).
type ConversionRequest struct {
	FromMediaType MediaType
	FromVersion   SchemaVersion // may be the zero value; Convert will detect it

	ToMediaType MediaType
	ToVersion   SchemaVersion

	// GenerateGS1CompliantDocument controls whether 1.2 output carries an
	// empty placeholder for a required field that is absent (TransactionEvent's
	// bizTransactionList); it removes no other content. Defaults to true.
	GenerateGS1CompliantDocument *bool

	// IncludeAssociationEvent / IncludePersistentDisposition /
	// IncludeSensorElementList gate 2.0-only constructs out of 1.2
	// output when false. Default true.
	IncludeAssociationEvent      *bool
	IncludePersistentDisposition *bool
	IncludeSensorElementList     *bool
}

// BoolOr returns *p if p is non-nil, else def.
func BoolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Validate checks the static invariants of a request that don't require
// looking at the input stream: (JSON_LD, V1_2) is not a valid source, and
// (JSON_LD, V1_2) is never a valid target either (spec 3 invariant, spec
// 4.E "* -> (JSON,1.2)" row).
func (r ConversionRequest) Validate() error {
	if r.FromMediaType == JSONLD && r.FromVersion == V1_2 {
		return fmt.Errorf("%w: (JSON_LD, 1.2) is not a valid input media/version pair", ErrUnsupportedConversion)
	}
	if r.ToMediaType == JSONLD && r.ToVersion == V1_2 {
		return fmt.Errorf("%w: (JSON_LD, 1.2) has no defined conversion path", ErrUnsupportedConversion)
	}
	if r.ToMediaType != XML && r.ToMediaType != JSONLD {
		return fmt.Errorf("%w: unknown target media type %q", ErrUnsupportedConversion, r.ToMediaType)
	}
	if r.ToVersion != V1_2 && r.ToVersion != V2_0 {
		return fmt.Errorf("%w: unknown target schema version %q", ErrUnsupportedConversion, r.ToVersion)
	}
	return nil
}

// DetectedPrefix is the buffered prefix the Version Detector reads before
// handing the stream to the rest of the pipeline, plus what it found
// (spec 3, "Detected prefix").
type DetectedPrefix struct {
	Buffer  []byte // up to the detector's scan limit (1024 bytes by default); only Buffer[:Len] is meaningful
	Len     int
	Media   MediaType
	Version SchemaVersion
}

// ProblemResponseBody is the structured error envelope (spec section 6
// Error envelope). collector.NewProblem builds it from a conversion
// error; cmd/epcisconv writes it only for errors Convert returns before
// any output, and nothing writes it into a conversion's output stream
// once that stream has started producing bytes. Its XML form
// is written by hand in collector (see collector.WriteProblemXML) since
// the namespaced "epcis:ProblemResponseBody" wrapper isn't something
// encoding/xml's struct tags can express directly.
type ProblemResponseBody struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
}
