package schema

import "github.com/tracekit/epcis-transcode/types"

// Flags gates 2.0-only content out of 1.2 output (spec 4.B "Feature
// flags"). All default true, matching types.ConversionRequest's defaults.
type Flags struct {
	GenerateGS1CompliantDocument bool
	IncludeAssociationEvent      bool
	IncludePersistentDisposition bool
	IncludeSensorElementList     bool
}

// FlagsFromRequest reads the four feature flags off a ConversionRequest,
// applying the documented defaults (all true) when unset.
func FlagsFromRequest(r types.ConversionRequest) Flags {
	return Flags{
		GenerateGS1CompliantDocument: types.BoolOr(r.GenerateGS1CompliantDocument, true),
		IncludeAssociationEvent:      types.BoolOr(r.IncludeAssociationEvent, true),
		IncludePersistentDisposition: types.BoolOr(r.IncludePersistentDisposition, true),
		IncludeSensorElementList:     types.BoolOr(r.IncludeSensorElementList, true),
	}
}
