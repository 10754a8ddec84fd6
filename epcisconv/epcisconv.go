// Package epcisconv implements the Conversion Orchestrator (spec 4.E):
// the public Convert entry point that detects the input's version,
// resolves a (from, to) pair to a stage pipeline, wires the pipeline's
// stages together with bounded pipe.Pipe instances and worker
// goroutines, and returns a single io.Reader the caller drains for the
// converted output.
//
// Grounded on the teacher's pipelines package (flow_test.go's
// NewFlow/AddTask/Run contract) for the idea of a small DAG of named
// tasks wired by channels/pipes, generalized here to the orchestrator's
// fixed small set of (fromMediaType, fromVersion, toMediaType,
// toVersion) routes instead of a configurable arbitrary DAG.
package epcisconv

import (
	"context"
	"fmt"
	"io"

	"github.com/tracekit/epcis-transcode/event"
	"github.com/tracekit/epcis-transcode/pipe"
	"github.com/tracekit/epcis-transcode/schema"
	"github.com/tracekit/epcis-transcode/transcode"
	"github.com/tracekit/epcis-transcode/types"
	"github.com/tracekit/epcis-transcode/version"
)

// Converter holds everything a Convert call needs beyond the request
// itself: pipe sizing and the version-detector's scan limit.
type Converter struct {
	PipeBufferSize   int
	VersionScanLimit int
}

// New returns a Converter with the given buffer size (bytes) for the
// pipes between stages; scanLimit bounds the version detector's prefix
// read. Both fall back to sensible defaults when zero.
func New(pipeBufferSize, scanLimit int) *Converter {
	return &Converter{PipeBufferSize: pipeBufferSize, VersionScanLimit: scanLimit}
}

// Convert detects the input's schema version and media type (a set
// req.FromVersion or req.FromMediaType takes precedence over what was
// detected, but detection always runs and its errors are returned),
// resolves the conversion route, and
// returns a reader that streams the converted document. mapper, if
// non-nil, is applied to every event as it passes through the
// transcoder stage (the orchestrator's MapWith hook). The returned
// reader surfaces any mid-stream failure as an error from Read, per
// spec 4.E's failure-propagation contract; the caller is responsible for
// writing a problem response (see package collector) if it wants one.
func (c *Converter) Convert(ctx context.Context, r io.Reader, req types.ConversionRequest, mapper event.Mapper) (io.Reader, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	detected, err := version.Detect(r, c.VersionScanLimit)
	if err != nil {
		return nil, err
	}
	input := version.Reconstitute(detected, r)

	fromMedia, fromVersion := detected.Media, detected.Version
	if req.FromMediaType != "" {
		fromMedia = req.FromMediaType
	}
	if req.FromVersion != "" {
		fromVersion = req.FromVersion
	}

	route, err := resolveRoute(fromMedia, fromVersion, req.ToMediaType, req.ToVersion)
	if err != nil {
		return nil, err
	}

	flags := schema.FlagsFromRequest(req)
	return c.run(ctx, input, route, flags, mapper)
}

// DetectVersion exposes the Version Detector directly, for callers that
// only want to classify a stream (and reconstitute it) without
// converting it.
func DetectVersion(r io.Reader, scanLimit int) (types.DetectedPrefix, io.Reader, error) {
	p, err := version.Detect(r, scanLimit)
	if err != nil {
		return types.DetectedPrefix{}, nil, err
	}
	return p, version.Reconstitute(p, r), nil
}

// stageKind enumerates the pipeline shapes spec 4.E's routing table
// describes.
type stageKind int

const (
	stageRewriteOnly    stageKind = iota // XML 1.2 <-> XML 2.0, component B alone
	stageTranscodeOnly                   // XML 2.0 <-> JSON 2.0, component C alone
	stageRewriteThenXJ                   // XML 1.2 -> (B: 2.0) -> (C: xml->json)
	stageJXThenRewrite                   // (C: json->xml, 2.0) -> (B: 2.0 -> 1.2)
)

type route struct {
	kind       stageKind
	rewriteTo  types.SchemaVersion // target version for the rewrite stage, when present
	xmlToJSON  bool                // for stageTranscodeOnly: XML->JSON direction vs JSON->XML
}

func resolveRoute(fromMedia types.MediaType, fromVersion types.SchemaVersion, toMedia types.MediaType, toVersion types.SchemaVersion) (route, error) {
	if fromVersion == "" {
		return route{}, fmt.Errorf("%w: could not determine input schema version", types.ErrSchemaVersionMissing)
	}
	if fromVersion != types.V1_2 && fromVersion != types.V2_0 {
		return route{}, fmt.Errorf("%w: %q", types.ErrUnsupportedVersion, fromVersion)
	}

	switch {
	case fromMedia == types.XML && toMedia == types.XML:
		return route{kind: stageRewriteOnly, rewriteTo: toVersion}, nil

	case fromMedia == types.XML && toMedia == types.JSONLD:
		if toVersion != types.V2_0 {
			return route{}, fmt.Errorf("%w: JSON_LD output only exists at schema version 2.0", types.ErrUnsupportedConversion)
		}
		if fromVersion == types.V2_0 {
			return route{kind: stageTranscodeOnly, xmlToJSON: true}, nil
		}
		// XML 1.2 -> JSON_LD: rewrite to 2.0 first, then transcode.
		return route{kind: stageRewriteThenXJ, rewriteTo: types.V2_0}, nil

	case fromMedia == types.JSONLD && toMedia == types.XML:
		if fromVersion != types.V2_0 {
			return route{}, fmt.Errorf("%w: JSON_LD input only exists at schema version 2.0", types.ErrUnsupportedConversion)
		}
		if toVersion == types.V2_0 {
			return route{kind: stageTranscodeOnly, xmlToJSON: false}, nil
		}
		return route{kind: stageJXThenRewrite, rewriteTo: toVersion}, nil

	case fromMedia == types.JSONLD && toMedia == types.JSONLD:
		if fromVersion != types.V2_0 || toVersion != types.V2_0 {
			return route{}, fmt.Errorf("%w: JSON_LD only exists at schema version 2.0", types.ErrUnsupportedConversion)
		}
		return route{}, fmt.Errorf("%w: JSON_LD to JSON_LD is not a conversion", types.ErrUnsupportedConversion)

	default:
		return route{}, fmt.Errorf("%w: no conversion path from (%s, %s) to (%s, %s)",
			types.ErrUnsupportedConversion, fromMedia, fromVersion, toMedia, toVersion)
	}
}

// run wires the resolved route's stages together with bounded pipes and
// worker goroutines, returning the final stage's read side. Each worker
// closes its write-side pipe with whatever error it encountered, which
// propagates to the caller as an error from the returned reader's Read.
func (c *Converter) run(ctx context.Context, input io.Reader, rt route, flags schema.Flags, mapper event.Mapper) (io.Reader, error) {
	bufSize := c.PipeBufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}

	switch rt.kind {
	case stageRewriteOnly:
		out := pipe.New(bufSize)
		c.watchCancel(ctx, out)
		go func() {
			err := schema.RewriteXML(input, out, directionFor(rt.rewriteTo), flags, rt.rewriteTo)
			_ = out.CloseWithError(err)
		}()
		return out, nil

	case stageTranscodeOnly:
		out := pipe.New(bufSize)
		c.watchCancel(ctx, out)
		go func() {
			var err error
			if rt.xmlToJSON {
				err = transcode.XMLToJSON(input, out, mapper)
			} else {
				err = transcode.JSONToXML(input, out, mapper)
			}
			_ = out.CloseWithError(err)
		}()
		return out, nil

	case stageRewriteThenXJ:
		mid := pipe.New(bufSize)
		out := pipe.New(bufSize)
		c.watchCancel(ctx, mid)
		c.watchCancel(ctx, out)
		go func() {
			err := schema.RewriteXML(input, mid, schema.To20, flags, types.V2_0)
			_ = mid.CloseWithError(err)
		}()
		go func() {
			err := transcode.XMLToJSON(mid, out, mapper)
			_ = out.CloseWithError(err)
		}()
		return out, nil

	case stageJXThenRewrite:
		mid := pipe.New(bufSize)
		out := pipe.New(bufSize)
		c.watchCancel(ctx, mid)
		c.watchCancel(ctx, out)
		go func() {
			err := transcode.JSONToXML(input, mid, mapper)
			_ = mid.CloseWithError(err)
		}()
		go func() {
			err := schema.RewriteXML(mid, out, schema.To12, flags, rt.rewriteTo)
			_ = out.CloseWithError(err)
		}()
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unhandled route kind", types.ErrUnsupportedConversion)
	}
}

// watchCancel closes p's read side when ctx is done, unblocking a
// producer that's stuck on backpressure (spec 5 cancellation: "the
// worker observes a broken pipe on next write and terminates").
func (c *Converter) watchCancel(ctx context.Context, p *pipe.Pipe) {
	if ctx == nil || ctx.Done() == nil {
		return
	}
	go func() {
		<-ctx.Done()
		_ = p.CloseRead()
	}()
}

func directionFor(to types.SchemaVersion) schema.Direction {
	if to == types.V1_2 {
		return schema.To12
	}
	return schema.To20
}
