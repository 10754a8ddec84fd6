// Package version implements the Version Detector (spec 4.A): it peeks a
// bounded prefix of an input stream, classifies it as (media type, schema
// version) by scanning for a schemaVersion marker, and hands back the
// buffered prefix so the caller can reconstitute the original stream
// without double-reading bytes.
//
// Grounded on extractRootElementName in the teacher's
// tasks/epcis_converter.go: a small byte-oriented scan over a prefix,
// done with strings/bytes rather than a full parse, used purely to
// classify what's about to be processed.
package version

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tracekit/epcis-transcode/types"
)

const marker = "schemaVersion"

// Detect reads up to scanLimit bytes from r, classifies the stream, and
// returns the detected prefix. r is not closed. The caller must treat the
// returned Buffer[:Len] as already consumed from r and re-prepend it
// before passing r downstream (see Reconstitute).
func Detect(r io.Reader, scanLimit int) (types.DetectedPrefix, error) {
	if scanLimit <= 0 {
		scanLimit = 1024
	}
	buf := make([]byte, scanLimit)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return types.DetectedPrefix{}, fmt.Errorf("%w: reading version prefix: %v", types.ErrIOFailure, err)
	}
	buf = buf[:n]

	idx := bytes.Index(buf, []byte(marker))
	if idx < 0 {
		return types.DetectedPrefix{}, fmt.Errorf("%w", types.ErrSchemaVersionMissing)
	}

	media, isXML := classifyMedia(buf)
	ver, ok := extractVersion(string(buf[idx:]), isXML)
	if !ok {
		return types.DetectedPrefix{}, fmt.Errorf("%w: schemaVersion marker present but no recognized 1.2/2.0 value nearby", types.ErrUnsupportedVersion)
	}

	return types.DetectedPrefix{
		Buffer:  buf,
		Len:     n,
		Media:   media,
		Version: ver,
	}, nil
}

// classifyMedia decides XML vs JSON_LD by looking for the document's
// opening delimiter ahead of the schemaVersion marker. EPCIS XML documents
// start with '<' (after optional BOM/whitespace); JSON-LD documents start
// with '{'.
func classifyMedia(buf []byte) (types.MediaType, bool) {
	trimmed := bytes.TrimLeft(buf, " \t\r\n"+string(rune(0xFEFF)))
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return types.XML, true
	}
	return types.JSONLD, false
}

// extractVersion looks for `schemaVersion="1.2"` / `schemaVersion='2.0'`
// (XML attribute form) or `"schemaVersion":"1.2"` (JSON form, whitespace
// normalized) starting at s (s begins at the "schemaVersion" marker).
func extractVersion(s string, isXML bool) (types.SchemaVersion, bool) {
	rest := s[len(marker):]
	rest = strings.TrimLeft(rest, " \t\r\n")

	if isXML {
		if !strings.HasPrefix(rest, "=") {
			return "", false
		}
		rest = strings.TrimLeft(rest[1:], " \t\r\n")
		if len(rest) == 0 {
			return "", false
		}
		quote := rest[0]
		if quote != '"' && quote != '\'' {
			return "", false
		}
		end := strings.IndexByte(rest[1:], quote)
		if end < 0 {
			return "", false
		}
		return matchVersion(rest[1 : 1+end])
	}

	// JSON form: "schemaVersion" : "1.2" (any amount of whitespace
	// around the colon, always double-quoted value per JSON grammar). The
	// marker match stops before the key's closing quote, so skip it first.
	rest = strings.TrimLeft(strings.TrimPrefix(rest, `"`), " \t\r\n")
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")
	if len(rest) == 0 || rest[0] != '"' {
		return "", false
	}
	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return "", false
	}
	return matchVersion(rest[1 : 1+end])
}

func matchVersion(raw string) (types.SchemaVersion, bool) {
	switch raw {
	case string(types.V1_2):
		return types.V1_2, true
	case string(types.V2_0):
		return types.V2_0, true
	default:
		return "", false
	}
}

// Reconstitute returns an io.Reader that yields the buffered prefix
// followed by the remainder of the original stream, so downstream stages
// see a logically identical input to what Detect was given (spec 4.A
// "pre-scan re-prepend" contract).
func Reconstitute(p types.DetectedPrefix, remainder io.Reader) io.Reader {
	return io.MultiReader(bytes.NewReader(p.Buffer[:p.Len]), remainder)
}
