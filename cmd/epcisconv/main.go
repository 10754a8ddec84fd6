// Command epcisconv runs the HTTP front end for the EPCIS schema/wire
// transcoder: a single POST /convert endpoint that streams a document in
// one media type/schema version and streams it back out in another.
//
// Grounded on the teacher's main.go: a net/http.ServeMux, a health check
// with no auth, graceful shutdown on SIGINT/SIGTERM via
// server.Shutdown(ctx), and zap-backed structured startup/shutdown
// logging (here through internal/obslog rather than tv-shared-go/logger,
// since that dependency has no home outside the teacher's own service).
package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tracekit/epcis-transcode/collector"
	"github.com/tracekit/epcis-transcode/configs"
	"github.com/tracekit/epcis-transcode/epcisconv"
	"github.com/tracekit/epcis-transcode/event"
	"github.com/tracekit/epcis-transcode/internal/obslog"
	"github.com/tracekit/epcis-transcode/types"
	"github.com/tracekit/epcis-transcode/validate"
	"go.uber.org/zap"
)

func main() {
	cfg, err := configs.Load()
	if err != nil {
		obslog.Fatal("failed to load configuration", zap.Error(err))
	}

	conv := epcisconv.New(cfg.PipeBufferSize, cfg.VersionScanLimit)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/convert", makeConvertHandler(conv, cfg))

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		obslog.Info("shutting down epcisconv server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			obslog.Error("server shutdown error", zap.Error(err))
		}
		close(done)
	}()

	obslog.Info("starting epcisconv server", zap.String("port", port), zap.String("validation_policy", cfg.ValidationPolicy))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		obslog.Fatal("server failed", zap.Error(err))
	}
	<-done
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// makeConvertHandler builds the /convert handler: it parses the request's
// desired output media type/version and feature flags from query
// parameters, streams the body through the orchestrator, and copies the
// result to the response. A failure returned by Convert itself (before
// any output) is reported as a problem response in whichever media type
// the client asked for. A failure that surfaces while the output is
// being copied is logged only: no problem response is written, and the
// response body ends where the output stopped.
func makeConvertHandler(conv *epcisconv.Converter, cfg *configs.Config) http.HandlerFunc {
	policy := collector.PolicyAbort
	if cfg.ValidationPolicy == "skip" {
		policy = collector.PolicySkip
	}
	// No JSON Schema bundle is wired up at the process boundary (spec's
	// validation schemas are supplied per deployment); a validating
	// mapper with a no-op XSD validator still exercises the collector's
	// abort/skip policy plumbing end to end.
	mapper := collector.NewValidatingMapper(validate.NopXSDValidator{}, policy, event.Mapper(nil))

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		req, err := requestFromQuery(r)
		if err != nil {
			writeProblem(w, req.ToMediaType, err)
			return
		}
		// Feature flags the query left unset take the configured defaults.
		for _, d := range []struct {
			p   **bool
			def bool
		}{
			{&req.GenerateGS1CompliantDocument, cfg.DefaultGenerateGS1CompliantDocument},
			{&req.IncludeAssociationEvent, cfg.DefaultIncludeAssociationEvent},
			{&req.IncludePersistentDisposition, cfg.DefaultIncludePersistentDisposition},
			{&req.IncludeSensorElementList, cfg.DefaultIncludeSensorElementList},
		} {
			if *d.p == nil {
				v := d.def
				*d.p = &v
			}
		}

		out, err := conv.Convert(r.Context(), r.Body, req, mapper)
		if err != nil {
			writeProblem(w, req.ToMediaType, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeFor(req.ToMediaType))
		if _, err := io.Copy(w, out); err != nil {
			obslog.Error("conversion stream failed mid-response", zap.Error(err))
		}
	}
}

func requestFromQuery(r *http.Request) (types.ConversionRequest, error) {
	q := r.URL.Query()
	req := types.ConversionRequest{
		ToMediaType: types.MediaType(q.Get("toMediaType")),
		ToVersion:   types.SchemaVersion(q.Get("toVersion")),
	}
	if v := q.Get("fromMediaType"); v != "" {
		req.FromMediaType = types.MediaType(v)
	}
	if v := q.Get("fromVersion"); v != "" {
		req.FromVersion = types.SchemaVersion(v)
	}
	if v, ok := parseBoolParam(q, "generateGS1CompliantDocument"); ok {
		req.GenerateGS1CompliantDocument = &v
	}
	if v, ok := parseBoolParam(q, "includeAssociationEvent"); ok {
		req.IncludeAssociationEvent = &v
	}
	if v, ok := parseBoolParam(q, "includePersistentDisposition"); ok {
		req.IncludePersistentDisposition = &v
	}
	if v, ok := parseBoolParam(q, "includeSensorElementList"); ok {
		req.IncludeSensorElementList = &v
	}
	return req, req.Validate()
}

func parseBoolParam(q map[string][]string, key string) (bool, bool) {
	vals, ok := q[key]
	if !ok || len(vals) == 0 {
		return false, false
	}
	b, err := strconv.ParseBool(vals[0])
	if err != nil {
		return false, false
	}
	return b, true
}

func contentTypeFor(mt types.MediaType) string {
	if mt == types.JSONLD {
		return "application/ld+json"
	}
	return "application/xml"
}

func writeProblem(w http.ResponseWriter, toMedia types.MediaType, err error) {
	p := collector.NewProblem(err)
	w.Header().Set("Content-Type", contentTypeFor(toMedia))
	w.WriteHeader(p.Status)
	if toMedia == types.JSONLD {
		_ = collector.WriteProblemJSON(w, p)
		return
	}
	_ = collector.WriteProblemXML(w, p)
}
