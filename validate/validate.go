// Package validate defines the Validator capability the Event Collector
// (spec 4.D) calls on each decoded event before it's written downstream,
// plus two concrete implementations: a JSON Schema validator and a no-op
// XSD stand-in.
//
// Grounded on the orchestrator description in spec 4.D/4.E, which frames
// validators as pluggable collaborators injected into the collector
// rather than something hard-wired into one format.
package validate

import "context"

// Validator checks a single decoded event and returns a non-nil error
// describing the first violation found. The collector passes the event's
// JSON projection as payload, whatever the output media type.
type Validator interface {
	Validate(ctx context.Context, eventKind string, payload []byte) error
}

// Chain runs each Validator in order, stopping at the first error.
type Chain []Validator

func (c Chain) Validate(ctx context.Context, eventKind string, payload []byte) error {
	for _, v := range c {
		if err := v.Validate(ctx, eventKind, payload); err != nil {
			return err
		}
	}
	return nil
}
