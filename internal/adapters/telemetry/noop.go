package telemetry

import "github.com/quarrypkg/quarry/internal/core/domain"

// Noop is a ProgressSink that discards every event.
type Noop struct{}

// NewNoop creates a Noop sink.
func NewNoop() *Noop {
	return &Noop{}
}

// Stage discards the event.
func (Noop) Stage(string, domain.Stage) {}

// Download discards the event.
func (Noop) Download(domain.Progress) {}

// Done discards the event.
func (Noop) Done(string, error) {}
