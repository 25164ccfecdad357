package telemetry

import "github.com/quarrypkg/quarry/internal/core/domain"

// Event is one progress notification delivered through a Channel sink.
type Event struct {
	// Package is the package the event concerns.
	Package string

	// Stage is set for stage-transition events.
	Stage domain.Stage

	// Progress is set for download-progress events.
	Progress *domain.Progress

	// Terminal marks the final event for a package; Err carries the failure
	// cause, if any.
	Terminal bool
	Err      error
}

// Channel is a ProgressSink that forwards events over a buffered channel,
// for callers that render progress themselves. Events are dropped rather
// than blocking the pipeline when the consumer falls behind.
type Channel struct {
	events chan Event
}

// NewChannel creates a Channel sink with the given buffer size.
func NewChannel(buffer int) *Channel {
	if buffer < 1 {
		buffer = 1
	}
	return &Channel{events: make(chan Event, buffer)}
}

// Events returns the stream of progress events.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Stage forwards a stage transition.
func (c *Channel) Stage(pkg string, stage domain.Stage) {
	c.send(Event{Package: pkg, Stage: stage})
}

// Download forwards download progress.
func (c *Channel) Download(p domain.Progress) {
	c.send(Event{Package: p.Package, Progress: &p})
}

// Done forwards the terminal event for a package.
func (c *Channel) Done(pkg string, err error) {
	c.send(Event{Package: pkg, Terminal: true, Err: err})
}

// Close closes the event stream. No sink method may be called afterwards.
func (c *Channel) Close() {
	close(c.events)
}

func (c *Channel) send(e Event) {
	select {
	case c.events <- e:
	default:
	}
}
