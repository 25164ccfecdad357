// Package telemetry renders install progress through Progrock.
package telemetry

import (
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

// Recorder implements ports.ProgressSink on a Progrock tape. Every package
// gets one vertex; stage transitions and download progress stream onto its
// stdout, and the vertex is closed with the terminal result.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder

	mu       sync.Mutex
	vertices map[string]*vertexState
}

type vertexState struct {
	vertex *progrock.VertexRecorder
	staged bool
}

// New creates a Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder on the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:        w,
		rec:      progrock.NewRecorder(w),
		vertices: make(map[string]*vertexState),
	}
}

// Stage records a stage transition for pkg.
func (r *Recorder) Stage(pkg string, stage domain.Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.vertex(pkg)
	state.staged = true
	_, _ = fmt.Fprintf(state.vertex.Stdout(), "%s\n", stage)
}

// Download records incremental download progress.
func (r *Recorder) Download(p domain.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.vertex(p.Package)
	if p.Total > 0 {
		_, _ = fmt.Fprintf(state.vertex.Stdout(), "downloading %d/%d bytes\n", p.Bytes, p.Total)
		return
	}
	_, _ = fmt.Fprintf(state.vertex.Stdout(), "downloading %d bytes\n", p.Bytes)
}

// Done closes the vertex for pkg. A package finishing without ever entering
// a stage was served from the installed database, which Progrock renders as
// a cache hit.
func (r *Recorder) Done(pkg string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.vertex(pkg)
	if err == nil && !state.staged {
		state.vertex.Cached()
	}
	state.vertex.Done(err)
	delete(r.vertices, pkg)
}

// Close flushes and closes the underlying writer.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// vertex returns the vertex for pkg, creating it on first use. Callers hold
// r.mu.
func (r *Recorder) vertex(pkg string) *vertexState {
	state, ok := r.vertices[pkg]
	if !ok {
		d := digest.FromString(pkg)
		state = &vertexState{vertex: r.rec.Vertex(d, pkg)}
		r.vertices[pkg] = state
	}
	return state
}
