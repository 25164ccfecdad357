package ports

import "github.com/quarrypkg/quarry/internal/core/domain"

// ProgressSink receives install progress events for external rendering. The
// engine makes no assumption about how, or whether, events are displayed.
//
//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks
type ProgressSink interface {
	// Stage signals that a package entered a pipeline stage.
	Stage(pkg string, stage domain.Stage)

	// Download reports incremental download progress for a package.
	Download(p domain.Progress)

	// Done signals that a package reached a terminal state. err is nil on
	// success.
	Done(pkg string, err error)
}
