package ports

import "context"

// Executor runs one build command in a package working directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Run executes the command with `sh -c` inside dir, with the given
	// variables added to the environment. A non-zero exit is returned as an
	// error carrying the exit code.
	Run(ctx context.Context, dir string, env map[string]string, command string) error
}
