// Package shell provides the build-command executor adapter.
package shell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"go.trai.ch/zerr"

	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// Executor implements ports.Executor using os/exec. Build commands are
// opaque shell one-liners, so they run through `sh -c` with the package
// variables appended to the process environment.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Run executes the command inside dir. A non-zero exit aborts with the exit
// code and command recorded in the error metadata.
func (e *Executor) Run(ctx context.Context, dir string, env map[string]string, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command) //nolint:gosec // build steps are user provided by design of the package format
	cmd.Dir = dir
	cmd.Env = mergeEnvironment(os.Environ(), env)
	cmd.Stdout = &logWriter{logger: e.logger, level: "info"}
	cmd.Stderr = &logWriter{logger: e.logger, level: "error"}

	if err := cmd.Run(); err != nil {
		exitCode := -1 // unknown or signal
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		failed := zerr.With(zerr.Wrap(domain.ErrBuildCommandFailed, err.Error()), "command", command)
		return zerr.With(failed, "exit_code", exitCode)
	}
	return nil
}

// mergeEnvironment appends the package variables onto the base environment,
// overriding any clashing names.
func mergeEnvironment(base []string, extra map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(extra))
	var order []string
	for _, entry := range base {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}
	for k, v := range extra {
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

type logWriter struct {
	logger ports.Logger
	level  string
}

// Write forwards command output to the logger, one line per call. Partial
// lines are forwarded as-is; build output is advisory, not parsed.
func (w *logWriter) Write(p []byte) (int, error) {
	lines := strings.Split(strings.TrimSuffix(string(p), "\n"), "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		if w.level == "info" {
			w.logger.Info(line)
		} else {
			w.logger.Error(zerr.New(line))
		}
	}
	return len(p), nil
}
