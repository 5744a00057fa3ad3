/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package execute runs external OS commands for the preflight checks.
//
// Two modes are provided: RunCaptured waits for the process and returns its
// combined stdout+stderr, while RunStreamed logs each output line as it is
// produced so long-running commands (a package-manager update, for example)
// show live progress. Both modes log to the process log as an observable
// effect; callers must not assume log lines are buffered. Shell execution is
// never used; commands run with an explicit argument vector.
package execute

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cpstack/preflight/pkg/validation"
)

// maxLineSize bounds a single streamed output line. Package-manager
// transactions routinely exceed bufio's default 64KB token limit.
const maxLineSize = 1024 * 1024

// Command describes one external command invocation.
type Command struct {
	// Args is the argument vector; Args[0] is the executable.
	Args []string

	// Env defines the environment for the process. Nil inherits the
	// current environment.
	Env []string

	// Name is the user-friendly name used in logs and errors. Empty
	// defaults to Args[0].
	Name string
}

func (c Command) name() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Args[0]
}

// Runner executes external commands.
type Runner struct {
	logger *slog.Logger
}

// Option is a functional option for configuring Runner instances.
type Option func(*Runner)

// WithLogger returns an Option that sets the logger used for command output
// and failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a new Runner with the provided options.
func New(opts ...Option) *Runner {
	r := &Runner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunCaptured spawns the command, waits for completion, and returns its
// combined stdout+stderr. A non-zero exit or spawn failure is logged at
// error level and returned as a CommandFailed validation error carrying the
// captured output.
func (r *Runner) RunCaptured(ctx context.Context, c Command) (string, error) {
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Env = c.Env

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()
	if err != nil {
		r.logger.Error("command failed",
			"name", c.name(),
			"args", strings.Join(c.Args, " "),
			"output", strings.TrimSpace(output),
			"error", err)
		return "", validation.CommandFailed(c.name(), strings.TrimSpace(output), err)
	}
	return output, nil
}

// RunStreamed spawns the command and logs each line of combined output at
// info level as it is produced, blocking until the process exits. Success
// and failure are classified exactly as in RunCaptured, but no output text
// is returned since it was already logged.
func (r *Runner) RunStreamed(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Env = c.Env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.logger.Error("command failed", "name", c.name(), "error", err)
		return validation.CommandFailed(c.name(), "", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		r.logger.Error("command failed", "name", c.name(), "error", err)
		return validation.CommandFailed(c.name(), "", err)
	}

	// One goroutine pumps output lines into the log; it is joined before
	// the process result is classified, so no work outlives this call.
	var g errgroup.Group
	g.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			r.logger.Info(scanner.Text(), "command", c.name())
		}
		if err := scanner.Err(); err != nil {
			// The pipe must be drained even when scanning stops,
			// or the child blocks writing and never exits.
			_, _ = io.Copy(io.Discard, stdout)
			return err
		}
		return nil
	})

	scanErr := g.Wait()
	if err := cmd.Wait(); err != nil {
		r.logger.Error("command failed, see log for details", "name", c.name(), "error", err)
		return validation.CommandFailed(c.name(), "see log for details", err)
	}
	if scanErr != nil {
		r.logger.Error("reading command output failed", "name", c.name(), "error", scanErr)
		return validation.CommandFailed(c.name(), "reading output failed", scanErr)
	}
	return nil
}
