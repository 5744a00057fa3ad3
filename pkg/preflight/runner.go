/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package preflight orchestrates the pre-deployment validation checks. It
// runs the fixed check sequence strictly in order, stops at the first
// failure, classifies it, and produces a single pass/fail report.
//
// Execution is fully synchronous: checks have ordering dependencies (the
// hostname must be stable before later checks reason about the hosts file)
// and the fail-fast contract requires strict sequencing. Nothing is retried
// and every failure is terminal for the run.
package preflight

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cpstack/preflight/pkg/config"
	"github.com/cpstack/preflight/pkg/configcheck"
	"github.com/cpstack/preflight/pkg/execute"
	"github.com/cpstack/preflight/pkg/hostcheck"
	"github.com/cpstack/preflight/pkg/templates"
	"github.com/cpstack/preflight/pkg/validation"
)

// failurePrefix is the generic contextual message logged with every
// failure. Existing automation greps for it.
const failurePrefix = "validation failed, check host configuration and retry"

// Runner runs the ordered preflight check sequence against one
// configuration snapshot.
type Runner struct {
	cfg      *config.Config
	exec     *execute.Runner
	checker  *hostcheck.Checker
	renderer templates.Renderer

	version        string
	updatePackages bool

	state State
}

// Option is a functional option for configuring Runner instances.
type Option func(*Runner)

// WithVersion returns an Option that sets the version recorded in reports.
func WithVersion(version string) Option {
	return func(r *Runner) {
		r.version = version
	}
}

// WithExecutor returns an Option that sets the command executor.
func WithExecutor(exec *execute.Runner) Option {
	return func(r *Runner) {
		r.exec = exec
	}
}

// WithChecker returns an Option that sets the host state checker.
func WithChecker(checker *hostcheck.Checker) Option {
	return func(r *Runner) {
		r.checker = checker
	}
}

// WithRenderer returns an Option that sets the template renderer
// collaborator used for the environment-file check.
func WithRenderer(renderer templates.Renderer) Option {
	return func(r *Runner) {
		r.renderer = renderer
	}
}

// WithPackageUpdate returns an Option that refreshes the host packages
// before the checks run.
func WithPackageUpdate(update bool) Option {
	return func(r *Runner) {
		r.updatePackages = update
	}
}

// New creates a Runner for the given snapshot. Collaborators default to
// production implementations unless overridden by options.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:   cfg,
		state: StateNotStarted,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.exec == nil {
		r.exec = execute.New()
	}
	if r.checker == nil {
		r.checker = hostcheck.New(cfg, r.exec)
	}
	if r.renderer == nil {
		r.renderer = &templates.DryRunRenderer{
			Runner:        r.exec,
			TemplatesPath: cfg.TemplatesPath,
			RolesFile:     cfg.RolesFile,
		}
	}
	return r
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return r.state
}

// Checks returns the ordered check sequence. The order is load-bearing:
// host state first (hostname before anything that reads the hosts file),
// then configuration formats, then per-subnet addressing, then the
// remaining host probes.
func (r *Runner) Checks() []Check {
	checks := []Check{
		{Name: "hostname", Run: r.checker.CheckHostname},
		{Name: "memory", Run: r.checker.CheckMemory},
		{Name: "sysctl", Run: r.checker.CheckSysctl},
		{Name: "passwords-file", Run: r.checker.CheckPasswordsFile},
	}

	if len(r.cfg.CustomEnvFiles) > 0 {
		checks = append(checks, Check{
			Name: "environment-file-paths",
			Run: func(ctx context.Context) error {
				return configcheck.ValidateEnvFiles(ctx, r.cfg, r.renderer)
			},
		})
	}

	checks = append(checks, Check{
		Name: "value-formats",
		Run: func(context.Context) error {
			return configcheck.ValidateValueFormats(r.cfg)
		},
	})

	for _, name := range r.cfg.SubnetNames() {
		name, subnet := name, r.cfg.Subnets[name]
		checks = append(checks, Check{
			Name: "subnet/" + name,
			Run: func(context.Context) error {
				return configcheck.ValidateSubnet(r.cfg, name, subnet)
			},
		})
	}

	return append(checks,
		Check{Name: "nameservers", Run: func(context.Context) error {
			return configcheck.ValidateNameservers(r.cfg)
		}},
		Check{Name: "interface-exists", Run: r.checker.CheckInterfaceExists},
		Check{Name: "no-ip-change", Run: r.checker.CheckNoIPChange},
	)
}

// Run executes the check sequence and returns the report. The first
// failing check ends the run; the report carries its classified failure.
func (r *Runner) Run(ctx context.Context) *Report {
	start := time.Now()
	r.state = StateRunning

	report := &Report{
		Kind:       Kind,
		APIVersion: APIVersion,
		RunID:      uuid.New().String(),
		Version:    r.version,
		StartedAt:  start.UTC(),
	}

	defer func() {
		report.Duration = time.Since(start)
		runDuration.Observe(report.Duration.Seconds())
		runTotal.WithLabelValues(string(report.State)).Inc()
	}()

	if r.updatePackages {
		if err := r.refreshPackages(ctx); err != nil {
			return r.fail(report, "package-update", err)
		}
	}

	for _, check := range r.Checks() {
		slog.Info("running preflight check", "check", check.Name)
		if err := check.Run(ctx); err != nil {
			checkTotal.WithLabelValues(check.Name, string(CheckStatusFailed)).Inc()
			return r.fail(report, check.Name, err)
		}
		checkTotal.WithLabelValues(check.Name, string(CheckStatusPassed)).Inc()
		report.Checks = append(report.Checks, CheckResult{
			Name:   check.Name,
			Status: CheckStatusPassed,
		})
	}

	r.state = StatePassed
	report.State = StatePassed
	slog.Info("all preflight checks passed",
		"checks", len(report.Checks), "run_id", report.RunID)
	return report
}

// fail transitions to the terminal Failed state and records the first
// failure verbatim, classified by kind.
func (r *Runner) fail(report *Report, checkName string, err error) *Report {
	kind, ok := validation.KindOf(err)
	if !ok {
		kind = validation.KindHostStateInvalid
	}
	r.state = StateFailed
	report.State = StateFailed
	report.Checks = append(report.Checks, CheckResult{
		Name:    checkName,
		Status:  CheckStatusFailed,
		Message: err.Error(),
	})
	report.Failure = &Failure{
		Kind:    kind,
		Check:   checkName,
		Message: err.Error(),
	}
	slog.Error(failurePrefix, "check", checkName, "kind", string(kind), "error", err)
	return report
}

// refreshPackages refreshes the host package metadata and applies pending
// updates, streaming the package manager output live to the log.
func (r *Runner) refreshPackages(ctx context.Context) error {
	slog.Info("running package manager clean")
	if err := r.exec.RunStreamed(ctx, execute.Command{
		Args: []string{"sudo", "dnf", "clean", "all"},
		Name: "dnf-clean-all",
	}); err != nil {
		return err
	}
	slog.Info("package-manager clean completed successfully")

	slog.Info("running package manager update")
	if err := r.exec.RunStreamed(ctx, execute.Command{
		Args: []string{"sudo", "dnf", "update", "-y"},
		Name: "dnf-update",
	}); err != nil {
		return err
	}
	slog.Info("package-manager update completed successfully")
	return nil
}
