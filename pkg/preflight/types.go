/*
Copyright © 2026 CPStack Authors
SPDX-License-Identifier: Apache-2.0
*/

package preflight

import (
	"context"
	"time"

	"github.com/cpstack/preflight/pkg/validation"
)

const (
	// APIVersion is the API version for preflight reports.
	APIVersion = "preflight.cpstack.io/v1alpha1"

	// Kind is the kind for preflight reports.
	Kind = "PreflightReport"
)

// State is the orchestrator lifecycle state. Passed and Failed are
// terminal.
type State string

const (
	StateNotStarted State = "NotStarted"
	StateRunning    State = "Running"
	StatePassed     State = "Passed"
	StateFailed     State = "Failed"
)

// Check is one named validation step. The orchestration order is the
// explicit ordered slice returned by Runner.Checks, not implicit control
// flow.
type Check struct {
	// Name identifies the check in logs and the report.
	Name string

	// Run executes the check. A nil return means the check passed; any
	// error halts the run.
	Run func(ctx context.Context) error
}

// CheckStatus is the outcome of one executed check.
type CheckStatus string

const (
	CheckStatusPassed CheckStatus = "passed"
	CheckStatusFailed CheckStatus = "failed"
)

// CheckResult records the outcome of one executed check. Checks after the
// first failure never run and have no result; every check is binary with
// no partial or warning state.
type CheckResult struct {
	Name    string      `json:"name" yaml:"name"`
	Status  CheckStatus `json:"status" yaml:"status"`
	Message string      `json:"message,omitempty" yaml:"message,omitempty"`
}

// Failure describes the single classified failure of a run.
type Failure struct {
	Kind    validation.Kind `json:"kind" yaml:"kind"`
	Check   string          `json:"check" yaml:"check"`
	Message string          `json:"message" yaml:"message"`
}

// Report is the final outcome of a preflight run.
type Report struct {
	Kind       string `json:"kind" yaml:"kind"`
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`

	// RunID uniquely identifies this run.
	RunID string `json:"runId" yaml:"runId"`

	// Version is the preflightctl version that produced the report.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	// State is the terminal orchestrator state: Passed or Failed.
	State State `json:"state" yaml:"state"`

	// Checks holds one entry per executed check, in execution order.
	Checks []CheckResult `json:"checks" yaml:"checks"`

	// Failure is set iff State is Failed.
	Failure *Failure `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Passed reports whether the run reached the Passed state.
func (r *Report) Passed() bool {
	return r.State == StatePassed
}
