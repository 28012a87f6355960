package core

import (
	"time"

	"github.com/google/uuid"
)

// CaseResult captures the complete outcome of one test case
type CaseResult struct {
	// Identity
	ID       string `json:"id"`   // Group letter + sequence: S1, N3, F9
	Name     string `json:"name"` // Human-readable case name
	Group    Group  `json:"-"`
	Sequence int    `json:"sequence"`

	// Status
	Status      CaseStatus  `json:"-"`
	Disposition Disposition `json:"-"`
	Reason      string      `json:"reason,omitempty"` // Skip or expected-failure reason
	Error       string      `json:"error,omitempty"`  // The failure, verbatim

	// Debug artifacts
	Artifact     string `json:"artifact,omitempty"`     // Capture artifact path, if one was taken
	CaptureError string `json:"captureError,omitempty"` // Secondary diagnostic, never fatal

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
}

// Summary aggregates case outcomes for one run
type Summary struct {
	Total            int `json:"total"`
	Passed           int `json:"passed"`
	Failed           int `json:"failed"`
	Skipped          int `json:"skipped"`
	ExpectedFailed   int `json:"expectedFailed"`
	UnexpectedPassed int `json:"unexpectedPassed"`
}

// RunResult captures the complete outcome of one suite invocation
type RunResult struct {
	// Identity
	RunID string `json:"runId"` // Unique execution ID (UUID)

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Target
	Server     string `json:"server"`
	Platform   string `json:"platform"`
	Device     string `json:"device"`
	App        string `json:"app,omitempty"`
	AppVersion string `json:"appVersion,omitempty"`

	// Results
	Cases []CaseResult `json:"cases"`

	// Summary (computed)
	Summary Summary `json:"summary"`
}

// NewRunResult creates a run result with a fresh run ID
func NewRunResult() *RunResult {
	return &RunResult{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}
}

// Append records a finished case and keeps the summary current
func (r *RunResult) Append(c CaseResult) {
	r.Cases = append(r.Cases, c)
	r.Summary = r.ComputeSummary()
}

// Finish stamps the run duration and final summary
func (r *RunResult) Finish() {
	r.Duration = time.Since(r.StartTime)
	r.Summary = r.ComputeSummary()
}

// ComputeSummary tallies case statuses
func (r *RunResult) ComputeSummary() Summary {
	s := Summary{Total: len(r.Cases)}
	for _, c := range r.Cases {
		switch c.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusExpectedFailed:
			s.ExpectedFailed++
		case StatusUnexpectedPassed:
			s.UnexpectedPassed++
		}
	}
	return s
}

// Success returns true if the run is clean: no failures and no anomalies
func (r *RunResult) Success() bool {
	s := r.ComputeSummary()
	return s.Failed == 0 && s.UnexpectedPassed == 0
}

// ExitCode maps the run outcome to a process exit code. Only failed and
// unexpected-passed cases make it non-zero.
func (r *RunResult) ExitCode() int {
	if r.Success() {
		return 0
	}
	return 1
}
