// Package report serializes a finished run.
//
// report.json is the stable machine-readable artifact a CI step consumes.
// report.html is a single self-contained page for humans, produced only
// when asked for.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/core"
)

// SchemaVersion identifies the report.json layout.
const SchemaVersion = "1.0.0"

// Run is the serialized form of one suite invocation.
type Run struct {
	SchemaVersion string    `json:"schemaVersion"`
	RunID         string    `json:"runId"`
	StartTime     time.Time `json:"startTime"`
	DurationMs    int64     `json:"durationMs"`

	Server     string `json:"server"`
	Platform   string `json:"platform"`
	Device     string `json:"device"`
	App        string `json:"app,omitempty"`
	AppVersion string `json:"appVersion,omitempty"`

	Summary core.Summary `json:"summary"`
	Cases   []CaseRow    `json:"cases"`
}

// CaseRow is one case outcome.
type CaseRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	Error        string    `json:"error,omitempty"`
	Artifact     string    `json:"artifact,omitempty"`
	CaptureError string    `json:"captureError,omitempty"`
	StartTime    time.Time `json:"startTime"`
	DurationMs   int64     `json:"durationMs"`
}

// FromRunResult flattens a run result into the report schema.
func FromRunResult(res *core.RunResult) Run {
	run := Run{
		SchemaVersion: SchemaVersion,
		RunID:         res.RunID,
		StartTime:     res.StartTime,
		DurationMs:    res.Duration.Milliseconds(),
		Server:        res.Server,
		Platform:      res.Platform,
		Device:        res.Device,
		App:           res.App,
		AppVersion:    res.AppVersion,
		Summary:       res.Summary,
		Cases:         make([]CaseRow, 0, len(res.Cases)),
	}
	for _, c := range res.Cases {
		run.Cases = append(run.Cases, CaseRow{
			ID:           c.ID,
			Name:         c.Name,
			Status:       c.Status.String(),
			Reason:       c.Reason,
			Error:        c.Error,
			Artifact:     c.Artifact,
			CaptureError: c.CaptureError,
			StartTime:    c.StartTime,
			DurationMs:   c.Duration.Milliseconds(),
		})
	}
	return run
}

// WriteJSON persists the report as <dir>/report.json and returns the path.
func WriteJSON(dir string, run Run) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, "report.json")
	if err := atomicWriteJSON(path, run); err != nil {
		return "", err
	}
	return path, nil
}

// atomicWriteJSON writes v to a temp file and renames it over path, so
// a reader polling the directory never observes a torn file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize report: %w", err)
	}
	return nil
}
