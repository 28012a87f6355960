package cli

import (
	"flag"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/aviary-e2e/pkg/config"
	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/suite"
)

func fixtureCases() []suite.Case {
	return []suite.Case{
		{ID: "S1", Name: "launch", Group: core.GroupSmoke, Seq: 1},
		{ID: "S2", Name: "tabs", Group: core.GroupSmoke, Seq: 2},
		{ID: "N1", Name: "detail", Group: core.GroupNavigation, Seq: 1},
		{ID: "F3", Name: "search", Group: core.GroupFunctional, Seq: 3},
	}
}

func caseIDs(cs []suite.Case) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

func TestFilterCases_NoFilters(t *testing.T) {
	selected, err := filterCases(fixtureCases(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 4 {
		t.Errorf("expected all 4 cases, got %v", caseIDs(selected))
	}
}

func TestFilterCases_ByGroup(t *testing.T) {
	selected, err := filterCases(fixtureCases(), []string{"smoke"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 2 || selected[0].ID != "S1" || selected[1].ID != "S2" {
		t.Errorf("expected [S1 S2], got %v", caseIDs(selected))
	}
}

func TestFilterCases_ByGroupLetter(t *testing.T) {
	selected, err := filterCases(fixtureCases(), []string{"F"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 1 || selected[0].ID != "F3" {
		t.Errorf("expected [F3], got %v", caseIDs(selected))
	}
}

func TestFilterCases_ByID(t *testing.T) {
	selected, err := filterCases(fixtureCases(), nil, []string{"f3", " N1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 2 {
		t.Errorf("expected [N1 F3], got %v", caseIDs(selected))
	}
}

func TestFilterCases_UnknownID(t *testing.T) {
	_, err := filterCases(fixtureCases(), nil, []string{"Z9"})
	if err == nil {
		t.Fatal("expected error for unknown case ID")
	}
	if !strings.Contains(err.Error(), "unknown case ID") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFilterCases_UnknownGroup(t *testing.T) {
	_, err := filterCases(fixtureCases(), []string{"regression"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown group")
	}
}

func TestFilterCases_Intersection(t *testing.T) {
	// F3 is functional; restricting to the smoke group leaves nothing.
	selected, err := filterCases(fixtureCases(), []string{"smoke"}, []string{"F3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 0 {
		t.Errorf("expected empty intersection, got %v", caseIDs(selected))
	}
}

func TestApplyFlags_Overrides(t *testing.T) {
	t.Setenv("AVIARY_E2E_SERVER", "")
	t.Setenv("AVIARY_E2E_OUTPUT", "")

	set := flag.NewFlagSet("run", flag.ContinueOnError)
	set.String("server", "", "")
	set.String("device", "", "")
	set.String("output", "", "")
	set.Bool("html", false, "")
	set.String("session-scope", "", "")
	if err := set.Set("server", "http://10.0.0.5:4723"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := set.Set("device", "iPhone 17 Pro"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := set.Set("html", "true"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := set.Set("session-scope", "suite"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	c := cli.NewContext(nil, set, nil)

	cfg := config.Default()
	applyFlags(cfg, c)

	if cfg.Server != "http://10.0.0.5:4723" {
		t.Errorf("server override not applied: %s", cfg.Server)
	}
	if cfg.Caps.DeviceName != "iPhone 17 Pro" {
		t.Errorf("device override not applied: %s", cfg.Caps.DeviceName)
	}
	if !cfg.HTML {
		t.Error("html override not applied")
	}
	if cfg.SessionScope != config.ScopeSuite {
		t.Errorf("session scope override not applied: %s", cfg.SessionScope)
	}
	// Not set on the command line, so the default stays.
	if cfg.Output != config.DefaultOutput {
		t.Errorf("output should keep its default, got %s", cfg.Output)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms       int64
		expected string
	}{
		{250, "250ms"},
		{1500, "1.5s"},
		{65000, "1m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.expected {
			t.Errorf("formatDuration(%d) = %s, want %s", tt.ms, got, tt.expected)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status   core.CaseStatus
		expected string
	}{
		{core.StatusPassed, "✓ PASS"},
		{core.StatusFailed, "✗ FAIL"},
		{core.StatusSkipped, "- SKIP"},
		{core.StatusExpectedFailed, "✓ XFAIL"},
		{core.StatusUnexpectedPassed, "✗ XPASS"},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.status); got != tt.expected {
			t.Errorf("statusLabel(%v) = %s, want %s", tt.status, got, tt.expected)
		}
	}
}

func TestDescribeDisposition(t *testing.T) {
	if got := describeDisposition(core.Runs()); got != "run" {
		t.Errorf("expected run, got %s", got)
	}
	got := describeDisposition(core.PlatformLimitation("no gesture support"))
	if !strings.Contains(got, "skip-by-platform-limitation") || !strings.Contains(got, "no gesture support") {
		t.Errorf("disposition description missing kind or reason: %s", got)
	}
}
