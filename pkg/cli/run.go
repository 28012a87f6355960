package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/aviary-e2e/pkg/capture"
	"github.com/devicelab-dev/aviary-e2e/pkg/cases"
	"github.com/devicelab-dev/aviary-e2e/pkg/config"
	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/logger"
	"github.com/devicelab-dev/aviary-e2e/pkg/report"
	"github.com/devicelab-dev/aviary-e2e/pkg/session"
	"github.com/devicelab-dev/aviary-e2e/pkg/suite"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the suite against a simulator",
	Description: `Run the registered test cases against the Aviary app.

Configuration comes from config.yaml in the working directory (or --config),
with flags overriding file values.

Examples:
  aviary-e2e run --app ./build/Aviary.app --device "iPhone 17 Pro"
  aviary-e2e run --group smoke --group navigation
  aviary-e2e run --case F3 --session-scope suite --html`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config.yaml",
		},
		&cli.StringFlag{
			Name:  "server",
			Usage: "Appium server URL",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "Simulator name, e.g. \"iPhone 17 Pro\"",
		},
		&cli.StringFlag{
			Name:  "udid",
			Usage: "Simulator UDID, wins over --device",
		},
		&cli.StringFlag{
			Name:  "app",
			Usage: "Path to the .app bundle",
		},
		&cli.StringFlag{
			Name:  "bundle-id",
			Usage: "Bundle ID of an already installed app",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Results directory",
		},
		&cli.BoolFlag{
			Name:  "html",
			Usage: "Also write report.html",
		},
		&cli.StringSliceFlag{
			Name:    "group",
			Aliases: []string{"g"},
			Usage:   "Only run these groups (smoke, navigation, functional)",
		},
		&cli.StringSliceFlag{
			Name:  "case",
			Usage: "Only run these case IDs (e.g. S1, F3)",
		},
		&cli.StringFlag{
			Name:  "session-scope",
			Usage: "Session scope: test (fresh session per case) or suite",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Verbose logging",
		},
	},
	Action: runSuite,
}

func runSuite(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, c)

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logPath := filepath.Join(cfg.Output, "run.log")
	if err := logger.Init(logPath, c.Bool("verbose")); err != nil {
		fmt.Printf("Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	logger.Info("=== Run started ===")
	logger.Info("Server: %s", cfg.Server)
	logger.Info("Output: %s", cfg.Output)

	fmt.Printf("\n%sSetup%s\n", color(colorBold), color(colorReset))
	fmt.Println(strings.Repeat("─", 60))

	info, err := cfg.Preflight()
	if err != nil {
		logger.Error("Preflight failed: %v", err)
		return err
	}
	if info != nil {
		logger.Info("App bundle: %s version %s", info.BundleID, info.Version)
		printSetupSuccess(fmt.Sprintf("App bundle %s (%s)", info.BundleID, info.Version))
	}

	all := cases.All()
	selected, err := filterCases(all, c.StringSlice("group"), c.StringSlice("case"))
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no cases match the given filters")
	}
	printSetupSuccess(fmt.Sprintf("Selected %d of %d cases", len(selected), len(all)))
	printSetupSuccess(fmt.Sprintf("Results directory: %s", cfg.Output))

	// SIGINT finishes the current case, then the runner marks the rest
	// skipped and the report still gets written.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		logger.Warn("Received %v, finishing the current case and skipping the rest", sig)
		fmt.Fprintf(os.Stderr, "\nReceived %v, winding down...\n", sig)
		cancel()
	}()

	runner := suite.New(session.NewManager(cfg), cfg, capture.New(cfg.ArtifactsDir()))
	if info != nil {
		runner.AppVersion = info.Version
	}
	runner.OnCaseStart = onCaseStart
	runner.OnCaseEnd = onCaseEnd

	fmt.Printf("\n%sExecution%s\n", color(colorBold), color(colorReset))
	fmt.Println(strings.Repeat("─", 60))

	result, err := runner.Run(ctx, selected)
	if err != nil {
		logger.Error("Run aborted: %v", err)
		return err
	}

	printSummary(result)

	run := report.FromRunResult(result)
	jsonPath, err := report.WriteJSON(cfg.Output, run)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Println("  Reports:")
	fmt.Printf("    JSON:   %s\n", jsonPath)
	if cfg.HTML {
		htmlPath, err := report.WriteHTML(cfg.Output, run)
		if err != nil {
			fmt.Printf("  %s⚠%s Warning: failed to write HTML report: %v\n", color(colorYellow), color(colorReset), err)
		} else {
			fmt.Printf("    HTML:   %s\n", htmlPath)
		}
	}
	fmt.Println()

	logger.Info("=== Run finished: %d passed, %d failed, %d skipped ===",
		result.Summary.Passed, result.Summary.Failed, result.Summary.Skipped)

	if result.ExitCode() != 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// loadConfig loads an explicit config file, or searches the working
// directory and falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromDir(".")
}

// applyFlags overrides file configuration with explicitly set flags.
func applyFlags(cfg *config.Config, c *cli.Context) {
	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("device") {
		cfg.Caps.DeviceName = c.String("device")
	}
	if c.IsSet("udid") {
		cfg.Caps.UDID = c.String("udid")
	}
	if c.IsSet("app") {
		cfg.Caps.App = c.String("app")
	}
	if c.IsSet("bundle-id") {
		cfg.Caps.BundleID = c.String("bundle-id")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("html") {
		cfg.HTML = c.Bool("html")
	}
	if c.IsSet("session-scope") {
		cfg.SessionScope = c.String("session-scope")
	}
}

// filterCases narrows the registry to the requested groups and case IDs.
// The two filters intersect when both are given. Unknown names are errors
// so a typo never silently runs nothing.
func filterCases(all []suite.Case, groups, ids []string) ([]suite.Case, error) {
	selected := all

	if len(groups) > 0 {
		want := make(map[core.Group]bool, len(groups))
		for _, g := range groups {
			parsed, err := core.ParseGroup(g)
			if err != nil {
				return nil, err
			}
			want[parsed] = true
		}
		var kept []suite.Case
		for _, c := range selected {
			if want[c.Group] {
				kept = append(kept, c)
			}
		}
		selected = kept
	}

	if len(ids) > 0 {
		known := make(map[string]bool, len(all))
		for _, c := range all {
			known[strings.ToUpper(c.ID)] = true
		}
		want := make(map[string]bool, len(ids))
		for _, id := range ids {
			key := strings.ToUpper(strings.TrimSpace(id))
			if !known[key] {
				return nil, fmt.Errorf("unknown case ID %q", id)
			}
			want[key] = true
		}
		var kept []suite.Case
		for _, c := range selected {
			if want[strings.ToUpper(c.ID)] {
				kept = append(kept, c)
			}
		}
		selected = kept
	}

	return selected, nil
}

// printSetupSuccess prints a success message for setup
func printSetupSuccess(msg string) {
	fmt.Printf("  %s✓%s %s\n", color(colorGreen), color(colorReset), msg)
}

// Live progress callbacks

func onCaseStart(idx, total int, c suite.Case) {
	fmt.Printf("\n  %s[%d/%d]%s %s%s%s %s\n",
		color(colorCyan), idx+1, total, color(colorReset),
		color(colorBold), c.ID, color(colorReset), c.Name)
}

func onCaseEnd(res core.CaseResult) {
	dur := formatDuration(res.Duration.Milliseconds())
	switch res.Status {
	case core.StatusPassed:
		fmt.Printf("    %s✓ passed%s (%s)\n", color(colorGreen), color(colorReset), dur)
	case core.StatusFailed:
		fmt.Printf("    %s✗ failed%s (%s)\n", color(colorRed), color(colorReset), dur)
		if res.Error != "" {
			fmt.Printf("      %s╰─%s %s\n", color(colorGray), color(colorReset), res.Error)
		}
		if res.Artifact != "" {
			fmt.Printf("      %s╰─%s screenshot: %s\n", color(colorGray), color(colorReset), res.Artifact)
		}
	case core.StatusSkipped:
		fmt.Printf("    %s- skipped%s %s(%s)%s\n", color(colorCyan), color(colorReset), color(colorGray), res.Reason, color(colorReset))
	case core.StatusExpectedFailed:
		fmt.Printf("    %s✓ failed as expected%s (%s)\n", color(colorYellow), color(colorReset), dur)
		if res.Artifact != "" {
			fmt.Printf("      %s╰─%s screenshot: %s\n", color(colorGray), color(colorReset), res.Artifact)
		}
	case core.StatusUnexpectedPassed:
		fmt.Printf("    %s✗ passed unexpectedly%s (%s)\n", color(colorRed), color(colorReset), dur)
	}
}

func printSummary(result *core.RunResult) {
	s := result.Summary

	fmt.Println()
	if s.Passed > 0 {
		fmt.Printf("  %s%d passed%s (%s)\n", color(colorGreen), s.Passed, color(colorReset), formatDuration(result.Duration.Milliseconds()))
	}
	if s.Failed > 0 {
		fmt.Printf("  %s%d failed%s\n", color(colorRed), s.Failed, color(colorReset))
	}
	if s.Skipped > 0 {
		fmt.Printf("  %s%d skipped%s\n", color(colorCyan), s.Skipped, color(colorReset))
	}
	if s.ExpectedFailed > 0 {
		fmt.Printf("  %s%d failed as expected%s\n", color(colorYellow), s.ExpectedFailed, color(colorReset))
	}
	if s.UnexpectedPassed > 0 {
		fmt.Printf("  %s%d passed unexpectedly%s\n", color(colorRed), s.UnexpectedPassed, color(colorReset))
	}
	fmt.Println()

	tableWidth := 88
	fmt.Println(strings.Repeat("═", tableWidth))
	fmt.Printf("  %-4s %-46s %-9s %10s\n", "Case", "Name", "Status", "Duration")
	fmt.Println(strings.Repeat("─", tableWidth))

	for _, cr := range result.Cases {
		name := cr.Name
		if len(name) > 46 {
			name = name[:43] + "..."
		}
		fmt.Printf("  %-4s %-46s %s%-9s%s %10s\n",
			cr.ID, name,
			statusColor(cr.Status), statusLabel(cr.Status), color(colorReset),
			formatDuration(cr.Duration.Milliseconds()))
	}

	fmt.Println(strings.Repeat("─", tableWidth))
	clean := s.Passed + s.Skipped + s.ExpectedFailed
	verdict := fmt.Sprintf("%d/%d", clean, s.Total)
	verdictColor := color(colorGreen)
	if result.ExitCode() != 0 {
		verdictColor = color(colorRed)
	}
	fmt.Printf("  %s%-4s%s %-46s %s%-9s%s %10s\n",
		color(colorBold), "ALL", color(colorReset), "",
		verdictColor, verdict, color(colorReset),
		formatDuration(result.Duration.Milliseconds()))
	fmt.Println(strings.Repeat("═", tableWidth))
	fmt.Println()
}

func statusLabel(s core.CaseStatus) string {
	switch s {
	case core.StatusPassed:
		return "✓ PASS"
	case core.StatusFailed:
		return "✗ FAIL"
	case core.StatusSkipped:
		return "- SKIP"
	case core.StatusExpectedFailed:
		return "✓ XFAIL"
	case core.StatusUnexpectedPassed:
		return "✗ XPASS"
	default:
		return s.String()
	}
}

func statusColor(s core.CaseStatus) string {
	switch s {
	case core.StatusPassed:
		return color(colorGreen)
	case core.StatusFailed, core.StatusUnexpectedPassed:
		return color(colorRed)
	case core.StatusSkipped:
		return color(colorCyan)
	case core.StatusExpectedFailed:
		return color(colorYellow)
	default:
		return color(colorGray)
	}
}
