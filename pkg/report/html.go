package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// WriteHTML renders the run as a single self-contained page at
// <dir>/report.html and returns the path.
func WriteHTML(dir string, run Run) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	html, err := renderHTML(buildHTMLData(run))
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	path := filepath.Join(dir, "report.html")
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("write html: %w", err)
	}
	return path, nil
}

// HTMLData is the template payload.
type HTMLData struct {
	Title       string
	GeneratedAt string
	StartedAt   string
	Duration    string
	PassRate    float64
	Run         Run
	Cases       []CaseHTMLData
}

// CaseHTMLData is one table row, formatted for display.
type CaseHTMLData struct {
	CaseRow
	StatusClass string
	DurationStr string
}

var statusClasses = map[string]string{
	"passed":            "passed",
	"failed":            "failed",
	"skipped":           "skipped",
	"expected-failed":   "xfailed",
	"unexpected-passed": "xpassed",
}

func statusClass(status string) string {
	if c, ok := statusClasses[status]; ok {
		return c
	}
	return "pending"
}

func buildHTMLData(run Run) HTMLData {
	cases := make([]CaseHTMLData, len(run.Cases))
	for i, c := range run.Cases {
		cases[i] = CaseHTMLData{
			CaseRow:     c,
			StatusClass: statusClass(c.Status),
			DurationStr: formatDuration(c.DurationMs),
		}
	}

	var passRate float64
	if run.Summary.Total > 0 {
		passRate = float64(run.Summary.Passed) / float64(run.Summary.Total) * 100
	}

	return HTMLData{
		Title:       "Aviary E2E Report",
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		StartedAt:   run.StartTime.Format("2006-01-02 15:04:05"),
		Duration:    formatDuration(run.DurationMs),
		PassRate:    passRate,
		Run:         run,
		Cases:       cases,
	}
}

func formatDuration(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func renderHTML(data HTMLData) (string, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f9fafb;
            --text-primary: #000000;
            --text-secondary: rgb(75, 85, 99);
            --text-muted: rgb(107, 114, 128);
            --border-color: #e5e7eb;
            --passed: #22c55e;
            --passed-bg: rgba(34, 197, 94, 0.1);
            --failed: #ef4444;
            --failed-bg: rgba(239, 68, 68, 0.08);
            --skipped: #eab308;
            --skipped-bg: rgba(234, 179, 8, 0.1);
            --xfailed: #8b5cf6;
            --xfailed-bg: rgba(139, 92, 246, 0.1);
            --xpassed: #f97316;
            --xpassed-bg: rgba(249, 115, 22, 0.1);
            --pending: #6b7280;
        }

        * {
            box-sizing: border-box;
            margin: 0;
            padding: 0;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.5;
        }

        .header {
            background: var(--bg-secondary);
            border-bottom: 1px solid var(--border-color);
            padding: 16px 24px;
        }

        .header h1 {
            font-size: 18px;
            font-weight: 600;
        }

        .meta {
            color: var(--text-muted);
            font-size: 13px;
            margin-top: 4px;
        }

        .chips {
            display: flex;
            flex-wrap: wrap;
            gap: 8px;
            padding: 16px 24px;
        }

        .chip {
            border: 1px solid var(--border-color);
            border-radius: 9999px;
            padding: 4px 12px;
            font-size: 13px;
            color: var(--text-secondary);
        }

        .chip b {
            margin-left: 4px;
        }

        .chip.passed { color: var(--passed); background: var(--passed-bg); border-color: var(--passed); }
        .chip.failed { color: var(--failed); background: var(--failed-bg); border-color: var(--failed); }
        .chip.skipped { color: var(--skipped); background: var(--skipped-bg); border-color: var(--skipped); }
        .chip.xfailed { color: var(--xfailed); background: var(--xfailed-bg); border-color: var(--xfailed); }
        .chip.xpassed { color: var(--xpassed); background: var(--xpassed-bg); border-color: var(--xpassed); }

        .cases {
            padding: 0 24px 24px;
        }

        table {
            width: 100%;
            border-collapse: collapse;
            font-size: 14px;
        }

        th {
            text-align: left;
            font-weight: 600;
            color: var(--text-muted);
            font-size: 12px;
            text-transform: uppercase;
            letter-spacing: 0.04em;
            padding: 8px 12px;
            border-bottom: 2px solid var(--border-color);
        }

        td {
            padding: 8px 12px;
            border-bottom: 1px solid var(--border-color);
            vertical-align: top;
        }

        td.id {
            font-family: ui-monospace, SFMono-Regular, Menlo, monospace;
            font-weight: 600;
            white-space: nowrap;
        }

        td.num {
            white-space: nowrap;
            color: var(--text-secondary);
        }

        tr.row-failed { background: var(--failed-bg); }
        tr.row-xpassed { background: var(--xpassed-bg); }

        .status {
            display: inline-block;
            border-radius: 9999px;
            padding: 2px 10px;
            font-size: 12px;
            font-weight: 600;
            white-space: nowrap;
        }

        .status.passed { color: var(--passed); background: var(--passed-bg); }
        .status.failed { color: var(--failed); background: var(--failed-bg); }
        .status.skipped { color: var(--skipped); background: var(--skipped-bg); }
        .status.xfailed { color: var(--xfailed); background: var(--xfailed-bg); }
        .status.xpassed { color: var(--xpassed); background: var(--xpassed-bg); }
        .status.pending { color: var(--pending); }

        .detail {
            color: var(--text-secondary);
            font-family: ui-monospace, SFMono-Regular, Menlo, monospace;
            font-size: 12px;
            word-break: break-word;
        }

        .detail.reason {
            font-family: inherit;
            font-style: italic;
        }

        .capture-note {
            color: var(--text-muted);
            font-size: 12px;
            margin-top: 4px;
        }

        a {
            color: #06b6d4;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <div class="meta">{{.Run.Device}} / {{.Run.Platform}}{{if .Run.AppVersion}} / app {{.Run.AppVersion}}{{end}} / {{.Run.Server}}</div>
        <div class="meta">started {{.StartedAt}} / took {{.Duration}} / {{printf "%.0f" .PassRate}}% passed / run {{.Run.RunID}}</div>
    </div>

    <div class="chips">
        <span class="chip">Total<b>{{.Run.Summary.Total}}</b></span>
        <span class="chip passed">Passed<b>{{.Run.Summary.Passed}}</b></span>
        <span class="chip failed">Failed<b>{{.Run.Summary.Failed}}</b></span>
        <span class="chip skipped">Skipped<b>{{.Run.Summary.Skipped}}</b></span>
        {{if gt .Run.Summary.ExpectedFailed 0}}<span class="chip xfailed">Expected failures<b>{{.Run.Summary.ExpectedFailed}}</b></span>{{end}}
        {{if gt .Run.Summary.UnexpectedPassed 0}}<span class="chip xpassed">Unexpected passes<b>{{.Run.Summary.UnexpectedPassed}}</b></span>{{end}}
    </div>

    <div class="cases">
        <table>
            <thead>
                <tr>
                    <th>Case</th>
                    <th>Name</th>
                    <th>Status</th>
                    <th>Duration</th>
                    <th>Details</th>
                    <th>Artifact</th>
                </tr>
            </thead>
            <tbody>
                {{range .Cases}}
                <tr class="row-{{.StatusClass}}">
                    <td class="id">{{.ID}}</td>
                    <td>{{.Name}}</td>
                    <td><span class="status {{.StatusClass}}">{{.Status}}</span></td>
                    <td class="num">{{.DurationStr}}</td>
                    <td>
                        {{if .Error}}<div class="detail">{{.Error}}</div>{{else if .Reason}}<div class="detail reason">{{.Reason}}</div>{{end}}
                        {{if .CaptureError}}<div class="capture-note">screenshot failed: {{.CaptureError}}</div>{{end}}
                    </td>
                    <td>{{if .Artifact}}<a href="{{.Artifact}}">screenshot</a>{{end}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>
</body>
</html>
`
