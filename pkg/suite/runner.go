package suite

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/capture"
	"github.com/devicelab-dev/aviary-e2e/pkg/config"
	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/logger"
	"github.com/devicelab-dev/aviary-e2e/pkg/pages"
	"github.com/devicelab-dev/aviary-e2e/pkg/session"
)

// Runner executes cases sequentially against one target.
type Runner struct {
	Sessions *session.Manager
	Cfg      *config.Config
	Capture  *capture.Capture

	// Scope overrides the configured session scope when set.
	Scope string

	// AppVersion annotates the run result when the app bundle was
	// inspected before the run.
	AppVersion string

	// Live progress callbacks
	OnCaseStart func(idx, total int, c Case)
	OnCaseEnd   func(result core.CaseResult)
}

// New creates a Runner wired to the given session manager and capture.
func New(sessions *session.Manager, cfg *config.Config, capturer *capture.Capture) *Runner {
	return &Runner{
		Sessions: sessions,
		Cfg:      cfg,
		Capture:  capturer,
	}
}

// Run executes the cases in deterministic order and aggregates their
// outcomes. The returned error covers only an invalid case list; case
// failures live in the result.
func (r *Runner) Run(ctx context.Context, cases []Case) (*core.RunResult, error) {
	ordered, err := Order(cases)
	if err != nil {
		return nil, err
	}

	result := core.NewRunResult()
	result.Server = r.Cfg.Server
	result.Platform = r.Cfg.Caps.PlatformName
	result.Device = r.Cfg.Caps.DeviceName
	if result.Device == "" {
		result.Device = r.Cfg.Caps.UDID
	}
	result.App = r.Cfg.Caps.BundleID
	if result.App == "" {
		result.App = r.Cfg.Caps.App
	}
	result.AppVersion = r.AppVersion

	// One session for the whole suite when configured. A failure here
	// fails the first runnable case; the rest skip.
	var suiteSess *session.Session
	var suiteErr error
	if r.scope() == config.ScopeSuite {
		suiteSess, suiteErr = r.Sessions.Acquire(ctx)
		if suiteSess != nil {
			defer r.Sessions.Release(suiteSess)
		}
	}

	total := len(ordered)
	suiteFailureReported := false
	for i, c := range ordered {
		if r.OnCaseStart != nil {
			r.OnCaseStart(i, total, c)
		}
		logger.Debug("case %s (%s) starting", c.ID, c.Name)

		var cr core.CaseResult
		switch {
		case c.Disposition.IsSkip():
			cr = skippedResult(c, c.Disposition.Reason)
		case ctx.Err() != nil:
			cr = skippedResult(c, "run canceled: "+ctx.Err().Error())
		case suiteErr != nil:
			if suiteFailureReported {
				cr = skippedResult(c, "suite session unavailable")
			} else {
				suiteFailureReported = true
				cr = failedResult(c, suiteErr)
			}
		default:
			cr = r.runCase(ctx, c, suiteSess)
		}

		logger.Info("case %s: %s", cr.ID, cr.Status)
		result.Append(cr)
		if r.OnCaseEnd != nil {
			r.OnCaseEnd(cr)
		}
	}

	result.Finish()
	return result, nil
}

// runCase executes a single runnable case, acquiring a per-case session
// unless the suite already holds one.
func (r *Runner) runCase(ctx context.Context, c Case, suiteSess *session.Session) core.CaseResult {
	res := core.CaseResult{
		ID:          c.ID,
		Name:        c.Name,
		Group:       c.Group,
		Sequence:    c.Seq,
		Status:      core.StatusRunning,
		Disposition: c.Disposition,
		Reason:      c.Disposition.Reason,
		StartTime:   time.Now(),
	}

	sess := suiteSess
	if sess == nil {
		acquired, err := r.Sessions.Acquire(ctx)
		if err != nil {
			res.Status = core.StatusFailed
			res.Error = err.Error()
			res.Duration = time.Since(res.StartTime)
			return res
		}
		sess = acquired
		defer r.Sessions.Release(sess)
	}

	bodyErr := r.execBody(ctx, c, sess)

	// The capture happens before the session goes away, and records its
	// own problems as a secondary diagnostic rather than masking bodyErr.
	if bodyErr != nil {
		r.captureFailure(sess, c.ID, &res)
	}

	switch {
	case c.Disposition.ExpectsFailure() && bodyErr != nil:
		res.Status = core.StatusExpectedFailed
		res.Error = bodyErr.Error()
	case c.Disposition.ExpectsFailure():
		res.Status = core.StatusUnexpectedPassed
	case bodyErr != nil:
		res.Status = core.StatusFailed
		res.Error = bodyErr.Error()
	default:
		res.Status = core.StatusPassed
	}
	res.Duration = time.Since(res.StartTime)
	return res
}

// execBody runs the case body, converting panics into failures so one
// bad case cannot take down the run.
func (r *Runner) execBody(ctx context.Context, c Case, sess *session.Session) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("case %s panicked: %v", c.ID, p)
		}
	}()
	if c.Body == nil {
		return fmt.Errorf("case %s has no body", c.ID)
	}
	return c.Body(ctx, pages.NewHome(sess))
}

func (r *Runner) captureFailure(sess *session.Session, caseID string, res *core.CaseResult) {
	if r.Capture == nil {
		return
	}
	path, err := r.Capture.OnFailure(sess, caseID)
	if err != nil {
		logger.Warn("capture for %s failed: %v", caseID, err)
		res.CaptureError = err.Error()
		return
	}
	res.Artifact = path
}

func (r *Runner) scope() string {
	if r.Scope != "" {
		return r.Scope
	}
	if r.Cfg.SessionScope != "" {
		return r.Cfg.SessionScope
	}
	return config.ScopeTest
}

func skippedResult(c Case, reason string) core.CaseResult {
	return core.CaseResult{
		ID:          c.ID,
		Name:        c.Name,
		Group:       c.Group,
		Sequence:    c.Seq,
		Status:      core.StatusSkipped,
		Disposition: c.Disposition,
		Reason:      reason,
		StartTime:   time.Now(),
	}
}

func failedResult(c Case, err error) core.CaseResult {
	return core.CaseResult{
		ID:          c.ID,
		Name:        c.Name,
		Group:       c.Group,
		Sequence:    c.Seq,
		Status:      core.StatusFailed,
		Disposition: c.Disposition,
		Error:       err.Error(),
		StartTime:   time.Now(),
	}
}
