// Package element resolves on-screen elements with bounded polling.
//
// Element handles go stale whenever the UI re-renders, so nothing here (or
// above here) holds one across an interaction: pages declare Locators and
// resolve fresh handles each time they act.
package element

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/appium"
	"github.com/devicelab-dev/aviary-e2e/pkg/core"
)

// Locator strategies (W3C plus the XCUITest extension the app relies on).
const (
	StrategyAccessibilityID = "accessibility id"
	StrategyPredicate       = "-ios predicate string"
	StrategyClassName       = "class name"
)

// Polling defaults. The interval sits in the middle of the band that keeps
// simulator CPU reasonable without making waits feel sluggish.
const (
	DefaultInterval = 300 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
)

// Locator describes how to find an element. Immutable; declared once per
// Page Object and reused for every resolution.
type Locator struct {
	Strategy string
	Value    string
}

// ByAccessibilityID locates by accessibility identifier.
func ByAccessibilityID(id string) Locator {
	return Locator{Strategy: StrategyAccessibilityID, Value: id}
}

// ByPredicate locates by NSPredicate expression.
func ByPredicate(expr string) Locator {
	return Locator{Strategy: StrategyPredicate, Value: expr}
}

// ByClassName locates by XCUIElementType class name.
func ByClassName(name string) Locator {
	return Locator{Strategy: StrategyClassName, Value: name}
}

func (l Locator) String() string {
	return l.Strategy + "=" + l.Value
}

// EscapePredicate escapes a string for embedding in a quoted NSPredicate
// literal.
func EscapePredicate(s string) string {
	var result string
	for _, c := range s {
		switch c {
		case '"':
			result += `\"`
		case '\\':
			result += `\\`
		default:
			result += string(c)
		}
	}
	return result
}

// Handle is a short-lived reference to a resolved element. Valid until the
// next UI re-render; resolve again rather than holding on.
type Handle struct {
	client *appium.Client
	id     string
}

// ID returns the wire-level element ID.
func (h Handle) ID() string { return h.id }

// Tap clicks the element.
func (h Handle) Tap() error { return h.client.ClickElement(h.id) }

// Text returns the element's text content.
func (h Handle) Text() (string, error) { return h.client.GetElementText(h.id) }

// Attribute returns a named attribute ("value", "label", "name", ...).
func (h Handle) Attribute(name string) (string, error) {
	return h.client.GetElementAttribute(h.id, name)
}

// Rect returns the element's frame in screen points.
func (h Handle) Rect() (appium.Rect, error) { return h.client.GetElementRect(h.id) }

// Displayed reports whether the element is visible.
func (h Handle) Displayed() (bool, error) { return h.client.IsElementDisplayed(h.id) }

// Enabled reports whether the element accepts interaction.
func (h Handle) Enabled() (bool, error) { return h.client.IsElementEnabled(h.id) }

// Type sends keystrokes to the element.
func (h Handle) Type(text string) error { return h.client.TypeElement(h.id, text) }

// Clear empties an input element.
func (h Handle) Clear() error { return h.client.ClearElement(h.id) }

// Screenshot captures just this element as PNG bytes.
func (h Handle) Screenshot() ([]byte, error) { return h.client.ElementScreenshot(h.id) }

// Resolver finds elements by polling until a deadline. The zero value is
// usable and polls at DefaultInterval.
type Resolver struct {
	Interval time.Duration
}

// New returns a Resolver with default polling.
func New() *Resolver {
	return &Resolver{Interval: DefaultInterval}
}

func (r *Resolver) interval() time.Duration {
	if r.Interval > 0 {
		return r.Interval
	}
	return DefaultInterval
}

// Find polls for an element that is present, displayed and enabled.
//
// Transient backend errors (stale handles, window churn) are retried until
// the deadline. A timeout with the element never present yields an
// element_not_found error; present but never interactable yields
// element_not_interactable. Terminal wire errors (invalid session, transport
// failures) propagate immediately.
func (r *Resolver) Find(ctx context.Context, client *appium.Client, loc Locator, timeout time.Duration) (Handle, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := r.interval()
	start := time.Now()
	deadline := start.Add(timeout)

	seenButNotInteractable := false
	for {
		id, err := client.FindElement(loc.Strategy, loc.Value)
		switch {
		case err == nil:
			h := Handle{client: client, id: id}
			interactable, probeErr := h.interactable()
			if probeErr == nil && interactable {
				return h, nil
			}
			if probeErr == nil {
				seenButNotInteractable = true
			} else if !retryable(probeErr) {
				return Handle{}, probeErr
			}
			// Stale between find and probe: the element vanished, poll again.
		case retryable(err):
			// Swallowed; the next attempt may land after the re-render.
		default:
			return Handle{}, err
		}

		if time.Now().After(deadline) {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			return Handle{}, err
		}
	}

	elapsed := time.Since(start)
	if seenButNotInteractable {
		return Handle{}, core.ErrElementNotInteractable.
			WithMessage(fmt.Sprintf("element %s present but not interactable after %s", loc, elapsed.Round(time.Millisecond))).
			WithDetails(map[string]interface{}{
				"locator":   loc.String(),
				"elapsedMs": elapsed.Milliseconds(),
			})
	}
	return Handle{}, r.notFound(client, loc, elapsed)
}

// FindAll polls until at least one element matches, then returns every
// match at that moment in backend document order. Each call re-queries;
// the returned slice is a snapshot, never a cache.
func (r *Resolver) FindAll(ctx context.Context, client *appium.Client, loc Locator, timeout time.Duration) ([]Handle, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := r.interval()
	start := time.Now()
	deadline := start.Add(timeout)

	for {
		ids, err := client.FindElements(loc.Strategy, loc.Value)
		switch {
		case err == nil && len(ids) > 0:
			return handles(client, ids), nil
		case err != nil && !retryable(err):
			return nil, err
		}

		if time.Now().After(deadline) {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			return nil, err
		}
	}

	return nil, r.notFound(client, loc, time.Since(start))
}

// FindAllNow queries once, without polling. An empty slice is a valid
// result; callers asserting absence use this.
func (r *Resolver) FindAllNow(client *appium.Client, loc Locator) ([]Handle, error) {
	ids, err := client.FindElements(loc.Strategy, loc.Value)
	if err != nil {
		return nil, err
	}
	return handles(client, ids), nil
}

// Await polls an arbitrary condition with the same interval and deadline
// discipline as Find. The probe returns true when the condition holds;
// transient backend errors from the probe are retried.
func (r *Resolver) Await(ctx context.Context, desc string, timeout time.Duration, probe func() (bool, error)) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := r.interval()
	start := time.Now()
	deadline := start.Add(timeout)

	for {
		ok, err := probe()
		if err != nil && !retryable(err) {
			return err
		}
		if err == nil && ok {
			return nil
		}

		if time.Now().After(deadline) {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	return core.ErrElementNotFound.
		WithMessage(fmt.Sprintf("%s: condition not met after %s", desc, elapsed.Round(time.Millisecond))).
		WithDetails(map[string]interface{}{
			"condition": desc,
			"elapsedMs": elapsed.Milliseconds(),
		})
}

func (h Handle) interactable() (bool, error) {
	displayed, err := h.Displayed()
	if err != nil {
		return false, err
	}
	if !displayed {
		return false, nil
	}
	enabled, err := h.Enabled()
	if err != nil {
		return false, err
	}
	return enabled, nil
}

func handles(client *appium.Client, ids []string) []Handle {
	hs := make([]Handle, len(ids))
	for i, id := range ids {
		hs[i] = Handle{client: client, id: id}
	}
	return hs
}

// retryable reports whether a wire error is worth another poll attempt:
// the element or its window may simply not exist yet, or existed a
// re-render ago. Invalid sessions and transport errors are not.
func retryable(err error) bool {
	var wireErr *appium.Error
	if !errors.As(err, &wireErr) {
		return false
	}
	switch wireErr.Code {
	case appium.CodeNoSuchElement,
		appium.CodeStaleElement,
		appium.CodeNoSuchWindow,
		appium.CodeNoSuchContext,
		appium.CodeUnknownError:
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return core.ErrInterrupted.WithCause(ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (r *Resolver) notFound(client *appium.Client, loc Locator, elapsed time.Duration) error {
	details := map[string]interface{}{
		"locator":   loc.String(),
		"elapsedMs": elapsed.Milliseconds(),
	}
	if nearest := nearestVisibleLabel(client, loc.Value); nearest != "" {
		details["nearest"] = nearest
	}
	return core.ErrElementNotFound.
		WithMessage(fmt.Sprintf("no element matching %s after %s", loc, elapsed.Round(time.Millisecond))).
		WithDetails(details)
}
