// Package pages holds the Page Objects for the Aviary app: one type per
// screen, transition methods returning the next screen's type. Pages
// declare locators and resolve fresh element handles on every interaction;
// handles are never stored across actions.
package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/element"
	"github.com/devicelab-dev/aviary-e2e/pkg/session"
)

// Screen is the common surface of every page.
type Screen interface {
	Name() string
	DisplayedWithin(ctx context.Context, timeout time.Duration) error
}

// Tab bar labels.
const (
	TabFeeders = "Feeders"
	TabBirds   = "Birds"
	TabPlants  = "Plants"
	TabAccount = "Account"
)

const scrollDurationMs = 500

// base carries what every page needs: the session and the resolver.
// Nothing else. Holding element handles here would pin a UI generation
// that the next re-render invalidates.
type base struct {
	sess *session.Session
	res  *element.Resolver
}

func newBase(sess *session.Session) base {
	return base{sess: sess, res: element.New()}
}

// Session returns the session this page drives, for the rare step that
// needs the wire client directly (appearance, app lifecycle).
func (b base) Session() *session.Session {
	return b.sess
}

func (b base) find(ctx context.Context, loc element.Locator, timeout time.Duration) (element.Handle, error) {
	return b.res.Find(ctx, b.sess.Client(), loc, timeout)
}

func (b base) tap(ctx context.Context, loc element.Locator) error {
	h, err := b.find(ctx, loc, element.DefaultTimeout)
	if err != nil {
		return err
	}
	return h.Tap()
}

func (b base) textOf(ctx context.Context, loc element.Locator) (string, error) {
	h, err := b.find(ctx, loc, element.DefaultTimeout)
	if err != nil {
		return "", err
	}
	return h.Text()
}

func (b base) typeInto(ctx context.Context, loc element.Locator, text string) error {
	h, err := b.find(ctx, loc, element.DefaultTimeout)
	if err != nil {
		return err
	}
	return h.Type(text)
}

// countNow counts matches without waiting; zero is a valid answer.
func (b base) countNow(loc element.Locator) (int, error) {
	hs, err := b.res.FindAllNow(b.sess.Client(), loc)
	if err != nil {
		return 0, err
	}
	return len(hs), nil
}

// visible waits up to timeout for every given locator to resolve.
func (b base) visible(ctx context.Context, timeout time.Duration, locs ...element.Locator) error {
	for _, loc := range locs {
		if _, err := b.find(ctx, loc, timeout); err != nil {
			return err
		}
	}
	return nil
}

var navBar = element.ByClassName("XCUIElementTypeNavigationBar")

// errorBanners matches the red failure banner the app overlays on any
// screen when a backend call fails.
var errorBanners = element.ByPredicate(`name BEGINSWITH "ErrorBanner"`)

// searchField matches the native search input on whichever screen has
// search open.
var searchField = element.ByClassName("XCUIElementTypeSearchField")

func (b base) errorBannerCount() (int, error) {
	return b.countNow(errorBanners)
}

// navBarTitle reads the navigation bar's name, which SwiftUI sets to the
// screen title.
func (b base) navBarTitle(ctx context.Context) (string, error) {
	h, err := b.find(ctx, navBar, element.DefaultTimeout)
	if err != nil {
		return "", err
	}
	return h.Attribute("name")
}

func tabButton(label string) element.Locator {
	return element.ByPredicate(fmt.Sprintf(
		`label == "%s" AND type == "XCUIElementTypeButton"`, element.EscapePredicate(label)))
}

func (b base) switchTab(ctx context.Context, label string) error {
	return b.tap(ctx, tabButton(label))
}

// scrollDown swipes from 70% to 30% of the window height.
func (b base) scrollDown() error {
	return b.swipeVertical(0.7, 0.3)
}

// scrollUp swipes from 30% to 70% of the window height.
func (b base) scrollUp() error {
	return b.swipeVertical(0.3, 0.7)
}

func (b base) swipeVertical(fromFrac, toFrac float64) error {
	w, h := b.sess.Client().ScreenSize()
	if w == 0 || h == 0 {
		return fmt.Errorf("window size unknown, cannot scroll")
	}
	x := w / 2
	return b.sess.Client().Swipe(x, int(float64(h)*fromFrac), x, int(float64(h)*toFrac), scrollDurationMs)
}

// scrollToElement scrolls down until loc is present and displayed, at most
// maxSwipes times.
func (b base) scrollToElement(ctx context.Context, loc element.Locator, maxSwipes int) (element.Handle, error) {
	for i := 0; ; i++ {
		hs, err := b.res.FindAllNow(b.sess.Client(), loc)
		if err == nil && len(hs) > 0 {
			if displayed, derr := hs[0].Displayed(); derr == nil && displayed {
				return hs[0], nil
			}
		}
		if i >= maxSwipes {
			break
		}
		if err := b.scrollDown(); err != nil {
			return element.Handle{}, err
		}
		if err := ctx.Err(); err != nil {
			return element.Handle{}, core.ErrInterrupted.WithCause(err)
		}
		time.Sleep(300 * time.Millisecond)
	}
	return element.Handle{}, core.ErrElementNotFound.
		WithMessage(fmt.Sprintf("%s not reached after %d swipes", loc, maxSwipes))
}
