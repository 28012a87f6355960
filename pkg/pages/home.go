package pages

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/element"
	"github.com/devicelab-dev/aviary-e2e/pkg/session"
)

// Home is the feeder list, the screen the app lands on.
type Home struct {
	base
}

var (
	homeTitle   = element.ByPredicate(`label == "Feeders" AND type == "XCUIElementTypeStaticText"`)
	feederCells = element.ByPredicate(`name BEGINSWITH "FeederCard_" AND label != "Favorite"`)
	searchOpen  = element.ByAccessibilityID("Search")
	searchClose = element.ByAccessibilityID("Close")
	searchClear = element.ByAccessibilityID("Clear text")
	searchHints = element.ByPredicate(`label CONTAINS "is currently"`)
)

func feederCard(name string) element.Locator {
	return element.ByPredicate(fmt.Sprintf(
		`name BEGINSWITH "FeederCard_" AND label == "%s"`, element.EscapePredicate(name)))
}

func NewHome(sess *session.Session) *Home {
	return &Home{newBase(sess)}
}

func (h *Home) Name() string { return "Home" }

func (h *Home) DisplayedWithin(ctx context.Context, timeout time.Duration) error {
	return h.visible(ctx, timeout, homeTitle)
}

func (h *Home) IsDisplayed(ctx context.Context) error {
	return h.DisplayedWithin(ctx, element.DefaultTimeout)
}

// FeederCount waits for at least one feeder card and returns how many
// are in the tree.
func (h *Home) FeederCount(ctx context.Context) (int, error) {
	hs, err := h.res.FindAll(ctx, h.sess.Client(), feederCells, element.DefaultTimeout)
	if err != nil {
		return 0, err
	}
	return len(hs), nil
}

// FeederCountNow counts feeder cards without waiting; zero is a valid
// answer, which FeederCount never gives.
func (h *Home) FeederCountNow() (int, error) {
	return h.countNow(feederCells)
}

// FeederNames returns the visible feeder names ordered top to bottom by
// on-screen position.
func (h *Home) FeederNames(ctx context.Context) ([]string, error) {
	hs, err := h.res.FindAll(ctx, h.sess.Client(), feederCells, element.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	type row struct {
		name string
		y    int
	}
	rows := make([]row, 0, len(hs))
	for _, el := range hs {
		label, err := el.Attribute("label")
		if err != nil {
			return nil, err
		}
		rect, err := el.Rect()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{name: label, y: rect.Y})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y < rows[j].y })
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.name
	}
	return names, nil
}

// WaitFeederCount polls until exactly n feeder cards are in the tree.
func (h *Home) WaitFeederCount(ctx context.Context, n int, timeout time.Duration) error {
	return h.res.Await(ctx, fmt.Sprintf("feeder count == %d", n), timeout, func() (bool, error) {
		count, err := h.countNow(feederCells)
		if err != nil {
			return false, err
		}
		return count == n, nil
	})
}

// OpenFeeder taps the feeder card with the given name and waits for the
// detail screen.
func (h *Home) OpenFeeder(ctx context.Context, name string) (*FeederDetail, error) {
	if err := h.tap(ctx, feederCard(name)); err != nil {
		return nil, err
	}
	detail := NewFeederDetail(h.sess)
	if err := detail.DisplayedWithin(ctx, element.DefaultTimeout); err != nil {
		return nil, err
	}
	return detail, nil
}

// OpenFirstFeeder opens the top-most feeder card.
func (h *Home) OpenFirstFeeder(ctx context.Context) (*FeederDetail, error) {
	names, err := h.FeederNames(ctx)
	if err != nil {
		return nil, err
	}
	return h.OpenFeeder(ctx, names[0])
}

// SearchVisible verifies the search affordance is addressable.
func (h *Home) SearchVisible(ctx context.Context) error {
	return h.visible(ctx, element.DefaultTimeout, searchOpen)
}

// SearchFor opens the search bar and types the query.
func (h *Home) SearchFor(ctx context.Context, query string) error {
	if err := h.tap(ctx, searchOpen); err != nil {
		return err
	}
	return h.typeInto(ctx, searchField, query)
}

// TypeSearch types into the already-open search field.
func (h *Home) TypeSearch(ctx context.Context, query string) error {
	return h.typeInto(ctx, searchField, query)
}

// ClearSearch taps the field's clear button, leaving search open with an
// empty query.
func (h *Home) ClearSearch(ctx context.Context) error {
	return h.tap(ctx, searchClear)
}

// CloseSearch dismisses the search bar and restores the full list.
func (h *Home) CloseSearch(ctx context.Context) error {
	return h.tap(ctx, searchClose)
}

// SearchHintCount counts the activity hint rows shown under an empty
// search field.
func (h *Home) SearchHintCount() (int, error) {
	return h.countNow(searchHints)
}

func (h *Home) ErrorBannerCount() (int, error) {
	return h.errorBannerCount()
}

func (h *Home) ScrollDown() error { return h.scrollDown() }

func (h *Home) ScrollUp() error { return h.scrollUp() }

// BirdsTab switches to the Birds tab and waits for it.
func (h *Home) BirdsTab(ctx context.Context) (*Birds, error) {
	if err := h.switchTab(ctx, TabBirds); err != nil {
		return nil, err
	}
	birds := NewBirds(h.sess)
	if err := birds.DisplayedWithin(ctx, element.DefaultTimeout); err != nil {
		return nil, err
	}
	return birds, nil
}
