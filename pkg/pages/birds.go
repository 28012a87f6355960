package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/element"
	"github.com/devicelab-dev/aviary-e2e/pkg/session"
)

// Birds is the species catalog on the second tab.
type Birds struct {
	base
}

var (
	birdsTitle = element.ByPredicate(`label == "Birds" AND type == "XCUIElementTypeStaticText"`)
	birdsGrid  = element.ByAccessibilityID("BirdsGrid")
	birdCells  = element.ByPredicate(`name BEGINSWITH "BirdCard_"`)
)

func searchSuggestion(label string) element.Locator {
	return element.ByPredicate(fmt.Sprintf(
		`name BEGINSWITH "SearchSuggestion_" AND label == "%s"`, element.EscapePredicate(label)))
}

func NewBirds(sess *session.Session) *Birds {
	return &Birds{newBase(sess)}
}

func (b *Birds) Name() string { return "Birds" }

func (b *Birds) DisplayedWithin(ctx context.Context, timeout time.Duration) error {
	return b.visible(ctx, timeout, birdsTitle)
}

func (b *Birds) IsDisplayed(ctx context.Context) error {
	return b.DisplayedWithin(ctx, element.DefaultTimeout)
}

func (b *Birds) GridVisible(ctx context.Context) error {
	return b.visible(ctx, element.DefaultTimeout, birdsGrid)
}

// BirdCount waits for at least one bird card and returns how many are in
// the tree.
func (b *Birds) BirdCount(ctx context.Context) (int, error) {
	hs, err := b.res.FindAll(ctx, b.sess.Client(), birdCells, element.DefaultTimeout)
	if err != nil {
		return 0, err
	}
	return len(hs), nil
}

// BirdCountNow counts bird cards without waiting.
func (b *Birds) BirdCountNow() (int, error) {
	return b.countNow(birdCells)
}

// WaitBirdCount polls until exactly n bird cards are in the tree.
func (b *Birds) WaitBirdCount(ctx context.Context, n int, timeout time.Duration) error {
	return b.res.Await(ctx, fmt.Sprintf("bird count == %d", n), timeout, func() (bool, error) {
		count, err := b.countNow(birdCells)
		if err != nil {
			return false, err
		}
		return count == n, nil
	})
}

// VisibleBirdNames returns the bird card labels in document order, which
// the grid keeps aligned with the catalog order.
func (b *Birds) VisibleBirdNames(ctx context.Context) ([]string, error) {
	hs, err := b.res.FindAll(ctx, b.sess.Client(), birdCells, element.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(hs))
	for _, el := range hs {
		label, err := el.Attribute("label")
		if err != nil {
			return nil, err
		}
		names = append(names, label)
	}
	return names, nil
}

// OpenSearch focuses the catalog's search field.
func (b *Birds) OpenSearch(ctx context.Context) error {
	return b.tap(ctx, searchField)
}

// SearchFor types a query into the focused search field.
func (b *Birds) SearchFor(ctx context.Context, query string) error {
	return b.typeInto(ctx, searchField, query)
}

// TapSuggestion picks the completion row with the given label.
func (b *Birds) TapSuggestion(ctx context.Context, label string) error {
	return b.tap(ctx, searchSuggestion(label))
}

// SearchValue reads the text currently in the search field.
func (b *Birds) SearchValue(ctx context.Context) (string, error) {
	h, err := b.find(ctx, searchField, element.DefaultTimeout)
	if err != nil {
		return "", err
	}
	return h.Attribute("value")
}

func (b *Birds) ErrorBannerCount() (int, error) {
	return b.errorBannerCount()
}
