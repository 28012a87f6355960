package pages

import (
	"context"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/element"
	"github.com/devicelab-dev/aviary-e2e/pkg/session"
)

// FeederDetail is the per-feeder screen reached by tapping a card on Home.
type FeederDetail struct {
	base
}

var (
	backButton     = element.ByAccessibilityID("BackButton")
	favoriteButton = element.ByAccessibilityID("Favorite")
	foodButton     = element.ByPredicate(`name CONTAINS "Choose Food"`)
	waterButton    = element.ByPredicate(`name CONTAINS "Refill Water"`)
	foodPickerDone = element.ByAccessibilityID("FoodPicker_DoneButton")
	foodShopLink   = element.ByAccessibilityID("FoodPicker_ShopLink")
	shopBack       = element.ByPredicate(`name == "BackButton" AND label == "Bird Food"`)
	artworkImage   = element.ByAccessibilityID("FeederArtworkImage")
	visitorRows    = element.ByPredicate(`name BEGINSWITH "VisitorRow_"`)
	showMoreButton = element.ByAccessibilityID("ShowMoreButton")
)

func NewFeederDetail(sess *session.Session) *FeederDetail {
	return &FeederDetail{newBase(sess)}
}

func (d *FeederDetail) Name() string { return "FeederDetail" }

func (d *FeederDetail) DisplayedWithin(ctx context.Context, timeout time.Duration) error {
	return d.visible(ctx, timeout, backButton, favoriteButton)
}

func (d *FeederDetail) IsDisplayed(ctx context.Context) error {
	return d.DisplayedWithin(ctx, element.DefaultTimeout)
}

// Title returns the feeder name from the navigation bar.
func (d *FeederDetail) Title(ctx context.Context) (string, error) {
	return d.navBarTitle(ctx)
}

// Back returns to Home and waits for it.
func (d *FeederDetail) Back(ctx context.Context) (*Home, error) {
	if err := d.tap(ctx, backButton); err != nil {
		return nil, err
	}
	home := NewHome(d.sess)
	if err := home.DisplayedWithin(ctx, element.DefaultTimeout); err != nil {
		return nil, err
	}
	return home, nil
}

// FavoriteSnapshot captures the favorite toggle as PNG bytes, so callers
// can compare its rendering before and after a toggle.
func (d *FeederDetail) FavoriteSnapshot(ctx context.Context) ([]byte, error) {
	h, err := d.find(ctx, favoriteButton, element.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	return h.Screenshot()
}

func (d *FeederDetail) ToggleFavorite(ctx context.Context) error {
	return d.tap(ctx, favoriteButton)
}

func (d *FeederDetail) OpenFoodPicker(ctx context.Context) error {
	return d.tap(ctx, foodButton)
}

func (d *FeederDetail) FoodPickerDisplayed(ctx context.Context) error {
	return d.visible(ctx, element.DefaultTimeout, foodPickerDone)
}

func (d *FeederDetail) DismissFoodPicker(ctx context.Context) error {
	return d.tap(ctx, foodPickerDone)
}

// OpenFoodShop follows the shop link inside the food picker.
func (d *FeederDetail) OpenFoodShop(ctx context.Context) error {
	return d.tap(ctx, foodShopLink)
}

func (d *FeederDetail) ShopDisplayed(ctx context.Context) error {
	return d.visible(ctx, element.DefaultTimeout, shopBack)
}

// BackFromShop pops the shop screen, landing back on the food picker.
func (d *FeederDetail) BackFromShop(ctx context.Context) error {
	return d.tap(ctx, shopBack)
}

func (d *FeederDetail) ArtworkVisible(ctx context.Context) error {
	return d.visible(ctx, element.DefaultTimeout, artworkImage)
}

// HasFoodAndWater verifies both care actions are present.
func (d *FeederDetail) HasFoodAndWater(ctx context.Context) error {
	return d.visible(ctx, element.DefaultTimeout, foodButton, waterButton)
}

// VisitorTimeLabels returns the relative-time labels of the visitor rows
// in document order.
func (d *FeederDetail) VisitorTimeLabels(ctx context.Context) ([]string, error) {
	hs, err := d.res.FindAll(ctx, d.sess.Client(), visitorRows, element.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(hs))
	for _, el := range hs {
		label, err := el.Attribute("label")
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// ShowMore scrolls the visitor list's show-more control into view and
// taps it.
func (d *FeederDetail) ShowMore(ctx context.Context) error {
	h, err := d.scrollToElement(ctx, showMoreButton, 5)
	if err != nil {
		return err
	}
	return h.Tap()
}
