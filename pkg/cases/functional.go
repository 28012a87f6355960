package cases

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/pages"
	"github.com/devicelab-dev/aviary-e2e/pkg/suite"
)

// relativeTime matches the app's visitor timestamps: "32 sec ago",
// "5 min ago", "2 hr ago", "3 days ago".
var relativeTime = regexp.MustCompile(`\d+ (sec|min|hr|day)s? ago`)

func hasName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

func functionalCases() []suite.Case {
	return []suite.Case{
		{
			ID:          "F1",
			Name:        "favorite toggle changes appearance",
			Group:       core.GroupFunctional,
			Seq:         1,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				detail, err := home.OpenFirstFeeder(ctx)
				if err != nil {
					return err
				}
				before, err := detail.FavoriteSnapshot(ctx)
				if err != nil {
					return err
				}
				if err := detail.ToggleFavorite(ctx); err != nil {
					return err
				}
				after, err := detail.FavoriteSnapshot(ctx)
				if err != nil {
					return err
				}
				if bytes.Equal(before, after) {
					return errors.New("favorite appearance did not change after toggle")
				}
				return detail.ToggleFavorite(ctx)
			},
		},
		{
			ID:          "F2",
			Name:        "bird springs detail content",
			Group:       core.GroupFunctional,
			Seq:         2,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				detail, err := home.OpenFeeder(ctx, "Bird Springs")
				if err != nil {
					return err
				}
				title, err := detail.Title(ctx)
				if err != nil {
					return err
				}
				if title != "Bird Springs" {
					return fmt.Errorf("expected title %q, got %q", "Bird Springs", title)
				}
				if err := detail.ArtworkVisible(ctx); err != nil {
					return err
				}
				if err := detail.HasFoodAndWater(ctx); err != nil {
					return err
				}
				rows, err := detail.VisitorTimeLabels(ctx)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					return errors.New("expected recent visitor rows")
				}
				if err := detail.ShowMore(ctx); err != nil {
					return err
				}
				more, err := detail.VisitorTimeLabels(ctx)
				if err != nil {
					return err
				}
				if len(more) <= len(rows) {
					return fmt.Errorf("show more did not extend the visitor list (%d -> %d)", len(rows), len(more))
				}
				return nil
			},
		},
		{
			ID:          "F3",
			Name:        "feeder search narrows and restores",
			Group:       core.GroupFunctional,
			Seq:         3,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				original, err := home.FeederNames(ctx)
				if err != nil {
					return err
				}
				if err := home.SearchFor(ctx, "Bird"); err != nil {
					return err
				}
				if err := home.WaitFeederCount(ctx, 1, 5*time.Second); err != nil {
					return err
				}
				names, err := home.FeederNames(ctx)
				if err != nil {
					return err
				}
				if len(names) != 1 || names[0] != "Bird Springs" {
					return fmt.Errorf("expected exactly Bird Springs, got %v", names)
				}
				if err := home.ClearSearch(ctx); err != nil {
					return err
				}
				hints, err := home.SearchHintCount()
				if err != nil {
					return err
				}
				if hints == 0 {
					return errors.New("expected activity hints under an empty query")
				}
				if err := home.TypeSearch(ctx, "C"); err != nil {
					return err
				}
				if err := home.WaitFeederCount(ctx, 2, 5*time.Second); err != nil {
					return err
				}
				names, err = home.FeederNames(ctx)
				if err != nil {
					return err
				}
				if !hasName(names, "Calm Palms") {
					return fmt.Errorf("expected Calm Palms among %v", names)
				}
				if err := home.CloseSearch(ctx); err != nil {
					return err
				}
				if err := home.WaitFeederCount(ctx, len(original), 5*time.Second); err != nil {
					return err
				}
				restored, err := home.FeederNames(ctx)
				if err != nil {
					return err
				}
				if !reflect.DeepEqual(original, restored) {
					return fmt.Errorf("list not restored after search: %v vs %v", original, restored)
				}
				return nil
			},
		},
		{
			ID:          "F4",
			Name:        "favorite persists across navigation",
			Group:       core.GroupFunctional,
			Seq:         4,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				detail, err := home.OpenFeeder(ctx, "Bird Springs")
				if err != nil {
					return err
				}
				before, err := detail.FavoriteSnapshot(ctx)
				if err != nil {
					return err
				}
				if err := detail.ToggleFavorite(ctx); err != nil {
					return err
				}
				home, err = detail.Back(ctx)
				if err != nil {
					return err
				}
				detail, err = home.OpenFeeder(ctx, "Bird Springs")
				if err != nil {
					return err
				}
				persisted, err := detail.FavoriteSnapshot(ctx)
				if err != nil {
					return err
				}
				if bytes.Equal(before, persisted) {
					return errors.New("favorite state did not persist across navigation")
				}
				return detail.ToggleFavorite(ctx)
			},
		},
		{
			ID:          "F5",
			Name:        "nonsense query yields zero results",
			Group:       core.GroupFunctional,
			Seq:         5,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				if err := home.SearchFor(ctx, "xyznonexistent123"); err != nil {
					return err
				}
				if err := home.WaitFeederCount(ctx, 0, 5*time.Second); err != nil {
					return err
				}
				banners, err := home.ErrorBannerCount()
				if err != nil {
					return err
				}
				if banners != 0 {
					return fmt.Errorf("expected no error banners on an empty result, got %d", banners)
				}
				if err := home.CloseSearch(ctx); err != nil {
					return err
				}
				count, err := home.FeederCount(ctx)
				if err != nil {
					return err
				}
				if count < 1 {
					return errors.New("list did not come back after closing search")
				}
				return nil
			},
		},
		{
			ID:          "F6",
			Name:        "bird search suggestion completes",
			Group:       core.GroupFunctional,
			Seq:         6,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				birds, err := home.BirdsTab(ctx)
				if err != nil {
					return err
				}
				if err := birds.OpenSearch(ctx); err != nil {
					return err
				}
				if err := birds.SearchFor(ctx, "Do"); err != nil {
					return err
				}
				if err := birds.TapSuggestion(ctx, "Dove"); err != nil {
					return err
				}
				value, err := birds.SearchValue(ctx)
				if err != nil {
					return err
				}
				if value != "Dove" {
					return fmt.Errorf("expected search value %q, got %q", "Dove", value)
				}
				return birds.WaitBirdCount(ctx, 6, 5*time.Second)
			},
		},
		{
			ID:          "F7",
			Name:        "visitor rows carry relative times",
			Group:       core.GroupFunctional,
			Seq:         7,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				detail, err := home.OpenFirstFeeder(ctx)
				if err != nil {
					return err
				}
				rows, err := detail.VisitorTimeLabels(ctx)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					return errors.New("expected recent visitor rows")
				}
				for _, row := range rows {
					if !relativeTime.MatchString(row) {
						return fmt.Errorf("visitor row %q has no relative time", row)
					}
				}
				return nil
			},
		},
		{
			ID:          "F8",
			Name:        "dark appearance keeps home usable",
			Group:       core.GroupFunctional,
			Seq:         8,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				client := home.Session().Client()
				if err := client.SetAppearance("dark"); err != nil {
					return err
				}
				if err := home.IsDisplayed(ctx); err != nil {
					return fmt.Errorf("home not displayed in dark mode: %w", err)
				}
				if err := client.SetAppearance("light"); err != nil {
					return err
				}
				return home.IsDisplayed(ctx)
			},
		},
		{
			ID:          "F9",
			Name:        "offline banner",
			Group:       core.GroupFunctional,
			Seq:         9,
			Disposition: core.PlatformLimitation("no network-condition control on the simulator"),
		},
		{
			ID:          "F10",
			Name:        "warm relaunch is fast",
			Group:       core.GroupFunctional,
			Seq:         10,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				sess := home.Session()
				bundle := sess.Caps().BundleID
				if bundle == "" {
					return errors.New("no bundle id configured for relaunch")
				}
				client := sess.Client()
				if err := client.TerminateApp(bundle); err != nil {
					return err
				}
				if err := client.ActivateApp(bundle); err != nil {
					return err
				}
				return home.DisplayedWithin(ctx, 3*time.Second)
			},
		},
		{
			ID:          "F11",
			Name:        "favorite flow is idempotent",
			Group:       core.GroupFunctional,
			Seq:         11,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				for pass := 1; pass <= 2; pass++ {
					detail, err := home.OpenFeeder(ctx, "Bird Springs")
					if err != nil {
						return fmt.Errorf("pass %d: %w", pass, err)
					}
					if err := detail.ToggleFavorite(ctx); err != nil {
						return fmt.Errorf("pass %d: %w", pass, err)
					}
					if err := detail.ToggleFavorite(ctx); err != nil {
						return fmt.Errorf("pass %d: %w", pass, err)
					}
					home, err = detail.Back(ctx)
					if err != nil {
						return fmt.Errorf("pass %d: %w", pass, err)
					}
				}
				return home.IsDisplayed(ctx)
			},
		},
		{
			ID:          "F12",
			Name:        "failure capture demo",
			Group:       core.GroupFunctional,
			Seq:         12,
			Disposition: core.IntentionalFail("asserts a feeder that never exists to demonstrate failure capture"),
			Body: func(ctx context.Context, home *pages.Home) error {
				_, err := home.OpenFeeder(ctx, "Invisible Feeder")
				return err
			},
		},
	}
}
