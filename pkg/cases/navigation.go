package cases

import (
	"context"
	"fmt"
	"reflect"

	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/pages"
	"github.com/devicelab-dev/aviary-e2e/pkg/suite"
)

func navigationCases() []suite.Case {
	return []suite.Case{
		{
			ID:          "N1",
			Name:        "feeder detail round trip",
			Group:       core.GroupNavigation,
			Seq:         1,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				detail, err := home.OpenFirstFeeder(ctx)
				if err != nil {
					return err
				}
				title, err := detail.Title(ctx)
				if err != nil {
					return err
				}
				if title == "" || title == pages.TabFeeders || title == pages.TabBirds {
					return fmt.Errorf("detail title %q looks like a tab, not a feeder", title)
				}
				if err := detail.HasFoodAndWater(ctx); err != nil {
					return err
				}
				back, err := detail.Back(ctx)
				if err != nil {
					return err
				}
				return back.IsDisplayed(ctx)
			},
		},
		{
			ID:          "N2",
			Name:        "scroll preserves the feeder list",
			Group:       core.GroupNavigation,
			Seq:         2,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				before, err := home.FeederNames(ctx)
				if err != nil {
					return err
				}
				if err := home.ScrollDown(); err != nil {
					return err
				}
				if err := home.ScrollUp(); err != nil {
					return err
				}
				after, err := home.FeederNames(ctx)
				if err != nil {
					return err
				}
				if !reflect.DeepEqual(before, after) {
					return fmt.Errorf("feeder list changed across scroll: %v vs %v", before, after)
				}
				return nil
			},
		},
		{
			ID:          "N3",
			Name:        "deep navigation keeps titles fresh",
			Group:       core.GroupNavigation,
			Seq:         3,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				first, err := home.OpenFeeder(ctx, "Bird Springs")
				if err != nil {
					return err
				}
				title, err := first.Title(ctx)
				if err != nil {
					return err
				}
				if title != "Bird Springs" {
					return fmt.Errorf("expected title %q, got %q", "Bird Springs", title)
				}
				home, err = first.Back(ctx)
				if err != nil {
					return err
				}
				second, err := home.OpenFeeder(ctx, "Feathered Friends")
				if err != nil {
					return err
				}
				title, err = second.Title(ctx)
				if err != nil {
					return err
				}
				if title != "Feathered Friends" {
					return fmt.Errorf("expected title %q, got %q", "Feathered Friends", title)
				}
				_, err = second.Back(ctx)
				return err
			},
		},
		{
			ID:          "N4",
			Name:        "pull to refresh",
			Group:       core.GroupNavigation,
			Seq:         4,
			Disposition: core.PlatformLimitation("pull-to-refresh gesture cannot be exercised on the simulator"),
		},
		{
			ID:          "N5",
			Name:        "food shop entry chain",
			Group:       core.GroupNavigation,
			Seq:         5,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				detail, err := home.OpenFirstFeeder(ctx)
				if err != nil {
					return err
				}
				if err := detail.OpenFoodPicker(ctx); err != nil {
					return err
				}
				if err := detail.FoodPickerDisplayed(ctx); err != nil {
					return err
				}
				if err := detail.OpenFoodShop(ctx); err != nil {
					return err
				}
				if err := detail.ShopDisplayed(ctx); err != nil {
					return err
				}
				if err := detail.BackFromShop(ctx); err != nil {
					return err
				}
				if err := detail.FoodPickerDisplayed(ctx); err != nil {
					return fmt.Errorf("picker not restored after leaving the shop: %w", err)
				}
				if err := detail.DismissFoodPicker(ctx); err != nil {
					return err
				}
				if err := detail.IsDisplayed(ctx); err != nil {
					return fmt.Errorf("detail not intact after the shop chain: %w", err)
				}
				_, err = detail.Back(ctx)
				return err
			},
		},
	}
}
