package cases

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/pages"
	"github.com/devicelab-dev/aviary-e2e/pkg/suite"
)

func smokeCases() []suite.Case {
	return []suite.Case{
		{
			ID:          "S1",
			Name:        "app launches to the feeder list",
			Group:       core.GroupSmoke,
			Seq:         1,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				return home.DisplayedWithin(ctx, 10*time.Second)
			},
		},
		{
			ID:          "S2",
			Name:        "birds grid renders without errors",
			Group:       core.GroupSmoke,
			Seq:         2,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				if err := home.IsDisplayed(ctx); err != nil {
					return err
				}
				birds, err := home.BirdsTab(ctx)
				if err != nil {
					return err
				}
				if err := birds.GridVisible(ctx); err != nil {
					return err
				}
				count, err := birds.BirdCount(ctx)
				if err != nil {
					return err
				}
				if count < 1 {
					return fmt.Errorf("expected at least one bird cell, got %d", count)
				}
				banners, err := birds.ErrorBannerCount()
				if err != nil {
					return err
				}
				if banners != 0 {
					return fmt.Errorf("expected no error banners, got %d", banners)
				}
				return nil
			},
		},
		{
			ID:          "S3",
			Name:        "key controls are addressable",
			Group:       core.GroupSmoke,
			Seq:         3,
			Disposition: core.Runs(),
			Body: func(ctx context.Context, home *pages.Home) error {
				if err := home.IsDisplayed(ctx); err != nil {
					return err
				}
				count, err := home.FeederCount(ctx)
				if err != nil {
					return err
				}
				if count < 1 {
					return fmt.Errorf("expected at least one feeder card, got %d", count)
				}
				return home.SearchVisible(ctx)
			},
		},
	}
}
