// Package suite orchestrates test case execution against one target app:
// deterministic ordering, session scope, failure capture, and result
// aggregation.
package suite

import (
	"context"
	"fmt"
	"sort"

	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/pages"
)

// Case is one executable test case. The body receives the root page and
// drives the app exclusively through Page Objects.
type Case struct {
	ID          string // Group letter + sequence: S1, N3, F9
	Name        string
	Group       core.Group
	Seq         int
	Disposition core.Disposition
	Body        func(ctx context.Context, home *pages.Home) error
}

// Order returns the cases in execution order: group rank, then sequence
// within the group. Registration order never matters. Duplicate IDs are
// rejected before anything runs.
func Order(cases []Case) ([]Case, error) {
	seen := make(map[string]bool, len(cases))
	for _, c := range cases {
		if seen[c.ID] {
			return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("duplicate case ID %q", c.ID))
		}
		seen[c.ID] = true
	}

	ordered := make([]Case, len(cases))
	copy(ordered, cases)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Group != ordered[j].Group {
			return ordered[i].Group.Rank() < ordered[j].Group.Rank()
		}
		return ordered[i].Seq < ordered[j].Seq
	})
	return ordered, nil
}
