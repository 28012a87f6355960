// Package cases declares the Aviary regression suite: smoke, navigation,
// and functional groups, all driving the app through Page Objects.
package cases

import (
	"github.com/devicelab-dev/aviary-e2e/pkg/suite"
)

// All returns every registered case. Registration order is irrelevant;
// the runner sorts by group and sequence.
func All() []suite.Case {
	var all []suite.Case
	all = append(all, smokeCases()...)
	all = append(all, navigationCases()...)
	all = append(all, functionalCases()...)
	return all
}
