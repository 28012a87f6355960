package element

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/devicelab-dev/aviary-e2e/pkg/appium"
)

// Labels closer than this to the wanted value are offered as a likely
// typo or rename.
const suggestionThreshold = 0.8

// nearestVisibleLabel scans the current page source for the visible label
// most similar to the wanted locator value. Best effort: any backend or
// parse problem just disables the suggestion.
func nearestVisibleLabel(client *appium.Client, want string) string {
	source, err := client.Source()
	if err != nil || source == "" {
		return ""
	}

	best := ""
	bestScore := 0.0
	for _, label := range appium.VisibleLabels(source) {
		score := smetrics.JaroWinkler(strings.ToLower(want), strings.ToLower(label), 0.7, 4)
		if score > bestScore {
			best, bestScore = label, score
		}
	}

	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}
