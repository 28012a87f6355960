package appium

import (
	"encoding/xml"
	"strings"
)

// VisibleLabels scans an XCUITest page-source XML document and returns the
// accessibility labels and names of visible elements, in document order with
// duplicates removed. Used to suggest near-miss locators when a find times
// out; parse problems just truncate the result.
func VisibleLabels(xmlData string) []string {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var labels []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		labels = append(labels, s)
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return labels
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		var name, label string
		visible := true
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "name":
				name = attr.Value
			case "label":
				label = attr.Value
			case "visible":
				visible = attr.Value != "false"
			}
		}
		if !visible {
			continue
		}
		add(label)
		add(name)
	}
}
