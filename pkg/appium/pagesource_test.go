package appium

import (
	"reflect"
	"testing"
)

func TestVisibleLabels(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<XCUIElementTypeApplication name="Aviary" label="Aviary" visible="true">
  <XCUIElementTypeStaticText name="Feeders" label="Feeders" visible="true"/>
  <XCUIElementTypeButton name="Search" label="Search" visible="true"/>
  <XCUIElementTypeOther name="FeederCard_1" label="Bird Springs" visible="true"/>
  <XCUIElementTypeOther name="FeederCard_2" label="Feathered Friends" visible="false"/>
  <XCUIElementTypeStaticText name="Feeders" label="Feeders" visible="true"/>
</XCUIElementTypeApplication>`

	labels := VisibleLabels(xmlData)

	want := []string{"Aviary", "Feeders", "Search", "Bird Springs", "FeederCard_1"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("VisibleLabels() = %v, want %v", labels, want)
	}
}

func TestVisibleLabelsSkipsInvisible(t *testing.T) {
	xmlData := `<root>
  <XCUIElementTypeButton name="Hidden" visible="false"/>
  <XCUIElementTypeButton name="Shown" visible="true"/>
  <XCUIElementTypeButton name="Unmarked"/>
</root>`

	labels := VisibleLabels(xmlData)

	for _, l := range labels {
		if l == "Hidden" {
			t.Error("Expected invisible element to be excluded")
		}
	}
	if !reflect.DeepEqual(labels, []string{"Shown", "Unmarked"}) {
		t.Errorf("VisibleLabels() = %v, want [Shown Unmarked]", labels)
	}
}

func TestVisibleLabelsTruncatesOnBadXML(t *testing.T) {
	xmlData := `<root><XCUIElementTypeButton name="First" visible="true"/><broken`

	labels := VisibleLabels(xmlData)

	if !reflect.DeepEqual(labels, []string{"First"}) {
		t.Errorf("VisibleLabels() = %v, want [First]", labels)
	}
}

func TestVisibleLabelsEmpty(t *testing.T) {
	if labels := VisibleLabels(""); len(labels) != 0 {
		t.Errorf("VisibleLabels(\"\") = %v, want empty", labels)
	}
	// Whitespace-only attributes are trimmed away.
	if labels := VisibleLabels(`<root name="  " label=""/>`); len(labels) != 0 {
		t.Errorf("VisibleLabels(blank attrs) = %v, want empty", labels)
	}
}
