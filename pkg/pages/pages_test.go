package pages

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/devicelab-dev/aviary-e2e/pkg/appium"
	"github.com/devicelab-dev/aviary-e2e/pkg/config"
	"github.com/devicelab-dev/aviary-e2e/pkg/element"
	"github.com/devicelab-dev/aviary-e2e/pkg/session"
)

const elemKey = "element-6066-11e4-a52e-4f735466cecf"

func writeJSON(w http.ResponseWriter, data map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// fakeElement is one node of the fake UI tree. Zero value is displayed
// and enabled.
type fakeElement struct {
	name     string
	label    string
	value    string
	rect     appium.Rect
	hidden   bool
	disabled bool
}

type swipe struct {
	x1, y1, x2, y2 int
}

// fakeDriver is a scriptable automation backend. Finds are keyed by the
// exact strategy and selector a locator produces; onTap and onSwipe run
// under the driver lock and may mutate the tree directly.
type fakeDriver struct {
	mu      sync.Mutex
	finds   map[string][]string
	els     map[string]*fakeElement
	taps    []string
	typed   map[string]string
	swipes  []swipe
	onTap   func(d *fakeDriver, id string)
	onSwipe func(d *fakeDriver, count int)
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		finds: map[string][]string{},
		els:   map[string]*fakeElement{},
		typed: map[string]string{},
	}
}

// addElement registers an element and makes loc resolve to it.
func (d *fakeDriver) addElement(id string, el fakeElement, loc element.Locator) {
	d.els[id] = &el
	key := loc.Strategy + "|" + loc.Value
	d.finds[key] = append(d.finds[key], id)
}

func (d *fakeDriver) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		defer d.mu.Unlock()

		path := r.URL.Path
		parts := strings.Split(path, "/")
		switch {
		case r.Method == "POST" && path == "/session":
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"sessionId": "page-session"},
			})
		case r.Method == "GET" && strings.HasSuffix(path, "/window/rect"):
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"x": 0, "y": 0, "width": 390, "height": 844},
			})
		case r.Method == "POST" && strings.HasSuffix(path, "/elements"):
			var body struct{ Using, Value string }
			json.NewDecoder(r.Body).Decode(&body)
			ids := d.finds[body.Using+"|"+body.Value]
			out := make([]interface{}, 0, len(ids))
			for _, id := range ids {
				out = append(out, map[string]interface{}{elemKey: id})
			}
			writeJSON(w, map[string]interface{}{"value": out})
		case r.Method == "POST" && strings.HasSuffix(path, "/element"):
			var body struct{ Using, Value string }
			json.NewDecoder(r.Body).Decode(&body)
			ids := d.finds[body.Using+"|"+body.Value]
			if len(ids) == 0 {
				w.WriteHeader(http.StatusNotFound)
				writeJSON(w, map[string]interface{}{
					"value": map[string]interface{}{"error": "no such element", "message": "not found: " + body.Value},
				})
				return
			}
			writeJSON(w, map[string]interface{}{"value": map[string]interface{}{elemKey: ids[0]}})
		case r.Method == "POST" && strings.HasSuffix(path, "/click"):
			id := parts[len(parts)-2]
			d.taps = append(d.taps, id)
			if d.onTap != nil {
				d.onTap(d, id)
			}
			writeJSON(w, map[string]interface{}{"value": nil})
		case r.Method == "GET" && strings.Contains(path, "/attribute/"):
			attr := parts[len(parts)-1]
			el := d.els[parts[len(parts)-3]]
			var val string
			if el != nil {
				switch attr {
				case "name":
					val = el.name
				case "label":
					val = el.label
				case "value":
					val = el.value
				}
			}
			writeJSON(w, map[string]interface{}{"value": val})
		case r.Method == "GET" && strings.HasSuffix(path, "/rect"):
			el := d.els[parts[len(parts)-2]]
			rect := appium.Rect{}
			if el != nil {
				rect = el.rect
			}
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"x": rect.X, "y": rect.Y, "width": rect.Width, "height": rect.Height},
			})
		case r.Method == "GET" && strings.HasSuffix(path, "/displayed"):
			el := d.els[parts[len(parts)-2]]
			writeJSON(w, map[string]interface{}{"value": el != nil && !el.hidden})
		case r.Method == "GET" && strings.HasSuffix(path, "/enabled"):
			el := d.els[parts[len(parts)-2]]
			writeJSON(w, map[string]interface{}{"value": el != nil && !el.disabled})
		case r.Method == "POST" && strings.HasSuffix(path, "/value"):
			id := parts[len(parts)-2]
			var body struct{ Text string }
			json.NewDecoder(r.Body).Decode(&body)
			d.typed[id] += body.Text
			writeJSON(w, map[string]interface{}{"value": nil})
		case r.Method == "POST" && strings.HasSuffix(path, "/actions"):
			var body struct {
				Actions []struct {
					Actions []struct {
						Type string  `json:"type"`
						X    float64 `json:"x"`
						Y    float64 `json:"y"`
					} `json:"actions"`
				} `json:"actions"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if len(body.Actions) == 1 {
				var pts [][2]int
				for _, a := range body.Actions[0].Actions {
					if a.Type == "pointerMove" {
						pts = append(pts, [2]int{int(a.X), int(a.Y)})
					}
				}
				if len(pts) == 2 {
					d.swipes = append(d.swipes, swipe{pts[0][0], pts[0][1], pts[1][0], pts[1][1]})
					if d.onSwipe != nil {
						d.onSwipe(d, len(d.swipes))
					}
				}
			}
			writeJSON(w, map[string]interface{}{"value": nil})
		default:
			writeJSON(w, map[string]interface{}{"value": nil})
		}
	})
}

func newPagesSession(t *testing.T, d *fakeDriver) *session.Session {
	t.Helper()
	server := httptest.NewServer(d.handler())
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Server = server.URL
	cfg.Caps.DeviceName = "iPhone 17 Pro"
	cfg.Caps.BundleID = "com.devicelab.aviary"

	s, err := session.NewManager(cfg).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	return s
}

// Pages must re-resolve elements on every use. A stored handle would pin
// a UI generation, so no page struct may carry one, directly or nested.
func TestPagesHoldNoElementHandles(t *testing.T) {
	handleType := reflect.TypeOf(element.Handle{})
	for _, typ := range []reflect.Type{
		reflect.TypeOf(Home{}),
		reflect.TypeOf(FeederDetail{}),
		reflect.TypeOf(Birds{}),
	} {
		checkNoHandleField(t, typ, typ.Name(), handleType, map[reflect.Type]bool{})
	}
}

func checkNoHandleField(t *testing.T, typ reflect.Type, path string, handle reflect.Type, seen map[reflect.Type]bool) {
	switch typ.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Map:
		checkNoHandleField(t, typ.Elem(), path, handle, seen)
	case reflect.Struct:
		if typ == handle {
			t.Errorf("%s stores an element handle", path)
			return
		}
		if seen[typ] {
			return
		}
		seen[typ] = true
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			checkNoHandleField(t, f.Type, path+"."+f.Name, handle, seen)
		}
	}
}

func TestFeederNamesOrderedByPosition(t *testing.T) {
	d := newFakeDriver()
	d.addElement("cell-1", fakeElement{label: "Calm Palms", rect: appium.Rect{Y: 500}}, feederCells)
	d.addElement("cell-2", fakeElement{label: "Bird Springs", rect: appium.Rect{Y: 120}}, feederCells)
	d.addElement("cell-3", fakeElement{label: "Feathered Friends", rect: appium.Rect{Y: 320}}, feederCells)
	home := NewHome(newPagesSession(t, d))

	names, err := home.FeederNames(context.Background())
	if err != nil {
		t.Fatalf("FeederNames failed: %v", err)
	}
	want := []string{"Bird Springs", "Feathered Friends", "Calm Palms"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestOpenFeederNavigates(t *testing.T) {
	d := newFakeDriver()
	d.addElement("card-bs", fakeElement{label: "Bird Springs"}, feederCard("Bird Springs"))
	d.onTap = func(d *fakeDriver, id string) {
		if id == "card-bs" {
			d.addElement("btn-back", fakeElement{name: "BackButton"}, backButton)
			d.addElement("btn-fav", fakeElement{name: "Favorite"}, favoriteButton)
		}
	}
	home := NewHome(newPagesSession(t, d))

	detail, err := home.OpenFeeder(context.Background(), "Bird Springs")
	if err != nil {
		t.Fatalf("OpenFeeder failed: %v", err)
	}
	if detail == nil {
		t.Fatal("expected a detail page")
	}
	if len(d.taps) != 1 || d.taps[0] != "card-bs" {
		t.Errorf("expected a single tap on card-bs, got %v", d.taps)
	}
}

func TestTitleAndBack(t *testing.T) {
	d := newFakeDriver()
	d.addElement("btn-back", fakeElement{name: "BackButton"}, backButton)
	d.addElement("btn-fav", fakeElement{name: "Favorite"}, favoriteButton)
	d.addElement("nav-1", fakeElement{name: "Bird Springs"}, navBar)
	d.onTap = func(d *fakeDriver, id string) {
		if id == "btn-back" {
			d.addElement("title-home", fakeElement{label: "Feeders"}, homeTitle)
		}
	}
	detail := NewFeederDetail(newPagesSession(t, d))

	title, err := detail.Title(context.Background())
	if err != nil {
		t.Fatalf("Title failed: %v", err)
	}
	if title != "Bird Springs" {
		t.Errorf("expected title %q, got %q", "Bird Springs", title)
	}

	home, err := detail.Back(context.Background())
	if err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if home == nil {
		t.Fatal("expected a home page")
	}
}

func TestScrollDownSwipesWindowHeight(t *testing.T) {
	d := newFakeDriver()
	home := NewHome(newPagesSession(t, d))

	if err := home.ScrollDown(); err != nil {
		t.Fatalf("ScrollDown failed: %v", err)
	}
	if len(d.swipes) != 1 {
		t.Fatalf("expected 1 swipe, got %d", len(d.swipes))
	}
	want := swipe{x1: 195, y1: 590, x2: 195, y2: 253}
	if d.swipes[0] != want {
		t.Errorf("expected swipe %+v, got %+v", want, d.swipes[0])
	}
}

func TestShowMoreScrollsIntoView(t *testing.T) {
	d := newFakeDriver()
	d.onSwipe = func(d *fakeDriver, count int) {
		if count == 2 {
			d.addElement("btn-more", fakeElement{name: "ShowMoreButton"}, showMoreButton)
		}
	}
	detail := NewFeederDetail(newPagesSession(t, d))

	if err := detail.ShowMore(context.Background()); err != nil {
		t.Fatalf("ShowMore failed: %v", err)
	}
	if len(d.swipes) != 2 {
		t.Errorf("expected 2 swipes before the button appeared, got %d", len(d.swipes))
	}
	if len(d.taps) != 1 || d.taps[0] != "btn-more" {
		t.Errorf("expected a single tap on btn-more, got %v", d.taps)
	}
}

func TestSearchForTypesQuery(t *testing.T) {
	d := newFakeDriver()
	d.addElement("btn-search", fakeElement{name: "Search"}, searchOpen)
	d.onTap = func(d *fakeDriver, id string) {
		if id == "btn-search" {
			d.addElement("field-1", fakeElement{name: "FeederSearchField"}, searchField)
		}
	}
	home := NewHome(newPagesSession(t, d))

	if err := home.SearchFor(context.Background(), "Bird"); err != nil {
		t.Fatalf("SearchFor failed: %v", err)
	}
	if d.typed["field-1"] != "Bird" {
		t.Errorf("expected %q typed into the field, got %q", "Bird", d.typed["field-1"])
	}
}

func TestTapSuggestionSetsSearchValue(t *testing.T) {
	d := newFakeDriver()
	d.addElement("title-birds", fakeElement{label: "Birds"}, birdsTitle)
	d.addElement("field-1", fakeElement{name: "BirdSearchField"}, searchField)
	d.addElement("sugg-dove", fakeElement{name: "SearchSuggestion_dove", label: "Dove"}, searchSuggestion("Dove"))
	d.onTap = func(d *fakeDriver, id string) {
		if id == "sugg-dove" {
			d.els["field-1"].value = "Dove"
		}
	}
	birds := NewBirds(newPagesSession(t, d))

	if err := birds.TapSuggestion(context.Background(), "Dove"); err != nil {
		t.Fatalf("TapSuggestion failed: %v", err)
	}
	got, err := birds.SearchValue(context.Background())
	if err != nil {
		t.Fatalf("SearchValue failed: %v", err)
	}
	if got != "Dove" {
		t.Errorf("expected search value %q, got %q", "Dove", got)
	}
}

func TestCountsWithoutWaiting(t *testing.T) {
	d := newFakeDriver()
	d.addElement("cell-1", fakeElement{label: "Bird Springs"}, feederCells)
	home := NewHome(newPagesSession(t, d))

	banners, err := home.ErrorBannerCount()
	if err != nil {
		t.Fatalf("ErrorBannerCount failed: %v", err)
	}
	if banners != 0 {
		t.Errorf("expected 0 banners, got %d", banners)
	}

	count, err := home.FeederCountNow()
	if err != nil {
		t.Fatalf("FeederCountNow failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 feeder, got %d", count)
	}
}
