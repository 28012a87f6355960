package suite

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/devicelab-dev/aviary-e2e/pkg/capture"
	"github.com/devicelab-dev/aviary-e2e/pkg/config"
	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/pages"
	"github.com/devicelab-dev/aviary-e2e/pkg/session"
)

func writeJSON(w http.ResponseWriter, data map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// backend is a minimal automation server that counts session traffic.
// With findable set it also answers element lookups, enough for a page
// object to report itself displayed.
type backend struct {
	mu           sync.Mutex
	requests     int
	creates      int
	deletes      int
	rejectCreate bool
	findable     bool
}

func (b *backend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.requests++
		switch {
		case r.Method == "POST" && r.URL.Path == "/session":
			b.creates++
			if b.rejectCreate {
				w.WriteHeader(http.StatusBadRequest)
				writeJSON(w, map[string]interface{}{
					"value": map[string]interface{}{"error": "invalid argument", "message": "capabilities rejected"},
				})
				return
			}
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"sessionId": "suite-session"},
			})
		case r.Method == "DELETE":
			b.deletes++
			writeJSON(w, map[string]interface{}{"value": nil})
		case b.findable && r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/element"):
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"element-6066-11e4-a52e-4f735466cecf": "el-1"},
			})
		case b.findable && (strings.HasSuffix(r.URL.Path, "/displayed") || strings.HasSuffix(r.URL.Path, "/enabled")):
			writeJSON(w, map[string]interface{}{"value": true})
		case strings.HasSuffix(r.URL.Path, "/screenshot"):
			writeJSON(w, map[string]interface{}{
				"value": base64.StdEncoding.EncodeToString([]byte("png-bytes")),
			})
		default:
			writeJSON(w, map[string]interface{}{"value": nil})
		}
	})
}

func (b *backend) stats() (requests, creates, deletes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests, b.creates, b.deletes
}

func newRunner(t *testing.T, b *backend) (*Runner, *config.Config) {
	t.Helper()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Server = server.URL
	cfg.Output = t.TempDir()
	cfg.Caps.DeviceName = "iPhone 17 Pro"
	cfg.Caps.BundleID = "com.devicelab.aviary"

	return New(session.NewManager(cfg), cfg, capture.New(cfg.ArtifactsDir())), cfg
}

func makeCase(id string, group core.Group, seq int, body func(ctx context.Context, home *pages.Home) error) Case {
	return Case{
		ID:          id,
		Name:        "case " + id,
		Group:       group,
		Seq:         seq,
		Disposition: core.Runs(),
		Body:        body,
	}
}

func passBody(ctx context.Context, home *pages.Home) error { return nil }

func caseIDs(result *core.RunResult) []string {
	ids := make([]string, 0, len(result.Cases))
	for _, c := range result.Cases {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestRunOrdersCasesByGroupAndSequence(t *testing.T) {
	cases := []Case{
		{ID: "F1", Group: core.GroupFunctional, Seq: 1, Disposition: core.Skip("later")},
		{ID: "S2", Group: core.GroupSmoke, Seq: 2, Disposition: core.Skip("later")},
		{ID: "N1", Group: core.GroupNavigation, Seq: 1, Disposition: core.Skip("later")},
		{ID: "S1", Group: core.GroupSmoke, Seq: 1, Disposition: core.Skip("later")},
	}
	r, _ := newRunner(t, &backend{})

	want := []string{"S1", "S2", "N1", "F1"}
	for run := 0; run < 2; run++ {
		result, err := r.Run(context.Background(), cases)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if got := caseIDs(result); !reflect.DeepEqual(got, want) {
			t.Errorf("run %d: expected order %v, got %v", run, want, got)
		}
	}
}

func TestDuplicateCaseIDsRejected(t *testing.T) {
	r, _ := newRunner(t, &backend{})
	_, err := r.Run(context.Background(), []Case{
		{ID: "S1", Group: core.GroupSmoke, Seq: 1, Disposition: core.Skip("later")},
		{ID: "S1", Group: core.GroupSmoke, Seq: 1, Disposition: core.Skip("later")},
	})
	if err == nil {
		t.Fatal("expected duplicate IDs to be rejected")
	}
	if !strings.Contains(err.Error(), "S1") {
		t.Errorf("expected error to name the duplicate, got %v", err)
	}
}

func TestSkipNeverTouchesBackend(t *testing.T) {
	b := &backend{}
	r, _ := newRunner(t, b)

	result, err := r.Run(context.Background(), []Case{{
		ID:          "N4",
		Name:        "pull to refresh",
		Group:       core.GroupNavigation,
		Seq:         4,
		Disposition: core.PlatformLimitation("no gesture control on the simulator"),
	}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	c := result.Cases[0]
	if c.Status != core.StatusSkipped {
		t.Errorf("expected skipped, got %s", c.Status)
	}
	if c.Reason != "no gesture control on the simulator" {
		t.Errorf("expected the disposition reason, got %q", c.Reason)
	}
	if requests, _, _ := b.stats(); requests != 0 {
		t.Errorf("expected zero backend requests for a skipped case, got %d", requests)
	}
}

func TestPassingCaseLeavesNoArtifact(t *testing.T) {
	b := &backend{}
	r, cfg := newRunner(t, b)

	result, err := r.Run(context.Background(), []Case{
		makeCase("S1", core.GroupSmoke, 1, passBody),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	c := result.Cases[0]
	if c.Status != core.StatusPassed {
		t.Errorf("expected passed, got %s", c.Status)
	}
	if c.Artifact != "" {
		t.Errorf("expected no artifact, got %q", c.Artifact)
	}
	if _, err := os.Stat(cfg.ArtifactsDir()); !os.IsNotExist(err) {
		t.Error("expected no artifacts directory after a green run")
	}
	if _, creates, deletes := b.stats(); creates != 1 || deletes != 1 {
		t.Errorf("expected one session created and released, got %d/%d", creates, deletes)
	}
}

func TestHomeDisplayedAfterSessionStart(t *testing.T) {
	b := &backend{findable: true}
	r, _ := newRunner(t, b)

	result, err := r.Run(context.Background(), []Case{
		makeCase("S1", core.GroupSmoke, 1, func(ctx context.Context, home *pages.Home) error {
			return home.IsDisplayed(ctx)
		}),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Cases[0].Status != core.StatusPassed {
		t.Errorf("expected passed, got %s: %s", result.Cases[0].Status, result.Cases[0].Error)
	}
	if _, creates, deletes := b.stats(); creates != 1 || deletes != 1 {
		t.Errorf("expected one session created and released, got %d/%d", creates, deletes)
	}
}

func TestBodyFailureCapturesAndReleases(t *testing.T) {
	b := &backend{}
	r, _ := newRunner(t, b)

	result, err := r.Run(context.Background(), []Case{
		makeCase("F1", core.GroupFunctional, 1, func(ctx context.Context, home *pages.Home) error {
			return errors.New("favorite never toggled")
		}),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	c := result.Cases[0]
	if c.Status != core.StatusFailed {
		t.Errorf("expected failed, got %s", c.Status)
	}
	if c.Error != "favorite never toggled" {
		t.Errorf("expected the body error verbatim, got %q", c.Error)
	}
	if c.Artifact == "" {
		t.Fatal("expected a capture artifact on failure")
	}
	if _, err := os.Stat(c.Artifact); err != nil {
		t.Errorf("expected artifact file on disk: %v", err)
	}
	if _, creates, deletes := b.stats(); creates != 1 || deletes != 1 {
		t.Errorf("expected one session created and released, got %d/%d", creates, deletes)
	}
	if result.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %d", result.ExitCode())
	}
}

func TestExpectedFailureCountsAsSuccess(t *testing.T) {
	b := &backend{}
	r, _ := newRunner(t, b)

	result, err := r.Run(context.Background(), []Case{{
		ID:          "F12",
		Name:        "failure capture demo",
		Group:       core.GroupFunctional,
		Seq:         12,
		Disposition: core.IntentionalFail("demonstrates failure capture"),
		Body: func(ctx context.Context, home *pages.Home) error {
			return errors.New("no such feeder")
		},
	}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	c := result.Cases[0]
	if c.Status != core.StatusExpectedFailed {
		t.Errorf("expected expected-failed, got %s", c.Status)
	}
	if c.Artifact == "" {
		t.Error("expected the demo case to still produce an artifact")
	}
	if !result.Success() {
		t.Error("expected-failed must count as a clean run")
	}
	if result.ExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode())
	}
}

func TestUnexpectedPassIsAnAnomaly(t *testing.T) {
	b := &backend{}
	r, _ := newRunner(t, b)

	result, err := r.Run(context.Background(), []Case{{
		ID:          "F12",
		Name:        "failure capture demo",
		Group:       core.GroupFunctional,
		Seq:         12,
		Disposition: core.ExpectedFail("should fail"),
		Body:        passBody,
	}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Cases[0].Status != core.StatusUnexpectedPassed {
		t.Errorf("expected unexpected-passed, got %s", result.Cases[0].Status)
	}
	if result.ExitCode() != 1 {
		t.Errorf("expected exit code 1 for an anomaly, got %d", result.ExitCode())
	}
}

func TestPanicBecomesFailure(t *testing.T) {
	b := &backend{}
	r, _ := newRunner(t, b)

	result, err := r.Run(context.Background(), []Case{
		makeCase("F2", core.GroupFunctional, 2, func(ctx context.Context, home *pages.Home) error {
			panic("boom")
		}),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	c := result.Cases[0]
	if c.Status != core.StatusFailed {
		t.Errorf("expected failed, got %s", c.Status)
	}
	if !strings.Contains(c.Error, "panicked") || !strings.Contains(c.Error, "boom") {
		t.Errorf("expected the panic in the error, got %q", c.Error)
	}
	if _, _, deletes := b.stats(); deletes != 1 {
		t.Errorf("expected the session released after a panic, got %d deletes", deletes)
	}
}

func TestCancellationSkipsRemainder(t *testing.T) {
	b := &backend{}
	r, _ := newRunner(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := r.Run(ctx, []Case{
		makeCase("S1", core.GroupSmoke, 1, func(ctx context.Context, home *pages.Home) error {
			cancel()
			return nil
		}),
		makeCase("S2", core.GroupSmoke, 2, passBody),
		makeCase("N1", core.GroupNavigation, 1, passBody),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Cases[0].Status != core.StatusPassed {
		t.Errorf("expected the first case to pass, got %s", result.Cases[0].Status)
	}
	for _, c := range result.Cases[1:] {
		if c.Status != core.StatusSkipped {
			t.Errorf("expected %s skipped after cancellation, got %s", c.ID, c.Status)
		}
		if !strings.Contains(c.Reason, "run canceled") {
			t.Errorf("expected cancellation reason on %s, got %q", c.ID, c.Reason)
		}
	}
	if _, creates, _ := b.stats(); creates != 1 {
		t.Errorf("expected only the first case to open a session, got %d creates", creates)
	}
}

func TestSuiteScopeSharesOneSession(t *testing.T) {
	b := &backend{}
	r, _ := newRunner(t, b)
	r.Scope = config.ScopeSuite

	result, err := r.Run(context.Background(), []Case{
		makeCase("S1", core.GroupSmoke, 1, passBody),
		makeCase("S2", core.GroupSmoke, 2, passBody),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, c := range result.Cases {
		if c.Status != core.StatusPassed {
			t.Errorf("expected %s passed, got %s", c.ID, c.Status)
		}
	}
	if _, creates, deletes := b.stats(); creates != 1 || deletes != 1 {
		t.Errorf("expected a single shared session, got %d creates and %d deletes", creates, deletes)
	}
}

func TestSuiteScopeAcquireFailureFailsFirstSkipsRest(t *testing.T) {
	b := &backend{rejectCreate: true}
	r, _ := newRunner(t, b)
	r.Scope = config.ScopeSuite

	result, err := r.Run(context.Background(), []Case{
		makeCase("S1", core.GroupSmoke, 1, passBody),
		makeCase("S2", core.GroupSmoke, 2, passBody),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Cases[0].Status != core.StatusFailed {
		t.Errorf("expected the first case to carry the session failure, got %s", result.Cases[0].Status)
	}
	if result.Cases[0].Error == "" {
		t.Error("expected the session error on the first case")
	}
	if result.Cases[1].Status != core.StatusSkipped {
		t.Errorf("expected the second case skipped, got %s", result.Cases[1].Status)
	}
	if result.Cases[1].Reason != "suite session unavailable" {
		t.Errorf("unexpected skip reason %q", result.Cases[1].Reason)
	}
}

func TestProgressCallbacks(t *testing.T) {
	r, _ := newRunner(t, &backend{})

	var starts, ends []string
	r.OnCaseStart = func(idx, total int, c Case) {
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
		starts = append(starts, c.ID)
	}
	r.OnCaseEnd = func(result core.CaseResult) {
		ends = append(ends, result.ID)
	}

	_, err := r.Run(context.Background(), []Case{
		{ID: "S2", Group: core.GroupSmoke, Seq: 2, Disposition: core.Skip("later")},
		{ID: "S1", Group: core.GroupSmoke, Seq: 1, Disposition: core.Skip("later")},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"S1", "S2"}
	if !reflect.DeepEqual(starts, want) || !reflect.DeepEqual(ends, want) {
		t.Errorf("expected callbacks in order %v, got starts %v ends %v", want, starts, ends)
	}
}
