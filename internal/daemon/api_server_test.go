package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"gamearr/internal/downloads"
	"gamearr/internal/store"
	"gamearr/internal/testsupport"
)

func serve(t *testing.T, d *Daemon, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	d.api.router.ServeHTTP(w, req)
	return w
}

func TestAPIServerHealthz(t *testing.T) {
	d, _ := newTestDaemon(t, &fakeReconciler{}, &recordingNotifier{})

	w := serve(t, d, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}

	d.store.Close()
	w = serve(t, d, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after store close, got %d", w.Code)
	}
}

func TestAPIServerMetrics(t *testing.T) {
	d, _ := newTestDaemon(t, &fakeReconciler{}, &recordingNotifier{})

	w := serve(t, d, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "gamearr_download_client_up") {
		t.Fatalf("expected gamearr metrics in output")
	}
}

func TestAPIServerRequiresToken(t *testing.T) {
	d, cfg := newTestDaemon(t, &fakeReconciler{}, &recordingNotifier{})
	cfg.Paths.APIToken = "secret"
	d.api = newAPIServer(cfg, d, d.logger)

	if w := serve(t, d, http.MethodGet, "/api/status", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := serve(t, d, http.MethodGet, "/api/status", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	if w := serve(t, d, http.MethodGet, "/api/status", "secret"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if w := serve(t, d, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz should not require a token, got %d", w.Code)
	}
}

func TestAPIServerStatus(t *testing.T) {
	d, cfg := newTestDaemon(t, &fakeReconciler{}, &recordingNotifier{})

	w := serve(t, d, http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Running {
		t.Fatal("daemon was never started")
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected database path %q", status.DatabasePath)
	}
}

func TestAPIServerReleases(t *testing.T) {
	d, _ := newTestDaemon(t, &fakeReconciler{}, &recordingNotifier{})
	ctx := context.Background()

	game := testsupport.NewGame(t, d.store, "Hades", "PC")
	downloading := testsupport.NewRelease(t, d.store, store.NewRelease{
		GameID: game.ID,
		Title:  "Hades-GOG",
		Size:   testsupport.Int64(4 << 30),
		Status: store.ReleaseDownloading,
	})
	failed := testsupport.NewRelease(t, d.store, store.NewRelease{
		GameID: game.ID,
		Title:  "Hades-FitGirl",
		Status: store.ReleaseDownloading,
	})
	if err := d.store.UpdateReleaseStatus(ctx, failed.ID, store.ReleaseFailed); err != nil {
		t.Fatalf("UpdateReleaseStatus: %v", err)
	}

	w := serve(t, d, http.MethodGet, "/api/releases", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var all releaseListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all.Releases) != 2 {
		t.Fatalf("expected 2 releases, got %d", len(all.Releases))
	}

	w = serve(t, d, http.MethodGet, "/api/releases?status=failed", "")
	var filtered releaseListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &filtered); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(filtered.Releases) != 1 || filtered.Releases[0].ID != failed.ID {
		t.Fatalf("unexpected filtered releases: %+v", filtered.Releases)
	}

	if w := serve(t, d, http.MethodGet, "/api/releases?status=seeding", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}

	w = serve(t, d, http.MethodGet, "/api/releases/"+strconv.FormatInt(downloading.ID, 10), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var single releaseResponse
	if err := json.Unmarshal(w.Body.Bytes(), &single); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if single.Title != "Hades-GOG" || single.Status != "downloading" || single.SizeBytes == nil {
		t.Fatalf("unexpected release: %+v", single)
	}

	if w := serve(t, d, http.MethodGet, "/api/releases/9999", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := serve(t, d, http.MethodGet, "/api/releases/abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAPIServerReconcile(t *testing.T) {
	engine := &fakeReconciler{
		results: []error{errors.New("connection refused"), nil},
		summary: downloads.Summary{Checked: 3, Completed: 2},
	}
	d, _ := newTestDaemon(t, engine, &recordingNotifier{})

	if w := serve(t, d, http.MethodPost, "/api/reconcile", ""); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on failed pass, got %d", w.Code)
	}

	w := serve(t, d, http.MethodPost, "/api/reconcile", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var summary downloads.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Checked != 3 || summary.Completed != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !d.Connectivity().Reachable {
		t.Fatal("expected connectivity to recover after manual pass")
	}
}
