package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/crmkit/lead-capture/internal/alert"
	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/feed"
	"github.com/crmkit/lead-capture/internal/notify"
	"github.com/crmkit/lead-capture/internal/transport"
)

type fakePushStatus struct{ status feed.Status }

func (f *fakePushStatus) Status() feed.Status { return f.status }

type fakeWatermark struct{ at time.Time }

func (f *fakeWatermark) Watermark() time.Time { return f.at }

type panelFixture struct {
	app    *fiber.App
	store  *notify.Store
	toasts *notify.Presenter
	prefs  *alert.Preferences
}

func newPanelApp(t *testing.T) *panelFixture {
	t.Helper()

	store := notify.NewStore(50, nil)
	toasts := notify.NewPresenter(time.Hour, nil, nil)
	t.Cleanup(toasts.Close)
	prefs := alert.NewPreferences()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(nil),
	})
	h := NewNotificationHandler(
		store,
		toasts,
		prefs,
		&fakePushStatus{status: feed.StatusSubscribed},
		&fakeWatermark{at: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
		nil,
	)
	h.RegisterRoutes(app)

	return &panelFixture{app: app, store: store, toasts: toasts, prefs: prefs}
}

func (f *panelFixture) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	return resp
}

func notificationRecord(id string) domain.NotificationRecord {
	return domain.NotificationRecord{
		ID:         id,
		LeadID:     "lead-" + id,
		LeadName:   "Lead " + id,
		Source:     domain.SourceWebsiteAPI,
		ReceivedAt: time.Now(),
	}
}

func TestListNotifications(t *testing.T) {
	t.Parallel()

	f := newPanelApp(t)
	f.store.Accept(notificationRecord("a"))
	f.store.Accept(notificationRecord("b"))

	resp := f.request(t, http.MethodGet, "/v1/notifications", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	data := body["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("data length = %d, want 2", len(data))
	}
	newest := data[0].(map[string]any)
	if newest["id"] != "b" {
		t.Fatalf("newest id = %v, want b", newest["id"])
	}
	if body["unreadCount"] != float64(2) {
		t.Fatalf("unreadCount = %v, want 2", body["unreadCount"])
	}

	feeds := body["feeds"].(map[string]any)
	push := feeds["push"].(map[string]any)
	if push["status"] != "subscribed" {
		t.Fatalf("push status = %v, want subscribed", push["status"])
	}
	if _, ok := feeds["poll"].(map[string]any)["watermark"]; !ok {
		t.Fatal("poll watermark missing")
	}
}

func TestMarkReadEndpoints(t *testing.T) {
	t.Parallel()

	f := newPanelApp(t)
	f.store.Accept(notificationRecord("a"))
	f.store.Accept(notificationRecord("b"))

	resp := f.request(t, http.MethodPost, "/v1/notifications/a/read", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if got := f.store.UnreadCount(); got != 1 {
		t.Fatalf("unread = %d, want 1", got)
	}

	resp = f.request(t, http.MethodPost, "/v1/notifications/missing/read", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	resp = f.request(t, http.MethodPost, "/v1/notifications/read-all", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if got := f.store.UnreadCount(); got != 0 {
		t.Fatalf("unread = %d after read-all, want 0", got)
	}
}

func TestClearNotifications(t *testing.T) {
	t.Parallel()

	f := newPanelApp(t)
	f.store.Accept(notificationRecord("a"))

	resp := f.request(t, http.MethodDelete, "/v1/notifications", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if got := len(f.store.Snapshot()); got != 0 {
		t.Fatalf("store holds %d records after clear, want 0", got)
	}
}

func TestToastEndpoints(t *testing.T) {
	t.Parallel()

	f := newPanelApp(t)
	toast := f.toasts.Spawn(notificationRecord("a"))

	resp := f.request(t, http.MethodGet, "/v1/toasts", nil)
	body := decodeBody(t, resp)
	if data := body["data"].([]any); len(data) != 1 {
		t.Fatalf("toasts = %d, want 1", len(data))
	}

	resp = f.request(t, http.MethodPost, "/v1/toasts/"+toast.ToastID+"/activate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate status = %d, want 200", resp.StatusCode)
	}
	if got := decodeBody(t, resp)["leadId"]; got != "lead-a" {
		t.Fatalf("leadId = %v, want lead-a", got)
	}

	resp = f.request(t, http.MethodPost, "/v1/toasts/"+toast.ToastID+"/activate", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second activate status = %d, want 404", resp.StatusCode)
	}

	second := f.toasts.Spawn(notificationRecord("b"))
	resp = f.request(t, http.MethodDelete, "/v1/toasts/"+second.ToastID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("dismiss status = %d, want 204", resp.StatusCode)
	}
	if got := len(f.toasts.Snapshot()); got != 0 {
		t.Fatalf("live toasts = %d, want 0", got)
	}
}

func TestPreferencesEndpoints(t *testing.T) {
	t.Parallel()

	f := newPanelApp(t)

	resp := f.request(t, http.MethodGet, "/v1/preferences", nil)
	body := decodeBody(t, resp)
	if body["soundEnabled"] != true {
		t.Fatalf("soundEnabled = %v, want true", body["soundEnabled"])
	}
	if body["pushPermission"] != "default" {
		t.Fatalf("pushPermission = %v, want default", body["pushPermission"])
	}

	resp = f.request(t, http.MethodPut, "/v1/preferences", map[string]any{
		"soundEnabled":   false,
		"pushPermission": "granted",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if f.prefs.SoundEnabled() {
		t.Fatal("sound should be disabled")
	}
	if f.prefs.Permission() != alert.PermissionGranted {
		t.Fatalf("permission = %s, want granted", f.prefs.Permission())
	}

	resp = f.request(t, http.MethodPut, "/v1/preferences", map[string]any{
		"pushPermission": "always",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for invalid permission", resp.StatusCode)
	}
	if f.prefs.Permission() != alert.PermissionGranted {
		t.Fatal("invalid update must not change the permission")
	}
}
