package alert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crmkit/lead-capture/internal/queue"
)

func testMessage() queue.AlertMessage {
	return queue.AlertMessage{
		NotificationID: "n-1",
		LeadID:         "lead-1",
		LeadName:       "Jane Doe",
		Source:         "Website API",
		Kind:           queue.KindDesktopPush,
	}
}

func TestWebhookPusherSendSuccess(t *testing.T) {
	t.Parallel()

	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pusher, err := NewWebhookPusher(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookPusher() error = %v", err)
	}

	if err := pusher.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q, want application/json", gotContentType)
	}
}

func TestWebhookPusherServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	pusher, err := NewWebhookPusher(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookPusher() error = %v", err)
	}

	err = pusher.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !IsTransient(err) {
		t.Fatalf("error %v should be transient", err)
	}
}

func TestWebhookPusherClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	pusher, err := NewWebhookPusher(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookPusher() error = %v", err)
	}

	err = pusher.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if IsTransient(err) {
		t.Fatalf("error %v should be permanent", err)
	}
}

func TestWebhookPusherRejectsInvalidMessage(t *testing.T) {
	t.Parallel()

	pusher, err := NewWebhookPusher("http://localhost:1")
	if err != nil {
		t.Fatalf("NewWebhookPusher() error = %v", err)
	}

	if err := pusher.Send(context.Background(), queue.AlertMessage{}); err == nil {
		t.Fatal("expected error for invalid message")
	}
}

func TestNewWebhookPusherValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewWebhookPusher(""); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := NewWebhookPusher("not a url"); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
}
