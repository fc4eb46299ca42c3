package alert

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/crmkit/lead-capture/internal/queue"
)

const defaultPushTimeout = 10 * time.Second

// Pusher delivers a desktop push alert to an external endpoint.
type Pusher interface {
	Send(ctx context.Context, msg queue.AlertMessage) error
}

type pushRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Tags    string `json:"tags,omitempty"`
}

// WebhookPusher posts desktop push alerts to an ntfy-compatible endpoint.
type WebhookPusher struct {
	client   *resty.Client
	endpoint string
}

func NewWebhookPusher(endpoint string) (*WebhookPusher, error) {
	client := resty.New()
	client.SetTimeout(defaultPushTimeout)
	client.SetRetryCount(0)

	return NewWebhookPusherWithClient(endpoint, client)
}

func NewWebhookPusherWithClient(endpoint string, client *resty.Client) (*WebhookPusher, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("push endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid push endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultPushTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookPusher{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (p *WebhookPusher) Send(ctx context.Context, msg queue.AlertMessage) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("pusher is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid alert message: %w", err)
	}

	reqBody := pushRequest{
		Title:   "New Lead Captured",
		Message: fmt.Sprintf("%s via %s", msg.LeadName, msg.Source),
		Tags:    "lead",
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(p.endpoint)
	if err != nil {
		return &PushError{
			Message:   "push request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return &PushError{
			Message:   "push endpoint returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	return &PushError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("push endpoint returned status %d", statusCode),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
