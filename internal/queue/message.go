package queue

import (
	"fmt"
	"strings"
)

// AlertKind identifies the side effect an alert message requests.
type AlertKind string

const (
	KindChime       AlertKind = "chime"
	KindDesktopPush AlertKind = "desktop_push"
)

func (k AlertKind) String() string { return string(k) }

func (k AlertKind) IsValid() bool {
	switch k {
	case KindChime, KindDesktopPush:
		return true
	}
	return false
}

// AlertMessage is the broker payload for notification side effects.
type AlertMessage struct {
	NotificationID string    `json:"notificationId"`
	LeadID         string    `json:"leadId,omitempty"`
	LeadName       string    `json:"leadName"`
	Source         string    `json:"source,omitempty"`
	Kind           AlertKind `json:"kind"`
}

func (m AlertMessage) Validate() error {
	if strings.TrimSpace(m.NotificationID) == "" {
		return fmt.Errorf("notificationId is required")
	}
	if strings.TrimSpace(m.LeadName) == "" {
		return fmt.Errorf("leadName is required")
	}
	if !m.Kind.IsValid() {
		return fmt.Errorf("invalid alert kind %q", m.Kind)
	}
	return nil
}
