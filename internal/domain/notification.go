package domain

import "time"

// NotificationRecord is a user-visible entry in the notification panel,
// denormalized from the lead that produced it. Created once per lead
// identity; only the read flag is ever mutated afterwards.
type NotificationRecord struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"leadId,omitempty"`
	LeadName   string    `json:"leadName"`
	LeadEmail  string    `json:"leadEmail,omitempty"`
	LeadPhone  string    `json:"leadPhone,omitempty"`
	Source     string    `json:"source"`
	Services   string    `json:"services,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
	Read       bool      `json:"read"`
}

// ToastRecord is a transient on-screen acknowledgment of an accepted
// notification. It is never mutated; it either expires or is dismissed.
type ToastRecord struct {
	ToastID      string             `json:"toastId"`
	Notification NotificationRecord `json:"notification"`
	SpawnedAt    time.Time          `json:"spawnedAt"`
}

// NewNotificationRecord denormalizes a lead into a panel entry. receivedAt
// is the local reception time, not the lead's creation time.
func NewNotificationRecord(id string, lead Lead, receivedAt time.Time) NotificationRecord {
	name := lead.FullName
	if name == "" {
		name = "Unknown"
	}
	source := lead.Source
	if source == "" {
		source = "Unknown"
	}

	return NotificationRecord{
		ID:         id,
		LeadID:     lead.ID,
		LeadName:   name,
		LeadEmail:  optionalValue(lead.Email),
		LeadPhone:  optionalValue(lead.Phone),
		Source:     source,
		Services:   optionalValue(lead.Services),
		ReceivedAt: receivedAt,
		Read:       false,
	}
}
