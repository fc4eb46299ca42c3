package domain

import "time"

// ActivityTypeCreated marks the companion record written when a lead
// enters the system.
const ActivityTypeCreated = "created"

// Activity records a single event in a lead's history.
type Activity struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Type      string    `json:"type"`
	Notes     string    `json:"notes"`
	CreatedBy *string   `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
