package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Source labels where a lead entered the system. The column is free-form
// text; these are the values the application itself writes.
const (
	SourceWebsiteAPI = "Website API"
	SourceWebForm    = "Web Form"
	SourceManual     = "Manual"
	SourceCSVImport  = "CSV Import"
)

// Status represents the pipeline stage of a lead.
type Status string

const (
	StatusNewLead    Status = "New Lead"
	StatusContacted  Status = "Contacted"
	StatusQualified  Status = "Qualified"
	StatusProposal   Status = "Proposal"
	StatusWon        Status = "Won"
	StatusLost       Status = "Lost"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusNewLead, StatusContacted, StatusQualified, StatusProposal, StatusWon, StatusLost:
		return true
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	trimmed := strings.TrimSpace(s)
	for _, known := range []Status{StatusNewLead, StatusContacted, StatusQualified, StatusProposal, StatusWon, StatusLost} {
		if strings.EqualFold(trimmed, known.String()) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s passes the basic email format check.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Lead is the core domain entity: a captured sales lead.
type Lead struct {
	ID         string     `json:"id"`
	FullName   string     `json:"full_name"`
	Email      *string    `json:"email,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
	Services   *string    `json:"services,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	Source     string     `json:"source"`
	Status     Status     `json:"status"`
	UserIP     *string    `json:"user_ip,omitempty"`
	Tag        *string    `json:"tag,omitempty"`
	Score      *int       `json:"score,omitempty"`
	AssignedTo *string    `json:"assigned_to,omitempty"`
	CreatedBy  *string    `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (l *Lead) Validate() error {
	if strings.TrimSpace(l.FullName) == "" {
		return fmt.Errorf("%w: full_name is required", ErrValidation)
	}

	email := optionalValue(l.Email)
	phone := optionalValue(l.Phone)
	if email == "" && phone == "" {
		return fmt.Errorf("%w: at least one of email or phone is required", ErrValidation)
	}
	if email != "" && !ValidEmail(email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	if !l.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, l.Status)
	}

	return nil
}

func optionalValue(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
