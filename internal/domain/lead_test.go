package domain

import (
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestLeadValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lead    Lead
		wantErr string
	}{
		{
			name: "valid with email",
			lead: Lead{FullName: "Jane Doe", Email: strPtr("jane@x.com"), Status: StatusNewLead},
		},
		{
			name: "valid with phone only",
			lead: Lead{FullName: "Jane Doe", Phone: strPtr("+15551112233"), Status: StatusNewLead},
		},
		{
			name:    "missing full name",
			lead:    Lead{Email: strPtr("jane@x.com"), Status: StatusNewLead},
			wantErr: "full_name",
		},
		{
			name:    "whitespace full name",
			lead:    Lead{FullName: "   ", Email: strPtr("jane@x.com"), Status: StatusNewLead},
			wantErr: "full_name",
		},
		{
			name:    "no contact info",
			lead:    Lead{FullName: "No Contact", Status: StatusNewLead},
			wantErr: "email or phone",
		},
		{
			name:    "bad email format",
			lead:    Lead{FullName: "Jane Doe", Email: strPtr("not-an-email"), Status: StatusNewLead},
			wantErr: "email format",
		},
		{
			name:    "email without tld",
			lead:    Lead{FullName: "Jane Doe", Email: strPtr("jane@host"), Status: StatusNewLead},
			wantErr: "email format",
		},
		{
			name:    "invalid status",
			lead:    Lead{FullName: "Jane Doe", Email: strPtr("jane@x.com"), Status: Status("Bogus")},
			wantErr: "invalid status",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.lead.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"jane@x.com", "a.b+c@sub.domain.io"}
	for _, s := range valid {
		if !ValidEmail(s) {
			t.Errorf("ValidEmail(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "plain", "a @b.com", "a@b", "a@b .com"}
	for _, s := range invalid {
		if ValidEmail(s) {
			t.Errorf("ValidEmail(%q) = true, want false", s)
		}
	}
}

func TestParseStatusFromString(t *testing.T) {
	t.Parallel()

	status, err := ParseStatusFromString("new lead")
	if err != nil {
		t.Fatalf("ParseStatusFromString() error = %v", err)
	}
	if status != StatusNewLead {
		t.Fatalf("status = %s, want %s", status, StatusNewLead)
	}

	if _, err := ParseStatusFromString("nonsense"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestNewNotificationRecordFallbacks(t *testing.T) {
	t.Parallel()

	record := NewNotificationRecord("n-1", Lead{ID: "l-1"}, time.Now())
	if record.LeadName != "Unknown" {
		t.Fatalf("LeadName = %q, want Unknown", record.LeadName)
	}
	if record.Source != "Unknown" {
		t.Fatalf("Source = %q, want Unknown", record.Source)
	}
	if record.Read {
		t.Fatal("new record should be unread")
	}
}
