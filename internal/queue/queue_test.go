package queue

import "testing"

func TestAlertKindIsValid(t *testing.T) {
	tests := []struct {
		name string
		kind AlertKind
		want bool
	}{
		{name: "chime", kind: KindChime, want: true},
		{name: "desktop push", kind: KindDesktopPush, want: true},
		{name: "invalid", kind: AlertKind("siren"), want: false},
		{name: "empty", kind: AlertKind(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Fatalf("IsValid(%q) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestAlertMessageValidate(t *testing.T) {
	msg := AlertMessage{
		NotificationID: "n1",
		LeadName:       "Jane Doe",
		Kind:           KindChime,
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	msg.NotificationID = ""
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for empty notification id")
	}

	msg.NotificationID = "n1"
	msg.LeadName = "   "
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for empty lead name")
	}

	msg.LeadName = "Jane Doe"
	msg.Kind = AlertKind("invalid")
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for invalid kind")
	}
}
