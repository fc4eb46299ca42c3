package alert

import (
	"fmt"
	"sync"
)

// Permission is the desktop push authorization state. It only moves away
// from PermissionDefault through an explicit decision; nothing in the
// delivery path ever mutates it.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func (p Permission) String() string { return string(p) }

func (p Permission) IsValid() bool {
	switch p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return true
	}
	return false
}

func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid permission %q", s)
	}
	return p, nil
}

// Preferences holds the user-facing alert toggles. Sound starts enabled;
// push permission starts undecided.
type Preferences struct {
	mu         sync.RWMutex
	sound      bool
	permission Permission
}

func NewPreferences() *Preferences {
	return &Preferences{
		sound:      true,
		permission: PermissionDefault,
	}
}

func (p *Preferences) SoundEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sound
}

func (p *Preferences) SetSoundEnabled(enabled bool) {
	p.mu.Lock()
	p.sound = enabled
	p.mu.Unlock()
}

func (p *Preferences) Permission() Permission {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.permission
}

func (p *Preferences) SetPermission(permission Permission) error {
	if !permission.IsValid() {
		return fmt.Errorf("invalid permission %q", permission)
	}
	p.mu.Lock()
	p.permission = permission
	p.mu.Unlock()
	return nil
}
