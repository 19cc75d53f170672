package memory

import (
	"time"

	"go.uber.org/zap"
)

// Profile holds a user's identity and free-form preferences.
type Profile struct {
	UserName    string            `json:"user_name"`
	CreatedAt   time.Time         `json:"created_at"`
	LastActive  time.Time         `json:"last_active"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

// Profile returns the user's profile, creating a default one on first
// access or after quarantine of a corrupt file.
func (s *Store) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadProfileLocked()
}

// SaveProfile persists the profile.
func (s *Store) SaveProfile(p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAtomic(KindProfile, p)
}

// SetUserName updates the profile's display name.
func (s *Store) SetUserName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.loadProfileLocked()
	p.UserName = name
	p.LastActive = time.Now().UTC()
	return s.saveAtomic(KindProfile, p)
}

// SetPreference stores one preference key.
func (s *Store) SetPreference(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.loadProfileLocked()
	if p.Preferences == nil {
		p.Preferences = make(map[string]string)
	}
	p.Preferences[key] = value
	p.LastActive = time.Now().UTC()
	return s.saveAtomic(KindProfile, p)
}

func (s *Store) loadProfileLocked() *Profile {
	var p Profile
	found, err := s.loadRaw(KindProfile, &p)
	if err != nil {
		s.log.Warn("could not load profile", zap.Error(err))
	}
	if !found {
		now := time.Now().UTC()
		p = Profile{UserName: "", CreatedAt: now, LastActive: now}
		if err := s.saveAtomic(KindProfile, &p); err != nil {
			s.log.Warn("could not initialize profile", zap.Error(err))
		}
	}
	return &p
}
