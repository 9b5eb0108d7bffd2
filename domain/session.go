package domain

import "time"

// Session is the upstream session token held in process memory.
type Session struct {
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether s is nil or expired at reference.
func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// IsStale reports whether the session expires within margin of reference.
func (s *Session) IsStale(reference time.Time, margin time.Duration) bool {
	if reference.IsZero() {
		reference = time.Now()
	}
	return s.IsExpired(reference.Add(margin))
}

// SessionStatus is the token-free view of the session state.
type SessionStatus struct {
	Active    bool       `json:"active"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Status returns the token-free view of s.
func (s *Session) Status() SessionStatus {
	if s == nil || s.Token == "" {
		return SessionStatus{}
	}
	created, expires := s.CreatedAt, s.ExpiresAt
	return SessionStatus{Active: true, CreatedAt: &created, ExpiresAt: &expires}
}
