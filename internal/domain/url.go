package domain

import "time"

// URL represents a shortened URL owned by a user.
type URL struct {
	ID          int64
	UserID      string
	ShortCode   string
	OriginalURL string
	IsActive    bool
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsExpired checks if the URL has passed its expiration time.
func (u *URL) IsExpired() bool {
	if u.ExpiresAt == nil {
		return false
	}
	return time.Now().UTC().After(*u.ExpiresAt)
}

// CanResolve reports whether the URL may be used for redirection.
// Inactive URLs are indistinguishable from missing ones to callers.
func (u *URL) CanResolve() error {
	if !u.IsActive {
		return ErrURLNotFound
	}
	if u.IsExpired() {
		return ErrURLExpired
	}
	return nil
}
