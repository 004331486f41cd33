package models

import "time"

type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// NormalizePlatform buckets unrecognized or missing tags into web.
func NormalizePlatform(s string) Platform {
	switch Platform(s) {
	case PlatformIOS, PlatformAndroid:
		return Platform(s)
	default:
		return PlatformWeb
	}
}

// RefreshSession is the server-side record backing one refresh secret.
// The secret itself is stored only as a one-way hash; a user may hold
// many concurrent rows (multi-device).
type RefreshSession struct {
	ID             int64
	UserID         int64
	SecretHash     []byte
	Platform       Platform
	IsRevoked      bool
	RevokedAt      *time.Time
	LastActivityAt *time.Time
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// Expired reports whether the session is past its validity window,
// which invalidates it even without an explicit revoke.
func (s RefreshSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Live reports whether the session still accepts its refresh secret.
func (s RefreshSession) Live(now time.Time) bool {
	return !s.IsRevoked && !s.Expired(now)
}

// LastSeen is the activity timestamp used for the active/inactive
// partition, falling back to creation time for sessions that never
// sent a heartbeat.
func (s RefreshSession) LastSeen() time.Time {
	if s.LastActivityAt != nil {
		return *s.LastActivityAt
	}
	return s.CreatedAt
}

// SessionStats is a snapshot over all live sessions.
type SessionStats struct {
	Total      int
	Active     int
	Inactive   int
	ByPlatform map[Platform]int
}
