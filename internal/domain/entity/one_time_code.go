package entity

import "time"

// OneTimeCode is a pending signup verification: one live code per email,
// replaced wholesale on reissue. The backing store keys it by email and
// expires it on its own; IsExpired is the service-level check that does not
// trust that sweep to be instantaneous.
type OneTimeCode struct {
	Email    string    `json:"email"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

// IsExpired reports whether the code is older than ttl at the given instant.
func (c *OneTimeCode) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.IssuedAt) > ttl
}
