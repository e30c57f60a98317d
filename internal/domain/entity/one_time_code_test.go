package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOneTimeCode_IsExpired(t *testing.T) {
	ttl := 10 * time.Minute
	now := time.Now()

	fresh := &OneTimeCode{Code: "123456", IssuedAt: now.Add(-1 * time.Minute)}
	assert.False(t, fresh.IsExpired(now, ttl))

	// Exactly at the boundary the code is still valid.
	boundary := &OneTimeCode{Code: "123456", IssuedAt: now.Add(-ttl)}
	assert.False(t, boundary.IsExpired(now, ttl))

	stale := &OneTimeCode{Code: "123456", IssuedAt: now.Add(-ttl - time.Second)}
	assert.True(t, stale.IsExpired(now, ttl))
}
