package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewUserCache_DefaultTTL(t *testing.T) {
	assert.Equal(t, 60*time.Second, NewUserCache(nil, 0).ttl)
	assert.Equal(t, 5*time.Second, NewUserCache(nil, 5*time.Second).ttl)
}

func TestUserKey(t *testing.T) {
	assert.Equal(t, "identity:user:42", userKey(42))
}
