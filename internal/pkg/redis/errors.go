package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNil indicates the key does not exist
	ErrNil = redis.Nil
)

// IsNil checks whether the error is a missing-key error
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
