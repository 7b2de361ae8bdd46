// Package pool manages named redis clients shared across the service.
package pool

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Pool types used by the service.
const (
	PoolDefault = "default"
	PoolNotes   = "notes"
)

// Manager hands out redis clients by pool type.
type Manager interface {
	GetClient(poolType string) (*redis.Client, error)
	Ping(ctx context.Context, poolType string) error
	Close() error
	Stats() map[string]interface{}
}
