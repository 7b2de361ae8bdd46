package pool

import (
	"context"
	"sync"

	"github.com/blueplan/stickies-go/internal/stickies/config"
	logx "github.com/blueplan/stickies-go/internal/stickies/log"
	"github.com/redis/go-redis/v9"
)

// RedisManager lazily creates one redis client per pool type, all pointed at
// the configured server.
type RedisManager struct {
	cfg     config.RedisConfig
	clients map[string]*redis.Client
	mu      sync.RWMutex
	logger  *logx.Logger
}

// NewRedisManager creates a redis pool manager.
func NewRedisManager(cfg config.RedisConfig, logger *logx.Logger) *RedisManager {
	return &RedisManager{
		cfg:     cfg,
		clients: make(map[string]*redis.Client),
		logger:  logger,
	}
}

// GetClient returns the client for the pool type, creating it on first use.
func (rm *RedisManager) GetClient(poolType string) (*redis.Client, error) {
	rm.mu.RLock()
	client, exists := rm.clients[poolType]
	rm.mu.RUnlock()

	if exists {
		return client, nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	// double-check after acquiring the write lock
	if client, exists := rm.clients[poolType]; exists {
		return client, nil
	}

	client = redis.NewClient(&redis.Options{
		Addr:     rm.cfg.Addr(),
		Password: rm.cfg.Password,
		DB:       rm.cfg.DB,
	})

	rm.clients[poolType] = client
	rm.logger.Info(context.Background(), "created redis client",
		logx.KV("pool_type", poolType), logx.KV("addr", rm.cfg.Addr()))

	return client, nil
}

// Ping checks connectivity for one pool type.
func (rm *RedisManager) Ping(ctx context.Context, poolType string) error {
	client, err := rm.GetClient(poolType)
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

// Close closes all clients.
func (rm *RedisManager) Close() error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	var lastErr error
	for poolType, client := range rm.clients {
		if err := client.Close(); err != nil {
			rm.logger.Error(context.Background(), "failed to close redis client",
				logx.KV("pool_type", poolType), logx.KV("error", err))
			lastErr = err
		}
	}

	rm.clients = make(map[string]*redis.Client)
	return lastErr
}

// Stats reports the active clients.
func (rm *RedisManager) Stats() map[string]interface{} {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	types := make([]string, 0, len(rm.clients))
	for poolType := range rm.clients {
		types = append(types, poolType)
	}

	return map[string]interface{}{
		"active_clients": len(rm.clients),
		"client_types":   types,
	}
}
