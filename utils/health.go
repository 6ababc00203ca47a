package utils

import (
	"context"
	"sync"
	"time"
)

// Pinger is anything whose connectivity can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Store     bool      `json:"store"`
	Redis     bool      `json:"redis"`
	Ranker    string    `json:"ranker"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// CheckHealth probes the store and cache once and stores the result.
func CheckHealth(ctx context.Context, store, cache Pinger, ranker string) HealthStatus {
	status := HealthStatus{Ranker: ranker, CheckedAt: time.Now()}
	if store != nil {
		status.Store = store.Ping(ctx) == nil
	}
	if cache != nil {
		status.Redis = cache.Ping(ctx) == nil
	}

	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks until ctx is cancelled.
func StartHealthMonitor(ctx context.Context, store, cache Pinger, ranker string, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		CheckHealth(ctx, store, cache, ranker)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CheckHealth(ctx, store, cache, ranker)
			}
		}
	}()
}
