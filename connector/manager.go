package connector

import (
	"context"
	"sort"
	"sync"

	"github.com/Konsultn-Engineering/queryfn/dialect"
	"github.com/Konsultn-Engineering/queryfn/errs"
)

// Provider opens pools for one driver.
type Provider interface {
	Open(ctx context.Context, config Config) (Pool, error)
	Dialect() dialect.Dialect
}

var globalManager = &Manager{
	providers: make(map[string]Provider),
}

type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Register makes a provider available under name. Providers register
// themselves from init.
func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[name] = provider
}

// Providers lists the registered provider names.
func Providers() []string {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()

	names := make([]string, 0, len(globalManager.providers))
	for name := range globalManager.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open validates config and opens a pool through the provider registered for
// config.Driver. Validation failures are returned before any connection is
// attempted.
func Open(ctx context.Context, config Config) (Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	globalManager.mu.RLock()
	provider, ok := globalManager.providers[config.Driver]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, errs.Configf("driver", "provider %s not registered", config.Driver)
	}

	if config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}
	return provider.Open(ctx, config)
}
