// Package observability provides hooks for metrics, tracing, and logging.
//
// Hooks are registered once at startup and default to no-ops, so library
// packages can emit events without depending on a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetCodecHooks(&myCodecHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Codec().OnEncode(ctx, nodes, size, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// CodecHooks receives events from work graph persistence.
type CodecHooks interface {
	// OnEncode records a completed encode of nodes into size bytes.
	OnEncode(ctx context.Context, nodes, size int, duration time.Duration, err error)

	// OnDecode records a completed decode. nodes is zero on failure.
	OnDecode(ctx context.Context, nodes, size int, duration time.Duration, err error)

	// OnInvalidEntry records a stored entry that was discarded as unusable.
	OnInvalidEntry(ctx context.Context, key string, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, backend string)
	OnCacheMiss(ctx context.Context, backend string)
	OnCacheSet(ctx context.Context, backend string, size int)
}

// ServerHooks receives events from the HTTP API.
type ServerHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// NoopCodecHooks is a no-op implementation of CodecHooks.
type NoopCodecHooks struct{}

func (NoopCodecHooks) OnEncode(context.Context, int, int, time.Duration, error) {}
func (NoopCodecHooks) OnDecode(context.Context, int, int, time.Duration, error) {}
func (NoopCodecHooks) OnInvalidEntry(context.Context, string, error)            {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string)                        {}
func (NoopServerHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

var (
	codecHooks  CodecHooks  = NoopCodecHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	serverHooks ServerHooks = NoopServerHooks{}
	hooksMu     sync.RWMutex
)

// SetCodecHooks registers custom codec hooks. A nil h is ignored.
func SetCodecHooks(h CodecHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		codecHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetServerHooks registers custom HTTP API hooks. A nil h is ignored.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

// Codec returns the registered codec hooks.
func Codec() CodecHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return codecHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Server returns the registered HTTP API hooks.
func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	codecHooks = NoopCodecHooks{}
	cacheHooks = NoopCacheHooks{}
	serverHooks = NoopServerHooks{}
}
