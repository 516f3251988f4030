// Package observability provides hooks for instrumenting evaluation runs.
//
// Libraries emit events through the hooks returned by [Ingest], [Evaluation]
// and [Cache]. By default every hook is a no-op; the CLI registers
// log-backed hooks ([LogHooks]) when verbose output is requested, and other
// embedders can register their own metrics or tracing backends at startup:
//
//	func main() {
//	    observability.SetEvaluationHooks(&myHooks{})
//	    // ... run sweeps
//	}
//
// Libraries call hooks around each stage:
//
//	observability.Ingest().OnIngestStart(ctx, path)
//	// ... read dataset ...
//	observability.Ingest().OnIngestComplete(ctx, path, lines, nodes, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// IngestHooks receives dataset loading events.
type IngestHooks interface {
	OnIngestStart(ctx context.Context, path string)
	OnIngestComplete(ctx context.Context, path string, lines, nodes int, duration time.Duration, err error)
}

// EvaluationHooks receives learning and evaluation events.
type EvaluationHooks interface {
	OnLearnStart(ctx context.Context, teleport float64, replications int)
	OnLearnComplete(ctx context.Context, teleport float64, replications int, duration time.Duration, err error)

	OnEvaluateStart(ctx context.Context, strategy string, nodes int)
	OnEvaluateComplete(ctx context.Context, strategy string, evaluated, skipped int, duration time.Duration, err error)
}

// CacheHooks receives cache events. keyType is "importance" or "weights".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopIngestHooks ignores all events.
type NoopIngestHooks struct{}

func (NoopIngestHooks) OnIngestStart(context.Context, string) {}
func (NoopIngestHooks) OnIngestComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopEvaluationHooks ignores all events.
type NoopEvaluationHooks struct{}

func (NoopEvaluationHooks) OnLearnStart(context.Context, float64, int) {}
func (NoopEvaluationHooks) OnLearnComplete(context.Context, float64, int, time.Duration, error) {
}
func (NoopEvaluationHooks) OnEvaluateStart(context.Context, string, int) {}
func (NoopEvaluationHooks) OnEvaluateComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopCacheHooks ignores all events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	ingestHooks     IngestHooks     = NoopIngestHooks{}
	evaluationHooks EvaluationHooks = NoopEvaluationHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	hooksMu         sync.RWMutex
)

// SetIngestHooks registers ingest hooks. A nil value is ignored.
func SetIngestHooks(h IngestHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		ingestHooks = h
	}
}

// SetEvaluationHooks registers evaluation hooks. A nil value is ignored.
func SetEvaluationHooks(h EvaluationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		evaluationHooks = h
	}
}

// SetCacheHooks registers cache hooks. A nil value is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Ingest returns the registered ingest hooks.
func Ingest() IngestHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return ingestHooks
}

// Evaluation returns the registered evaluation hooks.
func Evaluation() EvaluationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return evaluationHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	ingestHooks = NoopIngestHooks{}
	evaluationHooks = NoopEvaluationHooks{}
	cacheHooks = NoopCacheHooks{}
}
