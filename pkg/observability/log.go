package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

// Install registers h for all hook kinds.
func (h *LogHooks) Install() {
	SetIngestHooks(h)
	SetEvaluationHooks(h)
	SetCacheHooks(h)
}

func (h *LogHooks) OnIngestStart(_ context.Context, path string) {
	h.Logger.Debug("ingest start", "path", path)
}

func (h *LogHooks) OnIngestComplete(_ context.Context, path string, lines, nodes int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("ingest failed", "path", path, "lines", lines, "err", err)
		return
	}
	h.Logger.Debug("ingest complete", "path", path, "lines", lines, "nodes", nodes, "duration", d)
}

func (h *LogHooks) OnLearnStart(_ context.Context, teleport float64, replications int) {
	h.Logger.Debug("learn start", "teleport", teleport, "replications", replications)
}

func (h *LogHooks) OnLearnComplete(_ context.Context, teleport float64, replications int, d time.Duration, err error) {
	h.Logger.Debug("learn complete", "teleport", teleport, "replications", replications, "duration", d, "err", err)
}

func (h *LogHooks) OnEvaluateStart(_ context.Context, strategy string, nodes int) {
	h.Logger.Debug("evaluate start", "strategy", strategy, "nodes", nodes)
}

func (h *LogHooks) OnEvaluateComplete(_ context.Context, strategy string, evaluated, skipped int, d time.Duration, err error) {
	h.Logger.Debug("evaluate complete", "strategy", strategy, "evaluated", evaluated, "skipped", skipped, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}
