package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

type recordingHooks struct {
	NoopEvaluationHooks
	evaluated []string
}

func (r *recordingHooks) OnEvaluateComplete(_ context.Context, strategy string, _, _ int, _ time.Duration, _ error) {
	r.evaluated = append(r.evaluated, strategy)
}

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	NoopIngestHooks{}.OnIngestStart(ctx, "kosarak.dat.gz")
	NoopIngestHooks{}.OnIngestComplete(ctx, "kosarak.dat.gz", 10, 5, time.Second, nil)

	e := NoopEvaluationHooks{}
	e.OnLearnStart(ctx, 0.2, 1)
	e.OnLearnComplete(ctx, 0.2, 1, time.Second, nil)
	e.OnEvaluateStart(ctx, "uniform", 100)
	e.OnEvaluateComplete(ctx, "uniform", 90, 10, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "importance")
	c.OnCacheMiss(ctx, "weights")
	c.OnCacheSet(ctx, "weights", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	assert.IsType(t, NoopIngestHooks{}, Ingest())
	assert.IsType(t, NoopEvaluationHooks{}, Evaluation())
	assert.IsType(t, NoopCacheHooks{}, Cache())

	rec := &recordingHooks{}
	SetEvaluationHooks(rec)
	SetEvaluationHooks(nil)
	assert.Same(t, rec, Evaluation())

	Evaluation().OnEvaluateComplete(context.Background(), "jaccard", 1, 0, 0, nil)
	assert.Equal(t, []string{"jaccard"}, rec.evaluated)

	Reset()
	assert.IsType(t, NoopEvaluationHooks{}, Evaluation())
}

func TestLogHooks(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	NewLogHooks(logger).Install()

	ctx := context.Background()
	Ingest().OnIngestComplete(ctx, "data.gz", 3, 2, time.Millisecond, nil)
	Ingest().OnIngestComplete(ctx, "data.gz", 1, 0, 0, errors.New("boom"))
	Cache().OnCacheHit(ctx, "importance")
	Evaluation().OnEvaluateStart(ctx, "learned", 7)

	out := buf.String()
	assert.Contains(t, out, "ingest complete")
	assert.Contains(t, out, "ingest failed")
	assert.Contains(t, out, "cache hit")
	assert.Contains(t, out, "strategy=learned")
}
