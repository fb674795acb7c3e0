package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/workgraph/pkg/cache"
	"github.com/matzehuels/workgraph/pkg/observability"
	"github.com/matzehuels/workgraph/pkg/plan"
	"github.com/matzehuels/workgraph/pkg/serialization"
	"github.com/matzehuels/workgraph/pkg/workgraph"
)

// Result is a decoded or freshly encoded work graph.
type Result struct {
	Nodes   []*plan.Node
	BuildID string
	Size    int  // framed size in bytes
	Cached  bool // loaded from cache rather than planned
}

// PlanFunc produces the ordered nodes of a work graph on a cache miss.
type PlanFunc func(ctx context.Context) ([]*plan.Node, error)

// Runner stores and loads framed work graphs through a cache. It holds no
// per-call state and may be shared between goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Codec  *workgraph.Codec
	Logger *log.Logger
	TTL    time.Duration // zero means cache.TTLGraph
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Codec:  workgraph.New(nil, workgraph.WithLogger(logger)),
		Logger: logger,
	}
}

// Pack encodes nodes and wraps them in a frame.
func (r *Runner) Pack(ctx context.Context, nodes []*plan.Node) ([]byte, Frame, error) {
	start := time.Now()
	payload, err := r.Codec.EncodeBytes(nodes)
	observability.Codec().OnEncode(ctx, len(nodes), len(payload), time.Since(start), err)
	if err != nil {
		return nil, Frame{}, fmt.Errorf("encode: %w", err)
	}
	frame := NewFrame(payload)
	data, err := frame.MarshalBinary()
	if err != nil {
		return nil, Frame{}, err
	}
	return data, frame, nil
}

// Unpack parses a frame and decodes its payload. A bad frame or a corrupt
// payload is reported as [ErrCacheInvalid]; delegate failures are not.
func (r *Runner) Unpack(ctx context.Context, data []byte) (*Result, error) {
	frame, err := UnmarshalFrame(data)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	nodes, err := r.Codec.DecodeBytes(frame.Payload)
	observability.Codec().OnDecode(ctx, len(nodes), len(frame.Payload), time.Since(start), err)
	if serialization.IsCorrupt(err) {
		return nil, fmt.Errorf("%w: %w", ErrCacheInvalid, err)
	}
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &Result{Nodes: nodes, BuildID: frame.BuildID, Size: len(data)}, nil
}

// Store packs nodes and writes them under key.
func (r *Runner) Store(ctx context.Context, key string, nodes []*plan.Node) (*Result, error) {
	data, frame, err := r.Pack(ctx, nodes)
	if err != nil {
		return nil, err
	}
	if err := r.put(ctx, key, data); err != nil {
		return nil, err
	}
	r.Logger.Debug("stored work graph", "key", key, "nodes", len(nodes), "bytes", len(data), "build", frame.BuildID)
	return &Result{Nodes: nodes, BuildID: frame.BuildID, Size: len(data)}, nil
}

// Put writes already framed bytes under key. Frames that do not parse are
// rejected with [ErrCacheInvalid] and nothing is written.
func (r *Runner) Put(ctx context.Context, key string, data []byte) error {
	frame, err := UnmarshalFrame(data)
	if err != nil {
		return err
	}
	if err := r.put(ctx, key, data); err != nil {
		return err
	}
	r.Logger.Debug("stored framed graph", "key", key, "bytes", len(data), "build", frame.BuildID)
	return nil
}

func (r *Runner) put(ctx context.Context, key string, data []byte) error {
	if err := r.Cache.Set(ctx, key, data, r.ttl()); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	observability.Cache().OnCacheSet(ctx, cache.Backend(r.Cache), len(data))
	return nil
}

// Load reads the graph stored under key. A missing entry returns (nil,
// false, nil). An unusable entry is deleted and reported as a miss with an
// error wrapping [ErrCacheInvalid].
func (r *Runner) Load(ctx context.Context, key string) (*Result, bool, error) {
	backend := cache.Backend(r.Cache)
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, backend)
		return nil, false, nil
	}

	res, err := r.Unpack(ctx, data)
	if errors.Is(err, ErrCacheInvalid) {
		observability.Codec().OnInvalidEntry(ctx, key, err)
		r.Logger.Warn("discarding invalid cache entry", "key", key, "err", err)
		if derr := r.Cache.Delete(ctx, key); derr != nil {
			r.Logger.Warn("delete invalid cache entry", "key", key, "err", derr)
		}
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	observability.Cache().OnCacheHit(ctx, backend)
	res.Cached = true
	r.Logger.Debug("loaded work graph", "key", key, "nodes", len(res.Nodes), "bytes", res.Size, "build", res.BuildID)
	return res, true, nil
}

// LoadOrPlan returns the graph under key, calling planFn and storing its
// result when the entry is missing or invalid.
func (r *Runner) LoadOrPlan(ctx context.Context, key string, planFn PlanFunc) (*Result, error) {
	res, hit, err := r.Load(ctx, key)
	if err != nil && !errors.Is(err, ErrCacheInvalid) {
		return nil, err
	}
	if hit {
		return res, nil
	}

	start := time.Now()
	nodes, err := planFn(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	r.Logger.Debug("planned work graph", "key", key, "nodes", len(nodes), "duration", time.Since(start))
	return r.Store(ctx, key, nodes)
}

// Delete removes the entry under key.
func (r *Runner) Delete(ctx context.Context, key string) error {
	return r.Cache.Delete(ctx, key)
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLGraph
}
