package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/workgraph/pkg/cache"
	"github.com/matzehuels/workgraph/pkg/observability"
	"github.com/matzehuels/workgraph/pkg/plan"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (m *mapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *mapCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	delete(m.data, key)
	return nil
}

func (m *mapCache) Close() error { return nil }

type invalidRecorder struct {
	observability.NoopCodecHooks
	keys []string
}

func (r *invalidRecorder) OnInvalidEntry(_ context.Context, key string, _ error) {
	r.keys = append(r.keys, key)
}

func testGraph(t *testing.T) []*plan.Node {
	t.Helper()
	lib := plan.NewNode(plan.KindLocalTask, ":lib:jar", nil)
	app := plan.NewNode(plan.KindLocalTask, ":app:jar", nil)
	if err := app.AddDependencySuccessor(lib); err != nil {
		t.Fatal(err)
	}
	app.SetGroup(plan.NewOrdinalGroup(0))
	return []*plan.Node{lib, app}
}

func newTestRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestStoreAndLoad(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	r := newTestRunner(c)
	key := r.Keyer.GraphKey("release")

	stored, err := r.Store(ctx, key, testGraph(t))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	res, hit, err := r.Load(ctx, key)
	if err != nil || !hit {
		t.Fatalf("Load: hit=%v err=%v", hit, err)
	}
	if !res.Cached || res.BuildID != stored.BuildID || res.Size != stored.Size {
		t.Errorf("result = %+v, stored = %+v", res, stored)
	}
	if len(res.Nodes) != 2 || res.Nodes[1].DependencySuccessors().Nodes()[0] != res.Nodes[0] {
		t.Error("decoded graph lost its dependency edge")
	}
}

func TestLoadMiss(t *testing.T) {
	r := newTestRunner(newMapCache())
	res, hit, err := r.Load(context.Background(), "graph:none")
	if res != nil || hit || err != nil {
		t.Errorf("Load = %v, %v, %v; want plain miss", res, hit, err)
	}
}

func TestLoadDiscardsInvalidEntries(t *testing.T) {
	rec := &invalidRecorder{}
	observability.SetCodecHooks(rec)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	c := newMapCache()
	r := newTestRunner(c)

	corruptPayload, err := NewFrame([]byte{0x02, 0x7f}).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"ForeignBytes", []byte("not a frame")},
		{"CorruptPayload", corruptPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "graph:" + tt.name
			c.data[key] = tt.data

			res, hit, err := r.Load(ctx, key)
			if !errors.Is(err, ErrCacheInvalid) {
				t.Fatalf("err = %v, want ErrCacheInvalid", err)
			}
			if hit || res != nil {
				t.Error("invalid entry should be reported as a miss")
			}
			if _, ok := c.data[key]; ok {
				t.Error("invalid entry should be deleted")
			}
		})
	}
	if len(rec.keys) != 2 {
		t.Errorf("OnInvalidEntry called %d times, want 2", len(rec.keys))
	}
}

func TestLoadOrPlan(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	r := newTestRunner(c)
	key := r.Keyer.PlanKey([]byte("plan"), cache.PlanKeyOpts{FormatVersion: FormatVersion})

	calls := 0
	planFn := func(context.Context) ([]*plan.Node, error) {
		calls++
		return testGraph(t), nil
	}

	first, err := r.LoadOrPlan(ctx, key, planFn)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || calls != 1 {
		t.Errorf("first call: cached=%v calls=%d", first.Cached, calls)
	}

	second, err := r.LoadOrPlan(ctx, key, planFn)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || calls != 1 {
		t.Errorf("second call: cached=%v calls=%d", second.Cached, calls)
	}

	c.data[key] = []byte("garbage")
	third, err := r.LoadOrPlan(ctx, key, planFn)
	if err != nil {
		t.Fatalf("invalid entry should be replanned: %v", err)
	}
	if third.Cached || calls != 2 {
		t.Errorf("after invalidation: cached=%v calls=%d", third.Cached, calls)
	}
}

func TestLoadOrPlanPropagatesPlanErrors(t *testing.T) {
	boom := errors.New("boom")
	r := newTestRunner(newMapCache())
	_, err := r.LoadOrPlan(context.Background(), "k", func(context.Context) ([]*plan.Node, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestPackUnpack(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(nil)

	data, frame, err := r.Pack(ctx, testGraph(t))
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Unpack(ctx, data)
	if err != nil {
		t.Fatal(err)
	}
	if res.BuildID != frame.BuildID || len(res.Nodes) != 2 || res.Cached {
		t.Errorf("Unpack = %+v", res)
	}
}

func TestPut(t *testing.T) {
	ctx := context.Background()
	mc := newMapCache()
	r := newTestRunner(mc)

	data, frame, err := r.Pack(ctx, testGraph(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Put(ctx, "k", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	res, hit, err := r.Load(ctx, "k")
	if err != nil || !hit || res.BuildID != frame.BuildID {
		t.Errorf("Load = %+v, %v, %v", res, hit, err)
	}

	if err := r.Put(ctx, "bad", []byte("junk")); !errors.Is(err, ErrCacheInvalid) {
		t.Errorf("Put junk err = %v, want ErrCacheInvalid", err)
	}
	if _, ok := mc.data["bad"]; ok {
		t.Error("invalid frame should not be stored")
	}
}
