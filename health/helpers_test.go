package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/telemetryclient/metrics"
)

// fakeGetter serves canned JSON bodies or errors per path.
type fakeGetter struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	hooks  map[string]func(ctx context.Context) error
	calls  []string
}

func newFakeGetter() *fakeGetter {
	return &fakeGetter{
		bodies: map[string]string{
			PathHealth:         `{"status":"healthy","timestamp":1700000000000,"version":"1.4.2","environment":"production","checks":{"database":{"status":"healthy","lastCheck":1700000000000}}}`,
			PathDetailedHealth: `{"status":"degraded","timestamp":1700000000000,"version":"1.4.2","environment":"production","checks":{"kv":{"status":"degraded","lastCheck":1700000000000,"error":"slow"}}}`,
			PathReadiness:      `{"status":"ready","timestamp":1700000000001}`,
			PathLiveness:       `{"status":"alive","timestamp":1700000000002}`,
		},
		errs:  map[string]error{},
		hooks: map[string]func(ctx context.Context) error{},
	}
}

func (f *fakeGetter) GetJSON(ctx context.Context, path string, v any) error {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	hook := f.hooks[path]
	err := f.errs[path]
	body, ok := f.bodies[path]
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("GET %s: 404 Not Found", path)
	}
	return json.Unmarshal([]byte(body), v)
}

// fakeMetrics is a MetricsSource.
type fakeMetrics struct {
	m    metrics.SystemMetrics
	err  error
	hook func(ctx context.Context) error
}

func (f *fakeMetrics) GetMetrics(ctx context.Context) (metrics.SystemMetrics, error) {
	if f.hook != nil {
		if err := f.hook(ctx); err != nil {
			return metrics.SystemMetrics{}, err
		}
	}
	return f.m, f.err
}

func (f *fakeMetrics) Path() string { return metrics.DefaultPath }

// barrier blocks each caller until n callers have arrived.
type barrier struct {
	wg   sync.WaitGroup
	done chan struct{}
}

func newBarrier(n int) *barrier {
	b := &barrier{done: make(chan struct{})}
	b.wg.Add(n)
	go func() {
		b.wg.Wait()
		close(b.done)
	}()
	return b
}

func (b *barrier) wait(ctx context.Context) error {
	b.wg.Done()
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return errors.New("barrier: not all fetches started concurrently")
	case <-time.After(5 * time.Second):
		return errors.New("barrier: not all fetches started concurrently")
	}
}
