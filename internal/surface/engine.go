package surface

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/mesh"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
	"github.com/MeKo-Tech/hydrasphere/internal/worker"
)

// DefaultChunkSize is the number of vertices handed to a worker at a time.
const DefaultChunkSize = 2048

// DisplacedVertex is the per-frame output for one vertex.
type DisplacedVertex struct {
	Position           vecmath.Vec3
	Normal             vecmath.Vec3
	DistanceFromCenter float64
}

// Engine evaluates every vertex of a base mesh for a frame.
//
// It owns the current parameter set. Frames are pure functions of (time, parameters,
// field snapshot), so an Engine can be re-run or switched between presets freely.
type Engine struct {
	field     field.Field
	logger    *slog.Logger
	pool      *worker.Pool
	vertices  []mesh.RestVertex
	params    params.Parameters
	chunkSize int
	mu        sync.RWMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithField sets the external field. Fields implementing field.Snapshotter are
// snapshotted once per frame.
func WithField(f field.Field) Option {
	return func(e *Engine) { e.field = f }
}

// WithWorkers sets the number of goroutines evaluating vertex ranges.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.pool = worker.New(worker.Config{Workers: n}) }
}

// WithChunkSize sets how many vertices make up one task.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithParameters sets the initial parameters.
func WithParameters(p params.Parameters) Option {
	return func(e *Engine) { e.params = p.Clamp() }
}

// NewEngine creates an engine for the given rest vertices. The slice is not copied
// and must not be modified afterwards.
func NewEngine(vertices []mesh.RestVertex, opts ...Option) *Engine {
	e := &Engine{
		vertices:  vertices,
		params:    params.Defaults(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool == nil {
		e.pool = worker.New(worker.Config{Workers: runtime.NumCPU()})
	}
	return e
}

// Len returns the number of vertices evaluated per frame.
func (e *Engine) Len() int { return len(e.vertices) }

// Parameters returns the current parameter set.
func (e *Engine) Parameters() params.Parameters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params
}

// SetParameters replaces the current parameters. Values are clamped to their ranges.
func (e *Engine) SetParameters(p params.Parameters) {
	p = p.Clamp()
	e.mu.Lock()
	e.params = p
	e.mu.Unlock()
	e.log().Debug("Parameters updated", "preset", p.Preset.String(), "effect", p.Effect.String())
}

// UpdateParameters applies fn to a copy of the current parameters and stores the
// clamped result, returning it.
func (e *Engine) UpdateParameters(fn func(*params.Parameters)) params.Parameters {
	e.mu.Lock()
	p := e.params
	fn(&p)
	p = p.Clamp()
	e.params = p
	e.mu.Unlock()
	return p
}

// Frame evaluates all vertices at time with the current parameters.
func (e *Engine) Frame(ctx context.Context, t float64, dst []DisplacedVertex) ([]DisplacedVertex, error) {
	return e.Evaluate(ctx, t, e.Parameters(), dst)
}

// Evaluate evaluates all vertices at time with an explicit parameter snapshot.
// dst is reused when it has enough capacity. Only context cancellation fails a frame.
func (e *Engine) Evaluate(ctx context.Context, t float64, p params.Parameters, dst []DisplacedVertex) ([]DisplacedVertex, error) {
	n := len(e.vertices)
	if cap(dst) >= n {
		dst = dst[:n]
	} else {
		dst = make([]DisplacedVertex, n)
	}

	p = p.Clamp()
	f := field.Freeze(e.field)
	start := time.Now()

	ev := worker.EvaluatorFunc(func(ctx context.Context, task worker.Task) error {
		for i := task.Start; i < task.End; i++ {
			dst[i] = Evaluate(e.vertices[i], p, f, t)
		}
		return nil
	})

	results := e.pool.Run(ctx, ev, worker.Split(n, e.chunkSize))
	if err := worker.FirstError(results); err != nil {
		return nil, fmt.Errorf("frame at t=%.3f: %w", t, err)
	}

	e.log().Debug("Frame evaluated", "time", t, "vertices", n, "elapsed", time.Since(start))
	return dst, nil
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}
