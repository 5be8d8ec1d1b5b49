package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockEvaluator fills out[i] = i for every index in a task.
type mockEvaluator struct {
	out       []int
	delay     time.Duration
	failStart int // tasks starting here fail; -1 disables
	callCount atomic.Int32
}

func newMockEvaluator(n int) *mockEvaluator {
	return &mockEvaluator{out: make([]int, n), failStart: -1}
}

func (m *mockEvaluator) Evaluate(ctx context.Context, task Task) error {
	m.callCount.Add(1)

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}

	if task.Start == m.failStart {
		return errors.New("simulated failure")
	}
	for i := task.Start; i < task.End; i++ {
		m.out[i] = i
	}
	return nil
}

func TestSplit(t *testing.T) {
	tasks := Split(10, 4)
	want := []Task{{0, 4}, {4, 8}, {8, 10}}
	if len(tasks) != len(want) {
		t.Fatalf("Expected %d tasks, got %d", len(want), len(tasks))
	}
	for i := range want {
		if tasks[i] != want[i] {
			t.Errorf("task %d: expected %+v, got %+v", i, want[i], tasks[i])
		}
	}

	if got := Split(0, 4); got != nil {
		t.Errorf("Expected nil for empty input, got %v", got)
	}
	if got := Split(5, 0); len(got) != 1 || got[0].Len() != 5 {
		t.Errorf("Expected a single task for chunk=0, got %v", got)
	}
}

func TestPool_BasicExecution(t *testing.T) {
	ev := newMockEvaluator(100)
	pool := New(Config{Workers: 4})

	tasks := Split(100, 7)
	results := pool.Run(context.Background(), ev, tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}
	if err := FirstError(results); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, v := range ev.out {
		if v != i {
			t.Fatalf("index %d not evaluated (got %d)", i, v)
		}
	}
	if ev.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d evaluator calls, got %d", len(tasks), ev.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	ev := newMockEvaluator(8)
	ev.delay = 50 * time.Millisecond

	pool := New(Config{Workers: 4})

	start := time.Now()
	results := pool.Run(context.Background(), ev, Split(8, 1))
	elapsed := time.Since(start)

	// With 4 workers and 8 tasks at 50ms each, should take ~100ms (2 batches)
	maxExpected := 200 * time.Millisecond
	if elapsed > maxExpected {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}
	if len(results) != 8 {
		t.Errorf("Expected 8 results, got %d", len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	ev := newMockEvaluator(30)
	ev.failStart = 10

	pool := New(Config{Workers: 2})
	results := pool.Run(context.Background(), ev, Split(30, 10))

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	var failCount int
	for _, r := range results {
		if r.Err != nil {
			failCount++
			if r.Task.Start != 10 {
				t.Errorf("Unexpected failure for %+v", r.Task)
			}
		}
	}
	if failCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failCount)
	}
	if FirstError(results) == nil {
		t.Error("Expected FirstError to report the failure")
	}
}

func TestPool_Cancellation(t *testing.T) {
	ev := newMockEvaluator(10)
	ev.delay = 100 * time.Millisecond

	pool := New(Config{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, ev, Split(10, 1))
	elapsed := time.Since(start)

	if elapsed > 200*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}
	if len(results) != 10 {
		t.Errorf("Expected a result for every task, got %d", len(results))
	}

	var cancelled int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("Expected cancelled results")
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	ev := newMockEvaluator(30)

	var progressCalls atomic.Int32
	var lastCompleted, lastTotal atomic.Int32

	pool := New(Config{
		Workers: 2,
		OnProgress: func(completed, total, failed int) {
			progressCalls.Add(1)
			lastCompleted.Store(int32(completed))
			lastTotal.Store(int32(total))
		},
	})

	pool.Run(context.Background(), ev, Split(30, 10))

	if progressCalls.Load() != 3 {
		t.Errorf("Expected 3 progress callbacks, got %d", progressCalls.Load())
	}
	if lastCompleted.Load() != 3 || lastTotal.Load() != 3 {
		t.Errorf("Expected final progress 3/3, got %d/%d", lastCompleted.Load(), lastTotal.Load())
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	ev := newMockEvaluator(0)
	pool := New(Config{Workers: 2})

	results := pool.Run(context.Background(), ev, nil)

	if len(results) != 0 {
		t.Errorf("Expected 0 results for empty tasks, got %d", len(results))
	}
	if ev.callCount.Load() != 0 {
		t.Errorf("Expected 0 evaluator calls for empty tasks, got %d", ev.callCount.Load())
	}
}

func TestPool_SingleWorkerRunsInline(t *testing.T) {
	var calls int
	ev := EvaluatorFunc(func(ctx context.Context, task Task) error {
		calls++ // no goroutines, so no race
		return nil
	})

	pool := New(Config{Workers: 0})
	if pool.workers != 1 {
		t.Fatalf("Expected workers clamped to 1, got %d", pool.workers)
	}

	results := pool.Run(context.Background(), ev, Split(9, 3))
	if len(results) != 3 || calls != 3 {
		t.Errorf("Expected 3 results and calls, got %d and %d", len(results), calls)
	}
}
