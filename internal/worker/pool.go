// Package worker provides a parallel worker pool for per-vertex evaluation.
package worker

import (
	"context"
	"sync"
	"time"
)

// Evaluator processes one vertex range.
// Implementations must only write to the part of their output covered by the task.
type Evaluator interface {
	Evaluate(ctx context.Context, task Task) error
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, task Task) error

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(ctx context.Context, task Task) error {
	return f(ctx, task)
}

// Task is the half-open vertex range [Start, End).
type Task struct {
	Start int
	End   int
}

// Len returns the number of vertices in the range.
func (t Task) Len() int { return t.End - t.Start }

// Result represents the outcome of a task.
type Result struct {
	Task    Task
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	OnProgress ProgressFunc
}

// Pool runs tasks in parallel.
type Pool struct {
	workers    int
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		onProgress: cfg.OnProgress,
	}
}

// Split partitions n items into ranges of at most chunk items.
func Split(n, chunk int) []Task {
	if n <= 0 {
		return nil
	}
	if chunk <= 0 {
		chunk = n
	}
	tasks := make([]Task, 0, (n+chunk-1)/chunk)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		tasks = append(tasks, Task{Start: start, End: end})
	}
	return tasks
}

// Run executes all tasks with ev and returns one result per task.
// Tasks are processed in parallel by the configured number of workers.
// The function blocks until all tasks complete or the context is cancelled.
func (p *Pool) Run(ctx context.Context, ev Evaluator, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	// A single worker needs no goroutines.
	if p.workers == 1 || len(tasks) == 1 {
		return p.runInline(ctx, ev, tasks)
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var (
		completed int
		failed    int
		mu        sync.Mutex
	)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, ev, taskCh, resultCh)
		}()
	}

	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			results = append(results, result)

			mu.Lock()
			completed++
			if result.Err != nil {
				failed++
			}
			c, f := completed, failed
			mu.Unlock()

			if p.onProgress != nil {
				p.onProgress(c, len(tasks), f)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)

	<-done

	return results
}

func (p *Pool) runInline(ctx context.Context, ev Evaluator, tasks []Task) []Result {
	results := make([]Result, 0, len(tasks))
	failed := 0
	for i, task := range tasks {
		r := p.execute(ctx, ev, task)
		if r.Err != nil {
			failed++
		}
		results = append(results, r)
		if p.onProgress != nil {
			p.onProgress(i+1, len(tasks), failed)
		}
	}
	return results
}

// worker processes tasks from the task channel and sends results to the result channel.
func (p *Pool) worker(ctx context.Context, ev Evaluator, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		results <- p.execute(ctx, ev, task)
	}
}

func (p *Pool) execute(ctx context.Context, ev Evaluator, task Task) Result {
	select {
	case <-ctx.Done():
		return Result{Task: task, Err: ctx.Err()}
	default:
	}

	start := time.Now()
	err := ev.Evaluate(ctx, task)
	return Result{
		Task:    task,
		Err:     err,
		Elapsed: time.Since(start),
	}
}

// FirstError returns the first failed result's error, if any.
func FirstError(results []Result) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
