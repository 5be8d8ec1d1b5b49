package synth

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/hydrasphere/internal/audio"
	"github.com/MeKo-Tech/hydrasphere/internal/field"
)

// DefaultFPS is the render cadence of a Runner.
const DefaultFPS = 30

// Runner renders frames on its own cadence and publishes each completed frame.
// Readers of the published field see the most recent frame and may lag by one.
type Runner struct {
	renderer *Renderer
	latest   *field.Latest
	analyzer *audio.Analyzer
	logger   *slog.Logger
	interval time.Duration
	frames   atomic.Uint64
}

// NewRunner wires a renderer to a publish slot. analyzer may be nil.
func NewRunner(r *Renderer, latest *field.Latest, fps float64, analyzer *audio.Analyzer, logger *slog.Logger) *Runner {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Runner{
		renderer: r,
		latest:   latest,
		analyzer: analyzer,
		logger:   logger,
		interval: time.Duration(float64(time.Second) / fps),
	}
}

// Frames returns the number of frames published so far.
func (r *Runner) Frames() uint64 { return r.frames.Load() }

// Step renders and publishes the frame for time t.
func (r *Runner) Step(t float64) {
	var bands audio.Bands
	if r.analyzer != nil {
		bands = r.analyzer.Bands()
	}
	img := r.renderer.Render(t, bands)
	r.latest.Publish(field.NewImageField(img))
	r.frames.Add(1)
}

// Run renders until ctx is cancelled. The first frame is published immediately.
func (r *Runner) Run(ctx context.Context) error {
	r.log().Info("Starting visual synth",
		"sketch", r.renderer.Sketch().String(),
		"size", r.renderer.Size(),
		"interval", r.interval)

	start := time.Now()
	r.Step(0)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log().Info("Visual synth stopped", "frames", r.Frames())
			return nil
		case now := <-ticker.C:
			r.Step(now.Sub(start).Seconds())
		}
	}
}

func (r *Runner) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
