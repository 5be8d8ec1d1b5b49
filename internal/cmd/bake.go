package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/hydrasphere/internal/framestore"
	"github.com/MeKo-Tech/hydrasphere/internal/surface"
	"github.com/MeKo-Tech/hydrasphere/internal/synth"
	"github.com/MeKo-Tech/hydrasphere/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var bakeCmd = &cobra.Command{
	Use:   "bake",
	Short: "Evaluate a frame sequence into a SQLite frame store",
	Long: `Bake evaluates a fixed number of frames at a constant frame rate and stores
them in a SQLite frame store that "serve --frames" can replay.

The synth, if used, is stepped once per frame so the sequence is reproducible.`,
	RunE: runBake,
}

func init() {
	rootCmd.AddCommand(bakeCmd)

	bakeCmd.Flags().Int("frames", 90, "Number of frames to bake")
	bakeCmd.Flags().Float64("fps", 30, "Frame rate of the sequence")
	bakeCmd.Flags().Float64("start", 0, "Time of the first frame in seconds")
	bakeCmd.Flags().StringP("output", "o", "hydrasphere.db", "Output frame store")
	bakeCmd.Flags().String("name", "hydrasphere", "Name stored in the frame store metadata")
	bakeCmd.Flags().Bool("progress", true, "Show a progress bar")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"bake.frames", "frames"},
		{"bake.fps", "fps"},
		{"bake.start", "start"},
		{"bake.output", "output"},
		{"bake.name", "name"},
		{"bake.progress", "progress"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, bakeCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

type bakeConfig struct {
	Output   string
	Name     string
	Frames   int
	FPS      float64
	Start    float64
	Progress bool
}

func bakeConfigFromViper(v *viper.Viper) (bakeConfig, error) {
	cfg := bakeConfig{
		Output:   v.GetString("bake.output"),
		Name:     v.GetString("bake.name"),
		Frames:   v.GetInt("bake.frames"),
		FPS:      v.GetFloat64("bake.fps"),
		Start:    v.GetFloat64("bake.start"),
		Progress: v.GetBool("bake.progress"),
	}
	if cfg.Frames <= 0 {
		return cfg, fmt.Errorf("--frames must be positive, got %d", cfg.Frames)
	}
	if cfg.FPS <= 0 {
		return cfg, fmt.Errorf("--fps must be positive, got %g", cfg.FPS)
	}
	if cfg.Output == "" {
		return cfg, fmt.Errorf("--output is required")
	}
	return cfg, nil
}

// frameTime returns the time of frame i.
func (c bakeConfig) frameTime(i int) float64 {
	return c.Start + float64(i)/c.FPS
}

func runBake(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	v := viper.GetViper()
	bc, err := bakeConfigFromViper(v)
	if err != nil {
		return err
	}
	cfg := sceneConfigFromViper(v)
	p, err := resolveParams(v)
	if err != nil {
		return err
	}

	latest, renderer, err := newFieldSource(cfg)
	if err != nil {
		return err
	}
	engine := buildEngine(cfg, p, latest)

	writer, err := framestore.New(bc.Output, framestore.Metadata{
		Name:           bc.Name,
		Description:    fmt.Sprintf("%s preset, %s field", p.Preset, fieldDescription(cfg, renderer)),
		Params:         p.Values().Encode(),
		Version:        "1",
		Radius:         cfg.Radius,
		FPS:            bc.FPS,
		VertexCount:    engine.Len(),
		WidthSegments:  cfg.WidthSegments,
		HeightSegments: cfg.HeightSegments,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Baking frames",
		"output", bc.Output,
		"frames", bc.Frames,
		"fps", bc.FPS,
		"vertices", engine.Len(),
		"workers", cfg.Workers,
	)

	var runner *synth.Runner
	if renderer != nil {
		runner = synth.NewRunner(renderer, latest, bc.FPS, nil, logger)
	}

	progress := worker.NewProgress(bc.Frames, bc.Progress)
	var buf []surface.DisplacedVertex
	var bakeErr error

	for i := 0; i < bc.Frames; i++ {
		if err := ctx.Err(); err != nil {
			bakeErr = err
			break
		}

		t := bc.frameTime(i)
		start := time.Now()
		if runner != nil {
			runner.Step(t)
		}

		buf, err = engine.Frame(ctx, t, buf)
		if err == nil {
			err = writer.WriteFrame(i, t, buf)
		}
		progress.Frame(time.Since(start), err)
		if err != nil {
			bakeErr = fmt.Errorf("frame %d: %w", i, err)
			break
		}
	}
	progress.Done()

	if err := writer.Close(); err != nil && bakeErr == nil {
		bakeErr = err
	}
	if bakeErr != nil {
		return bakeErr
	}

	logger.Info(progress.Summary())
	return nil
}
