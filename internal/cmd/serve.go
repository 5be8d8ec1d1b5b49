package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/MeKo-Tech/hydrasphere/internal/audio"
	"github.com/MeKo-Tech/hydrasphere/internal/server"
	"github.com/MeKo-Tech/hydrasphere/internal/synth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve frames over HTTP and stream them to websocket clients",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Float64("fps", server.DefaultFPS, "Websocket frame rate")
	serveCmd.Flags().Float64("synth-fps", synth.DefaultFPS, "Render rate of the visual synth")
	serveCmd.Flags().Float64("audio-gain", 0, "How strongly audio bands brighten the synth output")
	serveCmd.Flags().Float32("blur", 0, "Gaussian blur sigma applied to synth frames")
	serveCmd.Flags().String("frames", "", "Frame store to serve under /api/baked/")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for field snapshots")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"serve.addr", "addr"},
		{"serve.fps", "fps"},
		{"serve.synth_fps", "synth-fps"},
		{"serve.audio_gain", "audio-gain"},
		{"serve.blur", "blur"},
		{"serve.frames", "frames"},
		{"serve.cache_control", "cache-control"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, serveCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	v := viper.GetViper()
	addr := v.GetString("serve.addr")
	framesPath := v.GetString("serve.frames")

	cfg := sceneConfigFromViper(v)
	p, err := resolveParams(v)
	if err != nil {
		return err
	}
	reactivity, err := resolveReactivity(v)
	if err != nil {
		return err
	}

	latest, renderer, err := newFieldSource(cfg,
		synth.WithAudioGain(v.GetFloat64("serve.audio_gain")),
		synth.WithBlur(float32(v.GetFloat64("serve.blur"))),
	)
	if err != nil {
		return err
	}
	engine := buildEngine(cfg, p, latest)
	analyzer := audio.NewAnalyzer()

	var frames *server.FrameStoreHandler
	if framesPath != "" {
		frames, err = server.NewFrameStoreHandler(server.FrameStoreConfig{Path: framesPath}, logger)
		if err != nil {
			return err
		}
		defer frames.Close()
	}

	srv := server.New(server.Config{
		Engine:       engine,
		Field:        latest,
		Synth:        renderer,
		Analyzer:     analyzer,
		Frames:       frames,
		Reactivity:   reactivity,
		FPS:          v.GetFloat64("serve.fps"),
		CacheControl: v.GetString("serve.cache_control"),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if renderer != nil {
		runner := synth.NewRunner(renderer, latest, v.GetFloat64("serve.synth_fps"), analyzer, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.Run(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = srv.Run(ctx)
	}()

	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		logger.Info("Received interrupt signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("Server listening",
		"addr", addr,
		"vertices", engine.Len(),
		"preset", p.Preset.String(),
		"field", fieldDescription(cfg, renderer),
		"frames", framesPath,
	)

	err = httpSrv.ListenAndServe()
	stop()
	wg.Wait()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func fieldDescription(cfg sceneConfig, renderer *synth.Renderer) string {
	if renderer != nil {
		return "synth:" + renderer.Sketch().String()
	}
	return cfg.FieldPath
}
