// Package server exposes the surface engine over HTTP and websockets.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/hydrasphere/internal/audio"
	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/surface"
	"github.com/MeKo-Tech/hydrasphere/internal/synth"
	"github.com/gorilla/websocket"
)

// DefaultFPS is the websocket broadcast rate.
const DefaultFPS = 30

// Config configures a Server. Only Engine is required.
type Config struct {
	Engine     *surface.Engine
	Field      *field.Latest      // published synth output, for /api/field.*
	Synth      *synth.Renderer    // enables /api/sketch
	Analyzer   *audio.Analyzer    // created when nil
	Frames     *FrameStoreHandler // enables /api/baked/
	Reactivity audio.Reactivity
	FPS        float64
	// CacheControl is sent with field snapshots (default: no-store)
	CacheControl string
}

// Server serves parameters, frames and the external field, and streams frames to
// websocket clients.
type Server struct {
	cfg      Config
	engine   *surface.Engine
	analyzer *audio.Analyzer
	logger   *slog.Logger
	start    time.Time
	upgrader websocket.Upgrader

	clients   map[*websocket.Conn]*sync.Mutex
	clientsMu sync.RWMutex

	framesServed    atomic.Int64
	framesBroadcast atomic.Int64
}

// Status is the JSON body of /api/status.
type Status struct {
	Vertices        int     `json:"vertices"`
	Uptime          float64 `json:"uptime_seconds"`
	Clients         int     `json:"clients"`
	FramesServed    int64   `json:"frames_served"`
	FramesBroadcast int64   `json:"frames_broadcast"`
	FieldVersion    uint64  `json:"field_version"`
	Sketch          string  `json:"sketch,omitempty"`
}

// New creates a server around cfg.Engine.
func New(cfg Config, logger *slog.Logger) *Server {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = audio.NewAnalyzer()
	}

	return &Server{
		cfg:      cfg,
		engine:   cfg.Engine,
		analyzer: analyzer,
		logger:   logger,
		start:    time.Now(),
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the viewer may be served from anywhere
			},
		},
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/frame", s.handleFrame)
	mux.HandleFunc("/api/field.png", s.handleField(field.FormatPNG))
	mux.HandleFunc("/api/field.webp", s.handleField(field.FormatWebP))
	mux.HandleFunc("/api/audio", s.handleAudio)
	if s.cfg.Synth != nil {
		mux.HandleFunc("/api/sketch", s.handleSketch)
	}
	if s.cfg.Frames != nil {
		mux.Handle("/api/baked/", s.cfg.Frames.Handler())
	}
	mux.HandleFunc("/ws", s.handleWebSocket)
	return withCORS(mux)
}

// Status reports counters for monitoring.
func (s *Server) Status() Status {
	s.clientsMu.RLock()
	clients := len(s.clients)
	s.clientsMu.RUnlock()

	st := Status{
		Vertices:        s.engine.Len(),
		Uptime:          time.Since(s.start).Seconds(),
		Clients:         clients,
		FramesServed:    s.framesServed.Load(),
		FramesBroadcast: s.framesBroadcast.Load(),
	}
	if s.cfg.Field != nil {
		st.FieldVersion = s.cfg.Field.Version()
	}
	if s.cfg.Synth != nil {
		st.Sketch = s.cfg.Synth.Sketch().String()
	}
	return st
}

// Run broadcasts frames to websocket clients until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / s.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log().Info("Starting frame broadcast", "fps", s.cfg.FPS, "vertices", s.engine.Len())

	var buf []surface.DisplacedVertex
	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			return nil
		case <-ticker.C:
			if s.clientCount() == 0 {
				continue
			}

			frameStart := time.Now()
			t := s.now()
			var err error
			buf, err = s.engine.Evaluate(ctx, t, s.effectiveParams(), buf)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.log().Error("Failed to evaluate frame", "error", err)
				continue
			}
			s.broadcast(encodeBinaryFrame(t, buf))
			s.framesBroadcast.Add(1)

			if elapsed := time.Since(frameStart); elapsed > interval {
				s.log().Warn("Slow frame", "elapsed", elapsed, "budget", interval)
			}
		}
	}
}

// now is the animation clock: seconds since the server started.
func (s *Server) now() float64 {
	return time.Since(s.start).Seconds()
}

// effectiveParams is the engine's parameter set with audio reactivity applied.
func (s *Server) effectiveParams() params.Parameters {
	return s.cfg.Reactivity.Apply(s.engine.Parameters(), s.analyzer.Bands())
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
