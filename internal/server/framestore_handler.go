package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/hydrasphere/internal/framestore"
)

// FrameStoreHandler serves baked frames from a frame store database.
type FrameStoreHandler struct {
	reader       *framestore.Reader
	logger       *slog.Logger
	cacheControl string
}

// FrameStoreConfig configures the frame store handler.
type FrameStoreConfig struct {
	Path         string
	CacheControl string
}

// NewFrameStoreHandler opens the database at cfg.Path.
func NewFrameStoreHandler(cfg FrameStoreConfig, logger *slog.Logger) (*FrameStoreHandler, error) {
	reader, err := framestore.OpenReader(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame store: %w", err)
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "public, max-age=3600"
	}

	return &FrameStoreHandler{
		reader:       reader,
		logger:       logger,
		cacheControl: cfg.CacheControl,
	}, nil
}

// Handler returns the HTTP handler function.
// Routes: /api/baked/meta and /api/baked/{index}[.json|.bin].
func (h *FrameStoreHandler) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		if name == "meta" {
			h.serveMetadata(w)
			return
		}
		h.serveFrame(w, r, name)
	}
}

type bakedMetadata struct {
	framestore.Metadata
	Frames int `json:"frames"`
}

func (h *FrameStoreHandler) serveMetadata(w http.ResponseWriter) {
	meta, err := h.reader.Metadata()
	if err != nil {
		h.log().Error("Failed to read metadata", "error", err)
		http.Error(w, "failed to read metadata", http.StatusInternalServerError)
		return
	}
	n, err := h.reader.FrameCount()
	if err != nil {
		h.log().Error("Failed to count frames", "error", err)
		http.Error(w, "failed to count frames", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	if err := writeJSON(w, bakedMetadata{Metadata: meta, Frames: n}); err != nil {
		h.log().Error("Failed to encode response", "error", err)
	}
}

func (h *FrameStoreHandler) serveFrame(w http.ResponseWriter, r *http.Request, name string) {
	index, format, ok := parseFrameName(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	frame, err := h.reader.ReadFrame(index)
	if errors.Is(err, framestore.ErrFrameNotFound) {
		http.Error(w, fmt.Sprintf("frame %d not found", index), http.StatusNotFound)
		return
	}
	if err != nil {
		h.log().Error("Failed to read frame", "index", index, "error", err)
		http.Error(w, "failed to read frame", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	if format == "bin" {
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := w.Write(encodeBinaryFrame(frame.Time, frame.Vertices)); err != nil {
			h.log().Error("Failed to write response", "error", err)
		}
		return
	}
	if err := writeJSON(w, newFrameJSON(frame.Time, frame.Vertices)); err != nil {
		h.log().Error("Failed to encode response", "error", err)
	}
}

// Close closes the frame store reader.
func (h *FrameStoreHandler) Close() error {
	return h.reader.Close()
}

func (h *FrameStoreHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// parseFrameName parses "12", "12.json" or "12.bin".
func parseFrameName(name string) (int, string, bool) {
	format := "json"
	switch {
	case strings.HasSuffix(name, ".bin"):
		format = "bin"
		name = strings.TrimSuffix(name, ".bin")
	case strings.HasSuffix(name, ".json"):
		name = strings.TrimSuffix(name, ".json")
	}

	index, err := strconv.Atoi(name)
	if err != nil || index < 0 {
		return 0, "", false
	}
	return index, format, true
}
