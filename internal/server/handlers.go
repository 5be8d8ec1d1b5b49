package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/synth"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, s.Status())
}

// handleParams reads (GET) or merges (POST) the engine parameters. POST bodies may be
// JSON objects or form values; unknown keys are ignored and values are clamped.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if isJSON(r) {
			var values map[string]any
			if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
				http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
				return
			}
			s.applyUpdate(values)
		} else {
			if err := r.ParseForm(); err != nil {
				http.Error(w, fmt.Sprintf("invalid form: %v", err), http.StatusBadRequest)
				return
			}
			p := s.engine.UpdateParameters(func(p *params.Parameters) {
				*p = params.FromValues(r.Form, *p)
			})
			s.log().Info("Parameters updated", "preset", p.Preset.String(), "source", "form")
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, s.engine.Parameters().Map())
}

// applyUpdate merges decoded JSON values into the engine parameters.
func (s *Server) applyUpdate(values map[string]any) params.Parameters {
	var ignored []string
	p := s.engine.UpdateParameters(func(p *params.Parameters) {
		for key, v := range values {
			if !p.SetAny(key, v) {
				ignored = append(ignored, key)
			}
		}
	})
	if len(ignored) > 0 {
		s.log().Debug("Ignored parameter keys", "keys", ignored)
	}
	s.log().Info("Parameters updated", "preset", p.Preset.String(), "keys", len(values)-len(ignored))
	return p
}

// handleFrame evaluates one frame. Query parameters override the current
// parameters for this request only; t selects the time (default: now).
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	t := s.now()
	if raw := q.Get("t"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid t: %q", raw), http.StatusBadRequest)
			return
		}
		t = v
	}

	p := params.FromValues(q, s.effectiveParams())
	verts, err := s.engine.Evaluate(r.Context(), t, p, nil)
	if err != nil {
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}
	s.framesServed.Add(1)

	w.Header().Set("Cache-Control", "no-store")
	switch q.Get("format") {
	case "bin":
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := w.Write(encodeBinaryFrame(t, verts)); err != nil {
			s.log().Error("Failed to write response", "error", err)
		}
	case "", "json":
		s.writeJSON(w, newFrameJSON(t, verts))
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", q.Get("format")), http.StatusBadRequest)
	}
}

func (s *Server) handleField(format field.Format) http.HandlerFunc {
	contentType := "image/png"
	if format == field.FormatWebP {
		contentType = "image/webp"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var current *field.ImageField
		if s.cfg.Field != nil {
			current = s.cfg.Field.Current()
		}
		if current == nil {
			http.Error(w, "field not available", http.StatusNotFound)
			return
		}

		var buf bytes.Buffer
		if err := field.Encode(&buf, current.Image(), format); err != nil {
			s.log().Error("Failed to encode field", "format", contentType, "error", err)
			http.Error(w, "failed to encode field", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", s.cfg.CacheControl)
		if _, err := w.Write(buf.Bytes()); err != nil {
			s.log().Error("Failed to write response", "error", err)
		}
	}
}

type audioRequest struct {
	Specific []float64 `json:"specific"`
}

type audioResponse struct {
	Bands [4]float64 `json:"bands"`
}

// handleAudio feeds a loudness spectrum into the analyzer (POST) or reports the
// current bands (GET).
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, audioResponse{Bands: s.analyzer.Bands()})
	case http.MethodPost:
		var req audioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
			return
		}
		s.writeJSON(w, audioResponse{Bands: s.analyzer.Push(req.Specific)})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type sketchResponse struct {
	Sketch    string   `json:"sketch"`
	Available []string `json:"available"`
}

func (s *Server) handleSketch(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		name := r.URL.Query().Get("name")
		if isJSON(r) {
			var body struct {
				Sketch string `json:"sketch"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
				return
			}
			name = body.Sketch
		}
		sk := synth.ParseSketch(name)
		s.cfg.Synth.SetSketch(sk)
		s.log().Info("Sketch changed", "sketch", sk.String())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := sketchResponse{Sketch: s.cfg.Synth.Sketch().String()}
	for _, sk := range synth.Sketches() {
		resp.Available = append(resp.Available, sk.String())
	}
	s.writeJSON(w, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	if err := writeJSON(w, v); err != nil {
		s.log().Error("Failed to encode response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
