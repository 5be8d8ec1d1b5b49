package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/preset"
	"github.com/MeKo-Tech/hydrasphere/internal/synth"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yamlViper(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	return v
}

func TestResolveParams(t *testing.T) {
	v := yamlViper(t, `
sphere:
  preset: bubbles
  noiseStrength: 0.6
params: "preset=twister&glitchEnabled=true"
`)

	p, err := resolveParams(v)
	require.NoError(t, err)
	assert.Equal(t, preset.Twister, p.Preset, "--params overrides the config section")
	assert.Equal(t, 0.6, p.NoiseStrength)
	assert.True(t, p.Glitch.Enabled)

	v.Set("params", "%zz")
	_, err = resolveParams(v)
	assert.Error(t, err)
}

func TestResolveParams_Defaults(t *testing.T) {
	p, err := resolveParams(viper.New())
	require.NoError(t, err)
	assert.Equal(t, params.Defaults(), p)
}

func TestResolveReactivity(t *testing.T) {
	r, err := resolveReactivity(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 0.5, r.NoiseStrength)

	v := yamlViper(t, `
audio:
  noise_strength: 0.2
  glitch_intensity: 0.8
`)
	r, err = resolveReactivity(v)
	require.NoError(t, err)
	assert.Equal(t, 0.2, r.NoiseStrength)
	assert.Equal(t, 0.5, r.HydraStrength)
	assert.Equal(t, 0.8, r.GlitchIntensity)
}

func TestSceneConfigFromViper(t *testing.T) {
	cfg := sceneConfigFromViper(viper.New())
	assert.Equal(t, 1.5, cfg.Radius)
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, synth.DefaultSize, cfg.FieldSize)

	v := viper.New()
	v.Set("mesh.radius", 2.0)
	v.Set("mesh.width_segments", 16)
	v.Set("field.sketch", "plasma")
	v.Set("workers", 3)
	cfg = sceneConfigFromViper(v)
	assert.Equal(t, 2.0, cfg.Radius)
	assert.Equal(t, 16, cfg.WidthSegments)
	assert.Equal(t, "plasma", cfg.Sketch)
	assert.Equal(t, 3, cfg.Workers)
}

func TestNewFieldSource_Synth(t *testing.T) {
	cfg := sceneConfig{Sketch: "noise", FieldSize: 16, Seed: 7}
	latest, renderer, err := newFieldSource(cfg)
	require.NoError(t, err)
	require.NotNil(t, renderer)
	assert.Equal(t, synth.Noise, renderer.Sketch())
	assert.Equal(t, 16, renderer.Size())
	assert.Nil(t, latest.Current(), "nothing is published until the synth runs")
}

func TestNewFieldSource_Image(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.NRGBA{A: 255})
	path := filepath.Join(t.TempDir(), "field.png")
	require.NoError(t, field.WriteFile(path, img))

	latest, renderer, err := newFieldSource(sceneConfig{FieldPath: path, FieldSize: 4})
	require.NoError(t, err)
	assert.Nil(t, renderer)
	require.NotNil(t, latest.Current())
	assert.Equal(t, 4, latest.Current().Bounds().Dx())

	_, _, err = newFieldSource(sceneConfig{FieldPath: filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)
}

func TestBuildEngine(t *testing.T) {
	cfg := sceneConfig{Radius: 1, WidthSegments: 8, HeightSegments: 4, Workers: 2}
	p := params.Defaults()
	p.HydraBlend = 0

	e := buildEngine(cfg, p, nil)
	assert.Equal(t, 9*5, e.Len())

	verts, err := e.Frame(context.Background(), 0.5, nil)
	require.NoError(t, err)
	assert.Len(t, verts, e.Len())
}

func TestBakeConfig(t *testing.T) {
	tests := []struct {
		name    string
		set     map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"bake.frames": 10, "bake.fps": 30.0, "bake.output": "out.db"}, false},
		{"zero frames", map[string]any{"bake.frames": 0, "bake.fps": 30.0, "bake.output": "out.db"}, true},
		{"negative fps", map[string]any{"bake.frames": 10, "bake.fps": -1.0, "bake.output": "out.db"}, true},
		{"missing output", map[string]any{"bake.frames": 10, "bake.fps": 30.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := bakeConfigFromViper(v)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBakeConfig_FrameTime(t *testing.T) {
	bc := bakeConfig{FPS: 4, Start: 1}
	assert.InDelta(t, 1.0, bc.frameTime(0), 1e-12)
	assert.InDelta(t, 1.25, bc.frameTime(1), 1e-12)
	assert.InDelta(t, 3.5, bc.frameTime(10), 1e-12)
}

func TestParseBands(t *testing.T) {
	b, err := parseBands([]float64{0.1, 0.9})
	require.NoError(t, err)
	assert.Equal(t, 0.1, b[0])
	assert.Equal(t, 0.9, b[1])
	assert.Equal(t, 0.0, b[3])

	_, err = parseBands([]float64{0, 0, 0, 0, 0})
	assert.Error(t, err)
	_, err = parseBands([]float64{1.5})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "json", false)
	l.Debug("hidden")
	l.Info("shown", "k", 1)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	buf.Reset()
	newLogger(&buf, "text", true).Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}
