package cmd

import (
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/hydrasphere/internal/audio"
	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/mesh"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/surface"
	"github.com/MeKo-Tech/hydrasphere/internal/synth"
	"github.com/spf13/viper"
)

// sceneConfig collects the settings shared by all commands.
type sceneConfig struct {
	FieldPath      string
	Sketch         string
	Radius         float64
	Seed           int64
	WidthSegments  int
	HeightSegments int
	Workers        int
	FieldSize      int
}

func sceneConfigFromViper(v *viper.Viper) sceneConfig {
	cfg := sceneConfig{
		FieldPath:      v.GetString("field.path"),
		Sketch:         v.GetString("field.sketch"),
		Radius:         v.GetFloat64("mesh.radius"),
		Seed:           v.GetInt64("field.seed"),
		WidthSegments:  v.GetInt("mesh.width_segments"),
		HeightSegments: v.GetInt("mesh.height_segments"),
		Workers:        v.GetInt("workers"),
		FieldSize:      v.GetInt("field.size"),
	}
	if cfg.Radius <= 0 {
		cfg.Radius = mesh.DefaultRadius
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.FieldSize <= 0 {
		cfg.FieldSize = synth.DefaultSize
	}
	return cfg
}

// resolveParams layers defaults, the "sphere" config section and --params.
func resolveParams(v *viper.Viper) (params.Parameters, error) {
	p := params.FromViper(v, "sphere", params.Defaults())
	if q := v.GetString("params"); q != "" {
		return params.ParseQuery(q, p)
	}
	return p, nil
}

// resolveReactivity reads the "audio" config section over the default gains.
func resolveReactivity(v *viper.Viper) (audio.Reactivity, error) {
	r := audio.DefaultReactivity()
	if !v.IsSet("audio") {
		return r, nil
	}
	if err := v.UnmarshalKey("audio", &r); err != nil {
		return r, fmt.Errorf("invalid audio config: %w", err)
	}
	return r, nil
}

// newFieldSource returns the publish slot for the external field. A configured
// image is loaded and published once; otherwise a synth renderer is returned to
// drive the slot.
func newFieldSource(cfg sceneConfig, opts ...synth.Option) (*field.Latest, *synth.Renderer, error) {
	latest := &field.Latest{}

	if cfg.FieldPath != "" {
		img, err := field.LoadFile(cfg.FieldPath, cfg.FieldSize)
		if err != nil {
			return nil, nil, err
		}
		latest.Publish(img)
		return latest, nil, nil
	}

	opts = append([]synth.Option{synth.WithSize(cfg.FieldSize), synth.WithSeed(cfg.Seed)}, opts...)
	return latest, synth.NewRenderer(synth.ParseSketch(cfg.Sketch), opts...), nil
}

func buildEngine(cfg sceneConfig, p params.Parameters, f field.Field) *surface.Engine {
	verts := mesh.UVSphere(cfg.Radius, cfg.WidthSegments, cfg.HeightSegments)
	return surface.NewEngine(verts,
		surface.WithField(f),
		surface.WithWorkers(cfg.Workers),
		surface.WithParameters(p),
		surface.WithLogger(logger),
	)
}
