// Package params defines the synthesis parameter snapshot supplied by the control surface,
// with its defaults and clamping rules.
package params

import (
	"image/color"
	"math"

	"github.com/MeKo-Tech/hydrasphere/internal/glitch"
	"github.com/MeKo-Tech/hydrasphere/internal/preset"
)

// Parameters is an immutable-by-convention snapshot of every user-adjustable control.
type Parameters struct {
	Preset preset.ID
	Effect Effect

	NoiseStrength  float64
	NoiseFrequency float64
	AnimationSpeed float64

	FresnelIntensity float64
	FresnelColor     color.NRGBA

	Glitch glitch.Params

	HydraBlend    float64 // 0 = pure noise, 1 = pure external field
	HydraStrength float64
}

// Range is the documented [Min, Max] of a control and its default.
type Range struct {
	Min, Max, Default float64
}

// Clamp limits x to the range. NaN resolves to the default.
func (r Range) Clamp(x float64) float64 {
	if math.IsNaN(x) {
		return r.Default
	}
	if x < r.Min {
		return r.Min
	}
	if x > r.Max {
		return r.Max
	}
	return x
}

// Control ranges, as exposed by the control panel.
var (
	NoiseStrengthRange    = Range{Min: 0, Max: 1, Default: 0.3}
	NoiseFrequencyRange   = Range{Min: 0.1, Max: 5, Default: 1.5}
	AnimationSpeedRange   = Range{Min: 0, Max: 2, Default: 0.3}
	FresnelIntensityRange = Range{Min: 0, Max: 10, Default: 0.8}
	GlitchIntensityRange  = Range{Min: 0, Max: 5, Default: 2.5}
	GlitchGridRange       = Range{Min: 1, Max: 50, Default: 3}
	GlitchSpeedRange      = Range{Min: 0, Max: 5, Default: 1}
	GlitchRandomnessRange = Range{Min: 0, Max: 1, Default: 0.5}
	HydraBlendRange       = Range{Min: 0, Max: 1, Default: 0.5}
	HydraStrengthRange    = Range{Min: 0, Max: 1, Default: 0.3}
)

// DefaultFresnelColor is #4db8ff.
var DefaultFresnelColor = color.NRGBA{R: 0x4d, G: 0xb8, B: 0xff, A: 0xff}

// Defaults returns the start-up parameter set.
func Defaults() Parameters {
	return Parameters{
		Preset:           preset.Classic,
		Effect:           EffectDefault,
		NoiseStrength:    NoiseStrengthRange.Default,
		NoiseFrequency:   NoiseFrequencyRange.Default,
		AnimationSpeed:   AnimationSpeedRange.Default,
		FresnelIntensity: FresnelIntensityRange.Default,
		FresnelColor:     DefaultFresnelColor,
		Glitch: glitch.Params{
			Enabled:    false,
			Intensity:  GlitchIntensityRange.Default,
			Grid:       GlitchGridRange.Default,
			Speed:      GlitchSpeedRange.Default,
			Randomness: GlitchRandomnessRange.Default,
		},
		HydraBlend:    HydraBlendRange.Default,
		HydraStrength: HydraStrengthRange.Default,
	}
}

// Clamp returns p with every value forced into its documented range and unknown
// enum values replaced by their defaults.
func (p Parameters) Clamp() Parameters {
	p.Preset = preset.Parse(p.Preset.String())
	p.Effect = ParseEffect(p.Effect.String())

	p.NoiseStrength = NoiseStrengthRange.Clamp(p.NoiseStrength)
	p.NoiseFrequency = NoiseFrequencyRange.Clamp(p.NoiseFrequency)
	p.AnimationSpeed = AnimationSpeedRange.Clamp(p.AnimationSpeed)
	p.FresnelIntensity = FresnelIntensityRange.Clamp(p.FresnelIntensity)

	p.Glitch.Intensity = GlitchIntensityRange.Clamp(p.Glitch.Intensity)
	p.Glitch.Grid = GlitchGridRange.Clamp(p.Glitch.Grid)
	p.Glitch.Speed = GlitchSpeedRange.Clamp(p.Glitch.Speed)
	p.Glitch.Randomness = GlitchRandomnessRange.Clamp(p.Glitch.Randomness)

	p.HydraBlend = HydraBlendRange.Clamp(p.HydraBlend)
	p.HydraStrength = HydraStrengthRange.Clamp(p.HydraStrength)
	return p
}
