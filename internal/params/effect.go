package params

import "strings"

// Effect selects the surface shading effect applied downstream of the displacement
// pipeline. The pipeline only carries it through.
type Effect int

const (
	EffectDefault Effect = iota
	EffectFresnelRim
	EffectFresnelGlow
	EffectFresnelAnimated
	EffectIridescent
	EffectHolographic
	EffectPearlescent
	EffectChromatic
	EffectAmbientOcclusion
	EffectCavity
	EffectCurvature
	EffectDisplacementPeaks
)

var effectNames = [...]string{
	EffectDefault:           "default",
	EffectFresnelRim:        "fresnel_rim",
	EffectFresnelGlow:       "fresnel_glow",
	EffectFresnelAnimated:   "fresnel_animated",
	EffectIridescent:        "iridescent",
	EffectHolographic:       "holographic",
	EffectPearlescent:       "pearlescent",
	EffectChromatic:         "chromatic",
	EffectAmbientOcclusion:  "ambient_occlusion",
	EffectCavity:            "cavity",
	EffectCurvature:         "curvature",
	EffectDisplacementPeaks: "displacement_peaks",
}

func (e Effect) String() string {
	if e < 0 || int(e) >= len(effectNames) {
		return effectNames[EffectDefault]
	}
	return effectNames[e]
}

// ParseEffect resolves an effect key, falling back to EffectDefault.
func ParseEffect(s string) Effect {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range effectNames {
		if name == key {
			return Effect(i)
		}
	}
	return EffectDefault
}
