// Package surface evaluates the displaced sphere surface: per-vertex position,
// reconstructed normal and distance from the centre.
package surface

import (
	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/glitch"
	"github.com/MeKo-Tech/hydrasphere/internal/mesh"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/preset"
	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
)

// Blend returns the displaced position of rest at time.
//
// The preset displacement and the external-field displacement are mixed by HydraBlend,
// then the glitch offset is added. The preset sees time scaled by AnimationSpeed; the
// glitch modulator runs on its own Speed and gets the raw time.
func Blend(rest mesh.RestVertex, p params.Parameters, f field.Field, time float64) vecmath.Vec3 {
	blended := preset.Apply(p.Preset, rest.Position, time*p.AnimationSpeed, p.NoiseFrequency, p.NoiseStrength, rest.Normal)

	if p.HydraBlend != 0 {
		blended = vecmath.MixVec3(blended, fieldDisplacement(rest, p, f), p.HydraBlend)
	}

	if p.Glitch.Enabled {
		blended = blended.Add(glitch.Offset(rest.Position, time, p.Glitch))
	}
	return blended
}

// fieldDisplacement pushes rest along its normal by the brightness of the field
// under the vertex.
func fieldDisplacement(rest mesh.RestVertex, p params.Parameters, f field.Field) vecmath.Vec3 {
	scalar := field.Scalar(field.SampleDirection(f, rest.Position.Normalize()))
	return rest.Position.Add(rest.Normal.Scale(scalar * p.HydraStrength))
}
