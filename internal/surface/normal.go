package surface

import (
	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/mesh"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
)

const (
	// ProbeEpsilon is the object-space distance of the finite-difference probes.
	// It does not follow mesh density.
	ProbeEpsilon = 0.05

	// normalBlend is the weight of the reconstructed normal against the rest normal.
	normalBlend = 0.7
)

var probeAxes = [6]vecmath.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// ReconstructNormal estimates the normal of the displaced surface around rest.
//
// Six axis-aligned probes are pushed through Blend; their mean, relative to the rest
// position, approximates the local displacement gradient. The estimate is pulled 30%
// back towards the rest normal so large amplitudes cannot flip it.
// With no noise and no field displacement the rest normal is returned untouched.
func ReconstructNormal(rest mesh.RestVertex, p params.Parameters, f field.Field, time float64) vecmath.Vec3 {
	if p.NoiseStrength == 0 && p.HydraBlend == 0 {
		return rest.Normal
	}
	return reconstruct(rest, Blend(rest, p, f, time), p, f, time)
}

func reconstruct(rest mesh.RestVertex, center vecmath.Vec3, p params.Parameters, f field.Field, time float64) vecmath.Vec3 {
	var sum vecmath.Vec3
	for _, axis := range probeAxes {
		pos := rest.Position.Add(axis.Scale(ProbeEpsilon))
		n := pos.Normalize()
		if n.IsZero() {
			n = rest.Normal
		}
		sum = sum.Add(Blend(mesh.RestVertex{Position: pos, Normal: n}, p, f, time))
	}
	avg := sum.Scale(1.0 / float64(len(probeAxes)))

	candidate := center.Sub(avg.Sub(rest.Position)).Normalize()
	if candidate.IsZero() || !candidate.IsFinite() {
		return rest.Normal
	}

	n := vecmath.MixVec3(rest.Normal, candidate, normalBlend).Normalize()
	if n.IsZero() || !n.IsFinite() {
		return rest.Normal
	}
	return n
}

// Evaluate computes the full displaced vertex for rest.
func Evaluate(rest mesh.RestVertex, p params.Parameters, f field.Field, time float64) DisplacedVertex {
	pos := Blend(rest, p, f, time)

	normal := rest.Normal
	if p.NoiseStrength != 0 || p.HydraBlend != 0 {
		normal = reconstruct(rest, pos, p, f, time)
	}

	return DisplacedVertex{
		Position:           pos,
		Normal:             normal,
		DistanceFromCenter: pos.Len(),
	}
}
