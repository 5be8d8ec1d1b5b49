package surface

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/mesh"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/preset"
	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uniformField vecmath.Vec4

func (u uniformField) Sample(_, _ float64) vecmath.Vec4 { return vecmath.Vec4(u) }

func uniformImage(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func testSphere() []mesh.RestVertex {
	return mesh.UVSphere(mesh.DefaultRadius, 16, 8)
}

func TestBlend_NoFieldTermWithoutHydraBlend(t *testing.T) {
	f := uniformField{1, 1, 1, 1}
	for _, id := range preset.All() {
		p := params.Defaults()
		p.Preset = id
		p.HydraBlend = 0
		p.HydraStrength = 1

		for _, rest := range testSphere() {
			want := preset.Apply(id, rest.Position, 2.5*p.AnimationSpeed, p.NoiseFrequency, p.NoiseStrength, rest.Normal)
			require.Equal(t, want, Blend(rest, p, f, 2.5), "preset %s", id)
		}
	}
}

func TestBlend_PureFieldTerm(t *testing.T) {
	c := vecmath.Vec4{0.5, 0.25, 0.75, 1}
	f := uniformField(c)

	p := params.Defaults()
	p.NoiseStrength = 0.9
	p.HydraBlend = 1
	p.HydraStrength = 0.4

	for _, rest := range testSphere() {
		want := rest.Position.Add(rest.Normal.Scale(field.Scalar(c) * p.HydraStrength))
		assert.Equal(t, want, Blend(rest, p, f, 1.25))
	}
}

func TestBlend_MissingFieldIsNeutral(t *testing.T) {
	p := params.Defaults()
	p.HydraBlend = 1
	p.HydraStrength = 1

	var empty field.Latest
	for _, rest := range testSphere() {
		assert.Equal(t, rest.Position, Blend(rest, p, nil, 3))
		assert.Equal(t, rest.Position, Blend(rest, p, field.Freeze(&empty), 3))
	}
}

func TestBlend_ClassicScenario(t *testing.T) {
	rest := mesh.RestVertex{Position: vecmath.Vec3{0, 0, 1.5}, Normal: vecmath.Vec3{0, 0, 1}}
	p := params.Defaults()
	p.Preset = preset.Classic
	p.NoiseFrequency = 1.5
	p.NoiseStrength = 0.3
	p.AnimationSpeed = 0
	p.HydraBlend = 0

	got := Blend(rest, p, nil, 0)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.0, got[1])
	assert.LessOrEqual(t, math.Abs(got[2]-1.5), 0.3)
	assert.Equal(t, got, Blend(rest, p, nil, 0))
}

func TestBlend_GlitchAddsOffset(t *testing.T) {
	rest := mesh.RestVertex{Position: vecmath.Vec3{0.3, 0.7, 1.2}, Normal: vecmath.Vec3{0.3, 0.7, 1.2}.Normalize()}
	p := params.Defaults()
	p.NoiseStrength = 0
	p.HydraBlend = 0
	p.Glitch.Enabled = true
	p.Glitch.Randomness = 1

	// With randomness 1 every cell glitches in every state.
	moved := false
	for _, tm := range []float64{0, 0.2, 0.7, 1.9} {
		got := Blend(rest, p, nil, tm)
		if got.Sub(rest.Position).Len() > 0 {
			moved = true
		}
		assert.LessOrEqual(t, got.Sub(rest.Position).Len(), p.Glitch.Intensity/2+1e-12)
	}
	assert.True(t, moved)
}

func TestReconstructNormal_Bypass(t *testing.T) {
	p := params.Defaults()
	p.NoiseStrength = 0
	p.HydraBlend = 0
	p.Glitch.Enabled = true

	for _, rest := range testSphere() {
		// Bit-for-bit, not just within epsilon.
		assert.Equal(t, rest.Normal, ReconstructNormal(rest, p, uniformField{1, 1, 1, 1}, 4.2))
	}

	odd := mesh.RestVertex{Position: vecmath.Vec3{1, 0, 0}, Normal: vecmath.Vec3{0.6, 0.8, 0}}
	assert.Equal(t, odd.Normal, ReconstructNormal(odd, p, nil, 0))
}

func TestReconstructNormal_UnitAndStable(t *testing.T) {
	for _, id := range preset.All() {
		p := params.Defaults()
		p.Preset = id
		p.NoiseStrength = 1
		p.HydraBlend = 0.5
		p.Glitch.Enabled = true

		for _, rest := range testSphere() {
			n := ReconstructNormal(rest, p, uniformField{0.2, 0.4, 0.6, 1}, 1.7)
			require.True(t, n.IsFinite(), "preset %s", id)
			assert.InDelta(t, 1.0, n.Len(), 1e-9, "preset %s", id)
		}
	}
}

func TestReconstructNormal_FlatDisplacementKeepsNormal(t *testing.T) {
	// A uniform field pushes every probe out by the same amount, so the estimate
	// must stay close to the sphere normal.
	p := params.Defaults()
	p.NoiseStrength = 0
	p.HydraBlend = 1
	p.HydraStrength = 0.5

	for _, rest := range testSphere() {
		n := ReconstructNormal(rest, p, uniformField{1, 1, 1, 1}, 0)
		assert.Greater(t, n.Dot(rest.Normal), 0.9)
	}
}

func TestReconstructNormal_CenterVertexHasNoNaN(t *testing.T) {
	rest := mesh.RestVertex{Position: vecmath.Vec3{}, Normal: vecmath.Vec3{0, 1, 0}}
	for _, id := range preset.All() {
		p := params.Defaults()
		p.Preset = id
		p.NoiseStrength = 1
		p.HydraBlend = 0.5
		p.Glitch.Enabled = true

		v := Evaluate(rest, p, uniformField{1, 1, 1, 1}, 0.5)
		assert.True(t, v.Position.IsFinite(), "preset %s", id)
		assert.True(t, v.Normal.IsFinite(), "preset %s", id)
		assert.False(t, math.IsNaN(v.DistanceFromCenter), "preset %s", id)
	}
}

func TestEvaluate_MatchesParts(t *testing.T) {
	p := params.Defaults()
	p.Preset = preset.Bubbles
	f := uniformField{0.3, 0.3, 0.3, 1}

	for _, rest := range testSphere() {
		v := Evaluate(rest, p, f, 0.8)
		assert.Equal(t, Blend(rest, p, f, 0.8), v.Position)
		assert.Equal(t, ReconstructNormal(rest, p, f, 0.8), v.Normal)
		assert.Equal(t, v.Position.Len(), v.DistanceFromCenter)
	}
}
