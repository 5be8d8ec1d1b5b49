package surface

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/hydrasphere/internal/field"
	"github.com/MeKo-Tech/hydrasphere/internal/mesh"
	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/MeKo-Tech/hydrasphere/internal/preset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Idempotent(t *testing.T) {
	p := params.Defaults()
	p.Glitch.Enabled = true
	e := NewEngine(testSphere(), WithParameters(p), WithField(uniformField{0.5, 0.1, 0.9, 1}))

	a, err := e.Frame(context.Background(), 1.5, nil)
	require.NoError(t, err)
	b, err := e.Frame(context.Background(), 1.5, nil)
	require.NoError(t, err)

	assert.Len(t, a, e.Len())
	assert.Equal(t, a, b)
}

func TestEngine_WorkersDoNotChangeOutput(t *testing.T) {
	verts := mesh.UVSphere(mesh.DefaultRadius, 24, 12)
	p := params.Defaults()
	p.Preset = preset.Turbulence

	serial := NewEngine(verts, WithWorkers(1), WithParameters(p))
	parallel := NewEngine(verts, WithWorkers(4), WithChunkSize(7), WithParameters(p))

	a, err := serial.Frame(context.Background(), 0.9, nil)
	require.NoError(t, err)
	b, err := parallel.Frame(context.Background(), 0.9, nil)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEngine_MatchesPerVertexEvaluate(t *testing.T) {
	verts := testSphere()
	p := params.Defaults()
	f := uniformField{0.7, 0.7, 0.7, 1}
	e := NewEngine(verts, WithField(f), WithWorkers(3), WithChunkSize(10))

	out, err := e.Evaluate(context.Background(), 2, p, nil)
	require.NoError(t, err)
	for i, rest := range verts {
		assert.Equal(t, Evaluate(rest, p, f, 2), out[i])
	}
}

func TestEngine_ReusesDestination(t *testing.T) {
	e := NewEngine(testSphere())
	dst := make([]DisplacedVertex, 0, e.Len()+5)

	out, err := e.Frame(context.Background(), 0, dst)
	require.NoError(t, err)
	require.Len(t, out, e.Len())
	assert.Same(t, &dst[:1][0], &out[0])
}

func TestEngine_PresetSwitchNeedsNoReset(t *testing.T) {
	e := NewEngine(testSphere(), WithWorkers(2))

	first, err := e.Frame(context.Background(), 3, nil)
	require.NoError(t, err)

	e.UpdateParameters(func(p *params.Parameters) { p.Preset = preset.Spiky })
	spiky, err := e.Frame(context.Background(), 3, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, spiky)

	e.UpdateParameters(func(p *params.Parameters) { p.Preset = preset.Classic })
	again, err := e.Frame(context.Background(), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestEngine_SetParametersClamps(t *testing.T) {
	e := NewEngine(testSphere())

	p := params.Defaults()
	p.NoiseStrength = 7
	p.Glitch.Grid = 0
	e.SetParameters(p)

	got := e.Parameters()
	assert.Equal(t, 1.0, got.NoiseStrength)
	assert.Equal(t, 1.0, got.Glitch.Grid)

	updated := e.UpdateParameters(func(p *params.Parameters) { p.HydraBlend = -1 })
	assert.Equal(t, 0.0, updated.HydraBlend)
	assert.Equal(t, updated, e.Parameters())
}

func TestEngine_UsesLatestField(t *testing.T) {
	verts := testSphere()
	var latest field.Latest

	p := params.Defaults()
	p.HydraBlend = 1
	p.HydraStrength = 1
	e := NewEngine(verts, WithField(&latest), WithParameters(p))

	// Nothing published yet: the field term is neutral.
	out, err := e.Frame(context.Background(), 0, nil)
	require.NoError(t, err)
	for i, rest := range verts {
		assert.Equal(t, rest.Position, out[i].Position)
	}

	img := field.NewImageField(uniformImage(color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	latest.Publish(img)

	out, err = e.Frame(context.Background(), 0, out)
	require.NoError(t, err)
	for i, rest := range verts {
		assert.InDelta(t, mesh.DefaultRadius+1, out[i].DistanceFromCenter, 1e-6, "vertex %d (%v)", i, rest.Position)
	}
}

func TestEngine_Cancelled(t *testing.T) {
	e := NewEngine(testSphere(), WithWorkers(2), WithChunkSize(16))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := e.Frame(ctx, 0, nil)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, context.Canceled))
}
