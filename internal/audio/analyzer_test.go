package audio

import (
	"sync"
	"testing"

	"github.com/MeKo-Tech/hydrasphere/internal/params"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzer_Push(t *testing.T) {
	a := NewAnalyzer()

	// 8 values: two per band.
	got := a.Push([]float64{1, 1, 2, 2, 3, 3, 4, 4})
	assert.InDelta(t, 0.12, got[0], 1e-12)
	assert.InDelta(t, 0.24, got[1], 1e-12)
	assert.InDelta(t, 0.36, got[2], 1e-12)
	assert.InDelta(t, 0.48, got[3], 1e-12)

	got = a.Push([]float64{0, 0, 0, 0, 0, 0, 0, 0})
	assert.InDelta(t, 0.12*0.4, got[0], 1e-12)
	assert.Equal(t, got, a.Bands())
}

func TestAnalyzer_LeftoversIgnored(t *testing.T) {
	a := NewAnalyzer()
	got := a.Push([]float64{10, 10, 10, 10, 99, 99})
	for i := range got {
		assert.InDelta(t, 0.6, got[i], 1e-12)
	}
}

func TestAnalyzer_ShortSpectrumDecays(t *testing.T) {
	a := NewAnalyzer()
	a.Push([]float64{10, 10, 10, 10})
	before := a.Bands()

	got := a.Push([]float64{1, 2, 3})
	for i := range got {
		assert.InDelta(t, before[i]*0.4, got[i], 1e-12)
	}
	got = a.Push(nil)
	for i := range got {
		assert.InDelta(t, before[i]*0.4*0.4, got[i], 1e-12)
	}

	a.Reset()
	assert.Equal(t, Bands{}, a.Bands())
}

func TestAnalyzer_Concurrent(t *testing.T) {
	a := NewAnalyzer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.Push([]float64{1, 1, 1, 1})
				_ = a.Bands()
			}
		}()
	}
	wg.Wait()
	assert.InDelta(t, 0.1, a.Bands()[0], 1e-9)
}

func TestReactivity_Apply(t *testing.T) {
	base := params.Defaults()
	r := Reactivity{NoiseStrength: 0.5, HydraStrength: 1, GlitchIntensity: 2}

	p := r.Apply(base, Bands{0.2, 0.3, 9, 0.5})
	assert.InDelta(t, base.NoiseStrength+0.1, p.NoiseStrength, 1e-12)
	assert.InDelta(t, base.HydraStrength+0.3, p.HydraStrength, 1e-12)
	assert.InDelta(t, base.Glitch.Intensity+1, p.Glitch.Intensity, 1e-12)

	loud := r.Apply(base, Bands{100, 100, 100, 100})
	assert.Equal(t, params.NoiseStrengthRange.Max, loud.NoiseStrength)
	assert.Equal(t, params.HydraStrengthRange.Max, loud.HydraStrength)
	assert.Equal(t, params.GlitchIntensityRange.Max, loud.Glitch.Intensity)

	assert.Equal(t, base, Reactivity{}.Apply(base, Bands{1, 1, 1, 1}))
}
