// Package audio turns loudness spectra into four smoothed bands and maps them onto
// synthesis parameters.
package audio

import (
	"sync"

	"github.com/MeKo-Tech/hydrasphere/internal/params"
)

// NumBands is the number of frequency bands tracked by an Analyzer.
const NumBands = 4

const (
	// keep is the weight of the previous band value.
	keep = 0.4
	// gain normalises a bin sum before smoothing.
	gain = 10
)

// Bands holds the smoothed band magnitudes, lowest band first.
type Bands [NumBands]float64

// Analyzer reduces per-frame loudness spectra (one value per bark band) to four
// smoothed bands.
// It is safe for concurrent use.
type Analyzer struct {
	bands Bands
	mu    sync.Mutex
}

// NewAnalyzer returns an analyzer with all bands at zero.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Push folds one spectrum into the bands and returns the new values.
// The spectrum is split into four equal bins; leftover values at the end are ignored.
func (a *Analyzer) Push(specific []float64) Bands {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Shorter spectra give empty bins and the bands decay.
	binSize := len(specific) / NumBands
	for i := range a.bands {
		var sum float64
		for _, v := range specific[i*binSize : (i+1)*binSize] {
			sum += v
		}
		a.bands[i] = a.bands[i]*keep + (sum/gain)*(1-keep)
	}
	return a.bands
}

// Bands returns the current band values.
func (a *Analyzer) Bands() Bands {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bands
}

// Reset zeroes all bands.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	a.bands = Bands{}
	a.mu.Unlock()
}

// Reactivity maps bands onto parameters. Each field is the gain of one band:
// bass drives noise strength, low-mids drive field strength and highs drive glitch intensity.
type Reactivity struct {
	NoiseStrength   float64 `mapstructure:"noise_strength"`
	HydraStrength   float64 `mapstructure:"hydra_strength"`
	GlitchIntensity float64 `mapstructure:"glitch_intensity"`
}

// DefaultReactivity returns gains that keep a loud signal within the parameter ranges.
func DefaultReactivity() Reactivity {
	return Reactivity{NoiseStrength: 0.5, HydraStrength: 0.5, GlitchIntensity: 1}
}

// Apply returns p with the band contributions added and clamped.
func (r Reactivity) Apply(p params.Parameters, b Bands) params.Parameters {
	p.NoiseStrength += b[0] * r.NoiseStrength
	p.HydraStrength += b[1] * r.HydraStrength
	p.Glitch.Intensity += b[3] * r.GlitchIntensity
	return p.Clamp()
}
