// Package glitch produces blocky, time-quantized vertex offsets.
//
// Space is cut into a grid; each cell flips between pseudo-random states on a fixed
// cadence and the offset is smoothly interpolated between the current and the next state.
// Nothing is stored: the offset is a pure function of position, time and parameters.
package glitch

import (
	"math"

	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
)

// Params configures the modulator.
type Params struct {
	Enabled    bool
	Intensity  float64
	Grid       float64 // cells per unit
	Speed      float64
	Randomness float64 // share of cells glitching per state, 0..1
}

var cellSeed = vecmath.Vec3{12.9898, 78.233, 45.164}

// Hash is the trig-based pseudo-random hash used for cell and state identities.
func Hash(x float64) float64 {
	return vecmath.Fract(math.Sin(x) * 43758.5453)
}

// CellHash returns the stable identity of the grid cell containing p.
func CellHash(p vecmath.Vec3, grid float64) float64 {
	cell := p.Scale(grid).Floor().Scale(1 / grid)
	return Hash(cell.Dot(cellSeed))
}

// Offset returns the glitch displacement for a rest position at time.
// Disabled modulators, zero intensity or an empty grid give the zero vector.
func Offset(rest vecmath.Vec3, time float64, p Params) vecmath.Vec3 {
	if !p.Enabled || p.Intensity == 0 || p.Grid <= 0 {
		return vecmath.Vec3{}
	}

	cellHash := CellHash(rest, p.Grid)

	glitchTime := time * p.Speed * 2
	state0 := math.Floor(glitchTime)
	transition := vecmath.Smoothstep(0, 1, vecmath.Fract(glitchTime))

	threshold := 1 - p.Randomness
	current := stateOffset(state0, cellHash, threshold, p.Intensity)
	next := stateOffset(state0+1, cellHash, threshold, p.Intensity)

	return vecmath.MixVec3(current, next, transition)
}

// stateOffset is the single-axis offset of one cell in one discrete state.
func stateOffset(state, cellHash, threshold, intensity float64) vecmath.Vec3 {
	var off vecmath.Vec3
	if Hash(state+cellHash*100) <= threshold {
		return off
	}

	axis := vecmath.Fract(cellHash*7 + state)
	switch {
	case axis < 0.33:
		off[0] = (vecmath.Fract(cellHash*3+state) - 0.5) * intensity
	case axis < 0.66:
		off[1] = (vecmath.Fract(cellHash*5+state) - 0.5) * intensity
	default:
		off[2] = (vecmath.Fract(cellHash*11+state) - 0.5) * intensity
	}
	return off
}
