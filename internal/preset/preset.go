// Package preset holds the catalogue of displacement presets applied to the sphere surface.
package preset

import (
	"math"
	"strings"

	"github.com/MeKo-Tech/hydrasphere/internal/noise"
	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
)

// ID identifies a displacement preset.
type ID int

const (
	Classic ID = iota
	Twister
	TravelingWaves
	Bubbles
	Waves
	Spiky
	Turbulence
)

var names = [...]string{
	Classic:        "classic",
	Twister:        "twister",
	TravelingWaves: "traveling_waves",
	Bubbles:        "bubbles",
	Waves:          "waves",
	Spiky:          "spiky",
	Turbulence:     "turbulence",
}

// All lists every preset in catalogue order.
func All() []ID {
	return []ID{Classic, Twister, TravelingWaves, Bubbles, Waves, Spiky, Turbulence}
}

// String returns the preset key. Unknown values report as classic.
func (id ID) String() string {
	if id < 0 || int(id) >= len(names) {
		return names[Classic]
	}
	return names[id]
}

// Parse resolves a preset key. Unknown keys fall back to Classic.
func Parse(s string) ID {
	key := strings.ToLower(strings.TrimSpace(s))
	for id, name := range names {
		if name == key {
			return ID(id)
		}
	}
	return Classic
}

// Apply displaces rest according to the preset. t is the animated time
// (wall time scaled by the animation speed). A zero amplitude returns rest unchanged.
func Apply(id ID, rest vecmath.Vec3, t, frequency, amplitude float64, normal vecmath.Vec3) vecmath.Vec3 {
	if amplitude == 0 {
		return rest
	}

	switch id {
	case Twister:
		return twister(rest, t, frequency, amplitude, normal)
	case TravelingWaves:
		return travelingWaves(rest, t, frequency, amplitude, normal)
	case Bubbles:
		return bubbles(rest, t, frequency, amplitude, normal)
	case Waves:
		return waves(rest, t, frequency, amplitude, normal)
	case Spiky:
		return spiky(rest, t, frequency, amplitude, normal)
	case Turbulence:
		return turbulence(rest, t, frequency, amplitude, normal)
	default:
		return classic(rest, t, frequency, amplitude, normal)
	}
}

// noisePos scales p by f and shifts the x axis by t.
func noisePos(p vecmath.Vec3, f, t float64) vecmath.Vec3 {
	return vecmath.Vec3{p[0]*f + t, p[1] * f, p[2] * f}
}

func classic(p vecmath.Vec3, t, f, amp float64, n vecmath.Vec3) vecmath.Vec3 {
	return p.Add(n.Scale(noise.Noise3(noisePos(p, f, t)) * amp))
}

func rotateY(v vecmath.Vec3, angle float64) vecmath.Vec3 {
	s, c := math.Sincos(angle)
	return vecmath.Vec3{v[0]*c + v[2]*s, v[1], -v[0]*s + v[2]*c}
}

func twister(p vecmath.Vec3, t, f, amp float64, n vecmath.Vec3) vecmath.Vec3 {
	angle := amp * p[1] * f * (1 + 0.5*math.Sin(t))
	rp := rotateY(p, angle)
	rn := rotateY(n, angle)
	d := noise.Noise3(noisePos(rp, f, t)) * amp * 0.5
	return rp.Add(rn.Scale(d))
}

func travelingWaves(p vecmath.Vec3, t, f, amp float64, n vecmath.Vec3) vecmath.Vec3 {
	primary := math.Sin(p[1]*f*3 - t*2)
	cross := math.Sin(p[0]*f*2 + t*1.3)
	d := (primary*0.8 + cross*0.2) * amp
	return p.Add(n.Scale(d))
}

func bubbles(p vecmath.Vec3, t, f, amp float64, n vecmath.Vec3) vecmath.Vec3 {
	large := math.Abs(noise.Noise3(noisePos(p, f*0.5, t*0.5)))
	small := math.Abs(noise.Noise3(noisePos(p, f, t)))
	d := (0.66*large + 0.34*small) * amp
	return p.Add(n.Scale(d))
}

// waves works in spherical coordinates: ripples along longitude and latitude.
func waves(p vecmath.Vec3, t, f, amp float64, n vecmath.Vec3) vecmath.Vec3 {
	r := p.Len()
	var theta, phi float64
	if r > 1e-12 {
		theta = math.Atan2(p[2], p[0])
		phi = math.Acos(vecmath.Clamp(p[1]/r, -1, 1))
	}
	lobes := math.Max(1, math.Round(f*4))
	w := math.Sin(theta*lobes+t) * math.Sin(phi*f*3-t*0.5)
	d := (w*0.7 + noise.Noise3(noisePos(p, f, t))*0.3) * amp
	return p.Add(n.Scale(d))
}

func spiky(p vecmath.Vec3, t, f, amp float64, n vecmath.Vec3) vecmath.Vec3 {
	ridge := 1 - math.Abs(noise.Noise3(noisePos(p, f*2, t)))
	ridge = ridge * ridge
	ridge = ridge * ridge
	return p.Add(n.Scale(ridge * amp))
}

func turbulence(p vecmath.Vec3, t, f, amp float64, n vecmath.Vec3) vecmath.Vec3 {
	var sum, norm float64
	a, freq := 1.0, f
	for o := 0; o < 4; o++ {
		sum += a * math.Abs(noise.Noise3(noisePos(p, freq, t)))
		norm += a
		a *= 0.5
		freq *= 2
	}
	envelope := 0.5 + 0.5*noise.Noise3(noisePos(p, f*0.25, t*0.25))
	d := (sum / norm) * envelope * amp
	return p.Add(n.Scale(d))
}
