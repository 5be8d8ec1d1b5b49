package synth

import (
	"math"

	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
)

// st is a texture coordinate with the origin at the bottom left.
type st [2]float64

// The functions below follow the live-coding synth's GLSL sources so the sketches
// look the same as their browser counterparts.

func osc(p st, freq, sync, offset, t float64) vecmath.Vec4 {
	r := math.Sin((p[0]-offset/freq+t*sync)*freq)*0.5 + 0.5
	g := math.Sin((p[0]+t*sync)*freq)*0.5 + 0.5
	b := math.Sin((p[0]+offset/freq+t*sync)*freq)*0.5 + 0.5
	return vecmath.Vec4{r, g, b, 1}
}

func rotate(p st, angle float64) st {
	x, y := p[0]-0.5, p[1]-0.5
	s, c := math.Sincos(angle)
	return st{x*c - y*s + 0.5, x*s + y*c + 0.5}
}

func kaleid(p st, sides float64) st {
	x, y := p[0]-0.5, p[1]-0.5
	r := math.Hypot(x, y)
	seg := 2 * math.Pi / sides
	a := math.Mod(math.Atan2(y, x), seg)
	if a < 0 {
		a += seg
	}
	a = math.Abs(a - seg/2)
	return st{r * math.Cos(a), r * math.Sin(a)}
}

func modulate(p st, c vecmath.Vec4, amount float64) st {
	return st{p[0] + c[0]*amount, p[1] + c[1]*amount}
}

func luminance(c vecmath.Vec4) float64 {
	return c[0]*0.2126 + c[1]*0.7152 + c[2]*0.0722
}

func thresh(c vecmath.Vec4, threshold, tolerance float64) vecmath.Vec4 {
	v := vecmath.Smoothstep(threshold-tolerance, threshold+tolerance, luminance(c))
	return vecmath.Vec4{v, v, v, c[3]}
}

func mult(a, b vecmath.Vec4, amount float64) vecmath.Vec4 {
	var out vecmath.Vec4
	for i := range out {
		out[i] = a[i]*(1-amount) + a[i]*b[i]*amount
	}
	return out
}

func gradient(p st, speed, t float64) vecmath.Vec4 {
	return vecmath.Vec4{p[0], p[1], math.Sin(t * speed), 1}
}

func voronoi(p st, scale, speed, blending, t float64) vecmath.Vec4 {
	x, y := p[0]*scale, p[1]*scale
	ix, iy := math.Floor(x), math.Floor(y)
	fx, fy := x-ix, y-iy

	minDist := 10.0
	var mx, my float64
	for j := -1.0; j <= 1; j++ {
		for i := -1.0; i <= 1; i++ {
			cx, cy := ix+i, iy+j
			px := vecmath.Fract(math.Sin(cx*127.1+cy*311.7) * 43758.5453)
			py := vecmath.Fract(math.Sin(cx*269.5+cy*183.3) * 43758.5453)
			px = 0.5 + 0.5*math.Sin(t*speed+2*math.Pi*px)
			py = 0.5 + 0.5*math.Sin(t*speed+2*math.Pi*py)

			if d := math.Hypot(i+px-fx, j+py-fy); d < minDist {
				minDist, mx, my = d, px, py
			}
		}
	}

	v := (mx*0.3 + my*0.6) * (1 - blending*minDist)
	return vecmath.Vec4{v, v, v, 1}
}
