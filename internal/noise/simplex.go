// Package noise implements the 3D simplex noise field that drives surface displacement.
//
// The construction hashes lattice corners with the permutation polynomial
// mod289((x*34+1)*x) instead of a lookup table, so the field needs no seed and no
// allocation, and evaluates identically on every call.
package noise

import (
	"math"

	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
)

const (
	skew   = 1.0 / 3.0
	unskew = 1.0 / 6.0

	// Gradient ring constants: ns = (2/7, 0.5/7 - 1, 1/7).
	nsX = 2.0 / 7.0
	nsY = 0.5/7.0 - 1.0
	nsZ = 1.0 / 7.0
)

func mod289(x float64) float64 {
	return x - math.Floor(x*(1.0/289.0))*289.0
}

func permute(x float64) float64 {
	return mod289((x*34.0 + 1.0) * x)
}

func taylorInvSqrt(r float64) float64 {
	return 1.79284291400159 - 0.85373472095314*r
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Noise3 evaluates simplex noise at p. The result lies approximately in [-1, 1].
func Noise3(p vecmath.Vec3) float64 {
	x, y, z := p[0], p[1], p[2]

	s := (x + y + z) * skew
	i := math.Floor(x + s)
	j := math.Floor(y + s)
	k := math.Floor(z + s)

	t := (i + j + k) * unskew
	x0 := x - i + t
	y0 := y - j + t
	z0 := z - k + t

	// Simplex traversal order.
	gx := b2f(x0 >= y0)
	gy := b2f(y0 >= z0)
	gz := b2f(z0 >= x0)
	lx, ly, lz := 1-gx, 1-gy, 1-gz

	i1x, i1y, i1z := math.Min(gx, lz), math.Min(gy, lx), math.Min(gz, ly)
	i2x, i2y, i2z := math.Max(gx, lz), math.Max(gy, lx), math.Max(gz, ly)

	corners := [4][3]float64{
		{x0, y0, z0},
		{x0 - i1x + unskew, y0 - i1y + unskew, z0 - i1z + unskew},
		{x0 - i2x + 2*unskew, y0 - i2y + 2*unskew, z0 - i2z + 2*unskew},
		{x0 - 1 + 3*unskew, y0 - 1 + 3*unskew, z0 - 1 + 3*unskew},
	}
	offX := [4]float64{0, i1x, i2x, 1}
	offY := [4]float64{0, i1y, i2y, 1}
	offZ := [4]float64{0, i1z, i2z, 1}

	i = mod289(i)
	j = mod289(j)
	k = mod289(k)

	var sum float64
	for c := 0; c < 4; c++ {
		d := corners[c]
		m := 0.6 - (d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
		if m <= 0 {
			continue
		}

		h := permute(permute(permute(k+offZ[c])+j+offY[c]) + i + offX[c])

		// Map the hash onto a gradient on the surface of an octahedron.
		jj := h - 49.0*math.Floor(h*nsZ*nsZ)
		xr := math.Floor(jj * nsZ)
		yr := math.Floor(jj - 7.0*xr)

		ax := xr*nsX + nsY
		ay := yr*nsX + nsY
		az := 1.0 - math.Abs(ax) - math.Abs(ay)
		if az <= 0 {
			ax -= math.Floor(ax)*2 + 1
			ay -= math.Floor(ay)*2 + 1
		}

		norm := taylorInvSqrt(ax*ax + ay*ay + az*az)
		m *= m
		sum += m * m * norm * (ax*d[0] + ay*d[1] + az*d[2])
	}

	return 42.0 * sum
}
