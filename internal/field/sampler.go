// Package field maps sphere directions onto an externally produced 2D texture
// (the visual-synth output) and reads it back as displacement magnitude.
package field

import (
	"math"

	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
	"github.com/paulmach/orb"
)

// Field is a read-only 2D RGBA sample source addressed by texture coordinates.
type Field interface {
	Sample(u, v float64) vecmath.Vec4
}

// Snapshotter is implemented by fields whose content changes over time.
// Snapshot returns a field that stays fixed for the duration of one frame.
type Snapshotter interface {
	Snapshot() Field
}

// Freeze resolves f to a per-frame snapshot when f supports it.
func Freeze(f Field) Field {
	if s, ok := f.(Snapshotter); ok {
		return s.Snapshot()
	}
	return f
}

// LonLat converts a direction to longitude/latitude in degrees.
// The y axis is up; longitude is measured from +x towards +z.
func LonLat(dir vecmath.Vec3) orb.Point {
	d := dir.Normalize()
	if d.IsZero() {
		return orb.Point{0, 0}
	}
	lon := math.Atan2(d[2], d[0]) * 180 / math.Pi
	lat := math.Asin(vecmath.Clamp(d[1], -1, 1)) * 180 / math.Pi
	return orb.Point{lon, lat}
}

// UV returns the equirectangular texture coordinates of dir. Both lie in [0,1].
// The seam sits on the atan2 branch cut (-x axis) and is not hidden.
func UV(dir vecmath.Vec3) (u, v float64) {
	ll := LonLat(dir)
	return 0.5 + ll.Lon()/360, 0.5 - ll.Lat()/180
}

// SampleDirection samples f along dir. A nil field yields the zero vector.
func SampleDirection(f Field, dir vecmath.Vec3) vecmath.Vec4 {
	if f == nil {
		return vecmath.Vec4{}
	}
	u, v := UV(dir)
	return f.Sample(u, v)
}

// Scalar reduces a sample to brightness by averaging the colour channels.
func Scalar(c vecmath.Vec4) float64 {
	return (c[0] + c[1] + c[2]) / 3
}
