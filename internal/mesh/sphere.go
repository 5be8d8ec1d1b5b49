// Package mesh supplies the undisplaced base geometry the surface pipeline deforms.
package mesh

import (
	"math"

	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
)

// DefaultRadius matches the size of the sphere in the interactive scene.
const DefaultRadius = 1.5

// RestVertex is one vertex of the base mesh. It is never mutated after creation.
type RestVertex struct {
	Position vecmath.Vec3
	Normal   vecmath.Vec3
}

// UVSphere returns the vertex buffer of a UV sphere with (widthSegments+1)*(heightSegments+1)
// vertices, rows running from the north pole (+y) to the south pole. Only vertices are
// produced; index buffers are the renderer's concern.
func UVSphere(radius float64, widthSegments, heightSegments int) []RestVertex {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	verts := make([]RestVertex, 0, (widthSegments+1)*(heightSegments+1))
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		sinPhi, cosPhi := math.Sincos(v * math.Pi)
		if iy == 0 {
			sinPhi, cosPhi = 0, 1
		} else if iy == heightSegments {
			sinPhi, cosPhi = 0, -1
		}

		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			sinTheta, cosTheta := math.Sincos(u * 2 * math.Pi)

			n := vecmath.Vec3{-cosTheta * sinPhi, cosPhi, sinTheta * sinPhi}
			verts = append(verts, RestVertex{
				Position: n.Scale(radius),
				Normal:   n,
			})
		}
	}
	return verts
}
