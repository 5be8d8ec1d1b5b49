package mesh

import (
	"testing"

	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUVSphere_Layout(t *testing.T) {
	verts := UVSphere(DefaultRadius, 16, 8)
	require.Len(t, verts, 17*9)

	for _, v := range verts {
		assert.InDelta(t, DefaultRadius, v.Position.Len(), 1e-9)
		assert.InDelta(t, 1.0, v.Normal.Len(), 1e-9)
		assert.InDelta(t, 1.0, v.Position.Normalize().Dot(v.Normal), 1e-9)
	}

	// Pole rows collapse exactly onto the axis.
	assert.InDelta(t, 0, verts[0].Normal.Sub(vecmath.Vec3{0, 1, 0}).Len(), 1e-15)
	assert.InDelta(t, 0, verts[len(verts)-1].Normal.Sub(vecmath.Vec3{0, -1, 0}).Len(), 1e-15)
}

func TestUVSphere_MinimumSegments(t *testing.T) {
	assert.Len(t, UVSphere(1, 0, 0), 4*3)
}
