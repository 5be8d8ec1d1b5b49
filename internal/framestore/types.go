// Package framestore stores baked surface frames in a SQLite database.
package framestore

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/MeKo-Tech/hydrasphere/internal/surface"
	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
)

// floatsPerVertex is position (3), normal (3) and distance from centre.
const floatsPerVertex = 7

// Metadata describes how a frame sequence was produced.
type Metadata struct {
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Params         string  `json:"params,omitempty"` // parameter query string
	Version        string  `json:"version,omitempty"`
	Radius         float64 `json:"radius"`
	FPS            float64 `json:"fps"`
	VertexCount    int     `json:"vertex_count"`
	WidthSegments  int     `json:"width_segments"`
	HeightSegments int     `json:"height_segments"`
}

// Frame is one stored frame.
type Frame struct {
	Vertices []surface.DisplacedVertex
	Time     float64
	Index    int
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Params != "" {
		result["params"] = m.Params
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	if m.Radius > 0 {
		result["radius"] = strconv.FormatFloat(m.Radius, 'g', -1, 64)
	}
	if m.FPS > 0 {
		result["fps"] = strconv.FormatFloat(m.FPS, 'g', -1, 64)
	}
	if m.VertexCount > 0 {
		result["vertex_count"] = strconv.Itoa(m.VertexCount)
	}
	if m.WidthSegments > 0 {
		result["width_segments"] = strconv.Itoa(m.WidthSegments)
	}
	if m.HeightSegments > 0 {
		result["height_segments"] = strconv.Itoa(m.HeightSegments)
	}

	return result
}

func metadataFromMap(values map[string]string) Metadata {
	meta := Metadata{
		Name:        values["name"],
		Description: values["description"],
		Params:      values["params"],
		Version:     values["version"],
	}

	parseFloat := func(key string) float64 {
		f, _ := strconv.ParseFloat(values[key], 64)
		return f
	}
	parseInt := func(key string) int {
		i, _ := strconv.Atoi(values[key])
		return i
	}

	meta.Radius = parseFloat("radius")
	meta.FPS = parseFloat("fps")
	meta.VertexCount = parseInt("vertex_count")
	meta.WidthSegments = parseInt("width_segments")
	meta.HeightSegments = parseInt("height_segments")
	return meta
}

// PackVertices lays vertices out as little-endian float32, seven values per vertex:
// position, normal and distance from centre.
func PackVertices(verts []surface.DisplacedVertex) []byte {
	raw := make([]byte, 0, len(verts)*floatsPerVertex*4)
	for _, v := range verts {
		for _, f := range [floatsPerVertex]float64{
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.DistanceFromCenter,
		} {
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(float32(f)))
		}
	}
	return raw
}

// UnpackVertices reverses PackVertices.
func UnpackVertices(raw []byte) ([]surface.DisplacedVertex, error) {
	if len(raw)%(floatsPerVertex*4) != 0 {
		return nil, fmt.Errorf("frame data has %d bytes, not a multiple of %d", len(raw), floatsPerVertex*4)
	}

	verts := make([]surface.DisplacedVertex, len(raw)/(floatsPerVertex*4))
	for i := range verts {
		var f [floatsPerVertex]float64
		for j := range f {
			off := (i*floatsPerVertex + j) * 4
			f[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
		}
		verts[i].Position = vecmath.Vec3{f[0], f[1], f[2]}
		verts[i].Normal = vecmath.Vec3{f[3], f[4], f[5]}
		verts[i].DistanceFromCenter = f[6]
	}
	return verts, nil
}

// EncodeVertices packs and gzips vertices for storage.
func EncodeVertices(verts []surface.DisplacedVertex) ([]byte, error) {
	return gzipCompress(PackVertices(verts))
}

// DecodeVertices reverses EncodeVertices.
func DecodeVertices(data []byte) ([]surface.DisplacedVertex, error) {
	raw, err := gzipDecompress(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress frame: %w", err)
	}
	return UnpackVertices(raw)
}

// gzipCompress compresses data with gzip.
func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}

	if err := gw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// gzipDecompress decompresses gzip data.
func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
