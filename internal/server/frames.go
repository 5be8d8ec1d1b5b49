package server

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/MeKo-Tech/hydrasphere/internal/framestore"
	"github.com/MeKo-Tech/hydrasphere/internal/surface"
)

// binaryHeaderSize is the vertex count (uint32) followed by the frame time (float32).
const binaryHeaderSize = 8

// frameJSON is the JSON form of a frame. Arrays are flat, three values per vertex
// for positions and normals, ready for GPU buffers.
type frameJSON struct {
	Time      float64   `json:"time"`
	Vertices  int       `json:"vertices"`
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	Distances []float32 `json:"distances"`
}

func newFrameJSON(t float64, verts []surface.DisplacedVertex) frameJSON {
	f := frameJSON{
		Time:      t,
		Vertices:  len(verts),
		Positions: make([]float32, 0, 3*len(verts)),
		Normals:   make([]float32, 0, 3*len(verts)),
		Distances: make([]float32, 0, len(verts)),
	}
	for _, v := range verts {
		f.Positions = append(f.Positions, float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2]))
		f.Normals = append(f.Normals, float32(v.Normal[0]), float32(v.Normal[1]), float32(v.Normal[2]))
		f.Distances = append(f.Distances, float32(v.DistanceFromCenter))
	}
	return f
}

// encodeBinaryFrame prefixes the packed vertex data with a small header.
func encodeBinaryFrame(t float64, verts []surface.DisplacedVertex) []byte {
	out := make([]byte, binaryHeaderSize, binaryHeaderSize+len(verts)*28)
	binary.LittleEndian.PutUint32(out[0:], uint32(len(verts)))
	binary.LittleEndian.PutUint32(out[4:], math.Float32bits(float32(t)))
	return append(out, framestore.PackVertices(verts)...)
}

func decodeBinaryFrame(data []byte) (float64, []surface.DisplacedVertex, error) {
	if len(data) < binaryHeaderSize {
		return 0, nil, fmt.Errorf("frame too short: %d bytes", len(data))
	}
	n := int(binary.LittleEndian.Uint32(data[0:]))
	t := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4:])))

	verts, err := framestore.UnpackVertices(data[binaryHeaderSize:])
	if err != nil {
		return 0, nil, err
	}
	if len(verts) != n {
		return 0, nil, fmt.Errorf("header announces %d vertices, got %d", n, len(verts))
	}
	return t, verts, nil
}

// WriteFrame writes verts in the named wire format, "json" or "bin".
func WriteFrame(w io.Writer, format string, t float64, verts []surface.DisplacedVertex) error {
	switch format {
	case "bin":
		_, err := w.Write(encodeBinaryFrame(t, verts))
		return err
	case "json", "":
		return json.NewEncoder(w).Encode(newFrameJSON(t, verts))
	default:
		return fmt.Errorf("unknown frame format %q (want json or bin)", format)
	}
}
