package framestore

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/hydrasphere/internal/surface"
	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
)

func testFrame(n int, seed float64) []surface.DisplacedVertex {
	verts := make([]surface.DisplacedVertex, n)
	for i := range verts {
		p := vecmath.Vec3{float64(i) * 0.25, seed, -0.5}
		verts[i] = surface.DisplacedVertex{
			Position:           p,
			Normal:             vecmath.Vec3{0, 1, 0},
			DistanceFromCenter: p.Len(),
		}
	}
	return verts
}

func TestWriter_New(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.frames")

	w, err := New(dbPath, Metadata{Name: "Test", VertexCount: 4})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("Database file was not created")
	}

	var count int
	err = w.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='frames'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected frames table to exist, got count=%d", count)
	}

	err = w.db.QueryRow("SELECT COUNT(*) FROM metadata").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query metadata: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 metadata rows, got %d", count)
	}
}

func TestRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "roundtrip.frames")

	meta := Metadata{
		Name:           "orb",
		Description:    "classic preset",
		Params:         "preset=classic&noiseStrength=0.3",
		Version:        "1",
		Radius:         1.5,
		FPS:            24,
		VertexCount:    5,
		WidthSegments:  3,
		HeightSegments: 2,
	}

	w, err := New(dbPath, meta)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	// The writer must not keep references to the caller's slice.
	buf := testFrame(5, 1)
	if err := w.WriteFrame(0, 0, buf); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}
	copy(buf, testFrame(5, 2))
	if err := w.WriteFrame(1, 1.0/24, buf); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	r, err := OpenReader(dbPath)
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	defer r.Close()

	n, err := r.FrameCount()
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 frames, got %d (err=%v)", n, err)
	}

	gotMeta, err := r.Metadata()
	if err != nil {
		t.Fatalf("Failed to read metadata: %v", err)
	}
	if gotMeta != meta {
		t.Errorf("Metadata mismatch:\n got  %+v\n want %+v", gotMeta, meta)
	}

	for i, seed := range []float64{1, 2} {
		f, err := r.ReadFrame(i)
		if err != nil {
			t.Fatalf("Failed to read frame %d: %v", i, err)
		}
		want := testFrame(5, seed)
		if len(f.Vertices) != len(want) {
			t.Fatalf("frame %d: expected %d vertices, got %d", i, len(want), len(f.Vertices))
		}
		for j := range want {
			// float32 storage
			if d := f.Vertices[j].Position.Sub(want[j].Position).Len(); d > 1e-6 {
				t.Errorf("frame %d vertex %d: position off by %g", i, j, d)
			}
			if math.Abs(f.Vertices[j].DistanceFromCenter-want[j].DistanceFromCenter) > 1e-6 {
				t.Errorf("frame %d vertex %d: distance mismatch", i, j)
			}
		}
	}

	_, err = r.ReadFrame(9)
	if !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("Expected ErrFrameNotFound, got %v", err)
	}
}

func TestWriter_BatchFlush(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "batch.frames")

	w, err := New(dbPath, Metadata{Name: "batch"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	for i := 0; i < DefaultBatchSize; i++ {
		if err := w.WriteFrame(i, float64(i), testFrame(2, 0)); err != nil {
			t.Fatalf("Failed to write frame %d: %v", i, err)
		}
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM frames").Scan(&count); err != nil {
		t.Fatalf("Failed to count frames: %v", err)
	}
	if count != DefaultBatchSize {
		t.Errorf("Expected a full batch to be flushed, got %d rows", count)
	}
	if len(w.batch) != 0 {
		t.Errorf("Expected empty batch after flush, got %d", len(w.batch))
	}
}

func TestDecodeVertices_Corrupt(t *testing.T) {
	if _, err := DecodeVertices([]byte("not gzip")); err == nil {
		t.Error("Expected error for non-gzip data")
	}

	data, err := gzipCompress([]byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeVertices(data); err == nil {
		t.Error("Expected error for truncated vertex data")
	}
}

func TestOpenReader_MissingTable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	if err := os.WriteFile(dbPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenReader(dbPath); err == nil {
		t.Error("Expected error for database without frames table")
	}
}
