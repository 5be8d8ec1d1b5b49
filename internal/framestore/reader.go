package framestore

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrFrameNotFound is returned by ReadFrame for missing indexes.
var ErrFrameNotFound = errors.New("frame not found")

// Reader reads frames from a frame store database.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens a frame store database for reading.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='frames'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain frames table")
	}

	return &Reader{
		db:   db,
		path: path,
	}, nil
}

// ReadFrame reads and decodes the frame with the given index.
func (r *Reader) ReadFrame(index int) (Frame, error) {
	var (
		t           float64
		vertexCount int
		data        []byte
	)
	err := r.db.QueryRow(
		"SELECT time, vertex_count, frame_data FROM frames WHERE frame_index=?",
		index,
	).Scan(&t, &vertexCount, &data)

	if errors.Is(err, sql.ErrNoRows) {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameNotFound, index)
	}
	if err != nil {
		return Frame{}, fmt.Errorf("failed to query frame: %w", err)
	}

	verts, err := DecodeVertices(data)
	if err != nil {
		return Frame{}, fmt.Errorf("frame %d: %w", index, err)
	}
	if len(verts) != vertexCount {
		return Frame{}, fmt.Errorf("frame %d: expected %d vertices, decoded %d", index, vertexCount, len(verts))
	}

	return Frame{Index: index, Time: t, Vertices: verts}, nil
}

// FrameCount returns the number of stored frames.
func (r *Reader) FrameCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM frames").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count frames: %w", err)
	}
	return count, nil
}

// Metadata reads metadata from the database.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		values[name] = value
	}

	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("error iterating metadata: %w", err)
	}

	return metadataFromMap(values), nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
