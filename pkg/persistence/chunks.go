package persistence

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// Chunk is one indexed document span with its embedding vector.
type Chunk struct {
	ProjectID int64
	Index     int
	Content   string
	Embedding []float32
}

// GetChunks returns a project's indexed chunks ordered by chunk index.
// Returns ErrNoContent when the project has no indexed chunks.
func (s *Store) GetChunks(ctx context.Context, projectID int64) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_index, content, embedding FROM document_chunks
		 WHERE project_id = ? ORDER BY chunk_index`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks for project %d: %w", projectID, err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		if err := rows.Scan(&c.Index, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.ProjectID = projectID
		c.Embedding, err = decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %d of project %d: %w", c.Index, projectID, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}
	return chunks, nil
}

// PutChunks replaces the full chunk set for a project in one transaction.
// The delete and inserts commit atomically, so concurrent ingestions for the
// same project serialize and readers never observe a partial set.
func (s *Store) PutChunks(ctx context.Context, projectID int64, chunks []Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("refusing to store empty chunk set for project %d", projectID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_chunks WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear chunks for project %d: %w", projectID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO document_chunks (project_id, chunk_index, content, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		if _, err := stmt.ExecContext(ctx, projectID, c.Index, c.Content, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk replacement: %w", err)
	}

	s.logger.Debug("Replaced chunk index for project %d: %d chunks", projectID, len(chunks))
	return nil
}

// CountChunks returns the number of indexed chunks for a project.
func (s *Store) CountChunks(ctx context.Context, projectID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE project_id = ?`, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks for project %d: %w", projectID, err)
	}
	return n, nil
}

// encodeVector packs a float32 vector into a little-endian blob.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian blob into a float32 vector.
func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}
