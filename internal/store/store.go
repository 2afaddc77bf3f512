package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"cortex/internal/domain"
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteStore implements domain.Store backed by SQLite + sqlite-vec. The
// vec0 virtual table is configured for cosine distance, so similarity is
// 1 - distance and lands in [-1, 1].
type SQLiteStore struct {
	db  *sql.DB
	dim int
}

var _ domain.Store = (*SQLiteStore)(nil)

// Open creates or opens a SQLite database at the given path and initializes
// the schema for the given embedding dimension.
func Open(dbPath string, dim int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db, dim); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, dim: dim}, nil
}

// Dimension returns the embedding dimension the store was opened with.
func (s *SQLiteStore) Dimension() int { return s.dim }

// InsertChunks creates the source row and all chunk rows in one transaction.
// Either every chunk for the document becomes visible or none do.
func (s *SQLiteStore) InsertChunks(path string, meta domain.SourceMeta, pairs []domain.ChunkVector, replaceExisting bool) (domain.IngestResult, error) {
	var res domain.IngestResult

	for i, p := range pairs {
		if len(p.Vector) != s.dim {
			return res, fmt.Errorf("%w: chunk %d has %d dims, store expects %d",
				domain.ErrDimensionMismatch, i, len(p.Vector), s.dim)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	var sourceID int64
	err = tx.QueryRow("SELECT id FROM sources WHERE path = ?", path).Scan(&sourceID)
	switch {
	case err == nil:
		if !replaceExisting {
			return res, fmt.Errorf("%w: %s", domain.ErrDuplicateSource, path)
		}
		if err := deleteChunksTx(tx, sourceID); err != nil {
			return res, err
		}
		_, err = tx.Exec(
			"UPDATE sources SET name = ?, mime = ?, workspace = ?, size_bytes = ?, created_at = CURRENT_TIMESTAMP WHERE id = ?",
			sourceName(meta, path), meta.MIME, meta.Workspace, meta.SizeBytes, sourceID,
		)
		if err != nil {
			return res, err
		}
		res.Replaced = true

	case errors.Is(err, sql.ErrNoRows):
		r, err := tx.Exec(
			"INSERT INTO sources (path, name, mime, workspace, size_bytes) VALUES (?, ?, ?, ?, ?)",
			path, sourceName(meta, path), meta.MIME, meta.Workspace, meta.SizeBytes,
		)
		if err != nil {
			return res, err
		}
		sourceID, err = r.LastInsertId()
		if err != nil {
			return res, err
		}

	default:
		return res, err
	}

	chunkStmt, err := tx.Prepare("INSERT INTO chunks (source_id, content) VALUES (?, ?)")
	if err != nil {
		return res, err
	}
	defer chunkStmt.Close()

	vecStmt, err := tx.Prepare("INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)")
	if err != nil {
		return res, err
	}
	defer vecStmt.Close()

	for _, p := range pairs {
		r, err := chunkStmt.Exec(sourceID, p.Text)
		if err != nil {
			return res, fmt.Errorf("insert chunk for %s: %w", path, err)
		}
		chunkID, err := r.LastInsertId()
		if err != nil {
			return res, err
		}
		blob, err := sqlite_vec.SerializeFloat32(p.Vector)
		if err != nil {
			return res, fmt.Errorf("serialize embedding for chunk %d: %w", chunkID, err)
		}
		if _, err := vecStmt.Exec(chunkID, blob); err != nil {
			return res, fmt.Errorf("insert embedding for chunk %d: %w", chunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return res, err
	}

	res.SourceID = sourceID
	res.Path = path
	res.ChunkCount = len(pairs)
	return res, nil
}

// Search finds chunks with cosine similarity >= minSimilarity against
// queryVec, descending by similarity, ties broken by most recent created_at.
// Workspace filtering happens after the KNN pass, so the store overfetches
// when a workspace is set; a very uneven workspace distribution can reduce
// recall within the overfetch window.
func (s *SQLiteStore) Search(queryVec []float32, workspace string, limit int, minSimilarity float64) ([]domain.RetrievalResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	if len(queryVec) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dims, store expects %d",
			domain.ErrDimensionMismatch, len(queryVec), s.dim)
	}

	blob, err := sqlite_vec.SerializeFloat32(queryVec)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	fetch := limit
	if workspace != "" {
		fetch = limit * 4
		if fetch < 64 {
			fetch = 64
		}
	}

	rows, err := s.db.Query(`
		SELECT v.chunk_id, v.distance, c.content, c.created_at, src.path, src.workspace
		FROM (
			SELECT chunk_id, distance
			FROM vec_chunks
			WHERE embedding MATCH ?
			ORDER BY distance
			LIMIT ?
		) v
		JOIN chunks c ON c.id = v.chunk_id
		JOIN sources src ON src.id = c.source_id
		ORDER BY v.distance, c.created_at DESC
	`, blob, fetch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.RetrievalResult
	for rows.Next() {
		var r domain.RetrievalResult
		var distance float64
		var ws string
		if err := rows.Scan(&r.ChunkID, &distance, &r.Snippet, &r.CreatedAt, &r.SourcePath, &ws); err != nil {
			return nil, err
		}
		if workspace != "" && ws != workspace {
			continue
		}
		r.Similarity = 1 - distance
		if r.Similarity < minSimilarity {
			// Results arrive in descending similarity; nothing later can pass.
			break
		}
		results = append(results, r)
		if len(results) == limit {
			break
		}
	}
	return results, rows.Err()
}

// DeleteSource removes the source and cascades chunk deletion atomically.
// It returns false when the path was not ingested.
func (s *SQLiteStore) DeleteSource(path string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var sourceID int64
	err = tx.QueryRow("SELECT id FROM sources WHERE path = ?", path).Scan(&sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := deleteChunksTx(tx, sourceID); err != nil {
		return false, err
	}
	if _, err := tx.Exec("DELETE FROM sources WHERE id = ?", sourceID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// GetChunkByID returns a single chunk without a similarity score.
func (s *SQLiteStore) GetChunkByID(id int64) (domain.RetrievalResult, error) {
	var r domain.RetrievalResult
	err := s.db.QueryRow(`
		SELECT c.id, c.content, c.created_at, src.path
		FROM chunks c
		JOIN sources src ON src.id = c.source_id
		WHERE c.id = ?
	`, id).Scan(&r.ChunkID, &r.Snippet, &r.CreatedAt, &r.SourcePath)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: chunk %d", domain.ErrNotFound, id)
	}
	return r, err
}

// ListSources returns ingested sources with chunk counts, newest first. An
// empty workspace matches all sources.
func (s *SQLiteStore) ListSources(workspace string) ([]domain.SourceFile, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.path, s.name, s.mime, s.workspace, s.size_bytes, s.created_at, COUNT(c.id)
		FROM sources s
		LEFT JOIN chunks c ON c.source_id = s.id
		WHERE ? = '' OR s.workspace = ?
		GROUP BY s.id
		ORDER BY s.created_at DESC, s.id DESC
	`, workspace, workspace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []domain.SourceFile
	for rows.Next() {
		var sf domain.SourceFile
		if err := rows.Scan(&sf.ID, &sf.Path, &sf.Name, &sf.MIME, &sf.Workspace, &sf.SizeBytes, &sf.CreatedAt, &sf.ChunkCount); err != nil {
			return nil, err
		}
		sources = append(sources, sf)
	}
	return sources, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// deleteChunksTx removes all chunk and embedding rows for a source inside an
// open transaction. The vec0 virtual table has no foreign keys, so its rows
// go one by one like the chunk rows they mirror.
func deleteChunksTx(tx *sql.Tx, sourceID int64) error {
	rows, err := tx.Query("SELECT id FROM chunks WHERE source_id = ?", sourceID)
	if err != nil {
		return err
	}
	var chunkIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		chunkIDs = append(chunkIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range chunkIDs {
		if _, err := tx.Exec("DELETE FROM vec_chunks WHERE chunk_id = ?", id); err != nil {
			return err
		}
	}
	_, err = tx.Exec("DELETE FROM chunks WHERE source_id = ?", sourceID)
	return err
}

func sourceName(meta domain.SourceMeta, path string) string {
	if meta.Name != "" {
		return meta.Name
	}
	return filepath.Base(path)
}
