package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/email-fraud-detector/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the VectorIndex interface. Queries
// scan every stored vector.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens or creates the index database
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS email_vectors (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			vector BLOB NOT NULL,
			metadata TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Upsert stores datapoints. An existing ID keeps its insertion position.
func (s *SQLiteStore) Upsert(ctx context.Context, points []Datapoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO email_vectors (id, vector, metadata)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vector = excluded.vector,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		meta, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata of %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, encodeVector(p.Vector), string(meta)); err != nil {
			return fmt.Errorf("failed to upsert datapoint %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit datapoints: %w", err)
	}

	s.logger.Debug("Upserted datapoints", zap.Int("count", len(points)))
	return nil
}

// Query returns up to k nearest datapoints by cosine distance
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, k int) ([]core.SimilarityMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vector, metadata FROM email_vectors ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var points []Datapoint
	for rows.Next() {
		var (
			p    Datapoint
			blob []byte
			meta string
		)
		if err := rows.Scan(&p.ID, &blob, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		p.Vector = decodeVector(blob)
		if err := json.Unmarshal([]byte(meta), &p.Metadata); err != nil {
			s.logger.Warn("Skipping datapoint with unreadable metadata", zap.String("id", p.ID), zap.Error(err))
			continue
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vectors: %w", err)
	}

	return rank(points, vector, k), nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}
