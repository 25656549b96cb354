// Package ingest loads labeled email datasets into a vector index.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mikey/email-fraud-detector/internal/adapters/vectorstore"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// excerptSize bounds the body text kept as sample metadata
const excerptSize = 500

// Record is one labeled email of a dataset
type Record struct {
	Sender   string
	Receiver string
	Date     string
	Subject  string
	Body     string
	URLs     int
	Label    string
}

// Upserter stores datapoints in an index
type Upserter interface {
	Upsert(ctx context.Context, points []vectorstore.Datapoint) error
}

// ReadRecords reads CSV rows with a header line. Columns are matched by name
// and may be missing, except body; rows with an empty body are skipped.
func ReadRecords(r io.Reader) ([]Record, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["body"]; !ok {
		return nil, 0, errors.New("dataset has no body column")
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		records []Record
		skipped int
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		rec := Record{
			Sender:   field(row, "sender"),
			Receiver: field(row, "receiver"),
			Date:     field(row, "date"),
			Subject:  field(row, "subject"),
			Body:     field(row, "body"),
			Label:    field(row, "label"),
		}
		if rec.Body == "" {
			skipped++
			continue
		}
		if n, err := strconv.Atoi(field(row, "urls")); err == nil && n > 0 {
			rec.URLs = n
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// Loader embeds dataset records and upserts them into an index
type Loader struct {
	embedder  core.Embedder
	store     Upserter
	batchSize int
	logger    *zap.Logger
	newID     func() string
}

// NewLoader creates a dataset loader
func NewLoader(embedder core.Embedder, store Upserter, batchSize int, logger *zap.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Loader{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// LoadDir ingests every .csv file of dir in name order and returns the number
// of stored records
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return 0, fmt.Errorf("failed to list datasets: %w", err)
	}
	sort.Strings(files)

	total := 0
	for _, path := range files {
		n, err := l.LoadFile(ctx, path)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// LoadFile ingests one CSV dataset
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	records, skipped, err := ReadRecords(f)
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}

	l.logger.Info("Loaded dataset",
		zap.String("file", path),
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped))

	return l.Load(ctx, records)
}

// Load embeds records in batches and upserts them
func (l *Loader) Load(ctx context.Context, records []Record) (int, error) {
	stored := 0
	for start := 0; start < len(records); start += l.batchSize {
		end := start + l.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Body
		}

		vectors, err := l.embedder.Embed(ctx, texts)
		if err != nil {
			return stored, &core.EmbeddingError{Err: err}
		}
		if len(vectors) != len(batch) {
			return stored, &core.EmbeddingError{Err: fmt.Errorf("got %d vectors for %d records", len(vectors), len(batch))}
		}

		points := make([]vectorstore.Datapoint, len(batch))
		for i, rec := range batch {
			points[i] = vectorstore.Datapoint{
				ID:       l.newID(),
				Vector:   vectors[i],
				Metadata: rec.Metadata(),
			}
		}

		if err := l.store.Upsert(ctx, points); err != nil {
			return stored, fmt.Errorf("failed to store datapoints: %w", err)
		}
		stored += len(points)

		l.logger.Debug("Stored batch", zap.Int("stored", stored), zap.Int("total", len(records)))
	}
	return stored, nil
}

// Metadata returns the match metadata stored with the record
func (r Record) Metadata() core.MatchMetadata {
	return core.MatchMetadata{
		Sender:      r.Sender,
		Subject:     r.Subject,
		Label:       r.Label,
		URLCount:    r.URLs,
		BodyExcerpt: utils.Excerpt(r.Body, excerptSize),
	}
}
