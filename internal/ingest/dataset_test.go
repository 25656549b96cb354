package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/email-fraud-detector/internal/adapters/vectorstore"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleCSV = `Sender,Receiver,Date,Subject,Body,URLs,Label
alerts@bank.example,you@example.org,2024-01-01,Verify,"Your account is locked, verify now",1,phishing
news@shop.example,you@example.org,2024-01-02,Deals,Weekly deals inside,0,legitimate
nobody@example.org,you@example.org,2024-01-03,Empty,,0,legitimate
`

type countingEmbedder struct {
	batches [][]string
	err     error
	short   bool
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.batches = append(e.batches, texts)
	n := len(texts)
	if e.short {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{float32(len(texts[i])), 1}
	}
	return vectors, nil
}

type failingStore struct{}

func (failingStore) Upsert(context.Context, []vectorstore.Datapoint) error {
	return errors.New("disk full")
}

func sequentialIDs(l *Loader) {
	n := 0
	l.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestReadRecords(t *testing.T) {
	records, skipped, err := ReadRecords(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, Record{
		Sender:   "alerts@bank.example",
		Receiver: "you@example.org",
		Date:     "2024-01-01",
		Subject:  "Verify",
		Body:     "Your account is locked, verify now",
		URLs:     1,
		Label:    "phishing",
	}, records[0])
	assert.Equal(t, "legitimate", records[1].Label)
}

func TestReadRecords_MinimalColumns(t *testing.T) {
	records, _, err := ReadRecords(strings.NewReader("BODY\nhello there\n"))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "hello there", records[0].Body)
	assert.Empty(t, records[0].Label)
}

func TestReadRecords_Errors(t *testing.T) {
	_, _, err := ReadRecords(strings.NewReader("sender,subject\na,b\n"))
	assert.ErrorContains(t, err, "no body column")

	records, skipped, err := ReadRecords(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, skipped)
}

func TestLoad_BatchesAndMetadata(t *testing.T) {
	embedder := &countingEmbedder{}
	store := vectorstore.NewMemoryStore()
	loader := NewLoader(embedder, store, 2, zap.NewNop())
	sequentialIDs(loader)

	records := []Record{
		{Body: "one", Label: "phishing", URLs: 2},
		{Body: "two"},
		{Body: strings.Repeat("x ", 400), Sender: "s@example.org"},
	}
	stored, err := loader.Load(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 3, stored)
	assert.Equal(t, 3, store.Len())
	require.Len(t, embedder.batches, 2)
	assert.Len(t, embedder.batches[0], 2)
	assert.Len(t, embedder.batches[1], 1)

	matches, err := store.Query(context.Background(), []float32{3, 1}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, []string{"id-1", "id-2"}, matches[0].ID)

	long := records[2].Metadata()
	assert.LessOrEqual(t, len(long.BodyExcerpt), excerptSize)
	assert.Equal(t, "s@example.org", long.Sender)
}

func TestLoad_Failures(t *testing.T) {
	records := []Record{{Body: "a"}, {Body: "b"}}

	_, err := NewLoader(&countingEmbedder{err: errors.New("quota")}, vectorstore.NewMemoryStore(), 0, zap.NewNop()).
		Load(context.Background(), records)
	var embedErr *core.EmbeddingError
	assert.True(t, errors.As(err, &embedErr))

	_, err = NewLoader(&countingEmbedder{short: true}, vectorstore.NewMemoryStore(), 0, zap.NewNop()).
		Load(context.Background(), records)
	assert.True(t, errors.As(err, &embedErr))

	stored, err := NewLoader(&countingEmbedder{}, failingStore{}, 0, zap.NewNop()).
		Load(context.Background(), records)
	assert.ErrorContains(t, err, "disk full")
	assert.Zero(t, stored)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte(sampleCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("body,label\nhi,legitimate\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	embedder := &countingEmbedder{}
	store := vectorstore.NewMemoryStore()
	stored, err := NewLoader(embedder, store, 10, zap.NewNop()).LoadDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, stored)
	require.Len(t, embedder.batches, 2)
	assert.Equal(t, []string{"hi"}, embedder.batches[0])
}
