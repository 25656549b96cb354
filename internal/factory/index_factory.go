package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/email-fraud-detector/internal/adapters/vectorstore"
	"github.com/mikey/email-fraud-detector/internal/adapters/vertex"
	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/ingest"
	"go.uber.org/zap"
)

// IndexFactory creates vector indexes based on configuration
type IndexFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIndexFactory creates a new index factory
func NewIndexFactory(cfg *config.Config, logger *zap.Logger) *IndexFactory {
	return &IndexFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateVectorIndex creates the configured vector index. The embedder is only
// used by the memory provider, which embeds the datasets at startup.
func (f *IndexFactory) CreateVectorIndex(embedder core.Embedder) (core.VectorIndex, error) {
	indexCfg := f.cfg.GetIndex()

	switch indexCfg.Provider {
	case "vertex":
		vertexCfg := f.cfg.GetVertex()
		return vertex.NewIndex(context.Background(), vertex.Options{
			Project:              vertexCfg.Project,
			Location:             vertexCfg.Location,
			IndexEndpoint:        vertexCfg.IndexEndpoint,
			DeployedIndexID:      vertexCfg.DeployedIndexID,
			APIEndpoint:          vertexCfg.APIEndpoint,
			DistanceIsSimilarity: vertexCfg.DistanceIsSimilarity,
		}, f.logger)
	case "sqlite":
		return f.CreateSQLiteStore()
	case "memory":
		return f.CreateMemoryStore(context.Background(), embedder)
	default:
		return nil, &core.ConfigurationError{
			Key:    "index.provider",
			Reason: fmt.Sprintf("unsupported index provider %q", indexCfg.Provider),
		}
	}
}

// CreateSQLiteStore opens the local index used by the ingestion job
func (f *IndexFactory) CreateSQLiteStore() (*vectorstore.SQLiteStore, error) {
	path := f.cfg.GetIndex().SQLitePath
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	return vectorstore.NewSQLiteStore(path, f.logger)
}

// CreateMemoryStore embeds the datasets of index.dataset_dir into a fresh
// in-memory store
func (f *IndexFactory) CreateMemoryStore(ctx context.Context, embedder core.Embedder) (*vectorstore.MemoryStore, error) {
	indexCfg := f.cfg.GetIndex()
	store := vectorstore.NewMemoryStore()

	loader := ingest.NewLoader(embedder, store, indexCfg.BatchSize, f.logger)
	stored, err := loader.LoadDir(ctx, indexCfg.DatasetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasets into memory index: %w", err)
	}

	f.logger.Info("Built in-memory index",
		zap.String("dataset_dir", indexCfg.DatasetDir),
		zap.Int("datapoints", stored))

	return store, nil
}
