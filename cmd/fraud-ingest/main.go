package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/factory"
	"github.com/mikey/email-fraud-detector/internal/ingest"
	"github.com/mikey/email-fraud-detector/internal/logging"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"go.uber.org/zap"
)

var (
	datasetDir = flag.String("datasets", "datasets", "Directory of labeled CSV datasets")
	batchSize  = flag.Int("batch", 32, "Number of records embedded per request")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.New()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	textProcessor := utils.NewTextProcessor(logger)
	embedder, err := factory.NewEmbedderFactory(cfg, logger, textProcessor).CreateEmbedder()
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	if closer, ok := embedder.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	store, err := factory.NewIndexFactory(cfg, logger).CreateSQLiteStore()
	if err != nil {
		logger.Fatal("Failed to open index", zap.Error(err))
	}
	defer store.Close()

	loader := ingest.NewLoader(embedder, store, *batchSize, logger)
	stored, err := loader.LoadDir(context.Background(), *datasetDir)
	if err != nil {
		logger.Error("Ingestion failed", zap.Int("stored", stored), zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Ingestion complete",
		zap.String("datasets", *datasetDir),
		zap.String("index", cfg.GetIndex().SQLitePath),
		zap.Int("stored", stored))
}
