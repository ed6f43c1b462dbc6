// Command partnerdocs indexes partner contracts and payout reports and
// answers questions about them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driven/ai"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/cli"
	"github.com/custodia-labs/partnerdocs/internal/connectors/filesystem"
	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
	"github.com/custodia-labs/partnerdocs/internal/core/services"
	"github.com/custodia-labs/partnerdocs/internal/logger"
	"github.com/custodia-labs/partnerdocs/internal/normalisers"
	"github.com/custodia-labs/partnerdocs/internal/postprocessors"
	"github.com/custodia-labs/partnerdocs/internal/ratelimit"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)

	configStore, err := file.NewConfigStore(os.Getenv("PARTNERDOCS_CONFIG_DIR"))
	if err != nil {
		logger.Error(err, "Open config")
		return 1
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	svcs := cli.Services{Settings: settingsService}
	closer, err := wire(ctx, settingsService, &svcs)
	if err != nil {
		// Settings commands stay usable so the configuration can be fixed.
		logger.Warn("%v", err)
	}
	if closer != nil {
		defer closer()
	}

	cli.SetServices(svcs)
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// wire builds the ingest, retrieval and watch services from the saved
// settings and fills them into svcs. The returned func releases provider
// and index connections.
func wire(ctx context.Context, settingsService driving.SettingsService, svcs *cli.Services) (func(), error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore(os.Getenv("PARTNERDOCS_PROMPT_DIR"))
	if err != nil {
		return nil, err
	}

	aiServices, err := ai.Initialise(ctx, settings, prompts)
	if err != nil {
		return nil, err
	}

	segmenter, err := postprocessors.NewDefaultSegmenter(settings.Chunking)
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	metrics := prometheus.New(prometheus.WithRuntimeCollectors())
	loader := normalisers.NewDefaultRegistry()

	var embedder *services.EmbeddingCoordinator
	if aiServices.EmbeddingService != nil {
		limiters := ratelimit.NewRegistry()
		embedder = services.NewEmbeddingCoordinator(
			aiServices.EmbeddingService,
			services.EmbeddingConfig{
				BatchSize:       settings.Embedding.BatchSize,
				MaxCharsPerItem: settings.Embedding.MaxChars(),
			},
			limiters.For(string(settings.Embedding.Provider), settings.Embedding.RateLimitDelay),
			metrics,
		)
	}

	cacheOpts := []services.CacheOption{services.WithCacheMetrics(metrics)}
	if settings.Retrieval.CacheTTL > 0 {
		cacheOpts = append(cacheOpts, services.WithTTL(settings.Retrieval.CacheTTL))
	}
	cache := services.NewPartnerDocumentCache(aiServices.Index, cacheOpts...)
	assembler := services.NewContextAssembler(metrics)

	ingest := services.NewIngestService(segmenter, aiServices.Index, embedder, loader, cache, metrics)
	svcs.Ingest = ingest
	svcs.Retrieval = services.NewRetrievalService(cache, aiServices.Index, assembler, embedder,
		aiServices.LLMService, services.WithScanLimit(settings.Index.QueryLimit))
	svcs.MetricsHandler = metrics.Handler()
	svcs.Watch = func(root string) (driving.WatchService, error) {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
		}
		watcher := filesystem.New(root, filesystem.WithFilter(loader.Supports))
		return services.NewWatchService(ingest, watcher, loader.Extensions()), nil
	}

	return aiServices.Close, nil
}
