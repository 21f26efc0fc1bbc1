// Command topicmap builds topic maps from text corpora.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/topicmap/internal/adapters/driven/ai"
	"github.com/custodia-labs/topicmap/internal/adapters/driven/config/file"
	"github.com/custodia-labs/topicmap/internal/adapters/driven/progress"
	"github.com/custodia-labs/topicmap/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/topicmap/internal/adapters/driving/cli"
	"github.com/custodia-labs/topicmap/internal/connectors/filesystem"
	"github.com/custodia-labs/topicmap/internal/core/services"
	"github.com/custodia-labs/topicmap/internal/normalisers"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// A missing .env is fine; the environment may already carry the keys.
	_ = godotenv.Load()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return report(fmt.Errorf("open config: %w", err))
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return report(fmt.Errorf("load settings: %w", err))
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return report(fmt.Errorf("open model store: %w", err))
	}
	defer store.Close()

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return report(fmt.Errorf("open prompt store: %w", err))
	}

	aiServices := ai.Initialise(ctx, settings)
	defer aiServices.Close()

	modeling := services.NewModelingService(
		aiServices.EmbeddingService,
		aiServices.LLMService,
		aiServices.VectorIndex,
		store.ModelStore(),
		services.ModelingConfigFromSettings(settings.Pipeline),
	)
	modeling.SetPromptStore(prompts)
	modeling.SetProgressReporter(progress.NewReporter(os.Stderr))

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings: settingsService,
		Modeler:  modeling,
		Corpus:   services.NewCorpusService(filesystem.New(), normalisers.NewDefaultRegistry()),
	})
	// cobra prints command errors itself.
	return cli.ExecuteContext(ctx)
}

func report(err error) error {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}
