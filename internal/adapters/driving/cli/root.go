// Package cli provides the cobra command tree for topicmap.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driving"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

var (
	verbose bool
	modelID string
)

// Services injected by the composition root.
var (
	settingsService driving.SettingsService
	modeler         driving.TopicModeler
	corpusLoader    driving.CorpusLoader
)

// Services holds the core services the commands call.
type Services struct {
	Settings driving.SettingsService
	Modeler  driving.TopicModeler
	Corpus   driving.CorpusLoader
}

var rootCmd = &cobra.Command{
	Use:   "topicmap",
	Short: "Build topic maps from text corpora",
	Long: `topicmap extracts terms from a corpus, embeds and projects documents to 2D,
clusters them into named topics and exports the map for the web front-end.

Run 'topicmap fit corpus.txt' to build a model, then use the other commands
to inspect, rename, project or export it.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&modelID, "model", "", "model id to use (default: latest)")
}

// SetServices injects the core services.
func SetServices(s Services) {
	settingsService = s.Settings
	modeler = s.Modeler
	corpusLoader = s.Corpus
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

// ExecuteContext runs the root command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadModel restores the model selected with --model, or the latest one.
func loadModel(ctx context.Context) error {
	if modeler == nil {
		return errors.New("modeling service not configured")
	}
	if err := modeler.Load(ctx, modelID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errors.New("no fitted model found; run 'topicmap fit' first")
		}
		return err
	}
	return nil
}

// pipelineDefaults returns the stored fitting defaults.
func pipelineDefaults() domain.PipelineSettings {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			return s.Pipeline
		}
	}
	return domain.DefaultAppSettings().Pipeline
}
