package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

var (
	topicsClusters int
	topicsSeed     int64
	topicsDepth    int

	nameLanguage string
	nameContext  string
	nameUseDoc   bool
	nameTopDoc   int
	nameTopTerms int
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Show or rebuild the topics of a model",
	Long: `Show the topics of the selected model.

Pass --clusters or --seed to re-cluster the fitted corpus and save the result.`,
	Args: cobra.NoArgs,
	RunE: runTopics,
}

var nameCmd = &cobra.Command{
	Use:   "name",
	Short: "Generate readable topic names",
	Long: `Ask the configured LLM for a short name per topic.

Topics whose generation fails keep their term-based name.`,
	Args: cobra.NoArgs,
	RunE: runName,
}

func init() {
	topicsCmd.Flags().IntVarP(&topicsClusters, "clusters", "k", 0, "re-cluster into this many topics")
	topicsCmd.Flags().Int64Var(&topicsSeed, "seed", 0, "seed for reproducible clustering")
	topicsCmd.Flags().IntVar(&topicsDepth, "depth", domain.DefaultRankingDepth, "top documents kept per topic")

	nameCmd.Flags().StringVar(&nameLanguage, "language", "", "language of the generated names (default from settings)")
	nameCmd.Flags().StringVar(&nameContext, "context", domain.DefaultGenContext, "corpus description, e.g. 'news articles'")
	nameCmd.Flags().BoolVar(&nameUseDoc, "use-doc", false, "include top document excerpts in the prompt")
	nameCmd.Flags().IntVar(&nameTopDoc, "top-doc", domain.DefaultGenTopDoc, "documents per topic in the prompt")
	nameCmd.Flags().IntVar(&nameTopTerms, "top-terms", domain.DefaultGenTopTerms, "terms per topic in the prompt")

	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(nameCmd)
}

func runTopics(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := loadModel(ctx); err != nil {
		return err
	}

	m := modeler.Model()
	topics := m.Topics
	if len(topics) == 0 || cmd.Flags().Changed("clusters") || cmd.Flags().Changed("seed") {
		var err error
		params := topicParams(cmd, topicsClusters, topicsSeed)
		topics, err = modeler.GetTopics(ctx, params, domain.RankParams{Depth: topicsDepth})
		if err != nil {
			return fmt.Errorf("build topics: %w", err)
		}
		if _, err := modeler.Save(ctx); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
	}

	cmd.Printf("Model %s: %d topics\n", m.ID, len(topics))
	renderTopics(cmd.OutOrStdout(), topics)
	return nil
}

func runName(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := loadModel(ctx); err != nil {
		return err
	}

	params := domain.TopicGenParams{
		Language: nameLanguage,
		TopDoc:   nameTopDoc,
		TopTerms: nameTopTerms,
		UseDoc:   nameUseDoc,
		Context:  nameContext,
	}
	if params.Language == "" {
		params.Language = pipelineDefaults().Language
	}

	results, err := modeler.CleanTopicNames(ctx, params)
	if err != nil {
		return fmt.Errorf("topic naming failed: %w", err)
	}
	if _, err := modeler.Save(ctx); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	generated := 0
	for _, r := range results {
		if r.Generated {
			generated++
			cmd.Printf("  %s: %s\n", r.TopicID, r.Name)
			continue
		}
		cmd.Printf("  %s: kept %q (%v)\n", r.TopicID, r.Name, r.Err)
	}
	cmd.Printf("Named %d of %d topics\n", generated, len(results))
	return nil
}
