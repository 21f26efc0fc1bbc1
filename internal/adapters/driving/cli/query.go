package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

var (
	askTopDoc      int
	dimensionsTopK int
	coverageMin    float64
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the closest documents",
	Long: `Retrieves the documents closest to the question and asks the configured
LLM to answer from them. The answer prompt can be customised in the
prompts directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var dimensionsCmd = &cobra.Command{
	Use:   "dimensions [query...]",
	Short: "Rank queries by how strongly the corpus expresses them",
	Long: `Searches each query, scales the similarities of its closest documents to
[0, 1] and ranks the queries by their mean scaled score, lowest first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDimensions,
}

var coverageCmd = &cobra.Command{
	Use:   "coverage [query]",
	Short: "Show the share of documents close to a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoverage,
}

func init() {
	askCmd.Flags().IntVarP(&askTopDoc, "top-doc", "n", domain.DefaultAnswerTopDoc, "documents given to the LLM")
	dimensionsCmd.Flags().IntVarP(&dimensionsTopK, "top-doc", "n", domain.DefaultDimensionTopDoc, "documents scored per query")
	coverageCmd.Flags().Float64Var(&coverageMin, "min-score", domain.DefaultQueryMinScore, "minimum cosine similarity")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(dimensionsCmd)
	rootCmd.AddCommand(coverageCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := loadModel(ctx); err != nil {
		return err
	}

	answer, err := modeler.Ask(ctx, args[0], askTopDoc)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, h := range answer.Sources {
		cmd.Printf("  [%d] %s (%.2f) %s\n", i+1, h.DocumentID, h.Score, snippet(h.Content))
	}
	return nil
}

func runDimensions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := loadModel(ctx); err != nil {
		return err
	}

	scores, err := modeler.Dimensions(ctx, args, dimensionsTopK)
	if err != nil {
		return fmt.Errorf("dimensions failed: %w", err)
	}

	t := newTable([]string{"Rank", "Mean score", "Query"}, 0, 1)
	for _, s := range scores {
		t.Row(fmt.Sprint(s.Rank), fmt.Sprintf("%.3f", s.MeanScore), s.Query)
	}
	cmd.Println(t.Render())
	return nil
}

func runCoverage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := loadModel(ctx); err != nil {
		return err
	}

	share, err := modeler.QueryShare(ctx, args[0], coverageMin)
	if err != nil {
		return fmt.Errorf("coverage failed: %w", err)
	}

	cmd.Printf("%d of %d documents (%.1f%%) have a similarity of at least %.2f to %q\n",
		share.Matching, share.Total, share.Percent, share.MinScore, share.Query)
	if len(share.DocumentIDs) > 0 {
		cmd.Printf("Documents: %s\n", strings.Join(share.DocumentIDs, ", "))
	}
	return nil
}
