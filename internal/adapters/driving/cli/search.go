package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// snippetLength bounds the text shown per search hit.
const snippetLength = 120

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the fitted corpus",
	Long: `Embeds the query and returns the closest documents of the selected model,
with the topic each one belongs to.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	ctx := cmd.Context()
	if err := loadModel(ctx); err != nil {
		return err
	}

	hits, err := modeler.Search(ctx, query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}

	outputSearchList(cmd, hits)
	return nil
}

type searchHitJSON struct {
	ID      string  `json:"id"`
	TopicID string  `json:"topic_id,omitempty"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.SearchHit) error {
	out := make([]searchHitJSON, len(hits))
	for i, h := range hits {
		out[i] = searchHitJSON{ID: h.DocumentID, TopicID: h.TopicID, Score: h.Score, Text: h.Content}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchList(cmd *cobra.Command, hits []domain.SearchHit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, h := range hits {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, h.DocumentID, h.Score)
		if h.TopicID != "" {
			cmd.Printf("      Topic: %s\n", h.TopicID)
		}
		cmd.Printf("      %s\n", snippet(h.Content))
		cmd.Println()
	}
}

// snippet collapses whitespace and truncates to snippetLength runes.
func snippet(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	r := []rune(s)
	if len(r) <= snippetLength {
		return s
	}
	return string(r[:snippetLength]) + "..."
}
