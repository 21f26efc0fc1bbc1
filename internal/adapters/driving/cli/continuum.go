package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

var (
	continuumLeft  []string
	continuumRight []string
	continuumTop   int
)

var continuumCmd = &cobra.Command{
	Use:   "continuum",
	Short: "Score documents along one semantic axis",
	Long: `Places every document on a single axis running from the left words to the
right words and lists the documents leaning furthest towards each end.
Scores range from -1 (left) to 1 (right).`,
	Args: cobra.NoArgs,
	RunE: runContinuum,
}

func init() {
	def := domain.DefaultContinuum()
	continuumCmd.Flags().StringSliceVar(&continuumLeft, "left", def.LeftWords, "words for the left pole")
	continuumCmd.Flags().StringSliceVar(&continuumRight, "right", def.RightWords, "words for the right pole")
	continuumCmd.Flags().IntVarP(&continuumTop, "top", "n", 5, "documents listed per pole")
	rootCmd.AddCommand(continuumCmd)
}

func runContinuum(cmd *cobra.Command, _ []string) error {
	left, right := continuumLeft, continuumRight
	def := domain.DefaultContinuum()
	if !cmd.Flags().Changed("left") {
		left = def.LeftWords
	}
	if !cmd.Flags().Changed("right") {
		right = def.RightWords
	}
	continuum, err := domain.NewContinuum(domain.ContinuumOne, left, right)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := loadModel(ctx); err != nil {
		return err
	}

	result, err := modeler.ProjectContinuum(ctx, continuum)
	if err != nil {
		return err
	}

	scores := append([]domain.ContinuumScore(nil), result.Scores...)
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score < scores[j].Score
	})
	n := min(max(continuumTop, 0), len(scores))

	cmd.Printf("%v <-> %v\n", continuum.LeftWords, continuum.RightWords)
	t := newTable([]string{"Pole", "Score", "ID"}, 1)
	for _, s := range scores[:n] {
		t.Row("left", fmt.Sprintf("%.3f", s.Score), s.DocumentID)
	}
	for i := len(scores) - 1; i >= max(len(scores)-n, n); i-- {
		t.Row("right", fmt.Sprintf("%.3f", scores[i].Score), scores[i].DocumentID)
	}
	cmd.Println(t.Render())
	return nil
}
