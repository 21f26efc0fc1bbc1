package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var coherenceTopN int

var coherenceCmd = &cobra.Command{
	Use:   "coherence",
	Short: "Score how coherent each topic's terms are",
	Long: `Computes the UMass coherence of each topic's top terms from their
document co-occurrence. Scores closer to zero mean more coherent topics.`,
	Args: cobra.NoArgs,
	RunE: runCoherence,
}

var repartitionCmd = &cobra.Command{
	Use:   "repartition",
	Short: "Show the share of documents per topic",
	Args:  cobra.NoArgs,
	RunE:  runRepartition,
}

func init() {
	coherenceCmd.Flags().IntVar(&coherenceTopN, "top-n", 10, "terms per topic to score")
	rootCmd.AddCommand(coherenceCmd)
	rootCmd.AddCommand(repartitionCmd)
}

func runCoherence(cmd *cobra.Command, _ []string) error {
	if err := loadModel(cmd.Context()); err != nil {
		return err
	}

	scores, err := modeler.Coherence(coherenceTopN)
	if err != nil {
		return fmt.Errorf("coherence failed: %w", err)
	}

	t := newTable([]string{"ID", "Coherence", "Name"}, 1)
	var sum float64
	for _, s := range scores {
		sum += s.Coherence
		t.Row(s.TopicID, fmt.Sprintf("%.3f", s.Coherence), s.Name)
	}
	cmd.Println(t.Render())
	if len(scores) > 0 {
		cmd.Printf("Mean coherence: %.3f\n", sum/float64(len(scores)))
	}
	return nil
}

func runRepartition(cmd *cobra.Command, _ []string) error {
	if err := loadModel(cmd.Context()); err != nil {
		return err
	}

	shares, err := modeler.Repartition()
	if err != nil {
		return fmt.Errorf("repartition failed: %w", err)
	}

	t := newTable([]string{"ID", "Documents", "%", "Name"}, 1, 2)
	for _, s := range shares {
		t.Row(s.TopicID, fmt.Sprint(s.Size), fmt.Sprintf("%.1f", s.Percent), s.Name)
	}
	cmd.Println(t.Render())
	return nil
}
