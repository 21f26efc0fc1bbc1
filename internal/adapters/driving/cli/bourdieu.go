package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

var (
	bourdieuQueryFile      string
	bourdieuXLeft          []string
	bourdieuXRight         []string
	bourdieuYTop           []string
	bourdieuYBottom        []string
	bourdieuRadius         float64
	bourdieuClusters       int
	bourdieuNameLength     int
	bourdieuGenerateNames  bool
	bourdieuExcludeNeutral bool
	bourdieuContext        string
)

var bourdieuCmd = &cobra.Command{
	Use:   "bourdieu",
	Short: "Project the corpus on two semantic axes",
	Long: `Place every document on an x and a y axis defined by opposing word lists,
cluster the resulting map and report the share of documents per quadrant.

Axes come from a YAML query file, from flags, or default to war/peace by
men/women. Flags override the file.

Example query file:

  x_left_words: [war]
  x_right_words: [peace]
  y_top_words: [men]
  y_bottom_words: [women]
  radius_size: 0.3`,
	Args: cobra.NoArgs,
	RunE: runBourdieu,
}

func init() {
	bourdieuCmd.Flags().StringVarP(&bourdieuQueryFile, "query", "q", "", "YAML file with the axis word lists")
	bourdieuCmd.Flags().StringSliceVar(&bourdieuXLeft, "x-left", nil, "words for the left pole of the x axis")
	bourdieuCmd.Flags().StringSliceVar(&bourdieuXRight, "x-right", nil, "words for the right pole of the x axis")
	bourdieuCmd.Flags().StringSliceVar(&bourdieuYTop, "y-top", nil, "words for the top pole of the y axis")
	bourdieuCmd.Flags().StringSliceVar(&bourdieuYBottom, "y-bottom", nil, "words for the bottom pole of the y axis")
	bourdieuCmd.Flags().Float64Var(&bourdieuRadius, "radius", domain.DefaultRadiusSize, "neutral zone radius")
	bourdieuCmd.Flags().IntVarP(&bourdieuClusters, "clusters", "k", domain.DefaultBourdieuClusters, "number of topics on the projection")
	bourdieuCmd.Flags().IntVar(&bourdieuNameLength, "name-length", domain.DefaultBourdieuTerms, "terms per topic name")
	bourdieuCmd.Flags().BoolVar(&bourdieuGenerateNames, "generate-names", false, "name projection topics with the LLM")
	bourdieuCmd.Flags().BoolVar(&bourdieuExcludeNeutral, "exclude-neutral", false, "leave documents in the neutral zone unclustered")
	bourdieuCmd.Flags().StringVar(&bourdieuContext, "context", domain.DefaultGenContext, "corpus description used for naming")
	rootCmd.AddCommand(bourdieuCmd)
}

// queryFile is the YAML form of a Bourdieu query.
type queryFile struct {
	XLeftWords   []string `yaml:"x_left_words"`
	XRightWords  []string `yaml:"x_right_words"`
	YTopWords    []string `yaml:"y_top_words"`
	YBottomWords []string `yaml:"y_bottom_words"`
	RadiusSize   *float64 `yaml:"radius_size"`
}

// loadQueryFile parses a YAML query file.
func loadQueryFile(path string) (queryFile, error) {
	var q queryFile
	data, err := os.ReadFile(path)
	if err != nil {
		return q, fmt.Errorf("read query file: %w", err)
	}
	if err := yaml.Unmarshal(data, &q); err != nil {
		return q, fmt.Errorf("parse query file %s: %w", path, err)
	}
	return q, nil
}

// buildQuery merges defaults, the query file and flags, in that order.
func buildQuery(cmd *cobra.Command) (domain.BourdieuQuery, error) {
	q := domain.DefaultBourdieuQuery()
	if bourdieuQueryFile != "" {
		file, err := loadQueryFile(bourdieuQueryFile)
		if err != nil {
			return domain.BourdieuQuery{}, err
		}
		q.XLeftWords = file.XLeftWords
		q.XRightWords = file.XRightWords
		q.YTopWords = file.YTopWords
		q.YBottomWords = file.YBottomWords
		if file.RadiusSize != nil {
			q.RadiusSize = *file.RadiusSize
		}
	}

	flags := cmd.Flags()
	if flags.Changed("x-left") {
		q.XLeftWords = bourdieuXLeft
	}
	if flags.Changed("x-right") {
		q.XRightWords = bourdieuXRight
	}
	if flags.Changed("y-top") {
		q.YTopWords = bourdieuYTop
	}
	if flags.Changed("y-bottom") {
		q.YBottomWords = bourdieuYBottom
	}
	if flags.Changed("radius") {
		q.RadiusSize = bourdieuRadius
	}
	return domain.NewBourdieuQuery(q.XLeftWords, q.XRightWords, q.YTopWords, q.YBottomWords, q.RadiusSize)
}

func runBourdieu(cmd *cobra.Command, _ []string) error {
	query, err := buildQuery(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := loadModel(ctx); err != nil {
		return err
	}

	params := domain.DefaultBourdieuParams()
	params.Topics.NClusters = bourdieuClusters
	params.Topics.NameLength = bourdieuNameLength
	params.Topics.Seed = pipelineDefaults().Seed
	params.GenerateNames = bourdieuGenerateNames
	params.ExcludeNeutral = bourdieuExcludeNeutral
	params.Gen.Language = pipelineDefaults().Language
	params.Gen.Context = bourdieuContext

	result, err := modeler.VisualizeBourdieu(ctx, query, params)
	if err != nil {
		return err
	}
	if _, err := modeler.Save(ctx); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	cmd.Printf("x: %v <-> %v\n", query.XLeftWords, query.XRightWords)
	cmd.Printf("y: %v <-> %v\n", query.YBottomWords, query.YTopWords)
	renderQuadrants(cmd.OutOrStdout(), result.Quadrants)
	if len(result.Topics) > 0 {
		renderTopics(cmd.OutOrStdout(), result.Topics)
	}
	return nil
}
