package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

var (
	fitFormat    string
	fitTextField string
	fitIDField   string
	fitClusters  int
	fitSeed      int64
	fitDepth     int
	fitNoTopics  bool
	fitName      bool
	fitContext   string
	fitChunkSize int
)

var fitCmd = &cobra.Command{
	Use:   "fit <corpus>",
	Short: "Fit a corpus and build topics",
	Long: `Extract terms, embed and project every document, then cluster the map
into topics and save the model.

The corpus is a text file with one document per line, a JSONL file with one
object per line, or a CSV file with a header row. Use '-' to read stdin.

A directory is read recursively: text, Markdown, HTML and DOCX files each
become one document (or several with --chunk-size), identified by their
relative path. Hidden files and unsupported types are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runFit,
}

func init() {
	fitCmd.Flags().StringVar(&fitFormat, "format", formatAuto, "corpus format: auto, txt, jsonl or csv")
	fitCmd.Flags().StringVar(&fitTextField, "text-field", "text", "JSONL field or CSV column holding the text")
	fitCmd.Flags().StringVar(&fitIDField, "id-field", "id", "JSONL field or CSV column holding the document id")
	fitCmd.Flags().IntVarP(&fitClusters, "clusters", "k", 0, "number of topics (default from settings)")
	fitCmd.Flags().Int64Var(&fitSeed, "seed", 0, "seed for reproducible clustering (default from settings)")
	fitCmd.Flags().IntVar(&fitDepth, "depth", domain.DefaultRankingDepth, "top documents kept per topic")
	fitCmd.Flags().BoolVar(&fitNoTopics, "no-topics", false, "only fit, do not cluster")
	fitCmd.Flags().BoolVar(&fitName, "name", false, "generate readable topic names with the LLM")
	fitCmd.Flags().StringVar(&fitContext, "context", domain.DefaultGenContext, "corpus description used for naming")
	fitCmd.Flags().IntVar(&fitChunkSize, "chunk-size", 0, "split directory files into chunks of this many characters (0 keeps whole files)")
	rootCmd.AddCommand(fitCmd)
}

func runFit(cmd *cobra.Command, args []string) error {
	if modeler == nil {
		return errors.New("modeling service not configured")
	}

	texts, ids, err := readCorpusArg(cmd, args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := modeler.Fit(ctx, texts, ids); err != nil {
		return fmt.Errorf("fit failed: %w", err)
	}

	var topics []domain.Topic
	if !fitNoTopics {
		params := topicParams(cmd, fitClusters, fitSeed)
		topics, err = modeler.GetTopics(ctx, params, domain.RankParams{Depth: fitDepth})
		if err != nil {
			return fmt.Errorf("build topics: %w", err)
		}
		if fitName {
			gen := domain.DefaultTopicGenParams()
			gen.Language = pipelineDefaults().Language
			gen.Context = fitContext
			if _, err := modeler.CleanTopicNames(ctx, gen); err != nil {
				cmd.Printf("Warning: topic naming skipped: %v\n", err)
			} else if m := modeler.Model(); m != nil {
				topics = m.Topics
			}
		}
	}

	id, err := modeler.Save(ctx)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	m := modeler.Model()
	cmd.Printf("Model %s: %d documents, %d terms, %d topics\n", id, len(m.Documents), len(m.Terms), len(topics))
	if len(topics) > 0 {
		renderTopics(cmd.OutOrStdout(), topics)
	}
	return nil
}

// readCorpusArg opens the corpus path, or stdin for "-". Directories go
// through the corpus loader.
func readCorpusArg(cmd *cobra.Command, path string) ([]string, []string, error) {
	if path != "-" {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if corpusLoader == nil {
				return nil, nil, errors.New("corpus loader not configured")
			}
			return corpusLoader.Load(cmd.Context(), path, fitChunkSize)
		}
	}

	format := fitFormat
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
		if format == formatAuto {
			format = formatText
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open corpus: %w", err)
		}
		defer f.Close()
		r = f
		if format == formatAuto {
			format = detectFormat(path)
		}
	}
	return readCorpus(r, format, corpusFields{Text: fitTextField, ID: fitIDField})
}

// topicParams builds clustering parameters from the settings defaults and flags.
func topicParams(cmd *cobra.Command, clusters int, seed int64) domain.TopicParams {
	defaults := pipelineDefaults()
	params := domain.DefaultTopicParams()
	params.NClusters = defaults.NClusters
	if clusters > 0 {
		params.NClusters = clusters
	}
	params.Seed = defaults.Seed
	if cmd.Flags().Changed("seed") {
		params.Seed = &seed
	}
	return params
}
