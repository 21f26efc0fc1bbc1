package domain

import (
	"fmt"
	"runtime"
)

// Defaults for term extraction.
const (
	DefaultLanguage         = "english"
	DefaultTermSampleSize   = 500
	DefaultTermLimit        = 2000
	DefaultEmbedBatchSize   = 32
	DefaultNClusters        = 5
	DefaultNameLength       = 10
	DefaultTopTermsOverall  = 2000
	DefaultMinCountTerms    = 2
	DefaultRankingDepth     = 20
	DefaultGenTopDoc        = 3
	DefaultGenTopTerms      = 10
	DefaultGenContext       = "everything"
	DefaultBourdieuClusters = 10
	DefaultBourdieuTerms    = 2
	DefaultBourdieuTopTerms = 500
)

// TermParams configures the term extractor.
type TermParams struct {
	// Language selects the stopword list.
	Language string

	// NGramRange is the inclusive [min, max] n-gram length.
	NGramRange [2]int

	// IncludeTags restricts the candidate kinds.
	IncludeTags []TermTag

	// SampleSize caps the documents used to mine the vocabulary (0 = all).
	SampleSize int

	// Limit caps the number of returned terms.
	Limit int

	// Workers is the extraction pool size.
	Workers int
}

// DefaultTermParams returns extraction defaults.
func DefaultTermParams() TermParams {
	return TermParams{
		Language:    DefaultLanguage,
		NGramRange:  [2]int{1, 2},
		IncludeTags: []TermTag{TagNGram, TagEntity},
		SampleSize:  DefaultTermSampleSize,
		Limit:       DefaultTermLimit,
		Workers:     runtime.GOMAXPROCS(0),
	}
}

// Validate checks the extraction parameters.
func (p TermParams) Validate() error {
	if p.NGramRange[0] < 1 || p.NGramRange[1] < p.NGramRange[0] {
		return fmt.Errorf("%w: ngram range %v", ErrInvalidInput, p.NGramRange)
	}
	if p.Limit < 1 {
		return fmt.Errorf("%w: term limit must be positive", ErrInvalidInput)
	}
	if p.SampleSize < 0 {
		return fmt.Errorf("%w: sample size must not be negative", ErrInvalidInput)
	}
	if len(p.IncludeTags) == 0 {
		return fmt.Errorf("%w: no term tags included", ErrInvalidInput)
	}
	for _, t := range p.IncludeTags {
		if !t.IsValid() {
			return fmt.Errorf("%w: unknown term tag %q", ErrInvalidInput, t)
		}
	}
	return nil
}

// ReductionMethod selects the 2D reducer.
type ReductionMethod string

// Available reduction methods.
const (
	// ReductionTSNE preserves local neighbourhoods; not reproducible.
	ReductionTSNE ReductionMethod = "tsne"

	// ReductionPCA projects on the first two principal components; deterministic.
	ReductionPCA ReductionMethod = "pca"
)

// IsValid returns true if the method is recognised.
func (m ReductionMethod) IsValid() bool {
	return m == ReductionTSNE || m == ReductionPCA
}

// ReductionParams configures dimensionality reduction.
type ReductionParams struct {
	Method ReductionMethod

	// Seed requests reproducible output when set.
	Seed *int64

	Perplexity   float64
	LearningRate float64
	MaxIter      int
}

// DefaultReductionParams returns reduction defaults.
func DefaultReductionParams() ReductionParams {
	return ReductionParams{
		Method:       ReductionTSNE,
		Perplexity:   30,
		LearningRate: 200,
		MaxIter:      1000,
	}
}

// TopicParams configures one clustering invocation.
type TopicParams struct {
	// NClusters is the requested topic count K.
	NClusters int

	// NGrams lists the term lengths allowed in topic names.
	NGrams []int

	// NameLength is the number of terms joined into a topic name.
	NameLength int

	// TopTermsOverall restricts naming to the most frequent corpus terms.
	TopTermsOverall int

	// MinCountTerms drops rarer terms from naming.
	MinCountTerms int

	// Seed makes k-means reproducible when set.
	Seed *int64
}

// DefaultTopicParams returns topic defaults.
func DefaultTopicParams() TopicParams {
	return TopicParams{
		NClusters:       DefaultNClusters,
		NGrams:          []int{1, 2},
		NameLength:      DefaultNameLength,
		TopTermsOverall: DefaultTopTermsOverall,
		MinCountTerms:   DefaultMinCountTerms,
	}
}

// Validate checks the topic parameters.
func (p TopicParams) Validate() error {
	if p.NClusters < 1 {
		return fmt.Errorf("%w: n_clusters must be at least 1", ErrInvalidInput)
	}
	if p.NameLength < 1 {
		return fmt.Errorf("%w: name length must be at least 1", ErrInvalidInput)
	}
	if len(p.NGrams) == 0 {
		return fmt.Errorf("%w: ngrams must not be empty", ErrInvalidInput)
	}
	for _, n := range p.NGrams {
		if n < 1 {
			return fmt.Errorf("%w: invalid ngram length %d", ErrInvalidInput, n)
		}
	}
	if p.TopTermsOverall < 1 {
		return fmt.Errorf("%w: top terms overall must be positive", ErrInvalidInput)
	}
	if p.MinCountTerms < 0 {
		return fmt.Errorf("%w: min count terms must not be negative", ErrInvalidInput)
	}
	return nil
}

// RankParams configures the document ranker.
type RankParams struct {
	// Depth is how many documents per topic are marked as top documents.
	Depth int
}

// DefaultRankParams returns ranking defaults.
func DefaultRankParams() RankParams {
	return RankParams{Depth: DefaultRankingDepth}
}

// TopicGenParams configures generative topic naming.
type TopicGenParams struct {
	Language string

	// TopDoc is how many top documents go into the prompt.
	TopDoc int

	// TopTerms is how many specific terms go into the prompt.
	TopTerms int

	// UseDoc includes document excerpts in the prompt.
	UseDoc bool

	// Context describes the corpus, e.g. "news articles".
	Context string
}

// DefaultTopicGenParams returns naming defaults.
func DefaultTopicGenParams() TopicGenParams {
	return TopicGenParams{
		Language: DefaultLanguage,
		TopDoc:   DefaultGenTopDoc,
		TopTerms: DefaultGenTopTerms,
		Context:  DefaultGenContext,
	}
}

// BourdieuParams configures the clustering and naming of a projection.
// They are independent of the main topic parameters.
type BourdieuParams struct {
	Topics        TopicParams
	Rank          RankParams
	GenerateNames bool
	Gen           TopicGenParams

	// ExcludeNeutral leaves documents inside the radius unclustered.
	ExcludeNeutral bool
}

// DefaultBourdieuParams returns projection defaults.
func DefaultBourdieuParams() BourdieuParams {
	return BourdieuParams{
		Topics: TopicParams{
			NClusters:       DefaultBourdieuClusters,
			NGrams:          []int{1, 2},
			NameLength:      DefaultBourdieuTerms,
			TopTermsOverall: DefaultBourdieuTopTerms,
			MinCountTerms:   DefaultMinCountTerms,
		},
		Rank: DefaultRankParams(),
		Gen:  DefaultTopicGenParams(),
	}
}
