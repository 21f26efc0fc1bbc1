package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// TopicModeler runs the topic pipeline over one corpus.
// Fit must be called (or a model loaded) before any other operation;
// otherwise domain.ErrNotFitted is returned.
type TopicModeler interface {
	// Fit extracts terms, embeds and reduces the corpus.
	// ids may be nil, in which case short random ids are generated.
	Fit(ctx context.Context, texts []string, ids []string) error

	// GetTopics clusters the fitted corpus and ranks documents within topics.
	GetTopics(ctx context.Context, topics domain.TopicParams, rank domain.RankParams) ([]domain.Topic, error)

	// CleanTopicNames asks the LLM for readable names, keeping algorithmic
	// names wherever generation fails.
	CleanTopicNames(ctx context.Context, params domain.TopicGenParams) ([]domain.TopicNameResult, error)

	// VisualizeBourdieu projects the corpus on two semantic axes and
	// clusters the projection independently of the main topics.
	VisualizeBourdieu(
		ctx context.Context,
		query domain.BourdieuQuery,
		params domain.BourdieuParams,
	) (*domain.BourdieuResult, error)

	// Search returns the k documents closest to the query.
	Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error)

	// Ask answers query with the LLM from the topDoc closest documents.
	Ask(ctx context.Context, query string, topDoc int) (*domain.Answer, error)

	// Dimensions ranks queries by the mean scaled similarity of their
	// closest k documents.
	Dimensions(ctx context.Context, queries []string, k int) ([]domain.DimensionScore, error)

	// QueryShare reports the documents at least minScore similar to query.
	QueryShare(ctx context.Context, query string, minScore float64) (*domain.QueryShare, error)

	// ProjectContinuum scores the corpus along one semantic axis.
	ProjectContinuum(ctx context.Context, continuum domain.Continuum) (*domain.ContinuumProjection, error)

	// Coherence scores each topic's top terms.
	Coherence(topN int) ([]domain.TopicCoherence, error)

	// Repartition returns topic shares, largest first.
	Repartition() ([]domain.TopicShare, error)

	// Export writes the web JSON contract for the main or Bourdieu topics.
	Export(w io.Writer, bourdieu bool) error

	// Save persists the current model and returns its ID.
	Save(ctx context.Context) (string, error)

	// Load restores a persisted model; an empty id loads the latest.
	Load(ctx context.Context, id string) error

	// ListModels returns persisted model summaries, newest first.
	ListModels(ctx context.Context) ([]domain.ModelSummary, error)

	// DeleteModel removes a persisted model.
	DeleteModel(ctx context.Context, id string) error

	// Model returns a copy of the current model, nil before Fit.
	Model() *domain.Model
}
