package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/topicmap/internal/bourdieu"
	"github.com/custodia-labs/topicmap/internal/clustering"
	"github.com/custodia-labs/topicmap/internal/coherence"
	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/core/ports/driving"
	"github.com/custodia-labs/topicmap/internal/export"
	"github.com/custodia-labs/topicmap/internal/logger"
	"github.com/custodia-labs/topicmap/internal/naming"
	"github.com/custodia-labs/topicmap/internal/ranking"
	"github.com/custodia-labs/topicmap/internal/reduction"
	"github.com/custodia-labs/topicmap/internal/terms"
)

// Ensure ModelingService implements the interface.
var _ driving.TopicModeler = (*ModelingService)(nil)

// ErrNoModelStore is returned by Save and Load when no store is configured.
var ErrNoModelStore = errors.New("model store not configured")

// ErrModelReplaced is returned when a concurrent Fit or Load swapped the
// model while an operation was computing its result.
var ErrModelReplaced = fmt.Errorf("%w: model replaced during the operation", domain.ErrNotFitted)

// shortIDLength is the length of generated document ids.
const shortIDLength = 8

// ModelingConfig holds the fitting parameters that do not vary per call.
type ModelingConfig struct {
	Terms     domain.TermParams
	Reduction domain.ReductionParams

	// BatchSize is the number of documents per embedding request.
	BatchSize int

	// Workers bounds concurrent embedding batches.
	Workers int
}

// DefaultModelingConfig returns fitting defaults.
func DefaultModelingConfig() ModelingConfig {
	return ModelingConfig{
		Terms:     domain.DefaultTermParams(),
		Reduction: domain.DefaultReductionParams(),
		BatchSize: domain.DefaultEmbedBatchSize,
		Workers:   4,
	}
}

// ModelingConfigFromSettings derives a fitting config from stored settings.
func ModelingConfigFromSettings(p domain.PipelineSettings) ModelingConfig {
	cfg := DefaultModelingConfig()
	if p.Language != "" {
		cfg.Terms.Language = p.Language
	}
	if p.Workers > 0 {
		cfg.Terms.Workers = p.Workers
		cfg.Workers = p.Workers
	}
	if p.BatchSize > 0 {
		cfg.BatchSize = p.BatchSize
	}
	if p.Reduction != "" {
		cfg.Reduction.Method = p.Reduction
	}
	if p.Perplexity > 0 {
		cfg.Reduction.Perplexity = p.Perplexity
	}
	cfg.Reduction.Seed = p.Seed
	return cfg
}

// ModelingService runs the topic pipeline and holds the current model.
type ModelingService struct {
	embedder driven.EmbeddingService
	llm      driven.LLMService
	index    driven.VectorIndex
	store    driven.ModelStore
	prompts  driven.PromptStore
	progress driven.ProgressReporter
	cfg      ModelingConfig

	mu    sync.RWMutex
	model *domain.Model
}

// NewModelingService creates a modeling service.
// The llm, index and store parameters are optional (can be nil); the
// features that need them report domain.ErrLLMUnavailable,
// domain.ErrVectorIndexUnavailable or ErrNoModelStore.
func NewModelingService(
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	index driven.VectorIndex,
	store driven.ModelStore,
	cfg ModelingConfig,
) *ModelingService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultEmbedBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &ModelingService{
		embedder: embedder,
		llm:      llm,
		index:    index,
		store:    store,
		progress: driven.NopProgress{},
		cfg:      cfg,
	}
}

// SetPromptStore sets the prompt store used for topic naming.
func (s *ModelingService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// SetProgressReporter sets the reporter for long stages.
func (s *ModelingService) SetProgressReporter(p driven.ProgressReporter) {
	if p == nil {
		p = driven.NopProgress{}
	}
	s.progress = p
}

// Fit extracts terms, embeds and reduces the corpus. The current model is
// only replaced once every stage succeeded.
func (s *ModelingService) Fit(ctx context.Context, texts []string, ids []string) error {
	logger.Section("Fit")
	docs, err := buildDocuments(texts, ids)
	if err != nil {
		return err
	}
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	logger.Debug("Fitting %d documents", len(docs))

	extractor, err := terms.NewExtractor(s.cfg.Terms)
	if err != nil {
		return err
	}
	extracted, err := extractor.Extract(ctx, docs)
	if err != nil {
		return fmt.Errorf("extract terms: %w", err)
	}
	docs = extracted.Documents
	logger.Debug("Extracted %d terms", len(extracted.Terms))

	if err := ctx.Err(); err != nil {
		return err
	}
	if ca, ok := s.embedder.(driven.CorpusAware); ok {
		if err := ca.Prepare(ctx, texts); err != nil {
			return fmt.Errorf("prepare embedder: %w", err)
		}
	}

	vectors, err := s.embed(ctx, docs)
	if err != nil {
		return err
	}
	for i := range docs {
		docs[i].Embedding = vectors[i]
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	reducer, err := reduction.New(s.cfg.Reduction)
	if err != nil {
		return err
	}
	points, err := reducer.Reduce(ctx, vectors)
	if err != nil {
		return fmt.Errorf("reduce embeddings: %w", err)
	}
	for i, p := range points {
		docs[i].X, docs[i].Y = p.X, p.Y
	}

	if err := s.reindex(ctx, docs); err != nil {
		return err
	}

	model := &domain.Model{
		ID:             uuid.NewString(),
		Language:       s.cfg.Terms.Language,
		CreatedAt:      time.Now().UTC(),
		EmbeddingModel: s.embedder.ModelName(),
		Documents:      docs,
		Terms:          extracted.Terms,
	}

	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
	logger.Info("Fitted model %s: %d documents, %d terms", model.ID, len(docs), len(model.Terms))
	return nil
}

// buildDocuments validates texts and ids and builds the documents.
func buildDocuments(texts, ids []string) ([]domain.Document, error) {
	if len(texts) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if ids == nil {
		ids = shortIDs(len(texts))
	}
	if len(ids) != len(texts) {
		return nil, fmt.Errorf("%w: %d ids for %d texts", domain.ErrInvalidInput, len(ids), len(texts))
	}

	docs := make([]domain.Document, len(texts))
	seen := make(map[string]int, len(texts))
	for i, text := range texts {
		doc, err := domain.NewDocument(ids[i], text)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if j, dup := seen[doc.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate document id %q at %d and %d", domain.ErrInvalidInput, doc.ID, j, i)
		}
		seen[doc.ID] = i
		docs[i] = doc
	}
	return docs, nil
}

// shortIDs returns n distinct random ids.
func shortIDs(n int) []string {
	ids := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for len(ids) < n {
		id := uuid.NewString()[:shortIDLength]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// embed embeds docs in batches. Each batch writes only its own slice of
// the result; the first failing batch aborts the run.
func (s *ModelingService) embed(ctx context.Context, docs []domain.Document) ([][]float32, error) {
	logger.Section("Embedding")
	n := len(docs)
	size := s.cfg.BatchSize
	vectors := make([][]float32, n)

	s.progress.Start("Embedding", n)
	defer s.progress.Finish()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for batch, start := 0, 0; start < n; batch, start = batch+1, start+size {
		end := min(start+size, n)
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = docs[start+i].Content
			}
			out, err := s.embedder.EmbedBatch(gctx, texts)
			if err == nil && len(out) != len(texts) {
				err = fmt.Errorf("%w: provider returned %d vectors for %d texts",
					domain.ErrInvariantViolation, len(out), len(texts))
			}
			if err != nil {
				return &domain.EmbeddingError{Batch: batch, Start: start, End: end, Err: err}
			}
			copy(vectors[start:end], out)
			s.progress.Advance(len(texts))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dims {
			return nil, fmt.Errorf("%w: document %q has a %d-dimensional embedding, want %d",
				domain.ErrEmbeddingFailed, docs[i].ID, len(v), dims)
		}
	}
	logger.Debug("Embedded %d documents in %d dimensions", n, dims)
	return vectors, nil
}

// reindex replaces the vector index content with docs.
func (s *ModelingService) reindex(ctx context.Context, docs []domain.Document) error {
	if s.index == nil {
		return nil
	}
	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("reset vector index: %w", err)
	}
	s.progress.Start("Indexing", len(docs))
	defer s.progress.Finish()
	for _, d := range docs {
		if err := s.index.Add(ctx, d.ID, d.Content, d.Embedding); err != nil {
			return fmt.Errorf("index document %q: %w", d.ID, err)
		}
		s.progress.Advance(1)
	}
	return nil
}

// current returns the model or ErrNotFitted.
func (s *ModelingService) current() (*domain.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, domain.ErrNotFitted
	}
	return s.model, nil
}

// withTopics returns the model or an error if it has no topics yet.
func (s *ModelingService) withTopics() (*domain.Model, error) {
	m, err := s.current()
	if err != nil {
		return nil, err
	}
	if len(m.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics, build topics first", domain.ErrNotFitted)
	}
	return m, nil
}

// update applies fn to a copy of the current model and swaps it in. It
// fails with ErrModelReplaced when another Fit or Load replaced the model
// in the meantime; the result is then discarded.
func (s *ModelingService) update(base *domain.Model, fn func(m *domain.Model)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != base {
		logger.Warn("Model %s was replaced during the operation; result discarded", base.ID)
		return fmt.Errorf("%w: %s", ErrModelReplaced, base.ID)
	}
	next := *base
	fn(&next)
	s.model = &next
	return nil
}

// GetTopics clusters the fitted corpus and ranks documents within topics.
// Any earlier topics and names are replaced.
func (s *ModelingService) GetTopics(
	ctx context.Context,
	topicParams domain.TopicParams,
	rankParams domain.RankParams,
) ([]domain.Topic, error) {
	m, err := s.current()
	if err != nil {
		return nil, err
	}
	if topicParams.Seed == nil {
		topicParams.Seed = s.cfg.Reduction.Seed
	}

	topics, docs, err := clustering.Builder{}.Build(ctx, m.Documents, m.Terms, topicParams)
	if err != nil {
		return nil, fmt.Errorf("build topics: %w", err)
	}
	docs, topics, err = ranking.Rank(docs, topics, rankParams)
	if err != nil {
		return nil, fmt.Errorf("rank documents: %w", err)
	}

	err = s.update(m, func(next *domain.Model) {
		next.Documents = docs
		next.Topics = topics
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Built %d topics", len(topics))
	return domain.CloneTopics(topics), nil
}

// CleanTopicNames asks the LLM for readable names. Per-topic failures keep
// the algorithmic name and are reported in the results.
func (s *ModelingService) CleanTopicNames(
	ctx context.Context,
	params domain.TopicGenParams,
) ([]domain.TopicNameResult, error) {
	m, err := s.withTopics()
	if err != nil {
		return nil, err
	}
	named, results, err := s.namer().Name(ctx, m.Topics, m.Documents, params)
	if err != nil {
		return nil, err
	}
	err = s.update(m, func(next *domain.Model) {
		next.Topics = named
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// namer returns a namer over the configured LLM, or nil without one.
func (s *ModelingService) namer() *naming.Namer {
	n := naming.NewNamer(s.llm)
	if s.prompts != nil {
		n.SetPromptStore(s.prompts)
	}
	return n
}

// VisualizeBourdieu projects the corpus on the query axes. Topics are
// clustered in the projected space with params, independently of the
// main topics.
func (s *ModelingService) VisualizeBourdieu(
	ctx context.Context,
	query domain.BourdieuQuery,
	params domain.BourdieuParams,
) (*domain.BourdieuResult, error) {
	m, err := s.current()
	if err != nil {
		return nil, err
	}
	if params.Topics.Seed == nil {
		params.Topics.Seed = s.cfg.Reduction.Seed
	}

	var namer *naming.Namer
	if s.llm != nil {
		namer = s.namer()
	} else if params.GenerateNames {
		logger.Warn("No LLM configured; Bourdieu topics keep algorithmic names")
	}

	result, err := bourdieu.NewProjector(s.embedder, namer).Project(ctx, m.Documents, m.Terms, query, params)
	if err != nil {
		return nil, fmt.Errorf("bourdieu projection: %w", err)
	}
	err = s.update(m, func(next *domain.Model) {
		next.Bourdieu = result
	})
	if err != nil {
		return nil, err
	}

	return result.Clone(), nil
}

// Search returns the k documents closest to the query.
func (s *ModelingService) Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error) {
	logger.Section("Semantic Search")
	m, err := s.current()
	if err != nil {
		return nil, err
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchHit{}, nil
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	hits, err := s.index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	topicOf := make(map[string]string, len(m.Documents))
	for _, d := range m.Documents {
		topicOf[d.ID] = d.TopicID
	}
	out := make([]domain.SearchHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.SearchHit{
			DocumentID: h.DocID,
			Content:    h.Content,
			Score:      h.Similarity,
			TopicID:    topicOf[h.DocID],
		})
	}
	logger.Debug("Search %q returned %d hits", query, len(out))
	return out, nil
}

// Coherence scores each topic's leading topN terms.
func (s *ModelingService) Coherence(topN int) ([]domain.TopicCoherence, error) {
	m, err := s.withTopics()
	if err != nil {
		return nil, err
	}
	return coherence.UMass(m.Topics, m.Documents, topN), nil
}

// Repartition returns topic shares, largest first.
func (s *ModelingService) Repartition() ([]domain.TopicShare, error) {
	m, err := s.withTopics()
	if err != nil {
		return nil, err
	}
	shares := make([]domain.TopicShare, len(m.Topics))
	for i, t := range m.Topics {
		shares[i] = domain.TopicShare{TopicID: t.ID, Name: t.DisplayName(), Size: t.Size, Percent: t.Percent}
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Size > shares[j].Size
	})
	return shares, nil
}

// Export writes the web JSON contract for the main or Bourdieu topics.
func (s *ModelingService) Export(w io.Writer, bourdieu bool) error {
	m, err := s.current()
	if err != nil {
		return err
	}
	return export.Write(w, m, bourdieu)
}

// Save persists the current model and returns its ID.
func (s *ModelingService) Save(ctx context.Context) (string, error) {
	m, err := s.current()
	if err != nil {
		return "", err
	}
	if s.store == nil {
		return "", ErrNoModelStore
	}
	if err := s.store.SaveModel(ctx, m.Clone()); err != nil {
		return "", fmt.Errorf("save model %s: %w", m.ID, err)
	}
	logger.Debug("Saved model %s", m.ID)
	return m.ID, nil
}

// Load restores a persisted model; an empty id loads the latest. Corpus-aware
// embedders are refitted on the stored corpus and the vector index is rebuilt
// from the stored embeddings.
func (s *ModelingService) Load(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNoModelStore
	}
	var (
		m   *domain.Model
		err error
	)
	if id == "" {
		m, err = s.store.LatestModel(ctx)
	} else {
		m, err = s.store.LoadModel(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	if s.embedder != nil {
		if name := s.embedder.ModelName(); m.EmbeddingModel != "" && name != m.EmbeddingModel {
			logger.Warn("Model %s was embedded with %s but the current embedder is %s",
				m.ID, m.EmbeddingModel, name)
		}
		if ca, ok := s.embedder.(driven.CorpusAware); ok && len(m.Documents) > 0 {
			corpus := make([]string, len(m.Documents))
			for i, d := range m.Documents {
				corpus[i] = d.Content
			}
			if err := ca.Prepare(ctx, corpus); err != nil {
				return fmt.Errorf("prepare embedder: %w", err)
			}
		}
	}
	if err := s.reindex(ctx, m.Documents); err != nil {
		return err
	}

	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
	logger.Debug("Loaded model %s (%d documents, %d topics)", m.ID, len(m.Documents), len(m.Topics))
	return nil
}

// ListModels returns persisted model summaries, newest first.
func (s *ModelingService) ListModels(ctx context.Context) ([]domain.ModelSummary, error) {
	if s.store == nil {
		return nil, ErrNoModelStore
	}
	return s.store.ListModels(ctx)
}

// DeleteModel removes a persisted model. The in-memory model is kept.
func (s *ModelingService) DeleteModel(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNoModelStore
	}
	if err := s.store.DeleteModel(ctx, id); err != nil {
		return fmt.Errorf("delete model %s: %w", id, err)
	}
	return nil
}

// Model returns a copy of the current model, nil before Fit.
func (s *ModelingService) Model() *domain.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.Clone()
}
