package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/topicmap/internal/chunker"
	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/core/ports/driving"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusLoader = (*CorpusService)(nil)

// CorpusService reads raw files through a connector and normalises them to text.
type CorpusService struct {
	connector   driven.Connector
	normalisers driven.NormaliserRegistry
}

// NewCorpusService creates a corpus loader.
func NewCorpusService(connector driven.Connector, normalisers driven.NormaliserRegistry) *CorpusService {
	return &CorpusService{
		connector:   connector,
		normalisers: normalisers,
	}
}

// Load reads, normalises and optionally chunks the documents under root.
// Unsupported and empty files are skipped with a warning; any other
// normalisation failure aborts the load.
func (s *CorpusService) Load(ctx context.Context, root string, chunkSize int) ([]string, []string, error) {
	if s.connector == nil || s.normalisers == nil {
		return nil, nil, errors.New("corpus loader not configured")
	}

	raws, err := s.connector.Read(ctx, root)
	if err != nil {
		return nil, nil, fmt.Errorf("%s connector: %w", s.connector.Type(), err)
	}

	var split *chunker.Chunker
	if chunkSize > 0 {
		split = chunker.New(chunker.WithChunkSize(chunkSize), chunker.WithOverlap(chunkSize/5))
	}

	var texts, ids []string
	skipped := 0
	for i := range raws {
		raw := &raws[i]
		text, err := s.normalisers.Normalise(ctx, raw)
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			logger.Warn("skipping %s: unsupported type %s", raw.URI, raw.MIMEType)
			skipped++
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			logger.Warn("skipping %s: no text content", raw.URI)
			skipped++
			continue
		}

		if split == nil {
			texts = append(texts, text)
			ids = append(ids, raw.URI)
			continue
		}
		chunks := split.Split(text)
		if len(chunks) == 1 {
			texts = append(texts, text)
			ids = append(ids, raw.URI)
			continue
		}
		for n, chunk := range chunks {
			texts = append(texts, chunk)
			ids = append(ids, fmt.Sprintf("%s#%d", raw.URI, n))
		}
	}

	logger.Debug("corpus: %d documents from %d files (%d skipped)", len(texts), len(raws), skipped)
	if len(texts) == 0 {
		return nil, nil, fmt.Errorf("%w: no readable documents under %s", domain.ErrEmptyCorpus, root)
	}
	return texts, ids, nil
}
