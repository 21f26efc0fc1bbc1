// Package naming asks a generative model for readable topic names.
//
// Naming is best effort. A failed, empty or oversized generation keeps the
// algorithmic name and is reported per topic; it never fails the batch.
package naming

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/logger"
)

const (
	// MaxNameRunes rejects generations longer than this.
	MaxNameRunes = 100

	// maxExcerptRunes truncates each document quoted in a prompt.
	maxExcerptRunes = 600

	maxTokens = 32
)

// ErrUnusableName indicates the model output could not serve as a name.
var ErrUnusableName = errors.New("unusable generated name")

// Ensure Namer implements PromptStoreAware.
var _ driven.PromptStoreAware = (*Namer)(nil)

// Namer generates topic names with an LLM.
type Namer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewNamer creates a namer; llm may be nil, in which case Name reports
// domain.ErrLLMUnavailable.
func NewNamer(llm driven.LLMService) *Namer {
	return &Namer{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (n *Namer) SetPromptStore(store driven.PromptStore) {
	n.prompts = store
}

// Name returns copies of topics with GeneratedName set where generation
// succeeded, plus one result per topic in input order. Topics are joined
// to documents by id.
func (n *Namer) Name(
	ctx context.Context,
	topics []domain.Topic,
	docs []domain.Document,
	params domain.TopicGenParams,
) ([]domain.Topic, []domain.TopicNameResult, error) {
	if n.llm == nil {
		return nil, nil, domain.ErrLLMUnavailable
	}
	logger.Section("Topic Naming")
	params = withDefaults(params)

	byID := make(map[string]*domain.Document, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}

	out := domain.CloneTopics(topics)
	results := make([]domain.TopicNameResult, len(out))
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		t := &out[i]
		res := domain.TopicNameResult{TopicID: t.ID, Name: t.Name}

		prompt, err := n.buildPrompt(*t, byID, params)
		if err == nil {
			var name string
			name, err = n.generate(ctx, prompt)
			if err == nil {
				t.GeneratedName = name
				res.Name = name
				res.Generated = true
			}
		}
		if err != nil {
			logger.Warn("Keeping algorithmic name for %s: %v", t.ID, err)
			res.Err = err
		}
		results[i] = res
	}
	return out, results, nil
}

func (n *Namer) generate(ctx context.Context, prompt string) (string, error) {
	raw, err := n.llm.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: maxTokens})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	name := Clean(raw)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: empty output", ErrUnusableName)
	case strings.ContainsRune(name, '\n'):
		return "", fmt.Errorf("%w: multi-line output", ErrUnusableName)
	case utf8.RuneCountInString(name) > MaxNameRunes:
		return "", fmt.Errorf("%w: %d characters", ErrUnusableName, utf8.RuneCountInString(name))
	}
	return name, nil
}

func (n *Namer) buildPrompt(t domain.Topic, docs map[string]*domain.Document, params domain.TopicGenParams) (string, error) {
	terms := t.TermIDs
	if len(terms) > params.TopTerms {
		terms = terms[:params.TopTerms]
	}
	termList := strings.Join(terms, ", ")
	if termList == "" {
		termList = strings.ReplaceAll(t.Name, " | ", ", ")
	}

	name := driven.PromptTopicNameTerms
	var excerpts []string
	if params.UseDoc {
		name = driven.PromptTopicNameTermsDocs
		ids := t.TopDocIDs
		if len(ids) > params.TopDoc {
			ids = ids[:params.TopDoc]
		}
		for _, id := range ids {
			doc, ok := docs[id]
			if !ok {
				return "", fmt.Errorf("%w: top document %q of topic %s", domain.ErrNotFound, id, t.ID)
			}
			excerpts = append(excerpts, "- "+Excerpt(doc.Content))
		}
	}

	replacer := strings.NewReplacer(
		"{{terms}}", termList,
		"{{documents}}", strings.Join(excerpts, "\n"),
		"{{context}}", params.Context,
		"{{language}}", params.Language,
	)
	return replacer.Replace(n.template(name)), nil
}

func (n *Namer) template(name string) string {
	return Template(n.prompts, name)
}

// Clean trims whitespace and surrounding double quotes and drops a single
// trailing period.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, ".")
}

// Excerpt collapses whitespace and truncates s for quoting in a prompt.
func Excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxExcerptRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxExcerptRunes]) + "..."
}

func withDefaults(p domain.TopicGenParams) domain.TopicGenParams {
	def := domain.DefaultTopicGenParams()
	if p.Language == "" {
		p.Language = def.Language
	}
	if p.TopDoc <= 0 {
		p.TopDoc = def.TopDoc
	}
	if p.TopTerms <= 0 {
		p.TopTerms = def.TopTerms
	}
	if p.Context == "" {
		p.Context = def.Context
	}
	return p
}
