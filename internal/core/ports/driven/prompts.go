package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// Naming templates use {{terms}}, {{documents}}, {{context}} and {{language}}
// placeholders; the answer template uses {{query}}, {{documents}} and {{language}}.
const (
	// PromptTopicNameTerms names a topic from its specific terms only.
	PromptTopicNameTerms = "topic_name_terms"

	// PromptTopicNameTermsDocs names a topic from its terms and top documents.
	PromptTopicNameTermsDocs = "topic_name_terms_docs"

	// PromptAnswerQuery answers a question from retrieved documents.
	PromptAnswerQuery = "answer_query"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use built-in default prompts.
	SetPromptStore(store PromptStore)
}
