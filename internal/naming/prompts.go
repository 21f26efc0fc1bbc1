package naming

import (
	"strings"

	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// DefaultPrompts are used when no PromptStore is configured or a prompt
// cannot be loaded.
var DefaultPrompts = map[string]string{
	driven.PromptTopicNameTerms: `You are naming topics discovered in a corpus about {{context}}.
A topic is described by the following keywords: {{terms}}.

Give this topic a short name of at most five words, written in {{language}}.
Avoid verbs. Answer with the name only, without quotes or explanation.`,

	driven.PromptTopicNameTermsDocs: `You are naming topics discovered in a corpus about {{context}}.
A topic is described by the following keywords: {{terms}}.

Here are representative documents of the topic:
{{documents}}

Give this topic a short name of at most five words, written in {{language}}.
Avoid verbs. Answer with the name only, without quotes or explanation.`,

	driven.PromptAnswerQuery: `Use the following documents to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{documents}}

Question: {{query}}
Answer in {{language}}:`,
}

// Template returns the named prompt from store, or the built-in default
// when store is nil or cannot serve it.
func Template(store driven.PromptStore, name string) string {
	if store != nil {
		if tmpl, err := store.Load(name); err == nil && strings.TrimSpace(tmpl) != "" {
			return tmpl
		}
		logger.Debug("Prompt %q unavailable, using built-in default", name)
	}
	return DefaultPrompts[name]
}
