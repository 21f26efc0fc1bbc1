package driving

import "context"

// CorpusLoader turns a document directory into a list of texts.
type CorpusLoader interface {
	// Load reads every supported file under root. Files longer than
	// chunkSize runes are split into several documents; zero disables
	// splitting. ids are slash-separated paths relative to root, suffixed
	// with "#n" for the n-th chunk of a split file.
	Load(ctx context.Context, root string, chunkSize int) (texts, ids []string, err error)
}
