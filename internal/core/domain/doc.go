// Package domain defines the core entities of the topic pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A corpus entry with its terms, embedding and 2D position
//   - Term: A normalised n-gram or entity mined from the corpus
//   - Topic: A cluster of documents with a name, centroid and hull
//   - BourdieuQuery: Two opposing word-list axes for projection
//   - Model: A persisted snapshot of one pipeline run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
