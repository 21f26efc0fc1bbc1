// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Turns documents and axis words into vectors
//   - ModelStore: Persists fitted models between runs
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generative topic naming. Without it, algorithmic names are kept.
//   - VectorIndex: Semantic search over the fitted corpus.
//   - PromptStore: Customised naming prompts. Without it, built-in prompts are used.
//   - ProgressReporter: Progress output for long stages.
//   - Connector, NormaliserRegistry: Directory corpora. Without them,
//     only line-oriented corpus files can be fitted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
