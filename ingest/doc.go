// Package ingest provides pipeline orchestration for processing source
// documents into the vector store.
//
// The Pipeline type manages the ingestion workflow for a document:
//   - Loading and extracting text (with optional OCR)
//   - Chunking into overlapping, embedding-sized pieces
//   - Embedding chunk texts in memory-aware batches
//   - Writing vector points to the store
//   - Recording per-document metadata
//
// Stages run strictly in sequence for one document; concurrency comes from
// running multiple pipeline invocations at once against the shared
// embedder and store. Metadata persistence is best-effort: a metadata
// failure after vectors are written is logged, not surfaced.
package ingest
