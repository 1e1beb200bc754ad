// Package query provides the retrieval-and-generation pipeline.
//
// A query runs through embedding, vector search, context assembly, prompt
// building, generation, and history recording. Only the embedding stage
// and a missing generation backend are fatal: search failures degrade to
// an empty context, generation failures degrade to an error-string answer,
// and history persistence is best-effort. Given reachable backends, a
// query always produces a response object.
package query
