// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services used by ragpipe.
//
// This package defines interfaces for text embedding and text generation.
// Both pipelines depend on these abstractions rather than concrete
// implementations, which keeps the core retrieval logic testable without
// external model services.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates vector embeddings from text. One Embedder instance
//     is shared by ingestion and query so documents and queries always live
//     in the same embedding space.
//   - Generator: Produces an answer from an instruction-formatted prompt.
//   - Provider: Aggregates both services for convenient initialization.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, OpenAI itself)
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Mock constructors (mock.NewEmbedder, mock.NewGenerator) return CONCRETE
// types so tests can inject behavior through function fields and assert on
// call counts.
package ai
