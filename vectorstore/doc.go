// Package vectorstore defines the storage abstraction for embedded chunks.
// The qdrant subpackage provides the production implementation over the
// Qdrant gRPC API; the memory subpackage provides a process-local store used
// in tests and small deployments.
package vectorstore
