// Package openai provides AI service implementations backed by
// OpenAI-compatible APIs.
//
// This package implements the ai.Provider interface using the langchaingo
// library, so it works against any endpoint that speaks the OpenAI wire
// protocol: Ollama, LocalAI, vLLM, or OpenAI itself.
package openai
