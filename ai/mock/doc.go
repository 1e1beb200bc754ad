// Package mock provides test doubles for the ai package interfaces.
//
// The mocks default to deterministic behavior (hash-derived embeddings,
// echo-style generations) and allow custom behavior injection through
// function fields, so tests can simulate backend failures without any
// external model service.
package mock
