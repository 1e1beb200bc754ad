package mock

import (
	"context"
	"strings"
)

// Generator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type Generator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default echo behavior.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// ModelName is the identifier reported by Model.
	// Defaults to "mock-llm".
	ModelName string

	callCount int
}

// NewGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewGenerator() *Generator {
	return &Generator{ModelName: "mock-llm"}
}

// Generate returns an instruction-shaped completion: the prompt echoed back
// with a closing marker and a canned answer appended, mimicking the raw
// output of instruction-tuned models.
func (m *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	m.callCount++

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}

	var b strings.Builder
	b.WriteString(prompt)
	if !strings.Contains(prompt, "[/INST]") {
		b.WriteString(" [/INST]")
	}
	b.WriteString(" This is a mock answer.")
	return b.String(), nil
}

// Model returns the configured model identifier.
func (m *Generator) Model() string {
	return m.ModelName
}

// CallCount returns the number of times Generate was called.
func (m *Generator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *Generator) Reset() {
	m.callCount = 0
	m.GenerateFunc = nil
}
