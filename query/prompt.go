package query

import "fmt"

// Instruction templates for Mistral-style chat models. The grounded
// template forbids answers outside the retrieved context; the open
// template is used when retrieval found nothing.
const (
	groundedTemplate = `[INST] You are a helpful assistant answering questions about internal documents.
Answer the question using only the context below. If the context does not
contain the answer, say that you don't know.

Context:
%s

Question: %s [/INST]`

	openTemplate = `[INST] You are a helpful assistant. Answer the question from your general
knowledge. If you do not have specific information, say so rather than
guessing.

Question: %s [/INST]`
)

// BuildPrompt renders the generation prompt for a query. With a non-empty
// context the model is instructed to stay grounded in it; with no context
// it may answer from general knowledge. Pure function, no side effects.
func BuildPrompt(queryText, contextText string) string {
	if contextText == "" {
		return fmt.Sprintf(openTemplate, queryText)
	}
	return fmt.Sprintf(groundedTemplate, contextText, queryText)
}
