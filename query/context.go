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

package query

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/vectorstore"
)

const (
	// DefaultMaxContextChars bounds the assembled context passed to the
	// generation model. A hard character cut, not a token count: close
	// enough for the model context windows in play, and cheap.
	DefaultMaxContextChars = 4096

	// snippetChars is the citation snippet length. Snippets come from the
	// untruncated chunk text, so a chunk cut from the context window still
	// cites readable content.
	snippetChars = 200

	chunkSeparator = "\n\n"
)

// AssembledContext is the retrieval context for one query: the concatenated
// chunk texts fed to the prompt, and the citations reported to the caller.
// Sources always covers every hit, even hits truncated out of Text.
type AssembledContext struct {
	Text    string
	Sources []core.SourceCitation
}

// AssembleContext concatenates hit texts in the order given (the store
// returns them best-first) up to maxChars, and builds one citation per hit.
// Zero hits yield an empty, valid context.
func AssembleContext(hits []vectorstore.Hit, maxChars int) AssembledContext {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	var b strings.Builder
	sources := make([]core.SourceCitation, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, core.SourceCitation{
			DocumentID:     hit.ID,
			DocumentName:   hit.Payload.Source,
			RelevanceScore: hit.Score,
			ContentSnippet: snippet(hit.Payload.Text),
		})

		// Budget the separator before writing it, so a builder sitting
		// just under the limit never overshoots and the remaining count
		// never goes negative.
		remaining := maxChars - b.Len()
		if b.Len() > 0 {
			remaining -= len(chunkSeparator)
		}
		if remaining <= 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(chunkSeparator)
		}
		b.WriteString(cutAtRune(hit.Payload.Text, remaining))
	}

	return AssembledContext{Text: b.String(), Sources: sources}
}

func snippet(text string) string {
	return cutAtRune(strings.TrimSpace(text), snippetChars)
}

// cutAtRune cuts s to at most n bytes without splitting a multi-byte rune.
func cutAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
