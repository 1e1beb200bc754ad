// Package chunk splits extracted document segments into overlapping,
// embedding-sized chunks. Splitting is recursive: paragraphs first, then
// sentences, then words, so chunk boundaries land on natural breaks
// whenever the text allows it.
package chunk
