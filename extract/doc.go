// Package extract turns source documents into raw text segments.
//
// A Loader dispatches on file extension: PDFs yield one segment per page,
// spreadsheets one per row, plain text and word-processor files a single
// segment. When an OCR engine is attached, image files are recognized
// directly and PDFs additionally have their embedded images extracted and
// recognized, with the OCR output appended as supplementary segments.
//
// Extraction failures are fatal for the document being loaded; OCR scratch
// files are cleaned up unconditionally, including on error paths.
package extract
