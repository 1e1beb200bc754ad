// Package tesseract provides an OCR engine backed by the Tesseract library
// via gosseract. It requires cgo and the Tesseract/Leptonica native
// libraries; when built without cgo the constructor returns an error and
// callers fall back to running without OCR.
package tesseract
