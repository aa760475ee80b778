// Package decode maps raw telemetry files into read-only float32 views.
//
// Files are never read into memory up front: Open validates the byte length
// against the expected (frames, width) shape and memory-maps the file, and
// values are decoded on access.
package decode
