// Package stt defines the interface for batch Speech-to-Text adapters.
package stt

import "context"

// FileResult reports the outcome for one audio file in a batch.
type FileResult struct {
	// URI of the source audio file.
	URI string

	// Err is non-nil when recognition failed for this file.
	Err error
}

// Adapter defines the interface for batch STT providers.
type Adapter interface {
	// BatchTranscribe transcribes the audio files at audioURIs and writes one
	// recognition output document per file under outputURI. It blocks until
	// the batch operation completes and reports per-file outcomes.
	BatchTranscribe(ctx context.Context, audioURIs []string, outputURI string) ([]FileResult, error)
}
