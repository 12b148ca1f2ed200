// Package mock provides an in-memory stt.Adapter for tests and local runs.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"voice-insights-pipeline/internal/service/stt"
	"voice-insights-pipeline/internal/storage"
)

// Adapter implements stt.Adapter by writing canned recognition documents to
// a storage.Store. Each audio URI produces one output document whose results
// contain the configured transcripts.
type Adapter struct {
	mu sync.Mutex

	store storage.Store

	// Transcripts keyed by audio URI. Missing URIs fall back to Default.
	Transcripts map[string][]string

	// Default transcripts for URIs not present in Transcripts.
	Default []string

	// Calls records every BatchTranscribe invocation.
	Calls [][]string
}

// New creates a mock adapter writing into store.
func New(store storage.Store) *Adapter {
	return &Adapter{
		store:       store,
		Transcripts: make(map[string][]string),
		Default:     []string{"hello, how can I help you today?", "hi, I have a question about my bill."},
	}
}

type mockAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type mockResult struct {
	Alternatives []mockAlternative `json:"alternatives"`
}

type mockRecognition struct {
	Results []mockResult `json:"results"`
}

// BatchTranscribe writes one recognition output document per audio URI under
// the key prefix derived from outputURI.
func (a *Adapter) BatchTranscribe(ctx context.Context, audioURIs []string, outputURI string) ([]stt.FileResult, error) {
	a.mu.Lock()
	a.Calls = append(a.Calls, append([]string(nil), audioURIs...))
	a.mu.Unlock()

	prefix := strings.TrimPrefix(outputURI, "gs://")
	if i := strings.Index(prefix, "/"); i >= 0 {
		prefix = prefix[i+1:]
	}

	results := make([]stt.FileResult, 0, len(audioURIs))
	for _, uri := range audioURIs {
		transcripts, ok := a.Transcripts[uri]
		if !ok {
			transcripts = a.Default
		}

		doc := mockRecognition{}
		for _, text := range transcripts {
			doc.Results = append(doc.Results, mockResult{
				Alternatives: []mockAlternative{{Transcript: text, Confidence: 0.9}},
			})
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal mock recognition: %w", err)
		}

		key := path.Join(prefix, path.Base(uri)+"_transcript.json")
		if err := a.store.Put(ctx, key, payload); err != nil {
			results = append(results, stt.FileResult{URI: uri, Err: err})
			continue
		}
		results = append(results, stt.FileResult{URI: uri})
	}
	return results, nil
}
