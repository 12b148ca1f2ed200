package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"voice-insights-pipeline/internal/events"
	"voice-insights-pipeline/internal/models"
	"voice-insights-pipeline/internal/service/roles"
	sttmock "voice-insights-pipeline/internal/service/stt/mock"
	"voice-insights-pipeline/internal/storage/memory"
)

// stubClassifier returns a canned model response.
type stubClassifier struct {
	response []byte
	err      error
	calls    int
}

func (s *stubClassifier) Predict(ctx context.Context, prompt string) ([]byte, error) {
	s.calls++
	return s.response, s.err
}

// stubUploader records ingestion requests.
type stubUploader struct {
	uris []string
	err  error
}

func (s *stubUploader) Upload(ctx context.Context, transcriptURI string) (string, error) {
	s.uris = append(s.uris, transcriptURI)
	if s.err != nil {
		return "", s.err
	}
	return "conversations/conv-test", nil
}

func testOptions() Options {
	return Options{
		Bucket:       "test-bucket",
		AudioPrefix:  "audio/",
		STTPrefix:    "stt/",
		TaggedPrefix: "tagged/",
	}
}

// twoTurnPredictions matches the mock adapter's default two-result output.
const twoTurnPredictions = `{"predictions": [{"uid": 0, "role": "AGENT"}, {"uid": 1, "role": "CUSTOMER"}]}`

func taggedChannelTags(t *testing.T, data []byte) []int {
	t.Helper()
	var doc struct {
		Results []struct {
			ChannelTag int `json:"channelTag"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("tagged output is not valid JSON: %v", err)
	}
	tags := make([]int, 0, len(doc.Results))
	for _, r := range doc.Results {
		tags = append(tags, r.ChannelTag)
	}
	return tags
}

func TestRun_EndToEnd(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	if err := store.Put(ctx, "audio/call-001.wav", []byte("fake-audio")); err != nil {
		t.Fatalf("seed audio: %v", err)
	}

	adapter := sttmock.New(store)
	classifier := &stubClassifier{response: []byte(twoTurnPredictions)}
	recognizer := roles.NewRecognizer(classifier, "")
	publisher := events.New(nil)
	uploader := &stubUploader{}

	p := New(store, adapter, recognizer, publisher, uploader, testOptions())
	if err := p.Run(ctx); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(adapter.Calls) != 1 {
		t.Fatalf("expected 1 recognition batch, got %d", len(adapter.Calls))
	}
	if adapter.Calls[0][0] != "gs://test-bucket/audio/call-001.wav" {
		t.Errorf("unexpected audio URI %s", adapter.Calls[0][0])
	}
	if classifier.calls != 1 {
		t.Errorf("expected 1 classification call, got %d", classifier.calls)
	}

	tagged, err := store.Get(ctx, "tagged/call-001.wav_transcript.json")
	if err != nil {
		t.Fatalf("expected tagged output: %v", err)
	}
	tags := taggedChannelTags(t, tagged)
	if len(tags) != 2 || tags[0] != models.ChannelTagAgent || tags[1] != models.ChannelTagCustomer {
		t.Errorf("expected channel tags [2 1], got %v", tags)
	}

	if len(uploader.uris) != 1 || uploader.uris[0] != "gs://test-bucket/tagged/call-001.wav_transcript.json" {
		t.Errorf("unexpected uploaded URIs %v", uploader.uris)
	}
}

func TestRun_NoAudioObjects(t *testing.T) {
	store := memory.New()
	adapter := sttmock.New(store)
	recognizer := roles.NewRecognizer(&stubClassifier{response: []byte(twoTurnPredictions)}, "")

	p := New(store, adapter, recognizer, events.New(nil), nil, testOptions())
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("expected empty batch to succeed, got %v", err)
	}
	if len(adapter.Calls) != 0 {
		t.Errorf("expected no recognition calls for empty batch, got %d", len(adapter.Calls))
	}
}

func TestRun_NilUploaderSkipsIngestion(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.Put(ctx, "audio/call-001.wav", []byte("fake-audio")); err != nil {
		t.Fatalf("seed audio: %v", err)
	}

	recognizer := roles.NewRecognizer(&stubClassifier{response: []byte(twoTurnPredictions)}, "")
	p := New(store, sttmock.New(store), recognizer, events.New(nil), nil, testOptions())

	if err := p.Run(ctx); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if _, err := store.Get(ctx, "tagged/call-001.wav_transcript.json"); err != nil {
		t.Errorf("expected tagged output without uploader: %v", err)
	}
}

func TestRun_ClassifierParseFailureSkipsFile(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.Put(ctx, "audio/call-001.wav", []byte("fake-audio")); err != nil {
		t.Fatalf("seed audio: %v", err)
	}

	recognizer := roles.NewRecognizer(&stubClassifier{response: []byte("the first speaker is the agent")}, "")
	p := New(store, sttmock.New(store), recognizer, events.New(nil), nil, testOptions())

	if err := p.Run(ctx); err != nil {
		t.Fatalf("per-file failures must not fail the batch, got %v", err)
	}
	if _, err := store.Get(ctx, "tagged/call-001.wav_transcript.json"); err == nil {
		t.Error("expected no tagged output for unclassifiable file")
	}
}

func TestRun_MalformedOutputSkippedBatchContinues(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.Put(ctx, "audio/call-001.wav", []byte("fake-audio")); err != nil {
		t.Fatalf("seed audio: %v", err)
	}
	// A pre-existing corrupt document under the recognition prefix.
	if err := store.Put(ctx, "stt/corrupt.json", []byte("{{{")); err != nil {
		t.Fatalf("seed corrupt output: %v", err)
	}

	recognizer := roles.NewRecognizer(&stubClassifier{response: []byte(twoTurnPredictions)}, "")
	p := New(store, sttmock.New(store), recognizer, events.New(nil), nil, testOptions())

	if err := p.Run(ctx); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if _, err := store.Get(ctx, "tagged/call-001.wav_transcript.json"); err != nil {
		t.Errorf("expected healthy file to be processed: %v", err)
	}
	if _, err := store.Get(ctx, "tagged/corrupt.json"); err == nil {
		t.Error("expected no tagged output for corrupt document")
	}
}

func TestRun_UploaderErrorFailsFileNotBatch(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.Put(ctx, "audio/call-001.wav", []byte("fake-audio")); err != nil {
		t.Fatalf("seed audio: %v", err)
	}

	recognizer := roles.NewRecognizer(&stubClassifier{response: []byte(twoTurnPredictions)}, "")
	uploader := &stubUploader{err: errors.New("ingestion unavailable")}
	p := New(store, sttmock.New(store), recognizer, events.New(nil), uploader, testOptions())

	if err := p.Run(ctx); err != nil {
		t.Fatalf("per-file ingestion failures must not fail the batch, got %v", err)
	}
	if len(uploader.uris) != 1 {
		t.Errorf("expected one upload attempt, got %d", len(uploader.uris))
	}
}

func TestRun_PredictionCountMismatchStillMerges(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.Put(ctx, "audio/call-001.wav", []byte("fake-audio")); err != nil {
		t.Fatalf("seed audio: %v", err)
	}

	// One prediction for two recognition results: the unmatched position
	// falls back to CUSTOMER.
	short := `{"predictions": [{"uid": 0, "role": "AGENT"}]}`
	recognizer := roles.NewRecognizer(&stubClassifier{response: []byte(short)}, "")
	p := New(store, sttmock.New(store), recognizer, events.New(nil), nil, testOptions())

	if err := p.Run(ctx); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	tagged, err := store.Get(ctx, "tagged/call-001.wav_transcript.json")
	if err != nil {
		t.Fatalf("expected tagged output despite mismatch: %v", err)
	}
	tags := taggedChannelTags(t, tagged)
	if len(tags) != 2 || tags[0] != models.ChannelTagAgent || tags[1] != models.ChannelTagCustomer {
		t.Errorf("expected channel tags [2 1], got %v", tags)
	}
}
