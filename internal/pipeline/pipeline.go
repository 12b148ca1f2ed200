// Package pipeline drives the batch flow: list audio objects, run batch
// recognition, then for each recognition output flatten, classify roles,
// merge, persist, and hand off for ingestion.
//
// Each file is a self-contained unit: a failure is logged and counted and the
// batch moves on. The pipeline holds no state across Run calls.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog"

	"voice-insights-pipeline/internal/events"
	"voice-insights-pipeline/internal/models"
	"voice-insights-pipeline/internal/observability/logging"
	"voice-insights-pipeline/internal/observability/metrics"
	"voice-insights-pipeline/internal/service/format"
	"voice-insights-pipeline/internal/service/roles"
	"voice-insights-pipeline/internal/service/stt"
	"voice-insights-pipeline/internal/storage"
)

// Uploader hands a persisted, role-tagged transcript to the analytics
// platform. A nil Uploader disables ingestion.
type Uploader interface {
	Upload(ctx context.Context, transcriptURI string) (string, error)
}

// Options holds the bucket layout the pipeline operates over.
type Options struct {
	Bucket       string
	AudioPrefix  string
	STTPrefix    string
	TaggedPrefix string
}

// Pipeline wires the collaborators for one batch run.
type Pipeline struct {
	store      storage.Store
	adapter    stt.Adapter
	recognizer *roles.Recognizer
	publisher  *events.Publisher
	uploader   Uploader
	opts       Options
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// New creates a pipeline. publisher must be non-nil (use a disabled publisher
// for log-only mode); uploader may be nil.
func New(store storage.Store, adapter stt.Adapter, recognizer *roles.Recognizer, publisher *events.Publisher, uploader Uploader, opts Options) *Pipeline {
	return &Pipeline{
		store:      store,
		adapter:    adapter,
		recognizer: recognizer,
		publisher:  publisher,
		uploader:   uploader,
		opts:       opts,
		logger:     logging.WithComponent("pipeline"),
		metrics:    metrics.DefaultMetrics,
	}
}

func (p *Pipeline) uri(key string) string {
	return fmt.Sprintf("gs://%s/%s", p.opts.Bucket, key)
}

// Run executes one full batch: recognize all audio under the audio prefix,
// then process every recognition output document. It returns an error only
// when the batch itself cannot proceed; per-file failures are logged,
// counted, and skipped.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		p.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	audioKeys, err := p.store.List(ctx, p.opts.AudioPrefix)
	if err != nil {
		return fmt.Errorf("list audio objects: %w", err)
	}
	if len(audioKeys) == 0 {
		p.logger.Warn().Str("prefix", p.opts.AudioPrefix).Msg("No audio objects found, nothing to do")
		return nil
	}

	audioURIs := make([]string, 0, len(audioKeys))
	for _, key := range audioKeys {
		audioURIs = append(audioURIs, p.uri(key))
	}

	p.logger.Info().Int("files", len(audioURIs)).Msg("Starting batch recognition")
	fileResults, err := p.adapter.BatchTranscribe(ctx, audioURIs, p.uri(p.opts.STTPrefix))
	if err != nil {
		return fmt.Errorf("batch recognition: %w", err)
	}
	for _, fr := range fileResults {
		if fr.Err != nil {
			p.metrics.RecordFileFailed("recognize")
			p.logger.Warn().Str("uri", fr.URI).Err(fr.Err).Msg("Recognition failed, file skipped")
		}
	}

	outputKeys, err := p.store.List(ctx, p.opts.STTPrefix)
	if err != nil {
		return fmt.Errorf("list recognition outputs: %w", err)
	}

	processed := 0
	for _, key := range outputKeys {
		if err := p.processFile(ctx, key); err != nil {
			p.logger.Error().Str("objectKey", key).Err(err).Msg("File processing failed")
			continue
		}
		processed++
	}

	p.logger.Info().
		Int("outputs", len(outputKeys)).
		Int("processed", processed).
		Dur("elapsed", time.Since(start)).
		Msg("Batch completed")
	return nil
}

// processFile runs the adapt, classify, merge, persist sequence for one
// recognition output document.
func (p *Pipeline) processFile(ctx context.Context, key string) error {
	logger := logging.WithFile("pipeline", key)

	raw, err := p.store.Get(ctx, key)
	if err != nil {
		p.metrics.RecordFileFailed("get")
		return fmt.Errorf("get recognition output: %w", err)
	}

	utterances, err := format.FlattenForClassification(raw)
	if err != nil {
		p.metrics.RecordFileFailed("flatten")
		return fmt.Errorf("flatten: %w", err)
	}
	if len(utterances.Results) == 0 {
		logger.Warn().Msg("Recognition output has no usable utterances, skipping")
		return nil
	}

	predictions, err := p.recognizer.PredictRoles(ctx, utterances)
	if err != nil {
		p.metrics.RecordFileFailed("classify")
		if errors.Is(err, roles.ErrClassificationParse) {
			return fmt.Errorf("classification response rejected: %w", err)
		}
		return fmt.Errorf("classify: %w", err)
	}

	if len(predictions.Predictions) != len(utterances.Results) {
		alert := models.QualityAlert{
			EventType:   models.EventQualityAlert,
			ObjectKey:   key,
			Results:     len(utterances.Results),
			Predictions: len(predictions.Predictions),
			Timestamp:   time.Now().UnixMilli(),
		}
		if err := p.publisher.PublishQualityAlert(ctx, key, alert); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish quality alert")
		}
	}

	tagged, err := roles.Combine(raw, predictions)
	if err != nil {
		p.metrics.RecordFileFailed("merge")
		return fmt.Errorf("merge: %w", err)
	}

	outputKey := p.opts.TaggedPrefix + path.Base(key)
	if err := p.store.Put(ctx, outputKey, tagged); err != nil {
		p.metrics.RecordFileFailed("put")
		return fmt.Errorf("persist tagged output: %w", err)
	}

	event := models.ConversationTagged{
		EventType:  models.EventConversationTagged,
		ObjectKey:  key,
		OutputKey:  outputKey,
		Utterances: len(utterances.Results),
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := p.publisher.PublishConversation(ctx, key, event); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish conversation event")
	}

	if p.uploader != nil {
		if _, err := p.uploader.Upload(ctx, p.uri(outputKey)); err != nil {
			p.metrics.RecordFileFailed("ingest")
			return fmt.Errorf("analytics upload: %w", err)
		}
	}

	p.metrics.FilesProcessed.Inc()
	logger.Info().
		Str("outputKey", outputKey).
		Int("utterances", len(utterances.Results)).
		Msg("File processed")
	return nil
}
