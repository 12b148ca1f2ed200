package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"voice-insights-pipeline/internal/config"
	"voice-insights-pipeline/internal/events"
	"voice-insights-pipeline/internal/insights"
	"voice-insights-pipeline/internal/observability"
	"voice-insights-pipeline/internal/observability/logging"
	"voice-insights-pipeline/internal/pipeline"
	"voice-insights-pipeline/internal/service/roles"
	rolesmock "voice-insights-pipeline/internal/service/roles/mock"
	"voice-insights-pipeline/internal/service/roles/vertex"
	"voice-insights-pipeline/internal/service/stt"
	sttgoogle "voice-insights-pipeline/internal/service/stt/google"
	sttmock "voice-insights-pipeline/internal/service/stt/mock"
	"voice-insights-pipeline/internal/storage"
	"voice-insights-pipeline/internal/storage/gcs"
	"voice-insights-pipeline/internal/storage/memory"
)

func main() {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Init(logging.Config{
		Level:      cfg.Service.LogLevel,
		Format:     cfg.Service.LogFormat,
		TimeFormat: time.RFC3339,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs := observability.NewServer(cfg.Service.MetricsAddr)
	obs.Start()

	publisher := events.New(&events.Config{
		Enabled:           cfg.Kafka.Enabled,
		Brokers:           cfg.Kafka.Brokers,
		TopicConversation: cfg.Kafka.TopicConversation,
		TopicQuality:      cfg.Kafka.TopicQuality,
		Principal:         cfg.Service.Principal,
	})
	defer publisher.Close()

	var store storage.Store
	var adapter stt.Adapter
	var classifier roles.Classifier
	var taggedURI string

	switch cfg.STT.Provider {
	case "mock":
		// Credential-free local mode: in-memory storage, canned recognition
		// output, alternating-role classification.
		mem := memory.New()
		store = mem
		adapter = sttmock.New(mem)
		classifier = rolesmock.New()
	default:
		gcsStore, err := gcs.New(ctx, cfg.Storage.Bucket, cfg.GCP.Region)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create storage client")
		}
		defer gcsStore.Close()
		store = gcsStore
		taggedURI = gcsStore.URI(cfg.Storage.TaggedPrefix)

		speechOpts := []option.ClientOption{}
		if cfg.GCP.Region != "" {
			speechOpts = append(speechOpts, option.WithEndpoint(sttgoogle.Endpoint(cfg.GCP.Region)))
		}
		googleAdapter, err := sttgoogle.New(ctx, sttgoogle.Config{
			ProjectID:         cfg.GCP.ProjectID,
			Location:          cfg.GCP.Location,
			Model:             cfg.STT.Model,
			LanguageCode:      cfg.STT.LanguageCode,
			Diarization:       cfg.STT.Diarization,
			AutoDecoding:      cfg.STT.AutoDecoding,
			TranslateLanguage: cfg.STT.TranslateLanguage,
		}, speechOpts...)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create speech adapter")
		}
		defer googleAdapter.Close()
		adapter = googleAdapter

		vertexClassifier, err := vertex.New(ctx, cfg.GCP.ProjectID, cfg.GCP.Location, cfg.Classifier.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create vertex classifier")
		}
		defer vertexClassifier.Close()
		classifier = vertexClassifier
	}

	recognizer := roles.NewRecognizer(classifier, cfg.Classifier.Prompt)

	var uploader pipeline.Uploader
	var bulkIngester *insights.Uploader
	if cfg.Insights.Enabled {
		insightsOpts := []option.ClientOption{}
		if cfg.GCP.Region != "" {
			insightsOpts = append(insightsOpts, option.WithEndpoint(insights.Endpoint(cfg.GCP.Region)))
		}
		insightsUploader, err := insights.New(ctx, cfg.GCP.ProjectID, cfg.GCP.Location, insightsOpts...)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create insights uploader")
		}
		defer insightsUploader.Close()
		if cfg.Insights.Bulk {
			bulkIngester = insightsUploader
		} else {
			uploader = insightsUploader
		}
	}

	p := pipeline.New(store, adapter, recognizer, publisher, uploader, pipeline.Options{
		Bucket:       cfg.Storage.Bucket,
		AudioPrefix:  cfg.Storage.AudioPrefix,
		STTPrefix:    cfg.Storage.STTPrefix,
		TaggedPrefix: cfg.Storage.TaggedPrefix,
	})

	log.Info().
		Str("bucket", cfg.Storage.Bucket).
		Str("sttProvider", cfg.STT.Provider).
		Str("classifierModel", cfg.Classifier.Model).
		Msg("Voice insights pipeline starting")

	if err := p.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Pipeline batch failed")
		shutdown(obs)
		os.Exit(1)
	}

	if bulkIngester != nil && taggedURI != "" {
		if err := bulkIngester.IngestBulk(ctx, taggedURI); err != nil {
			log.Error().Err(err).Msg("Bulk ingest failed")
			shutdown(obs)
			os.Exit(1)
		}
	}

	shutdown(obs)
}

func shutdown(obs *observability.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := obs.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Observability server shutdown error")
	}
}
