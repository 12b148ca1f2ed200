// Package google provides a Google Cloud Speech-to-Text v2 batch adapter.
package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"voice-insights-pipeline/internal/observability/logging"
	"voice-insights-pipeline/internal/service/stt"
)

// Config holds recognizer settings for the batch adapter.
type Config struct {
	ProjectID         string
	Location          string // recognizer location, e.g. "global", "us-central1"
	Model             string // e.g. "long", "telephony"
	LanguageCode      string
	Diarization       bool
	AutoDecoding      bool
	TranslateLanguage string // empty disables translation
}

// Endpoint returns the speech API endpoint for a region. An empty region
// selects the global endpoint.
func Endpoint(region string) string {
	if region == "" {
		return "speech.googleapis.com"
	}
	return fmt.Sprintf("%s-speech.googleapis.com", region)
}

// Adapter implements stt.Adapter using Google Cloud Speech-to-Text v2 batch
// recognition.
type Adapter struct {
	client     *speech.Client
	cfg        Config
	recognizer string
	logger     zerolog.Logger
}

// New creates a Google batch STT adapter.
// Requires application default credentials or an explicit credentials option.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Adapter, error) {
	if cfg.Model == "" {
		cfg.Model = "long"
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.Location == "" {
		cfg.Location = "global"
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Adapter{
		client: client,
		cfg:    cfg,
		logger: logging.WithComponent("stt.google"),
	}, nil
}

func generateRecognizerID(name string) string {
	suffix := strings.ReplaceAll(uuid.NewString()[:15], "-", "")
	return name + "-" + strings.ToLower(suffix)
}

func (a *Adapter) recognizerFeatures() *speechpb.RecognitionFeatures {
	features := &speechpb.RecognitionFeatures{
		ProfanityFilter:            true,
		EnableWordTimeOffsets:      true,
		EnableWordConfidence:       true,
		EnableAutomaticPunctuation: true,
		EnableSpokenPunctuation:    true,
		EnableSpokenEmojis:         true,
	}
	if a.cfg.Diarization {
		features.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			MinSpeakerCount: 1,
			MaxSpeakerCount: 2,
		}
	}
	return features
}

func (a *Adapter) recognitionConfig() *speechpb.RecognitionConfig {
	config := &speechpb.RecognitionConfig{
		Model:         a.cfg.Model,
		LanguageCodes: []string{a.cfg.LanguageCode},
		Features:      a.recognizerFeatures(),
	}
	if a.cfg.AutoDecoding {
		config.DecodingConfig = &speechpb.RecognitionConfig_AutoDecodingConfig{
			AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
		}
	}
	if a.cfg.TranslateLanguage != "" {
		config.TranslationConfig = &speechpb.TranslationConfig{
			TargetLanguage: a.cfg.TranslateLanguage,
		}
	}
	return config
}

// CreateRecognizer creates a recognizer with the adapter's settings and
// returns its resource name.
func (a *Adapter) CreateRecognizer(ctx context.Context, name string) (string, error) {
	parent := fmt.Sprintf("projects/%s/locations/%s", a.cfg.ProjectID, a.cfg.Location)
	op, err := a.client.CreateRecognizer(ctx, &speechpb.CreateRecognizerRequest{
		Parent:       parent,
		RecognizerId: generateRecognizerID(name),
		Recognizer: &speechpb.Recognizer{
			DisplayName:              name,
			DefaultRecognitionConfig: a.recognitionConfig(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create recognizer: %w", err)
	}
	result, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("wait for recognizer: %w", err)
	}

	a.logger.Info().Str("recognizer", result.GetName()).Msg("Recognizer created")
	return result.GetName(), nil
}

// BatchTranscribe runs batch recognition for the given audio URIs, writing
// output documents under outputURI, and blocks until the long-running
// operation completes. A recognizer is created on first use.
func (a *Adapter) BatchTranscribe(ctx context.Context, audioURIs []string, outputURI string) ([]stt.FileResult, error) {
	if a.recognizer == "" {
		recognizer, err := a.CreateRecognizer(ctx, "insights-batch-recognizer")
		if err != nil {
			return nil, err
		}
		a.recognizer = recognizer
	}

	files := make([]*speechpb.BatchRecognizeFileMetadata, 0, len(audioURIs))
	for _, uri := range audioURIs {
		files = append(files, &speechpb.BatchRecognizeFileMetadata{
			AudioSource: &speechpb.BatchRecognizeFileMetadata_Uri{Uri: uri},
		})
	}

	op, err := a.client.BatchRecognize(ctx, &speechpb.BatchRecognizeRequest{
		Recognizer: a.recognizer,
		Files:      files,
		RecognitionOutputConfig: &speechpb.RecognitionOutputConfig{
			Output: &speechpb.RecognitionOutputConfig_GcsOutputConfig{
				GcsOutputConfig: &speechpb.GcsOutputConfig{Uri: outputURI},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start batch recognition: %w", err)
	}

	a.logger.Info().
		Int("files", len(audioURIs)).
		Str("outputUri", outputURI).
		Msg("Batch recognition started")

	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch recognition: %w", err)
	}
	if payload, jerr := ResultsToJSON(resp); jerr == nil {
		a.logger.Debug().RawJSON("response", payload).Msg("Batch recognition completed")
	}

	results := make([]stt.FileResult, 0, len(resp.GetResults()))
	for uri, fileResult := range resp.GetResults() {
		fr := stt.FileResult{URI: uri}
		if st := fileResult.GetError(); st != nil {
			fr.Err = status.ErrorProto(st)
			code := status.Code(fr.Err)
			level := a.logger.Warn()
			if code == codes.PermissionDenied || code == codes.NotFound {
				level = a.logger.Error()
			}
			level.Str("uri", uri).Str("code", code.String()).Err(fr.Err).Msg("Recognition failed for file")
		}
		results = append(results, fr)
	}
	return results, nil
}

// ResultsToJSON serializes a recognition response message to the JSON form
// consumed by the flattening step, using proto field JSON names.
func ResultsToJSON(message proto.Message) ([]byte, error) {
	return protojson.Marshal(message)
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}
