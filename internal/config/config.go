// Package config loads pipeline configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal   string
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// GCPConfig holds project and endpoint settings shared by all Google clients.
type GCPConfig struct {
	ProjectID string
	Region    string // endpoint region; empty selects global endpoints
	Location  string // resource location for recognizers and conversations
}

// StorageConfig holds bucket layout settings.
type StorageConfig struct {
	Bucket       string
	AudioPrefix  string // where source audio objects live
	STTPrefix    string // where batch recognition writes output documents
	TaggedPrefix string // where role-tagged documents are written
}

// STTConfig holds batch recognition settings.
type STTConfig struct {
	Provider          string // "google" or "mock"
	Model             string
	LanguageCode      string
	Diarization       bool
	AutoDecoding      bool
	TranslateLanguage string
}

// ClassifierConfig holds role classification settings.
type ClassifierConfig struct {
	Model  string
	Prompt string // empty selects the built-in prompt
}

// InsightsConfig holds analytics ingestion settings.
type InsightsConfig struct {
	Enabled bool
	Bulk    bool // ingest the tagged prefix in one operation instead of per-file uploads
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	TopicConversation string
	TopicQuality      string
}

// Config is the full pipeline configuration.
type Config struct {
	Service    ServiceConfig
	GCP        GCPConfig
	Storage    StorageConfig
	STT        STTConfig
	Classifier ClassifierConfig
	Insights   InsightsConfig
	Kafka      KafkaConfig
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal:   envOrDefault("SERVICE_PRINCIPAL", "svc-voice-insights"),
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
		GCP: GCPConfig{
			ProjectID: envOrDefault("GCP_PROJECT_ID", ""),
			Region:    envOrDefault("GCP_REGION", ""),
			Location:  envOrDefault("GCP_LOCATION", "global"),
		},
		Storage: StorageConfig{
			Bucket:       envOrDefault("STORAGE_BUCKET", ""),
			AudioPrefix:  envOrDefault("STORAGE_AUDIO_PREFIX", "audio/"),
			STTPrefix:    envOrDefault("STORAGE_STT_PREFIX", "stt/"),
			TaggedPrefix: envOrDefault("STORAGE_TAGGED_PREFIX", "tagged/"),
		},
		STT: STTConfig{
			Provider:          envOrDefault("STT_PROVIDER", "google"),
			Model:             envOrDefault("STT_MODEL", "long"),
			LanguageCode:      envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			Diarization:       envBool("STT_DIARIZATION", false),
			AutoDecoding:      envBool("STT_AUTO_DECODING", true),
			TranslateLanguage: envOrDefault("STT_TRANSLATE_LANGUAGE", ""),
		},
		Classifier: ClassifierConfig{
			Model:  envOrDefault("CLASSIFIER_MODEL", "gemini-1.5-pro-002"),
			Prompt: envOrDefault("CLASSIFIER_PROMPT", ""),
		},
		Insights: InsightsConfig{
			Enabled: envBool("INSIGHTS_ENABLED", false),
			Bulk:    envBool("INSIGHTS_BULK", false),
		},
		Kafka: KafkaConfig{
			Enabled:           envBool("KAFKA_ENABLED", false),
			Brokers:           envList("KAFKA_BROKERS"),
			TopicConversation: envOrDefault("KAFKA_TOPIC_CONVERSATION", "voice.conversation.tagged"),
			TopicQuality:      envOrDefault("KAFKA_TOPIC_QUALITY", "voice.conversation.quality"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
