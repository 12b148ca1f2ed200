// Package format converts vendor transcript documents and raw speech
// recognition results into the canonical conversation representation.
//
// Conversions are deterministic and side-effect free over their inputs:
// each vendor document is validated against its schema, transformed entry by
// entry, and either fully converted or rejected. No partial output is ever
// produced.
package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voice-insights-pipeline/internal/models"
	"voice-insights-pipeline/internal/observability/logging"
	"voice-insights-pipeline/internal/observability/metrics"
	"voice-insights-pipeline/internal/schema"
)

// ReferenceDatetimeLayout is the accepted layout for the optional AWS
// reference instant.
const ReferenceDatetimeLayout = "2006/01/02 15:04:05"

// ErrInvalidDateFormat reports a reference datetime that does not match
// ReferenceDatetimeLayout.
var ErrInvalidDateFormat = errors.New("invalid datetime format")

// Vendor labels used in logs and metrics.
const (
	VendorAWS     = "aws"
	VendorGenesys = "genesys_cloud"
)

type awsDocument struct {
	Transcript []awsEntry `json:"Transcript"`
}

type awsEntry struct {
	ParticipantID     string `json:"ParticipantId"`
	BeginOffsetMillis int64  `json:"BeginOffsetMillis"`
	Content           string `json:"Content"`
}

type genesysDocument struct {
	Transcripts []genesysTranscript `json:"transcripts"`
}

type genesysTranscript struct {
	Phrases []genesysPhrase `json:"phrases"`
}

type genesysPhrase struct {
	ParticipantPurpose string `json:"participantPurpose"`
	StartTimeMs        int64  `json:"startTimeMs"`
	Text               string `json:"text"`
}

// FromAWS converts an AWS Contact Lens transcript into a canonical
// conversation.
//
// AWS transcripts carry time as an offset from the start of the call, with no
// absolute date, so the caller supplies a reference instant in
// ReferenceDatetimeLayout form (interpreted as UTC). When referenceDatetime is
// empty the current wall clock is used instead, which makes repeated
// conversions of the same document non-deterministic; callers that need
// reproducible output must pass the reference explicitly.
//
// Offsets are truncated to whole seconds before the microsecond multiply, so
// sub-second offset precision is lost. This matches the historical importer
// output and must not change without re-importing existing conversations.
func FromAWS(document []byte, referenceDatetime string) (*models.Conversation, error) {
	m := metrics.DefaultMetrics
	logger := logging.WithVendor(VendorAWS)

	referenceSeconds, err := resolveReferenceSeconds(referenceDatetime)
	if err != nil {
		m.RecordConversion(VendorAWS, err, "date")
		logger.Warn().Str("referenceDatetime", referenceDatetime).Msg("Invalid reference datetime, document rejected")
		return nil, err
	}

	if err := schema.Validate(schema.AWS, document); err != nil {
		m.SchemaRejections.WithLabelValues(schema.AWS).Inc()
		m.RecordConversion(VendorAWS, err, "schema")
		logger.Warn().Err(err).Msg("Document failed schema validation")
		return nil, err
	}

	var doc awsDocument
	if err := json.Unmarshal(document, &doc); err != nil {
		// Unreachable for documents that passed validation; kept so a schema
		// edit cannot turn decode failures into panics.
		m.RecordConversion(VendorAWS, err, "decode")
		return nil, fmt.Errorf("decode AWS transcript: %w", err)
	}

	conv := &models.Conversation{Entries: make([]models.Entry, 0, len(doc.Transcript))}
	for _, entry := range doc.Transcript {
		userID := models.UserIDCustomer
		if entry.ParticipantID == "AGENT" {
			userID = models.UserIDAgent
		}
		conv.Entries = append(conv.Entries, models.Entry{
			// The vendor participant id is passed through verbatim; only the
			// user id is derived from the AGENT equality test.
			Role:               models.Role(entry.ParticipantID),
			StartTimestampUsec: (entry.BeginOffsetMillis/1000 + referenceSeconds) * models.MicrosecondsPerSecond,
			Text:               entry.Content,
			UserID:             userID,
		})
	}

	m.RecordConversion(VendorAWS, nil, "")
	return conv, nil
}

func resolveReferenceSeconds(referenceDatetime string) (int64, error) {
	if referenceDatetime == "" {
		return time.Now().Unix(), nil
	}
	t, err := time.Parse(ReferenceDatetimeLayout, referenceDatetime)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDateFormat, referenceDatetime)
	}
	return t.Unix(), nil
}

// FromGenesysCloud converts a Genesys Cloud transcript into a canonical
// conversation.
//
// Only the first transcript object's phrase list is processed; additional
// transcript objects are ignored (single-channel assumption). Genesys
// timestamps are epoch milliseconds and convert to microseconds with full
// precision.
func FromGenesysCloud(document []byte) (*models.Conversation, error) {
	m := metrics.DefaultMetrics
	logger := logging.WithVendor(VendorGenesys)

	if err := schema.Validate(schema.GenesysCloud, document); err != nil {
		m.SchemaRejections.WithLabelValues(schema.GenesysCloud).Inc()
		m.RecordConversion(VendorGenesys, err, "schema")
		logger.Warn().Err(err).Msg("Document failed schema validation")
		return nil, err
	}

	var doc genesysDocument
	if err := json.Unmarshal(document, &doc); err != nil {
		m.RecordConversion(VendorGenesys, err, "decode")
		return nil, fmt.Errorf("decode Genesys transcript: %w", err)
	}

	if len(doc.Transcripts) > 1 {
		logger.Debug().Int("transcripts", len(doc.Transcripts)).Msg("Multiple transcripts present, only the first is converted")
	}

	phrases := doc.Transcripts[0].Phrases
	conv := &models.Conversation{Entries: make([]models.Entry, 0, len(phrases))}
	for _, phrase := range phrases {
		role := models.RoleAgent
		userID := models.UserIDAgent
		if phrase.ParticipantPurpose == "external" {
			role = models.RoleCustomer
			userID = models.UserIDCustomer
		}
		conv.Entries = append(conv.Entries, models.Entry{
			Role:               role,
			StartTimestampUsec: phrase.StartTimeMs * 1000,
			Text:               phrase.Text,
			UserID:             userID,
		})
	}

	m.RecordConversion(VendorGenesys, nil, "")
	return conv, nil
}
