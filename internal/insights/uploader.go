// Package insights uploads role-tagged conversations to the conversational
// analytics platform. It is a thin wrapper at the collaborator boundary; the
// pipeline core never depends on analytics semantics.
package insights

import (
	"context"
	"fmt"
	"strings"

	ccai "cloud.google.com/go/contactcenterinsights/apiv1"
	ccaipb "cloud.google.com/go/contactcenterinsights/apiv1/contactcenterinsightspb"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"voice-insights-pipeline/internal/observability/logging"
)

// Endpoint returns the insights API endpoint for a region. An empty region
// selects the global endpoint.
func Endpoint(region string) string {
	if region == "" {
		return "contactcenterinsights.googleapis.com"
	}
	return fmt.Sprintf("%s-contactcenterinsights.googleapis.com", region)
}

// Uploader uploads conversations from GCS transcript URIs.
type Uploader struct {
	client *ccai.Client
	parent string // projects/{project}/locations/{location}
	logger zerolog.Logger
}

// New creates an uploader rooted at projects/{projectID}/locations/{location}.
func New(ctx context.Context, projectID, location string, opts ...option.ClientOption) (*Uploader, error) {
	if location == "" {
		location = "us-central1"
	}
	client, err := ccai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create insights client: %w", err)
	}
	return &Uploader{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s", projectID, location),
		logger: logging.WithComponent("insights"),
	}, nil
}

func generateConversationID() string {
	return "conv-" + strings.ReplaceAll(uuid.NewString()[:18], "-", "")
}

func uploadRequest(parent, transcriptURI string) *ccaipb.UploadConversationRequest {
	return &ccaipb.UploadConversationRequest{
		Parent:         parent,
		ConversationId: generateConversationID(),
		Conversation: &ccaipb.Conversation{
			Medium: ccaipb.Conversation_PHONE_CALL,
			DataSource: &ccaipb.ConversationDataSource{
				Source: &ccaipb.ConversationDataSource_GcsSource{
					GcsSource: &ccaipb.GcsSource{TranscriptUri: transcriptURI},
				},
			},
		},
	}
}

func ingestRequest(parent, bucketURI string) *ccaipb.IngestConversationsRequest {
	return &ccaipb.IngestConversationsRequest{
		Parent: parent,
		Source: &ccaipb.IngestConversationsRequest_GcsSource_{
			GcsSource: &ccaipb.IngestConversationsRequest_GcsSource{BucketUri: bucketURI},
		},
		ObjectConfig: &ccaipb.IngestConversationsRequest_TranscriptObjectConfig_{
			TranscriptObjectConfig: &ccaipb.IngestConversationsRequest_TranscriptObjectConfig{
				Medium: ccaipb.Conversation_PHONE_CALL,
			},
		},
	}
}

// Upload uploads one conversation whose transcript lives at transcriptURI.
// It blocks until the upload operation completes and returns the conversation
// resource name.
func (u *Uploader) Upload(ctx context.Context, transcriptURI string) (string, error) {
	op, err := u.client.UploadConversation(ctx, uploadRequest(u.parent, transcriptURI))
	if err != nil {
		return "", fmt.Errorf("upload conversation: %w", err)
	}
	conversation, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("wait for conversation upload: %w", err)
	}

	u.logger.Info().
		Str("conversation", conversation.GetName()).
		Str("transcriptUri", transcriptURI).
		Msg("Conversation uploaded")
	return conversation.GetName(), nil
}

// IngestBulk ingests every transcript under a GCS bucket URI in one
// operation.
func (u *Uploader) IngestBulk(ctx context.Context, bucketURI string) error {
	op, err := u.client.IngestConversations(ctx, ingestRequest(u.parent, bucketURI))
	if err != nil {
		return fmt.Errorf("ingest conversations: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("wait for bulk ingest: %w", err)
	}

	u.logger.Info().Str("bucketUri", bucketURI).Msg("Bulk ingest completed")
	return nil
}

// Close releases the underlying client.
func (u *Uploader) Close() error {
	return u.client.Close()
}
