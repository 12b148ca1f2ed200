package insights

import (
	"strings"
	"testing"

	ccaipb "cloud.google.com/go/contactcenterinsights/apiv1/contactcenterinsightspb"
)

func TestEndpoint(t *testing.T) {
	if got := Endpoint(""); got != "contactcenterinsights.googleapis.com" {
		t.Errorf("expected global endpoint, got %s", got)
	}
	if got := Endpoint("us-central1"); got != "us-central1-contactcenterinsights.googleapis.com" {
		t.Errorf("expected regional endpoint, got %s", got)
	}
}

func TestGenerateConversationID(t *testing.T) {
	id := generateConversationID()

	if !strings.HasPrefix(id, "conv-") {
		t.Errorf("expected 'conv-' prefix, got %s", id)
	}
	suffix := strings.TrimPrefix(id, "conv-")
	if len(suffix) != 16 {
		t.Errorf("expected 16-character suffix, got %d in %s", len(suffix), id)
	}
	if strings.Contains(suffix, "-") {
		t.Errorf("expected dashes stripped from suffix, got %s", id)
	}

	if other := generateConversationID(); other == id {
		t.Errorf("expected unique ids, got %s twice", id)
	}
}

func TestUploadRequest(t *testing.T) {
	req := uploadRequest("projects/p/locations/us-central1", "gs://bucket/tagged/call.json")

	if req.GetParent() != "projects/p/locations/us-central1" {
		t.Errorf("unexpected parent %s", req.GetParent())
	}
	if !strings.HasPrefix(req.GetConversationId(), "conv-") {
		t.Errorf("unexpected conversation id %s", req.GetConversationId())
	}
	conv := req.GetConversation()
	if conv.GetMedium() != ccaipb.Conversation_PHONE_CALL {
		t.Errorf("expected PHONE_CALL medium, got %v", conv.GetMedium())
	}
	if got := conv.GetDataSource().GetGcsSource().GetTranscriptUri(); got != "gs://bucket/tagged/call.json" {
		t.Errorf("unexpected transcript uri %s", got)
	}
}

func TestIngestRequest(t *testing.T) {
	req := ingestRequest("projects/p/locations/us-central1", "gs://bucket/tagged/")

	if req.GetParent() != "projects/p/locations/us-central1" {
		t.Errorf("unexpected parent %s", req.GetParent())
	}
	if got := req.GetGcsSource().GetBucketUri(); got != "gs://bucket/tagged/" {
		t.Errorf("unexpected bucket uri %s", got)
	}
	if got := req.GetTranscriptObjectConfig().GetMedium(); got != ccaipb.Conversation_PHONE_CALL {
		t.Errorf("expected PHONE_CALL medium on transcript objects, got %v", got)
	}
}
