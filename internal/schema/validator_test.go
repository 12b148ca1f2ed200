package schema

import (
	"errors"
	"testing"
)

func TestValidate_AWS(t *testing.T) {
	tests := []struct {
		name     string
		document string
		wantErr  bool
	}{
		{
			name: "valid document",
			document: `{"Transcript": [
				{"ParticipantId": "AGENT", "BeginOffsetMillis": 0, "Content": "hello"}
			]}`,
		},
		{
			name:     "empty transcript allowed",
			document: `{"Transcript": []}`,
		},
		{
			name:     "missing transcript",
			document: `{"Channel": "VOICE"}`,
			wantErr:  true,
		},
		{
			name:     "entry missing content",
			document: `{"Transcript": [{"ParticipantId": "AGENT", "BeginOffsetMillis": 0}]}`,
			wantErr:  true,
		},
		{
			name:     "offset wrong type",
			document: `{"Transcript": [{"ParticipantId": "AGENT", "BeginOffsetMillis": "0", "Content": "x"}]}`,
			wantErr:  true,
		},
		{
			name:     "negative offset",
			document: `{"Transcript": [{"ParticipantId": "AGENT", "BeginOffsetMillis": -5, "Content": "x"}]}`,
			wantErr:  true,
		},
		{
			name:     "not JSON",
			document: `{{{`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(AWS, []byte(tt.document))
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected *ValidationError, got %v", err)
				}
				if verr.Schema != AWS {
					t.Errorf("expected schema name %q, got %q", AWS, verr.Schema)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_GenesysCloud(t *testing.T) {
	tests := []struct {
		name     string
		document string
		wantErr  bool
	}{
		{
			name: "valid document",
			document: `{"transcripts": [{"phrases": [
				{"participantPurpose": "external", "startTimeMs": 100, "text": "hi"}
			]}]}`,
		},
		{
			name:     "empty transcripts rejected",
			document: `{"transcripts": []}`,
			wantErr:  true,
		},
		{
			name:     "missing transcripts",
			document: `{"conversationId": "abc"}`,
			wantErr:  true,
		},
		{
			name:     "phrase missing text",
			document: `{"transcripts": [{"phrases": [{"participantPurpose": "external", "startTimeMs": 100}]}]}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(GenesysCloud, []byte(tt.document))
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected *ValidationError, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nonexistent.json", []byte(`{}`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Schema != "nonexistent.json" {
		t.Errorf("unexpected schema name %q", verr.Schema)
	}
}
