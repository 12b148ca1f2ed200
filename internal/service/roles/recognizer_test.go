package roles

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voice-insights-pipeline/internal/models"
)

// stubClassifier implements Classifier with a canned response.
type stubClassifier struct {
	response []byte
	err      error
	prompt   string
}

func (s *stubClassifier) Predict(ctx context.Context, prompt string) ([]byte, error) {
	s.prompt = prompt
	return s.response, s.err
}

func utterances(texts ...string) *models.UtteranceList {
	list := &models.UtteranceList{}
	for i, text := range texts {
		list.Results = append(list.Results, models.Utterance{UID: i, Text: text})
	}
	return list
}

func TestPredictRoles_ParsesPredictions(t *testing.T) {
	stub := &stubClassifier{
		response: []byte(`{"predictions": [{"uid": 0, "role": "AGENT"}, {"uid": 1, "role": "CUSTOMER"}]}`),
	}
	r := NewRecognizer(stub, "")

	preds, err := r.PredictRoles(context.Background(), utterances("hello", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(preds.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds.Predictions))
	}
	if preds.Predictions[0].Role != models.RoleAgent || preds.Predictions[0].UID != 0 {
		t.Errorf("unexpected first prediction: %+v", preds.Predictions[0])
	}
	if preds.Predictions[1].Role != models.RoleCustomer || preds.Predictions[1].UID != 1 {
		t.Errorf("unexpected second prediction: %+v", preds.Predictions[1])
	}
}

func TestPredictRoles_PromptInterpolation(t *testing.T) {
	stub := &stubClassifier{response: []byte(`{"predictions": []}`)}
	r := NewRecognizer(stub, "")

	if _, err := r.PredictRoles(context.Background(), utterances("hello there")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(stub.prompt, "{conversation}") {
		t.Error("expected placeholder to be replaced")
	}
	if !strings.Contains(stub.prompt, `"hello there"`) {
		t.Error("expected utterance text in prompt")
	}
	if !strings.Contains(stub.prompt, `"uid":0`) {
		t.Error("expected uid in prompt")
	}
	if !strings.Contains(stub.prompt, "multilingual expert") {
		t.Error("expected default prompt instruction text")
	}
}

func TestPredictRoles_CustomPrompt(t *testing.T) {
	stub := &stubClassifier{response: []byte(`{"predictions": []}`)}
	r := NewRecognizer(stub, "Label these turns: {conversation}")

	if _, err := r.PredictRoles(context.Background(), utterances("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stub.prompt, "Label these turns: ") {
		t.Errorf("expected custom prompt to be used, got %q", stub.prompt)
	}
}

func TestPredictRoles_NotJSON(t *testing.T) {
	stub := &stubClassifier{response: []byte("I think the first speaker is the agent.")}
	r := NewRecognizer(stub, "")

	_, err := r.PredictRoles(context.Background(), utterances("a"))
	if !errors.Is(err, ErrClassificationParse) {
		t.Errorf("expected ErrClassificationParse, got %v", err)
	}
}

func TestPredictRoles_MissingPredictionsKey(t *testing.T) {
	stub := &stubClassifier{response: []byte(`{"roles": []}`)}
	r := NewRecognizer(stub, "")

	_, err := r.PredictRoles(context.Background(), utterances("a"))
	if !errors.Is(err, ErrClassificationParse) {
		t.Errorf("expected ErrClassificationParse, got %v", err)
	}
}

func TestPredictRoles_PredictionsNotArray(t *testing.T) {
	stub := &stubClassifier{response: []byte(`{"predictions": "AGENT"}`)}
	r := NewRecognizer(stub, "")

	_, err := r.PredictRoles(context.Background(), utterances("a"))
	if !errors.Is(err, ErrClassificationParse) {
		t.Errorf("expected ErrClassificationParse, got %v", err)
	}
}

func TestPredictRoles_ClassifierError(t *testing.T) {
	modelErr := errors.New("model unavailable")
	stub := &stubClassifier{err: modelErr}
	r := NewRecognizer(stub, "")

	_, err := r.PredictRoles(context.Background(), utterances("a"))
	if !errors.Is(err, modelErr) {
		t.Errorf("expected wrapped model error, got %v", err)
	}
	if errors.Is(err, ErrClassificationParse) {
		t.Error("transport failure must not be reported as a parse failure")
	}
}

func TestPredictRoles_MalformedEntryBecomesPlaceholder(t *testing.T) {
	stub := &stubClassifier{
		response: []byte(`{"predictions": [{"uid": 0, "role": "AGENT"}, {"uid": "one", "role": 5}, {"uid": 2, "role": "CUSTOMER"}]}`),
	}
	r := NewRecognizer(stub, "")

	preds, err := r.PredictRoles(context.Background(), utterances("a", "b", "c"))
	if err != nil {
		t.Fatalf("expected malformed entry to be tolerated, got %v", err)
	}

	if len(preds.Predictions) != 3 {
		t.Fatalf("expected positional slots preserved, got %d", len(preds.Predictions))
	}
	if preds.Predictions[1].Role != models.Role("") {
		t.Errorf("expected empty-role placeholder at index 1, got %q", preds.Predictions[1].Role)
	}
	if preds.Predictions[2].Role != models.RoleCustomer {
		t.Errorf("expected index 2 intact, got %+v", preds.Predictions[2])
	}
}
