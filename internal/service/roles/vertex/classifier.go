// Package vertex provides a Vertex AI Gemini implementation of the
// roles.Classifier interface.
package vertex

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "gemini-1.5-pro-002"

// Fixed generation parameters. Deterministic sampling: the classification is
// a labeling task, not a creative one.
const (
	temperature      float32 = 0
	topP             float32 = 0.95
	topK             int32   = 40
	responseMIMEType         = "application/json"
)

// responseSchema constrains the model to the strict predictions shape with
// only the two permitted role labels.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"predictions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"role": {
						Type: genai.TypeString,
						Enum: []string{"AGENT", "CUSTOMER"},
					},
					"uid": {
						Type: genai.TypeInteger,
					},
				},
				Required: []string{"role", "uid"},
			},
		},
	},
	Required: []string{"predictions"},
}

// Classifier calls a Gemini model on Vertex AI with the fixed generation
// config and response schema.
type Classifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New creates a Vertex AI classifier.
// Requires application default credentials or an explicit credentials option.
func New(ctx context.Context, projectID, location, modelName string, opts ...option.ClientOption) (*Classifier, error) {
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetTopK(topK)
	model.GenerationConfig.ResponseMIMEType = responseMIMEType
	model.GenerationConfig.ResponseSchema = responseSchema

	return &Classifier{client: client, model: model}, nil
}

// Predict sends the prompt to the model and returns the raw response text.
func (c *Classifier) Predict(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("empty model response")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response part type %T", resp.Candidates[0].Content.Parts[0])
	}
	return []byte(text), nil
}

// Close releases the underlying client.
func (c *Classifier) Close() error {
	return c.client.Close()
}
