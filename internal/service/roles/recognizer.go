// Package roles assigns conversational roles to recognition results. It
// builds the classification prompt, invokes the generative model behind the
// Classifier interface, validates the response shape, and merges the
// predicted roles back into the original recognition result structure.
package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voice-insights-pipeline/internal/models"
	"voice-insights-pipeline/internal/observability/logging"
	"voice-insights-pipeline/internal/observability/metrics"
)

// ErrClassificationParse reports a model response that is not valid JSON or
// lacks the predictions key. This is fatal for the conversation; there is no
// partial role assignment.
var ErrClassificationParse = errors.New("classification response unparseable")

// DefaultPrompt is the role-labeling instruction sent to the model. The
// {conversation} placeholder is replaced with the utterance list JSON.
const DefaultPrompt = `
You are a multilingual expert in identifying roles within a conversation transcript.

Task:
Identify the role (AGENT or CUSTOMER) of each utterance in the given conversation.
If the conversation involves only two agents, assign one as the CUSTOMER and the other as the AGENT to maintain role differentiation.

**Guidelines:**

* Analyze the entire conversation to understand the context.
* Assign the correct role to each line of the utterance based on its content and the flow of the conversation.
* DO NOT add or split, modify or combine any utterances and sentences.

**Important Considerations:**
	* **Agent-to-Agent Conversations:**
	In conversations between two agents, designate one as "AGENT" and the other as "CUSTOMER" based on the context of their interaction.
	Consider which agent is primarily providing information or support (AGENT) and which is primarily receiving it (CUSTOMER).
	The distinction can be subtle, so focus on the flow of information and assistance.

**Few-Shot Examples:**

**Example 1 (Agent-to-Customer):**
	*Input:*
		Utterance 1: "Hello, how can I help you today?"
		Utterance 2: "Hi, I'm having trouble logging in."
		Utterance 3: "Have you tried resetting your password?"
		Utterance 4: "Yes, but it's not working."
		Utterance 5: "Okay, let's try a different approach."
	*Output:*
		Utterance 1: "AGENT"
		Utterance 2: "CUSTOMER"
		Utterance 3: "AGENT"
		Utterance 4: "CUSTOMER"
		Utterance 5: "AGENT"

**Example 2 (Agent-to-Agent):**
	*Input:*
		Utterance 1: "Hey, I'm having trouble with this customer's issue.  They're saying the order hasn't shipped yet."
		Utterance 2: "Okay, let me check the order status for you. What's the order number?"
		Utterance 3: "It's #12345."
		Utterance 4: "Thanks.  Looks like there was a delay at the warehouse. I'll update the customer and offer a discount."
	*Output:*
		Utterance 1: "CUSTOMER"
		Utterance 2: "AGENT"
		Utterance 3: "CUSTOMER"
		Utterance 4: "AGENT"

Conversation:
{conversation}
`

// conversationPlaceholder marks where the utterance list is interpolated.
const conversationPlaceholder = "{conversation}"

// Classifier is the generative-model call that predicts roles from a prompt.
// Implementations constrain the model to the strict predictions response
// schema; the returned bytes are the raw model text.
type Classifier interface {
	Predict(ctx context.Context, prompt string) ([]byte, error)
}

// Recognizer predicts conversational roles for flattened recognition results.
type Recognizer struct {
	classifier Classifier
	prompt     string
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewRecognizer creates a role recognizer. An empty prompt selects
// DefaultPrompt; a custom prompt must carry the {conversation} placeholder.
func NewRecognizer(classifier Classifier, prompt string) *Recognizer {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Recognizer{
		classifier: classifier,
		prompt:     prompt,
		logger:     logging.WithComponent("roles"),
		metrics:    metrics.DefaultMetrics,
	}
}

// BuildPrompt interpolates the utterance list into the prompt template.
func (r *Recognizer) BuildPrompt(utterances *models.UtteranceList) (string, error) {
	payload, err := json.Marshal(utterances)
	if err != nil {
		return "", fmt.Errorf("marshal utterances: %w", err)
	}
	return strings.ReplaceAll(r.prompt, conversationPlaceholder, string(payload)), nil
}

// PredictRoles sends the utterance list to the classification model and
// parses the predicted roles.
//
// A response that is not valid JSON or has no predictions key fails with
// ErrClassificationParse. Individual prediction entries that cannot be
// decoded are kept as placeholders with an empty role, so the merge step can
// apply its per-entry fallback instead of aborting the conversation.
func (r *Recognizer) PredictRoles(ctx context.Context, utterances *models.UtteranceList) (*models.RolePredictions, error) {
	prompt, err := r.BuildPrompt(utterances)
	if err != nil {
		return nil, err
	}

	r.metrics.ClassificationsTotal.Inc()
	start := time.Now()
	response, err := r.classifier.Predict(ctx, prompt)
	r.metrics.ClassificationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		r.metrics.ClassificationErrors.WithLabelValues("model").Inc()
		return nil, fmt.Errorf("role classification call: %w", err)
	}

	predictions, err := parsePredictions(response)
	if err != nil {
		r.metrics.ClassificationErrors.WithLabelValues("parse").Inc()
		r.logger.Error().Err(err).Int("responseBytes", len(response)).Msg("Unparseable classification response")
		return nil, err
	}

	r.logger.Debug().
		Int("utterances", len(utterances.Results)).
		Int("predictions", len(predictions.Predictions)).
		Msg("Role classification completed")
	return predictions, nil
}

func parsePredictions(response []byte) (*models.RolePredictions, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(response, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationParse, err)
	}
	rawPredictions, ok := envelope["predictions"]
	if !ok {
		return nil, fmt.Errorf("%w: missing predictions key", ErrClassificationParse)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(rawPredictions, &entries); err != nil {
		return nil, fmt.Errorf("%w: predictions is not an array: %v", ErrClassificationParse, err)
	}

	out := &models.RolePredictions{Predictions: make([]models.RolePrediction, len(entries))}
	for i, raw := range entries {
		// A malformed entry becomes an empty-role placeholder; the merge
		// defaults that position to CUSTOMER.
		var p models.RolePrediction
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		out.Predictions[i] = p
	}
	return out, nil
}
