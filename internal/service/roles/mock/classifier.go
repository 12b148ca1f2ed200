// Package mock provides a roles.Classifier for tests and credential-free
// local runs.
package mock

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"voice-insights-pipeline/internal/models"
)

// Classifier implements roles.Classifier without calling a model. By default
// it assigns alternating roles, AGENT first, to the utterances interpolated
// into the prompt; a canned Response overrides that.
type Classifier struct {
	mu sync.Mutex

	// Response, when non-nil, is returned verbatim for every prediction.
	Response []byte

	// Calls records every prompt received.
	Calls []string
}

// New creates a mock classifier with the alternating-role default.
func New() *Classifier {
	return &Classifier{}
}

// Predict returns role predictions for the utterance list embedded in the
// prompt.
func (c *Classifier) Predict(ctx context.Context, prompt string) ([]byte, error) {
	c.mu.Lock()
	c.Calls = append(c.Calls, prompt)
	response := c.Response
	c.mu.Unlock()

	if response != nil {
		return response, nil
	}

	n := strings.Count(prompt, `"uid":`)
	predictions := models.RolePredictions{Predictions: make([]models.RolePrediction, n)}
	for i := 0; i < n; i++ {
		role := models.RoleAgent
		if i%2 == 1 {
			role = models.RoleCustomer
		}
		predictions.Predictions[i] = models.RolePrediction{UID: i, Role: role}
	}
	return json.Marshal(&predictions)
}
