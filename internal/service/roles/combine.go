package roles

import (
	"bytes"
	"encoding/json"
	"fmt"

	"voice-insights-pipeline/internal/models"
	"voice-insights-pipeline/internal/observability/logging"
	"voice-insights-pipeline/internal/observability/metrics"
)

// Combine merges predicted roles back into the original recognition result
// document and returns the reserialized structure.
//
// Correlation is positional: prediction i tags result i. AGENT sets
// channelTag 2 on the result and its first alternative, CUSTOMER sets 1. Any
// failed lookup (index out of range, unknown role label, malformed entry)
// defaults that result to CUSTOMER; the fallback is logged and counted but
// never surfaced as an error, so one bad prediction cannot stall a batch. A
// uid ordering that disagrees with the result ordering therefore produces
// wrong tags silently; watch role_fallbacks_total and
// prediction_count_mismatch_total for systemic drift.
//
// No entries are added, removed, or reordered, and all fields outside
// channelTag are preserved byte for byte. Re-running Combine over the same
// inputs produces identical output.
func Combine(document []byte, predictions *models.RolePredictions) ([]byte, error) {
	m := metrics.DefaultMetrics
	logger := logging.WithComponent("roles")

	dec := json.NewDecoder(bytes.NewReader(document))
	dec.UseNumber()
	var conversation map[string]any
	if err := dec.Decode(&conversation); err != nil {
		return nil, fmt.Errorf("decode recognition result: %w", err)
	}

	results, _ := conversation["results"].([]any)

	predicted := 0
	if predictions != nil {
		predicted = len(predictions.Predictions)
	}
	if predicted != len(results) {
		m.PredictionCountMismatch.Inc()
		logger.Warn().
			Int("results", len(results)).
			Int("predictions", predicted).
			Msg("Prediction count differs from recognition result count")
	}

	for i, item := range results {
		result, ok := item.(map[string]any)
		if !ok {
			logger.Warn().Int("index", i).Msg("Recognition result entry is not an object, skipping")
			continue
		}

		tag := models.ChannelTagCustomer
		fallback := true
		if predictions != nil && i < len(predictions.Predictions) {
			switch predictions.Predictions[i].Role {
			case models.RoleAgent:
				tag = models.ChannelTagAgent
				fallback = false
			case models.RoleCustomer:
				tag = models.ChannelTagCustomer
				fallback = false
			}
		}
		if fallback {
			m.RoleFallbacks.Inc()
			logger.Warn().Int("index", i).Msg("Prediction lookup failed, defaulting channel tag to CUSTOMER")
		}

		result["channelTag"] = tag
		if alternatives, ok := result["alternatives"].([]any); ok && len(alternatives) > 0 {
			if first, ok := alternatives[0].(map[string]any); ok {
				first["channelTag"] = tag
			}
		} else {
			logger.Warn().Int("index", i).Msg("Recognition result has no alternatives to tag")
		}
	}

	m.MergesTotal.Inc()
	return json.Marshal(conversation)
}
