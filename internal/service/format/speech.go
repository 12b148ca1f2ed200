package format

import (
	"encoding/json"
	"fmt"

	"voice-insights-pipeline/internal/models"
	"voice-insights-pipeline/internal/observability/metrics"
)

type rawRecognition struct {
	Results []rawResult `json:"results"`
}

type rawResult struct {
	Alternatives []rawAlternative `json:"alternatives"`
}

type rawAlternative struct {
	// Pointer so a present-but-empty transcript is distinguishable from an
	// absent field. An empty transcript still qualifies.
	Transcript *string `json:"transcript"`
}

// FlattenForClassification flattens a raw batch recognition result into the
// utterance list consumed by the role assignment engine.
//
// Results are visited in order. A result with no alternatives is skipped, as
// is any alternative without a transcript field; the first qualifying
// alternative of each result is emitted and the rest are ignored, because
// role classification expects exactly one candidate text per turn. Uids form
// a dense zero-based sequence regardless of how many results were skipped.
func FlattenForClassification(document []byte) (*models.UtteranceList, error) {
	var raw rawRecognition
	if err := json.Unmarshal(document, &raw); err != nil {
		return nil, fmt.Errorf("decode recognition result: %w", err)
	}

	m := metrics.DefaultMetrics
	list := &models.UtteranceList{Results: make([]models.Utterance, 0, len(raw.Results))}
	uid := 0
	for _, result := range raw.Results {
		emitted := false
		for _, alt := range result.Alternatives {
			if alt.Transcript == nil {
				continue
			}
			list.Results = append(list.Results, models.Utterance{UID: uid, Text: *alt.Transcript})
			uid++
			emitted = true
			break
		}
		if !emitted {
			m.ResultsSkipped.Inc()
		}
	}

	m.UtterancesFlatten.Add(float64(len(list.Results)))
	return list, nil
}
