package model

import "time"

// ScoredIntent is one intent reported by the classifier.
type ScoredIntent struct {
	Name       IntentType `json:"name"`
	Confidence float64    `json:"confidence"`
	Priority   float64    `json:"priority"`
}

// NLUAnalysis is the parsed output of one classification call.
type NLUAnalysis struct {
	Intents         []ScoredIntent `json:"intents"`
	PrimaryIntent   IntentType     `json:"primaryIntent"`
	Sentiment       SentimentType  `json:"sentiment"`
	SentimentConf   float64        `json:"sentimentConfidence"`
	Frustration     float64        `json:"frustration"`
	RequestedDepth  Depth          `json:"requestedDepth,omitempty"`
	DepthConfidence float64        `json:"depthConfidence"`
	ParsingMetadata map[string]any `json:"parsingMetadata,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// IntentsAbove returns intents whose confidence is at least min, in
// classifier order.
func (a *NLUAnalysis) IntentsAbove(min float64) []IntentType {
	if a == nil {
		return nil
	}
	out := make([]IntentType, 0, len(a.Intents))
	seen := make(map[IntentType]bool, len(a.Intents))
	for _, it := range a.Intents {
		if it.Confidence < min || seen[it.Name] {
			continue
		}
		seen[it.Name] = true
		out = append(out, it.Name)
	}
	return out
}
