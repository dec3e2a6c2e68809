package scan

import "github.com/textlens/textlens/internal/core/classify"

// Output is the normalized payload every OCR engine produces, decoded from
// the engine's JSON result string.
type Output struct {
	Text             string  `json:"text"`
	Confidence       float64 `json:"confidence"`
	Language         string  `json:"language"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// Result is the canonical, immutable record of one successful extraction.
// It is created once by the Factory and never mutated afterwards; the
// history store removes it only through explicit deletion, a full clear, or
// capacity eviction.
type Result struct {
	ID               string        `json:"id"`
	Text             string        `json:"text"`
	Confidence       float64       `json:"confidence"`
	Language         string        `json:"language"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	Timestamp        int64         `json:"timestamp"`
	ImageURI         string        `json:"imageUri,omitempty"`
	Type             classify.Type `json:"type"`
}

// Statistics are derived aggregates over the current history.
type Statistics struct {
	TotalScans           int            `json:"totalScans"`
	AverageConfidence    float64        `json:"averageConfidence"`
	LanguageDistribution map[string]int `json:"languageDistribution"`
}
