package types

import (
	"encoding/json"
	"time"
)

// Assessment is a completed screening session together with its analysis.
type Assessment struct {
	ID                  int64           `json:"_id"`
	UserID              int64           `json:"userId"`
	UserEmail           string          `json:"userEmail"`
	NumberComparison    json.RawMessage `json:"numberComparison"`
	Handwriting         json.RawMessage `json:"handwriting"`
	LetterArrangement   json.RawMessage `json:"letterArrangement"`
	CompletedAt         string          `json:"completedAt,omitempty"`
	EmotionTrackingData json.RawMessage `json:"emotionTrackingData"`
	// Emotions is the user's reading history when the assessment was saved.
	Emotions []string `json:"emotions"`
	// EmotionProfile is the normalized label frequency vector of Emotions.
	EmotionProfile []float32       `json:"emotionProfile,omitempty"`
	LDAnalysis     json.RawMessage `json:"gemini_response"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SimilarAssessment is an assessment ranked by emotion profile similarity.
type SimilarAssessment struct {
	Assessment
	Similarity float64 `json:"similarity"`
}
