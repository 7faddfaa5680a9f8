// Package emotion holds the emotion vocabulary the tutor reasons over, the
// per-user reading history, and the classifiers that produce readings.
package emotion

import "strings"

// Label is one of the seven recognised facial emotions. It is the state
// observed by the action selector.
type Label string

const (
	Neutral   Label = "Neutral"
	Happiness Label = "Happiness"
	Sadness   Label = "Sadness"
	Surprise  Label = "Surprise"
	Fear      Label = "Fear"
	Disgust   Label = "Disgust"
	Anger     Label = "Anger"
)

var labels = []Label{Neutral, Happiness, Sadness, Surprise, Fear, Disgust, Anger}

// Labels returns the vocabulary in its canonical order.
func Labels() []Label {
	out := make([]Label, len(labels))
	copy(out, labels)
	return out
}

// ParseLabel matches s against the vocabulary, ignoring case and
// surrounding whitespace.
func ParseLabel(s string) (Label, bool) {
	s = strings.TrimSpace(s)
	for _, l := range labels {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	return "", false
}

// Reading is a single classifier observation.
type Reading struct {
	Label      Label   `json:"emotion"`
	Confidence float64 `json:"confidence"`
}
