package assessment

import "github.com/easeaico/adaptive-tutor/internal/emotion"

// EmotionProfile returns the relative frequency of each label in
// emotion.Labels order. An empty history gives nil.
func EmotionProfile(history []emotion.Label) []float32 {
	if len(history) == 0 {
		return nil
	}
	labels := emotion.Labels()
	index := make(map[emotion.Label]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	profile := make([]float32, len(labels))
	counted := 0
	for _, l := range history {
		if i, ok := index[l]; ok {
			profile[i]++
			counted++
		}
	}
	if counted == 0 {
		return nil
	}
	for i := range profile {
		profile[i] /= float32(counted)
	}
	return profile
}
