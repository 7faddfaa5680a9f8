package emotion

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in   string
		want Label
		ok   bool
	}{
		{in: "Happiness", want: Happiness, ok: true},
		{in: "  anger ", want: Anger, ok: true},
		{in: "NEUTRAL", want: Neutral, ok: true},
		{in: "joy", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLabel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabelsIsCanonicalAndDetached(t *testing.T) {
	got := Labels()
	assert.Equal(t, []Label{Neutral, Happiness, Sadness, Surprise, Fear, Disgust, Anger}, got)
	got[0] = "mutated"
	assert.Equal(t, Neutral, Labels()[0])
}

func TestMajorityVote(t *testing.T) {
	tests := []struct {
		name   string
		window []Label
		want   Label
	}{
		{name: "clear majority", window: []Label{Anger, Neutral, Anger, Anger, Fear}, want: Anger},
		{name: "tie goes to earliest", window: []Label{Fear, Sadness, Sadness, Fear, Happiness}, want: Fear},
		{name: "single", window: []Label{Surprise}, want: Surprise},
		{name: "later overtakes", window: []Label{Neutral, Disgust, Disgust}, want: Disgust},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MajorityVote(tt.window)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := MajorityVote(nil)
	assert.False(t, ok)
}

func snapshot(h *History, user string) []Label {
	labels, _ := h.Checkpoint(user)
	return labels
}

func TestHistoryDropsOldestBeyondLimit(t *testing.T) {
	h := NewHistory(3)
	for _, l := range []Label{Neutral, Happiness, Sadness, Fear} {
		h.Append("ana@example.com", l)
	}
	assert.Equal(t, 3, h.Len("ana@example.com"))
	assert.Equal(t, []Label{Happiness, Sadness, Fear}, snapshot(h, "ana@example.com"))
	assert.Equal(t, []Label{Sadness, Fear}, h.Recent("ana@example.com", 2))
	assert.Equal(t, []Label{Happiness, Sadness, Fear}, h.Recent("ana@example.com", 10))
}

func TestHistoryIsPerUser(t *testing.T) {
	h := NewHistory(0)
	h.Append("a", Anger)
	h.Append("b", Happiness)

	assert.Equal(t, []Label{Anger}, snapshot(h, "a"))
	assert.Equal(t, []Label{Happiness}, snapshot(h, "b"))

	_, mark := h.Checkpoint("a")
	h.DropThrough("a", mark)
	assert.Zero(t, h.Len("a"))
	assert.Empty(t, snapshot(h, "a"))
	assert.Equal(t, 1, h.Len("b"))
}

func TestHistoryDropThroughKeepsLaterReadings(t *testing.T) {
	h := NewHistory(0)
	h.Append("ana", Fear)
	h.Append("ana", Anger)

	taken, mark := h.Checkpoint("ana")
	assert.Equal(t, []Label{Fear, Anger}, taken)

	h.Append("ana", Happiness)
	h.DropThrough("ana", mark)
	assert.Equal(t, []Label{Happiness}, snapshot(h, "ana"))

	h.DropThrough("ana", mark)
	assert.Equal(t, []Label{Happiness}, snapshot(h, "ana"))
}

func TestHistoryDropThroughAfterEviction(t *testing.T) {
	h := NewHistory(3)
	for _, l := range []Label{Neutral, Sadness, Fear} {
		h.Append("ana", l)
	}
	_, mark := h.Checkpoint("ana")

	// Two new readings evict two of the checkpointed ones.
	h.Append("ana", Anger)
	h.Append("ana", Surprise)
	h.DropThrough("ana", mark)
	assert.Equal(t, []Label{Anger, Surprise}, snapshot(h, "ana"))

	_, mark = h.Checkpoint("nobody")
	h.DropThrough("nobody", mark)
	assert.Zero(t, h.Len("nobody"))
}

func TestHistoryConcurrentAppend(t *testing.T) {
	h := NewHistory(DefaultHistoryLimit)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%2)
			for j := 0; j < 100; j++ {
				h.Append(user, Neutral)
				_ = h.Recent(user, 5)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, DefaultHistoryLimit, h.Len("user-0"))
	assert.Equal(t, DefaultHistoryLimit, h.Len("user-1"))
}

func TestGuidanceCoversDefaultActions(t *testing.T) {
	for _, action := range []string{"Repeat lesson", "Offer additional hint", "Slow down pace", "Provide encouragement", "Proceed normally"} {
		assert.NotEmpty(t, Guidance(action), action)
	}
	assert.Empty(t, Guidance("Dance"))
}
