package rl

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func trainedAgent(t *testing.T) *Agent[string, string] {
	t.Helper()
	agent := newAgent(t, tutorActions, DefaultConfig(), seeded(9))
	agent.Update("Anger", "Offer additional hint", 2, "Neutral")
	agent.Update("Sadness", "Provide encouragement", 1, "Neutral")
	agent.Update("Neutral", "Proceed normally", 0.5, "Happiness")
	agent.Update("Fear", "Slow down pace", -1, "Fear")
	return agent
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := trainedAgent(t)
	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := newAgent(t, tutorActions, DefaultConfig(), seeded(10))
	dst.Update("Surprise", "Repeat lesson", 5, "Surprise")
	dst.Update("Disgust", "Proceed normally", -3, "Neutral")
	require.NoError(t, dst.Load(&buf))

	assert.Equal(t, src.Entries(), dst.Entries())
	for _, e := range src.Entries() {
		assert.Equal(t, e.Value, dst.Value(e.State, e.Action))
	}
	assert.Zero(t, dst.Value("Surprise", "Repeat lesson"))
	assert.Zero(t, dst.Value("Disgust", "Proceed normally"))
	assert.Zero(t, dst.Value("Happiness", "Slow down pace"))
}

func TestSaveIsDeterministic(t *testing.T) {
	agent := trainedAgent(t)

	var first, second bytes.Buffer
	require.NoError(t, agent.Save(&first))
	require.NoError(t, agent.Save(&second))
	assert.Equal(t, first.Bytes(), second.Bytes())

	// A table built in a different order encodes identically.
	other := newAgent(t, tutorActions, DefaultConfig(), seeded(9))
	other.Update("Fear", "Slow down pace", -1, "Fear")
	other.Update("Neutral", "Proceed normally", 0.5, "Happiness")
	other.Update("Sadness", "Provide encouragement", 1, "Neutral")
	other.Update("Anger", "Offer additional hint", 2, "Neutral")
	var third bytes.Buffer
	require.NoError(t, other.Save(&third))
	assert.Equal(t, first.Bytes(), third.Bytes())
}

func TestSaveEmptyTable(t *testing.T) {
	agent := newAgent(t, tutorActions, DefaultConfig(), seeded(1))
	var buf bytes.Buffer
	require.NoError(t, agent.Save(&buf))

	restored := trainedAgent(t)
	require.NoError(t, restored.Load(&buf))
	assert.Zero(t, restored.Len())
}

func TestLoadFailureLeavesTableUntouched(t *testing.T) {
	wrongFormat, err := cbor.Marshal(map[string]any{"format": "something-else", "version": 1})
	require.NoError(t, err)
	wrongVersion, err := cbor.Marshal(map[string]any{"format": tableFormat, "version": 99})
	require.NoError(t, err)
	nanValues, err := encMode.Marshal(tableDocument[string, string]{
		Format:  tableFormat,
		Version: tableVersion,
		Actions: []string{"Repeat lesson", "Proceed normally"},
		Entries: []Entry[string, string]{
			{State: "Anger", Action: "Repeat lesson", Value: math.NaN()},
			{State: "Anger", Action: "Proceed normally", Value: math.NaN()},
		},
	})
	require.NoError(t, err)
	infValue, err := encMode.Marshal(tableDocument[string, string]{
		Format:  tableFormat,
		Version: tableVersion,
		Entries: []Entry[string, string]{{State: "Fear", Action: "Slow down pace", Value: math.Inf(1)}},
	})
	require.NoError(t, err)

	var valid bytes.Buffer
	require.NoError(t, trainedAgent(t).Save(&valid))
	truncated := valid.Bytes()[:valid.Len()/2]

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "empty", input: nil},
		{name: "garbage", input: []byte("not a table at all")},
		{name: "truncated", input: truncated},
		{name: "wrong format", input: wrongFormat},
		{name: "wrong version", input: wrongVersion},
		{name: "all NaN values", input: nanValues},
		{name: "infinite value", input: infValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := newAgent(t, tutorActions, DefaultConfig(), seeded(2))
			agent.Update("Happiness", "Proceed normally", 3, "Happiness")
			before := agent.Entries()

			err := agent.Load(bytes.NewReader(tt.input))
			require.ErrorIs(t, err, ErrCorruptTable)
			assert.Equal(t, before, agent.Entries())
		})
	}
}

func TestSaveReportsWriteFailure(t *testing.T) {
	err := trainedAgent(t).Save(failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestEntriesAreSortedAndDetached(t *testing.T) {
	agent := trainedAgent(t)
	entries := agent.Entries()
	require.Len(t, entries, 4)

	entries[0].Value = 1000
	assert.NotEqual(t, 1000.0, agent.Value(entries[0].State, entries[0].Action))
	assert.Equal(t, agent.Entries(), trainedAgent(t).Entries())
}
