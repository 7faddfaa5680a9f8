package tutor

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/adaptive-tutor/internal/emotion"
	"github.com/easeaico/adaptive-tutor/internal/policystore"
	"github.com/easeaico/adaptive-tutor/internal/rl"
)

type fakeDialogue struct {
	line  string
	err   error
	calls int
}

func (f *fakeDialogue) Generate(ctx context.Context, state emotion.Label, action, userContext string) (string, error) {
	f.calls++
	return f.line, f.err
}

type memoryStore struct {
	mu    sync.Mutex
	saves [][]byte
}

func (m *memoryStore) Save(ctx context.Context, body []byte) (policystore.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, append([]byte(nil), body...))
	return policystore.Snapshot{Version: "v", Size: len(body)}, nil
}

func (m *memoryStore) Latest(ctx context.Context) ([]byte, policystore.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return nil, policystore.Snapshot{}, policystore.ErrNoSnapshot
	}
	return m.saves[len(m.saves)-1], policystore.Snapshot{Version: "v"}, nil
}

func (m *memoryStore) Close() error { return nil }

func newAgent(t *testing.T, epsilon float64) *rl.Agent[emotion.Label, string] {
	t.Helper()
	agent, err := rl.New[emotion.Label, string](DefaultActions(), rl.Config{Alpha: 0.1, Gamma: 0.9, Epsilon: epsilon}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	return agent
}

func record(s *Service, user string, labels ...emotion.Label) {
	for _, l := range labels {
		s.RecordEmotion(user, emotion.Reading{Label: l, Confidence: 0.9})
	}
}

func TestNextActionDefaultsWithShortHistory(t *testing.T) {
	dialogue := &fakeDialogue{line: "Hi there!"}
	svc := NewService(newAgent(t, 0), emotion.NewHistory(0), dialogue, nil, Config{Window: 5})
	record(svc, "ana", emotion.Anger, emotion.Anger)

	d, err := svc.NextAction(context.Background(), "ana", "")
	require.NoError(t, err)
	assert.Equal(t, emotion.Neutral, d.State)
	assert.Equal(t, "Proceed normally", d.Action)
	assert.Equal(t, "Hi there!", d.Dialogue)
	assert.Equal(t, "Using default state/action due to insufficient emotion data (2/5).", d.Warning)
}

func TestNextActionUsesMajorityState(t *testing.T) {
	agent := newAgent(t, 0)
	agent.Update(emotion.Sadness, "Provide encouragement", 5, emotion.Neutral)
	svc := NewService(agent, emotion.NewHistory(0), &fakeDialogue{line: "You can do it!"}, nil, Config{Window: 5})
	record(svc, "ana", emotion.Happiness, emotion.Happiness, emotion.Sadness, emotion.Sadness, emotion.Fear, emotion.Sadness)

	d, err := svc.NextAction(context.Background(), "ana", "fractions")
	require.NoError(t, err)
	assert.Equal(t, emotion.Sadness, d.State)
	assert.Equal(t, "Provide encouragement", d.Action)
	assert.Empty(t, d.Warning)
}

func TestNextActionFallsBackWhenDialogueFails(t *testing.T) {
	dialogue := &fakeDialogue{err: errors.New("quota")}
	svc := NewService(newAgent(t, 0), emotion.NewHistory(0), dialogue, nil, Config{Window: 1})
	record(svc, "ana", emotion.Fear)

	d, err := svc.NextAction(context.Background(), "ana", "")
	require.NoError(t, err)
	assert.Equal(t, FallbackDialogue, d.Dialogue)
	assert.Equal(t, 1, dialogue.calls)
}

func TestFeedbackClosesTheLoop(t *testing.T) {
	agent := newAgent(t, 0)
	agent.Update(emotion.Anger, "Slow down pace", 1, emotion.Neutral)
	svc := NewService(agent, emotion.NewHistory(0), nil, nil, Config{Window: 3})
	record(svc, "ana", emotion.Anger, emotion.Anger, emotion.Anger)

	_, err := svc.Feedback(context.Background(), "ana", 1, nil)
	require.ErrorIs(t, err, ErrNoPendingDecision)

	d, err := svc.NextAction(context.Background(), "ana", "")
	require.NoError(t, err)
	require.Equal(t, "Slow down pace", d.Action)
	assert.Equal(t, FallbackDialogue, d.Dialogue)

	next := emotion.Neutral
	res, err := svc.Feedback(context.Background(), "ana", 2, &next)
	require.NoError(t, err)
	assert.Equal(t, emotion.Anger, res.State)
	assert.Equal(t, "Slow down pace", res.Action)
	assert.Equal(t, emotion.Neutral, res.NextState)
	// 0.1 + 0.1*(2 + 0.9*0 - 0.1)
	assert.InDelta(t, 0.29, res.Value, 1e-12)

	_, err = svc.Feedback(context.Background(), "ana", 2, &next)
	require.ErrorIs(t, err, ErrNoPendingDecision)
}

func TestFeedbackDefaultsNextStateToCurrentMajority(t *testing.T) {
	svc := NewService(newAgent(t, 0), emotion.NewHistory(0), nil, nil, Config{Window: 2})
	record(svc, "ana", emotion.Fear, emotion.Fear)
	_, err := svc.NextAction(context.Background(), "ana", "")
	require.NoError(t, err)

	record(svc, "ana", emotion.Happiness, emotion.Happiness)
	res, err := svc.Feedback(context.Background(), "ana", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, emotion.Fear, res.State)
	assert.Equal(t, emotion.Happiness, res.NextState)
}

func TestFeedbackRejectsNonFiniteReward(t *testing.T) {
	svc := NewService(newAgent(t, 0), emotion.NewHistory(0), nil, nil, Config{})
	_, err := svc.Feedback(context.Background(), "ana", math.NaN(), nil)
	require.ErrorIs(t, err, ErrInvalidReward)
	_, err = svc.Feedback(context.Background(), "ana", math.Inf(1), nil)
	require.ErrorIs(t, err, ErrInvalidReward)
	_, err = svc.Feedback(context.Background(), "ana", 1e308, nil)
	require.ErrorIs(t, err, ErrInvalidReward)
}

func TestPendingDecisionsArePerUser(t *testing.T) {
	svc := NewService(newAgent(t, 0), emotion.NewHistory(0), nil, nil, Config{Window: 1})
	record(svc, "ana", emotion.Anger)
	_, err := svc.NextAction(context.Background(), "ana", "")
	require.NoError(t, err)

	_, err = svc.Feedback(context.Background(), "ben", 1, nil)
	require.ErrorIs(t, err, ErrNoPendingDecision)
	_, err = svc.Feedback(context.Background(), "ana", 1, nil)
	require.NoError(t, err)
}

func TestPersistEveryNUpdatesAndRestore(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(newAgent(t, 0), emotion.NewHistory(0), nil, store, Config{Window: 1, SaveEvery: 2})
	record(svc, "ana", emotion.Sadness)

	for i := 0; i < 4; i++ {
		_, err := svc.NextAction(context.Background(), "ana", "")
		require.NoError(t, err)
		_, err = svc.Feedback(context.Background(), "ana", 1, nil)
		require.NoError(t, err)
	}
	assert.Len(t, store.saves, 2)

	restored := NewService(newAgent(t, 0), emotion.NewHistory(0), nil, store, Config{})
	require.NoError(t, restored.Restore(context.Background()))
	assert.Equal(t, svc.Agent().Entries(), restored.Agent().Entries())
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	svc := NewService(newAgent(t, 0), emotion.NewHistory(0), nil, &memoryStore{}, Config{})
	require.NoError(t, svc.Restore(context.Background()))
	assert.Zero(t, svc.Agent().Len())

	require.NoError(t, NewService(newAgent(t, 0), emotion.NewHistory(0), nil, nil, Config{}).Restore(context.Background()))
}

func TestRestoreCorruptSnapshotKeepsTable(t *testing.T) {
	store := &memoryStore{saves: [][]byte{[]byte("garbage")}}
	agent := newAgent(t, 0)
	agent.Update(emotion.Fear, "Slow down pace", 1, emotion.Fear)
	svc := NewService(agent, emotion.NewHistory(0), nil, store, Config{})

	err := svc.Restore(context.Background())
	require.ErrorIs(t, err, rl.ErrCorruptTable)
	assert.Equal(t, 1, agent.Len())
}

func TestSafeActionWithoutDefaultLabel(t *testing.T) {
	agent, err := rl.New[emotion.Label, string]([]string{"Repeat", "Hint"}, rl.DefaultConfig(), nil)
	require.NoError(t, err)
	svc := NewService(agent, emotion.NewHistory(0), nil, nil, Config{})
	assert.Equal(t, "Hint", svc.SafeAction())
}

func TestCorruptSnapshotIsNeverOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qtable.cbor")
	corrupt := []byte("not a policy")
	require.NoError(t, os.WriteFile(path, corrupt, 0o600))

	svc := NewService(newAgent(t, 0), emotion.NewHistory(0), nil, policystore.NewFileStore(path), Config{Window: 1, SaveEvery: 1})
	require.ErrorIs(t, svc.Restore(context.Background()), rl.ErrCorruptTable)

	record(svc, "ana", emotion.Anger)
	_, err := svc.NextAction(context.Background(), "ana", "")
	require.NoError(t, err)
	_, err = svc.Feedback(context.Background(), "ana", 1, nil)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Persist(context.Background()), ErrSnapshotHeld)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, got)
}

func TestFeedbackReportsValueOfItsOwnUpdate(t *testing.T) {
	svc := NewService(newAgent(t, 0), emotion.NewHistory(0), nil, nil, Config{Window: 1})
	record(svc, "ana", emotion.Fear)
	d, err := svc.NextAction(context.Background(), "ana", "")
	require.NoError(t, err)

	res, err := svc.Feedback(context.Background(), "ana", 2, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, res.Value, 1e-12)
	assert.Equal(t, res.Value, svc.Agent().Value(emotion.Fear, d.Action))
}
