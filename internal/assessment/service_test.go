package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/adaptive-tutor/internal/emotion"
	"github.com/easeaico/adaptive-tutor/internal/storage"
	"github.com/easeaico/adaptive-tutor/internal/types"
)

type fakeRepo struct {
	created   []*types.Assessment
	createErr error
	byID      map[int64]*types.Assessment
	byUser    []types.Assessment
	byEmail   []types.Assessment
	similarK  int
	similarEx int64
}

func (r *fakeRepo) Create(ctx context.Context, a *types.Assessment) (int64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.created = append(r.created, a)
	return int64(len(r.created)), nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (*types.Assessment, error) {
	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	return nil, storage.ErrNotFound
}

func (r *fakeRepo) ListByUserID(ctx context.Context, userID int64) ([]types.Assessment, error) {
	return r.byUser, nil
}

func (r *fakeRepo) ListByEmail(ctx context.Context, email string) ([]types.Assessment, error) {
	return r.byEmail, nil
}

func (r *fakeRepo) SearchSimilar(ctx context.Context, userID int64, profile []float32, excludeID int64, k int) ([]types.SimilarAssessment, error) {
	r.similarK = k
	r.similarEx = excludeID
	return []types.SimilarAssessment{{Assessment: types.Assessment{ID: 9, UserID: userID}, Similarity: 0.97}}, nil
}

type fakeAnalyzer struct {
	report map[string]any
	err    error
	doc    map[string]any
	during func()
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, doc map[string]any) (map[string]any, error) {
	a.doc = doc
	if a.during != nil {
		a.during()
	}
	return a.report, a.err
}

type fakeImages struct {
	name string
	err  error
}

func (f fakeImages) Save(email, dataURL string) (string, error) {
	return f.name, f.err
}

var student = &types.User{ID: 3, Email: "ana@example.com", Username: "ana"}

func newHistory(labels ...emotion.Label) *emotion.History {
	h := emotion.NewHistory(0)
	for _, l := range labels {
		h.Append(student.Email, l)
	}
	return h
}

func TestSaveStoresSnapshotAndClearsHistory(t *testing.T) {
	repo := &fakeRepo{}
	history := newHistory(emotion.Fear, emotion.Fear, emotion.Neutral, emotion.Happiness)
	analyzer := &fakeAnalyzer{report: map[string]any{"learningDisabilities": map[string]any{}}}
	svc := NewService(repo, history, fakeImages{name: "handwriting_ana.png"}, analyzer)

	res, err := svc.Save(context.Background(), student, Payload{
		NumberComparison: json.RawMessage(`{"accuracy":0.7}`),
		Handwriting:      json.RawMessage(`{"imageData":"data:image/png;base64,AQID","word":"cat"}`),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.ID)
	assert.True(t, res.ImageSaved)
	assert.Contains(t, res.LDAnalysis, "learningDisabilities")

	require.Len(t, repo.created, 1)
	saved := repo.created[0]
	assert.Equal(t, []string{"Fear", "Fear", "Neutral", "Happiness"}, saved.Emotions)
	assert.JSONEq(t, `{"imageData":"handwriting_ana.png","word":"cat"}`, string(saved.Handwriting))
	assert.JSONEq(t, `[]`, string(saved.EmotionTrackingData))
	assert.InDelta(t, 0.5, saved.EmotionProfile[4], 1e-6)
	assert.Zero(t, history.Len(student.Email))

	assert.Equal(t, "ana@example.com", analyzer.doc["userEmail"])
	assert.Nil(t, analyzer.doc["letterArrangement"])
}

func TestSaveRecordsImageAndAnalysisFailures(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, newHistory(), fakeImages{err: ErrInvalidImage}, &fakeAnalyzer{err: errors.New("model offline")})

	res, err := svc.Save(context.Background(), student, Payload{
		Handwriting: json.RawMessage(`{"imageData":"data:image/png;base64,!!"}`),
	})
	require.NoError(t, err)
	assert.False(t, res.ImageSaved)
	assert.Equal(t, map[string]any{"error": "LD Analysis failed", "details": "model offline"}, res.LDAnalysis)
	assert.JSONEq(t, `{"imageData":null}`, string(repo.created[0].Handwriting))
	assert.Nil(t, repo.created[0].EmotionProfile)
}

func TestSaveKeepsReadingsRecordedDuringAnalysis(t *testing.T) {
	repo := &fakeRepo{}
	history := newHistory(emotion.Sadness, emotion.Sadness)
	analyzer := &fakeAnalyzer{
		report: map[string]any{},
		during: func() { history.Append(student.Email, emotion.Surprise) },
	}
	svc := NewService(repo, history, fakeImages{}, analyzer)

	_, err := svc.Save(context.Background(), student, Payload{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sadness", "Sadness"}, repo.created[0].Emotions)
	assert.Equal(t, []emotion.Label{emotion.Surprise}, history.Recent(student.Email, emotion.DefaultHistoryLimit))
}

func TestSaveKeepsHistoryWhenInsertFails(t *testing.T) {
	history := newHistory(emotion.Anger)
	svc := NewService(&fakeRepo{createErr: errors.New("db down")}, history, fakeImages{}, &fakeAnalyzer{report: map[string]any{}})

	_, err := svc.Save(context.Background(), student, Payload{})
	require.Error(t, err)
	assert.Equal(t, 1, history.Len(student.Email))
}

func TestListFallsBackToEmail(t *testing.T) {
	repo := &fakeRepo{byEmail: []types.Assessment{{ID: 1, UserEmail: student.Email}}}
	svc := NewService(repo, newHistory(), fakeImages{}, &fakeAnalyzer{})

	got, err := svc.List(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, got, 1)

	repo.byUser = []types.Assessment{{ID: 2, UserID: student.ID}, {ID: 1, UserID: student.ID}}
	got, err = svc.List(context.Background(), student)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSimilar(t *testing.T) {
	repo := &fakeRepo{byID: map[int64]*types.Assessment{
		1: {ID: 1, UserID: student.ID, EmotionProfile: []float32{1, 0, 0, 0, 0, 0, 0}},
		2: {ID: 2, UserID: 99, EmotionProfile: []float32{1, 0, 0, 0, 0, 0, 0}},
		3: {ID: 3, UserID: student.ID},
	}}
	svc := NewService(repo, newHistory(), fakeImages{}, &fakeAnalyzer{})
	ctx := context.Background()

	got, err := svc.Similar(ctx, student, 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, DefaultSimilarLimit, repo.similarK)
	assert.EqualValues(t, 1, repo.similarEx)

	_, err = svc.Similar(ctx, student, 2, 3)
	assert.True(t, IsNotFound(err))

	_, err = svc.Similar(ctx, student, 42, 3)
	assert.True(t, IsNotFound(err))

	got, err = svc.Similar(ctx, student, 3, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmotionProfile(t *testing.T) {
	assert.Nil(t, EmotionProfile(nil))
	assert.Nil(t, EmotionProfile([]emotion.Label{"Bored"}))

	got := EmotionProfile([]emotion.Label{emotion.Neutral, emotion.Anger, emotion.Anger, emotion.Happiness})
	assert.Equal(t, []float32{0.25, 0.25, 0, 0, 0, 0, 0.5}, got)
}
