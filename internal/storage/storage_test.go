package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/easeaico/adaptive-tutor/internal/types"
)

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), ErrDuplicate)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestAssessmentModelRoundTrip(t *testing.T) {
	in := &types.Assessment{
		UserID:              7,
		UserEmail:           "ana@example.com",
		NumberComparison:    json.RawMessage(`{"accuracy":0.8}`),
		Handwriting:         json.RawMessage(`{"imageData":"handwriting_ana.png"}`),
		CompletedAt:         "2026-10-01T10:00:00Z",
		EmotionTrackingData: json.RawMessage(`[]`),
		Emotions:            []string{"Neutral", "Fear"},
		EmotionProfile:      []float32{0.5, 0, 0, 0, 0.5, 0, 0},
		LDAnalysis:          json.RawMessage(`{"learningDisabilities":{}}`),
	}

	model, err := assessmentToModel(in)
	require.NoError(t, err)
	assert.Nil(t, model.LetterArrangement)
	require.NotNil(t, model.EmotionProfile)
	assert.JSONEq(t, `["Neutral","Fear"]`, string(model.Emotions))

	out, err := assessmentFromModel(model)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.UserEmail, out.UserEmail)
	assert.Equal(t, in.Emotions, out.Emotions)
	assert.Equal(t, in.EmotionProfile, out.EmotionProfile)
	assert.JSONEq(t, string(in.LDAnalysis), string(out.LDAnalysis))
}

func TestAssessmentWithoutProfile(t *testing.T) {
	model, err := assessmentToModel(&types.Assessment{UserID: 1, UserEmail: "a@b.c"})
	require.NoError(t, err)
	assert.Nil(t, model.EmotionProfile)

	out, err := assessmentFromModel(model)
	require.NoError(t, err)
	assert.Empty(t, out.EmotionProfile)
}

func TestAssessmentFromModelRejectsBadEmotions(t *testing.T) {
	_, err := assessmentFromModel(assessmentModel{Emotions: json.RawMessage(`{"not":"a list"}`)})
	require.Error(t, err)
}

func TestSearchSimilarValidatesInput(t *testing.T) {
	repo := NewAssessmentRepo(nil)
	_, err := repo.SearchSimilar(t.Context(), 1, []float32{1, 2}, 0, 3)
	require.Error(t, err)

	got, err := repo.SearchSimilar(t.Context(), 1, make([]float32, ProfileDimensions), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestManagedTables(t *testing.T) {
	assert.Equal(t, []string{"users", "assessments"}, Models)
}
