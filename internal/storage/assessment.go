package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/easeaico/adaptive-tutor/internal/types"
)

// ProfileDimensions is the width of the emotion profile vector.
const ProfileDimensions = 7

type assessmentModel struct {
	ID                  int64           `gorm:"primaryKey"`
	UserID              int64           `gorm:"not null;index:idx_assessments_user_created,priority:1"`
	UserEmail           string          `gorm:"size:255;not null;index"`
	NumberComparison    json.RawMessage `gorm:"type:jsonb"`
	Handwriting         json.RawMessage `gorm:"type:jsonb"`
	LetterArrangement   json.RawMessage `gorm:"type:jsonb"`
	CompletedAt         string          `gorm:"size:64"`
	EmotionTrackingData json.RawMessage `gorm:"type:jsonb"`
	Emotions            json.RawMessage `gorm:"type:jsonb"`
	// EmotionProfile backs similar-assessment search.
	EmotionProfile *pgvector.Vector `gorm:"type:vector(7)"`
	LDAnalysis     json.RawMessage  `gorm:"column:ld_analysis;type:jsonb"`
	CreatedAt      time.Time        `gorm:"index:idx_assessments_user_created,priority:2,sort:desc"`
}

func (assessmentModel) TableName() string {
	return "assessments"
}

// AssessmentRepo accesses assessment data.
type AssessmentRepo struct {
	db *gorm.DB
}

// NewAssessmentRepo returns an AssessmentRepo.
func NewAssessmentRepo(db *gorm.DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

// Create inserts the assessment and returns its id.
func (r *AssessmentRepo) Create(ctx context.Context, a *types.Assessment) (int64, error) {
	model, err := assessmentToModel(a)
	if err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, fmt.Errorf("failed to create assessment: %w", translate(err))
	}
	a.ID = model.ID
	a.CreatedAt = model.CreatedAt
	return model.ID, nil
}

// Get returns one assessment by id.
func (r *AssessmentRepo) Get(ctx context.Context, id int64) (*types.Assessment, error) {
	var model assessmentModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", translate(err))
	}
	return assessmentFromModel(model)
}

// ListByUserID returns the user's assessments, newest first.
func (r *AssessmentRepo) ListByUserID(ctx context.Context, userID int64) ([]types.Assessment, error) {
	var models []assessmentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list assessments by user: %w", err)
	}
	return assessmentsFromModels(models)
}

// ListByEmail returns assessments recorded under email, newest first.
func (r *AssessmentRepo) ListByEmail(ctx context.Context, email string) ([]types.Assessment, error) {
	var models []assessmentModel
	if err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list assessments by email: %w", err)
	}
	return assessmentsFromModels(models)
}

// SearchSimilar returns the user's assessments closest to profile by cosine
// distance, excluding excludeID.
func (r *AssessmentRepo) SearchSimilar(ctx context.Context, userID int64, profile []float32, excludeID int64, k int) ([]types.SimilarAssessment, error) {
	if len(profile) != ProfileDimensions {
		return nil, fmt.Errorf("profile must have %d dimensions, got %d", ProfileDimensions, len(profile))
	}
	if k <= 0 {
		return nil, nil
	}

	type row struct {
		assessmentModel `gorm:"embedded"`
		Similarity      float64
	}

	vector := pgvector.NewVector(profile)
	query := `
		SELECT *, 1 - (emotion_profile <=> ?) AS similarity
		FROM assessments
		WHERE user_id = ?
		  AND id <> ?
		  AND emotion_profile IS NOT NULL
		ORDER BY emotion_profile <=> ?
		LIMIT ?
	`
	var rows []row
	if err := r.db.WithContext(ctx).
		Raw(query, vector, userID, excludeID, vector, k).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar assessments: %w", err)
	}

	out := make([]types.SimilarAssessment, 0, len(rows))
	for _, rw := range rows {
		a, err := assessmentFromModel(rw.assessmentModel)
		if err != nil {
			return nil, err
		}
		out = append(out, types.SimilarAssessment{Assessment: *a, Similarity: rw.Similarity})
	}
	return out, nil
}

func assessmentToModel(a *types.Assessment) (assessmentModel, error) {
	emotions, err := marshalJSON(a.Emotions)
	if err != nil {
		return assessmentModel{}, fmt.Errorf("failed to encode assessment emotions: %w", err)
	}
	var vector *pgvector.Vector
	if len(a.EmotionProfile) > 0 {
		v := pgvector.NewVector(a.EmotionProfile)
		vector = &v
	}
	return assessmentModel{
		UserID:              a.UserID,
		UserEmail:           a.UserEmail,
		NumberComparison:    nullJSON(a.NumberComparison),
		Handwriting:         nullJSON(a.Handwriting),
		LetterArrangement:   nullJSON(a.LetterArrangement),
		CompletedAt:         a.CompletedAt,
		EmotionTrackingData: nullJSON(a.EmotionTrackingData),
		Emotions:            emotions,
		EmotionProfile:      vector,
		LDAnalysis:          nullJSON(a.LDAnalysis),
	}, nil
}

func assessmentFromModel(m assessmentModel) (*types.Assessment, error) {
	var emotions []string
	if len(m.Emotions) > 0 {
		if err := json.Unmarshal(m.Emotions, &emotions); err != nil {
			return nil, fmt.Errorf("failed to decode assessment emotions: %w", err)
		}
	}
	var profile []float32
	if m.EmotionProfile != nil {
		profile = m.EmotionProfile.Slice()
	}
	return &types.Assessment{
		ID:                  m.ID,
		UserID:              m.UserID,
		UserEmail:           m.UserEmail,
		NumberComparison:    m.NumberComparison,
		Handwriting:         m.Handwriting,
		LetterArrangement:   m.LetterArrangement,
		CompletedAt:         m.CompletedAt,
		EmotionTrackingData: m.EmotionTrackingData,
		Emotions:            emotions,
		EmotionProfile:      profile,
		LDAnalysis:          m.LDAnalysis,
		CreatedAt:           m.CreatedAt,
	}, nil
}

func assessmentsFromModels(models []assessmentModel) ([]types.Assessment, error) {
	out := make([]types.Assessment, 0, len(models))
	for _, m := range models {
		a, err := assessmentFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func marshalJSON(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// nullJSON maps an absent document to SQL NULL rather than an empty jsonb.
func nullJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
