package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/easeaico/adaptive-tutor/internal/emotion"
	"github.com/easeaico/adaptive-tutor/internal/storage"
	"github.com/easeaico/adaptive-tutor/internal/types"
)

// DefaultSimilarLimit is used when Similar is called without a positive k.
const DefaultSimilarLimit = 5

// Repository persists assessments.
type Repository interface {
	Create(ctx context.Context, a *types.Assessment) (int64, error)
	Get(ctx context.Context, id int64) (*types.Assessment, error)
	ListByUserID(ctx context.Context, userID int64) ([]types.Assessment, error)
	ListByEmail(ctx context.Context, email string) ([]types.Assessment, error)
	SearchSimilar(ctx context.Context, userID int64, profile []float32, excludeID int64, k int) ([]types.SimilarAssessment, error)
}

// EmotionHistory is the per-user reading buffer captured into each assessment.
type EmotionHistory interface {
	Checkpoint(user string) ([]emotion.Label, int)
	DropThrough(user string, mark int)
}

// ImageSaver stores a handwriting data URL and returns the file name.
type ImageSaver interface {
	Save(email, dataURL string) (string, error)
}

// Payload is the client's assessment submission.
type Payload struct {
	NumberComparison    json.RawMessage `json:"numberComparison"`
	Handwriting         json.RawMessage `json:"handwriting"`
	LetterArrangement   json.RawMessage `json:"letterArrangement"`
	CompletedAt         string          `json:"completedAt"`
	EmotionTrackingData json.RawMessage `json:"emotionTrackingData"`
}

// SaveResult is what the client learns about a saved assessment.
type SaveResult struct {
	ID         int64          `json:"assessmentId"`
	LDAnalysis map[string]any `json:"ld_analysis"`
	ImageSaved bool           `json:"image_saved"`
}

// Service saves, lists, and compares assessments.
type Service struct {
	repo     Repository
	history  EmotionHistory
	images   ImageSaver
	analyzer Analyzer
	now      func() time.Time
}

// NewService returns a Service.
func NewService(repo Repository, history EmotionHistory, images ImageSaver, analyzer Analyzer) *Service {
	return &Service{
		repo:     repo,
		history:  history,
		images:   images,
		analyzer: analyzer,
		now:      time.Now,
	}
}

// Save stores the user's assessment. Image and analysis failures are
// recorded on the assessment rather than failing the save. The user's
// captured readings leave the emotion history only once the insert succeeds;
// readings that arrive meanwhile stay for the next assessment.
func (s *Service) Save(ctx context.Context, user *types.User, payload Payload) (*SaveResult, error) {
	readings, mark := s.history.Checkpoint(user.Email)
	emotions := make([]string, len(readings))
	for i, l := range readings {
		emotions[i] = string(l)
	}

	handwriting, imageSaved := s.storeHandwriting(user.Email, payload.Handwriting)
	trackingData := payload.EmotionTrackingData
	if len(trackingData) == 0 || string(trackingData) == "null" {
		trackingData = json.RawMessage(`[]`)
	}

	record := &types.Assessment{
		UserID:              user.ID,
		UserEmail:           user.Email,
		NumberComparison:    payload.NumberComparison,
		Handwriting:         handwriting,
		LetterArrangement:   payload.LetterArrangement,
		CompletedAt:         payload.CompletedAt,
		EmotionTrackingData: trackingData,
		Emotions:            emotions,
		EmotionProfile:      EmotionProfile(readings),
		CreatedAt:           s.now().UTC(),
	}

	report := s.analyze(ctx, record)
	analysis, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	record.LDAnalysis = analysis

	id, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to save assessment: %w", err)
	}
	s.history.DropThrough(user.Email, mark)
	slog.Info("assessment saved", "user", user.Email, "id", id, "emotions", len(emotions))

	return &SaveResult{ID: id, LDAnalysis: report, ImageSaved: imageSaved}, nil
}

// storeHandwriting replaces handwriting.imageData with the stored file name,
// or with null when the image cannot be stored.
func (s *Service) storeHandwriting(email string, raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 {
		return raw, false
	}
	var hw map[string]any
	if err := json.Unmarshal(raw, &hw); err != nil || hw == nil {
		return raw, false
	}
	dataURL, _ := hw["imageData"].(string)
	if dataURL == "" {
		return raw, false
	}

	saved := false
	name, err := s.images.Save(email, dataURL)
	if err != nil {
		slog.Error("failed to store handwriting image", "user", email, "error", err.Error())
		hw["imageData"] = nil
	} else {
		hw["imageData"] = name
		saved = true
	}

	out, err := json.Marshal(hw)
	if err != nil {
		return raw, false
	}
	return out, saved
}

func (s *Service) analyze(ctx context.Context, a *types.Assessment) map[string]any {
	doc := map[string]any{
		"userId":              fmt.Sprint(a.UserID),
		"userEmail":           a.UserEmail,
		"created_at":          a.CreatedAt.Format(time.RFC3339),
		"emotions":            a.Emotions,
		"numberComparison":    a.NumberComparison,
		"handwriting":         a.Handwriting,
		"letterArrangement":   a.LetterArrangement,
		"completedAt":         a.CompletedAt,
		"emotionTrackingData": a.EmotionTrackingData,
	}
	for k, v := range doc {
		if raw, ok := v.(json.RawMessage); ok && len(raw) == 0 {
			doc[k] = nil
		}
	}

	report, err := s.analyzer.Analyze(ctx, doc)
	if err != nil {
		slog.Error("learning disability analysis failed", "user", a.UserEmail, "error", err.Error())
		return map[string]any{"error": "LD Analysis failed", "details": err.Error()}
	}
	return report
}

// List returns the user's assessments, newest first. Rows recorded before
// the user id was stored are found by email.
func (s *Service) List(ctx context.Context, user *types.User) ([]types.Assessment, error) {
	out, err := s.repo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		return out, nil
	}
	slog.Info("no assessments by user id, trying email", "user", user.Email)
	return s.repo.ListByEmail(ctx, user.Email)
}

// Similar returns up to k of the user's other assessments with the closest
// emotion profile to the given one.
func (s *Service) Similar(ctx context.Context, user *types.User, assessmentID int64, k int) ([]types.SimilarAssessment, error) {
	if k <= 0 {
		k = DefaultSimilarLimit
	}
	target, err := s.repo.Get(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if target.UserID != user.ID {
		return nil, fmt.Errorf("assessment %d: %w", assessmentID, storage.ErrNotFound)
	}
	if len(target.EmotionProfile) == 0 {
		return []types.SimilarAssessment{}, nil
	}
	out, err := s.repo.SearchSimilar(ctx, user.ID, target.EmotionProfile, target.ID, k)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.SimilarAssessment{}
	}
	return out, nil
}

// IsNotFound reports whether err means the assessment does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
