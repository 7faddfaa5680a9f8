// Package handler exposes the tutor over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/easeaico/adaptive-tutor/internal/assessment"
	"github.com/easeaico/adaptive-tutor/internal/auth"
	"github.com/easeaico/adaptive-tutor/internal/emotion"
	"github.com/easeaico/adaptive-tutor/internal/tutor"
	"github.com/easeaico/adaptive-tutor/internal/types"
)

// UserStore creates and loads accounts.
type UserStore interface {
	auth.UserLookup
	Create(ctx context.Context, user *types.User) error
}

// Assessments is the assessment workflow behind the assessment routes.
type Assessments interface {
	Save(ctx context.Context, user *types.User, payload assessment.Payload) (*assessment.SaveResult, error)
	List(ctx context.Context, user *types.User) ([]types.Assessment, error)
	Similar(ctx context.Context, user *types.User, assessmentID int64, k int) ([]types.SimilarAssessment, error)
}

// Tutor is the adaptive loop behind the emotion and rl routes.
type Tutor interface {
	RecordEmotion(user string, reading emotion.Reading)
	SafeAction() string
	NextAction(ctx context.Context, user, userContext string) (tutor.Decision, error)
	Feedback(ctx context.Context, user string, reward float64, nextState *emotion.Label) (tutor.FeedbackResult, error)
}

// Deps are the services the routes call into.
type Deps struct {
	Users       UserStore
	Issuer      *auth.Issuer
	Assessments Assessments
	Tutor       Tutor
	Classifier  emotion.Classifier
	// DetectLimiter throttles /facedetection per user. Nil disables it.
	DetectLimiter *RateLimiter
}

type server struct {
	Deps
}

// New builds the echo instance with every route registered.
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID}
			if v.Error != nil {
				slog.Error("request failed", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	}))

	s := &server{Deps: deps}

	e.GET("/healthz", s.healthz)
	e.POST("/register", s.register)
	e.POST("/login", s.login)

	requireUser := auth.RequireUser(deps.Issuer, deps.Users)
	api := e.Group("", requireUser)
	api.GET("/api/user/profile", s.profile)
	api.POST("/save-assessment", s.saveAssessment)
	api.GET("/assessments", s.listAssessments)
	api.GET("/assessments/:id/similar", s.similarAssessments)
	api.POST("/facedetection", s.faceDetection, RateLimit(deps.DetectLimiter))
	api.POST("/emotions", s.recordEmotion)
	api.POST("/rl_action", s.rlAction)
	api.POST("/rl_feedback", s.rlFeedback)

	return e
}

func (s *server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}

func messageWithError(c echo.Context, status int, msg string, err error) error {
	return c.JSON(status, map[string]string{"message": msg, "error": err.Error()})
}

// mustUser is only called behind RequireUser.
func mustUser(c echo.Context) *types.User {
	user, _ := auth.CurrentUser(c)
	return user
}
