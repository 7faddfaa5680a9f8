package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/adaptive-tutor/internal/emotion"
	"github.com/easeaico/adaptive-tutor/internal/tutor"
)

type actionRequest struct {
	Context string `json:"context"`
}

func (s *server) rlAction(c echo.Context) error {
	var req actionRequest
	// The body is optional.
	_ = c.Bind(&req)

	user := mustUser(c)
	decision, err := s.Tutor.NextAction(c.Request().Context(), user.Email, req.Context)
	if err != nil {
		slog.Error("failed to choose action", "user", user.Email, "error", err.Error())
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"state":          "error",
			"action":         s.Tutor.SafeAction(),
			"avatar_message": tutor.ErrorDialogue,
			"error":          "Internal server error: " + err.Error(),
		})
	}
	return c.JSON(http.StatusOK, decision)
}

type feedbackRequest struct {
	Reward    *float64 `json:"reward"`
	NextState string   `json:"next_state"`
}

func (s *server) rlFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil || req.Reward == nil {
		return message(c, http.StatusBadRequest, "reward is required")
	}
	var next *emotion.Label
	if req.NextState != "" {
		label, ok := emotion.ParseLabel(req.NextState)
		if !ok {
			return message(c, http.StatusBadRequest, "Unknown emotion label")
		}
		next = &label
	}

	user := mustUser(c)
	res, err := s.Tutor.Feedback(c.Request().Context(), user.Email, *req.Reward, next)
	switch {
	case errors.Is(err, tutor.ErrNoPendingDecision):
		return message(c, http.StatusConflict, "No pending action to reward")
	case errors.Is(err, tutor.ErrInvalidReward):
		return message(c, http.StatusBadRequest, err.Error())
	case err != nil:
		slog.Error("failed to apply feedback", "user", user.Email, "error", err.Error())
		return message(c, http.StatusInternalServerError, "Failed to apply feedback")
	}
	return c.JSON(http.StatusOK, res)
}
