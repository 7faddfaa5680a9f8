package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/adaptive-tutor/internal/assessment"
)

func (s *server) saveAssessment(c echo.Context) error {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return message(c, http.StatusBadRequest, "Request must be JSON")
	}
	var payload assessment.Payload
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		return message(c, http.StatusBadRequest, "No data provided")
	}

	user := mustUser(c)
	res, err := s.Assessments.Save(c.Request().Context(), user, payload)
	if err != nil {
		slog.Error("failed to save assessment", "user", user.Email, "error", err.Error())
		return messageWithError(c, http.StatusInternalServerError, "Failed to save assessment to database", err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message":      "Assessment saved successfully",
		"assessmentId": res.ID,
		"ld_analysis":  res.LDAnalysis,
		"image_saved":  res.ImageSaved,
	})
}

func (s *server) listAssessments(c echo.Context) error {
	user := mustUser(c)
	out, err := s.Assessments.List(c.Request().Context(), user)
	if err != nil {
		slog.Error("failed to fetch assessments", "user", user.Email, "error", err.Error())
		return messageWithError(c, http.StatusInternalServerError, "Failed to fetch assessments", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) similarAssessments(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid assessment id")
	}
	k := 0
	if raw := c.QueryParam("k"); raw != "" {
		if k, err = strconv.Atoi(raw); err != nil || k < 0 {
			return message(c, http.StatusBadRequest, "Invalid k")
		}
	}

	user := mustUser(c)
	out, err := s.Assessments.Similar(c.Request().Context(), user, id, k)
	if err != nil {
		if assessment.IsNotFound(err) {
			return message(c, http.StatusNotFound, "Assessment not found")
		}
		slog.Error("failed to search similar assessments", "user", user.Email, "id", id, "error", err.Error())
		return messageWithError(c, http.StatusInternalServerError, "Failed to search assessments", err)
	}
	return c.JSON(http.StatusOK, out)
}
