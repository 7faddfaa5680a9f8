package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/adaptive-tutor/internal/emotion"
)

// maxFrameBytes bounds one uploaded camera frame.
const maxFrameBytes = 10 << 20

func (s *server) faceDetection(c echo.Context) error {
	header, err := c.FormFile("image")
	if err != nil {
		return message(c, http.StatusBadRequest, "No image file provided")
	}
	file, err := header.Open()
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid image format")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxFrameBytes+1))
	if err != nil {
		return message(c, http.StatusBadRequest, "Invalid image format")
	}
	if len(data) == 0 {
		return message(c, http.StatusBadRequest, "Empty image file received")
	}
	if len(data) > maxFrameBytes {
		return message(c, http.StatusRequestEntityTooLarge, "Image too large")
	}

	mimeType := header.Header.Get(echo.HeaderContentType)
	if mimeType == "" || mimeType == echo.MIMEOctetStream {
		mimeType = http.DetectContentType(data)
	}

	user := mustUser(c)
	reading, err := s.Classifier.Classify(c.Request().Context(), data, mimeType)
	switch {
	case errors.Is(err, emotion.ErrNoFace):
		return message(c, http.StatusOK, "No face detected")
	case err != nil:
		slog.Error("emotion prediction failed", "user", user.Email, "error", err.Error())
		return message(c, http.StatusInternalServerError, "Emotion prediction error: "+err.Error())
	}

	s.Tutor.RecordEmotion(user.Email, reading)
	slog.Info("detected emotion", "user", user.Email, "emotion", reading.Label, "confidence", reading.Confidence)
	return c.JSON(http.StatusOK, reading)
}

type emotionRequest struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

func (s *server) recordEmotion(c echo.Context) error {
	var req emotionRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}
	label, ok := emotion.ParseLabel(req.Emotion)
	if !ok {
		return message(c, http.StatusBadRequest, "Unknown emotion label")
	}
	reading := emotion.Reading{Label: label, Confidence: req.Confidence}
	s.Tutor.RecordEmotion(mustUser(c).Email, reading)
	return c.JSON(http.StatusOK, reading)
}
