package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/adaptive-tutor/internal/auth"
	"github.com/easeaico/adaptive-tutor/internal/storage"
	"github.com/easeaico/adaptive-tutor/internal/types"
)

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Missing required fields")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return message(c, http.StatusBadRequest, "Missing required fields")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err.Error())
		return message(c, http.StatusInternalServerError, "Registration failed")
	}
	user := &types.User{Username: req.Username, Email: req.Email, PasswordHash: hash}
	if err := s.Users.Create(c.Request().Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return message(c, http.StatusConflict, "User already exists")
		}
		slog.Error("failed to register user", "email", req.Email, "error", err.Error())
		return message(c, http.StatusInternalServerError, "Registration failed")
	}

	slog.Info("user registered", "email", user.Email)
	return message(c, http.StatusCreated, "User registered successfully")
}

func (s *server) login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return message(c, http.StatusBadRequest, "Missing required fields")
	}

	user, err := s.Users.GetByEmail(c.Request().Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Error("failed to load user", "email", req.Email, "error", err.Error())
		}
		return message(c, http.StatusUnauthorized, "Invalid credentials")
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return message(c, http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := s.Issuer.Issue(user.Email)
	if err != nil {
		slog.Error("failed to issue token", "email", user.Email, "error", err.Error())
		return message(c, http.StatusInternalServerError, "Login failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *server) profile(c echo.Context) error {
	user := mustUser(c)
	return c.JSON(http.StatusOK, map[string]any{
		"username":   user.Username,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}
