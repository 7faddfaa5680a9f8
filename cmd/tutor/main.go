// Package main boots the adaptive tutor HTTP service and wires application dependencies.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/easeaico/adaptive-tutor/internal/assessment"
	"github.com/easeaico/adaptive-tutor/internal/auth"
	"github.com/easeaico/adaptive-tutor/internal/config"
	"github.com/easeaico/adaptive-tutor/internal/dialogue"
	"github.com/easeaico/adaptive-tutor/internal/emotion"
	"github.com/easeaico/adaptive-tutor/internal/handler"
	"github.com/easeaico/adaptive-tutor/internal/models"
	"github.com/easeaico/adaptive-tutor/internal/policystore"
	"github.com/easeaico/adaptive-tutor/internal/rl"
	"github.com/easeaico/adaptive-tutor/internal/storage"
	"github.com/easeaico/adaptive-tutor/internal/tutor"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	slog.Info("configuration loaded",
		"provider", cfg.LLMProvider,
		"dialogue_model", cfg.DialogueModel,
		"analysis_model", cfg.AnalysisModel,
		"classifier_model", cfg.ClassifierModel,
		"policy_store", cfg.PolicyStore,
		"policy_path", cfg.PolicyPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	keys := models.Keys{
		Google:     cfg.GoogleAPIKey,
		OpenAI:     cfg.OpenAIAPIKey,
		XAI:        cfg.XAIAPIKey,
		OpenRouter: cfg.OpenRouterAPIKey,
	}
	dialogueLLM, err := models.NewLLM(ctx, cfg.LLMProvider, cfg.DialogueModel, keys)
	if err != nil {
		log.Fatalf("failed to create dialogue model: %v", err)
	}
	analysisLLM, err := models.NewLLM(ctx, cfg.LLMProvider, cfg.AnalysisModel, keys)
	if err != nil {
		log.Fatalf("failed to create analysis model: %v", err)
	}
	classifierLLM, err := models.NewLLM(ctx, cfg.LLMProvider, cfg.ClassifierModel, keys)
	if err != nil {
		log.Fatalf("failed to create classifier model: %v", err)
	}

	agent, err := rl.New[emotion.Label, string](cfg.RLActions, rl.Config{
		Alpha:   cfg.RLAlpha,
		Gamma:   cfg.RLGamma,
		Epsilon: cfg.RLEpsilon,
	}, rl.NewSource(cfg.RLSeed))
	if err != nil {
		log.Fatalf("failed to create agent: %v", err)
	}

	policies, err := policystore.Open(cfg.PolicyStore, cfg.PolicyPath)
	if err != nil {
		log.Fatalf("failed to open policy store: %v", err)
	}
	defer func() {
		if err := policies.Close(); err != nil {
			slog.Warn("failed to close policy store", "error", err.Error())
		}
	}()

	history := emotion.NewHistory(cfg.EmotionHistoryLimit)
	tutorService := tutor.NewService(agent, history, dialogue.NewGenerator(dialogueLLM), policies, tutor.Config{
		Window:    cfg.EmotionWindow,
		SaveEvery: cfg.PolicySaveEvery,
	})
	if err := tutorService.Restore(ctx); err != nil {
		slog.Warn("starting with an empty policy; the stored snapshot is left in place and will not be overwritten", "error", err.Error())
	}

	assessments := assessment.NewService(
		store.Assessments,
		history,
		assessment.NewImageStore(cfg.UploadDir),
		assessment.NewLLMAnalyzer(analysisLLM),
	)

	e := handler.New(handler.Deps{
		Users:         store.Users,
		Issuer:        auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Assessments:   assessments,
		Tutor:         tutorService,
		Classifier:    emotion.NewLLMClassifier(classifierLLM),
		DetectLimiter: handler.NewRateLimiter(cfg.DetectRatePerSec, cfg.DetectBurst),
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.HTTPAddr)
		errCh <- e.Start(cfg.HTTPAddr)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down http server", "error", err.Error())
	}
	if err := tutorService.Persist(shutdownCtx); errors.Is(err, tutor.ErrSnapshotHeld) {
		slog.Warn("policy not persisted on shutdown", "error", err.Error())
	} else if err != nil {
		slog.Error("failed to persist policy on shutdown", "error", err.Error())
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		log.Fatalf("http server failed: %v", serveErr)
	}
	slog.Info("shutdown complete")
}
