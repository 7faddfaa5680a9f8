// Package tutor runs the adaptive loop: it turns a student's recent
// emotions into a state, picks a pedagogical action, phrases it through the
// avatar, and learns from the reward that follows.
package tutor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/easeaico/adaptive-tutor/internal/emotion"
	"github.com/easeaico/adaptive-tutor/internal/policystore"
	"github.com/easeaico/adaptive-tutor/internal/rl"
)

const (
	// FallbackDialogue is spoken when the avatar line cannot be generated.
	FallbackDialogue = "Let's keep going!"
	// ErrorDialogue is returned with the safe fallback action on internal failures.
	ErrorDialogue = "Oops! Something went wrong on my end. Let's try that again."

	defaultAction = "Proceed normally"
)

var (
	// ErrNoPendingDecision is returned by Feedback when the user has no
	// decision awaiting a reward.
	ErrNoPendingDecision = errors.New("no pending decision")
	// ErrInvalidReward is returned for non-finite rewards or rewards beyond
	// MaxRewardMagnitude.
	ErrInvalidReward = errors.New("reward must be a finite number within bounds")
	// ErrSnapshotHeld is returned by Persist after a failed Restore, so the
	// unreadable snapshot is not replaced by a fresh table.
	ErrSnapshotHeld = errors.New("policy snapshot could not be restored; refusing to overwrite it")
)

// MaxRewardMagnitude bounds feedback rewards.
const MaxRewardMagnitude = 1e6

// DefaultActions is the pedagogical action set, in order.
func DefaultActions() []string {
	return []string{"Repeat lesson", "Offer additional hint", "Slow down pace", "Provide encouragement", "Proceed normally"}
}

// DialogueGenerator phrases an action for the avatar.
type DialogueGenerator interface {
	Generate(ctx context.Context, state emotion.Label, action, userContext string) (string, error)
}

// Config tunes the loop around the agent.
type Config struct {
	// Window is how many recent readings form the state.
	Window int
	// SaveEvery persists the table after this many updates. Zero disables it.
	SaveEvery int
}

// Decision is the outcome of one NextAction call.
type Decision struct {
	State    emotion.Label `json:"state"`
	Action   string        `json:"action"`
	Dialogue string        `json:"avatar_message"`
	Warning  string        `json:"warning,omitempty"`
}

// FeedbackResult reports the update applied by Feedback.
type FeedbackResult struct {
	State     emotion.Label `json:"state"`
	Action    string        `json:"action"`
	NextState emotion.Label `json:"next_state"`
	Reward    float64       `json:"reward"`
	Value     float64       `json:"value"`
}

type pendingDecision struct {
	state  emotion.Label
	action string
}

// Service owns the shared agent and the per-user state around it.
type Service struct {
	agent    *rl.Agent[emotion.Label, string]
	history  *emotion.History
	dialogue DialogueGenerator
	store    policystore.Store
	cfg      Config

	mu      sync.Mutex
	pending map[string]pendingDecision
	updates int
	held    bool
}

// NewService wires the loop. store may be nil, in which case nothing is persisted.
func NewService(agent *rl.Agent[emotion.Label, string], history *emotion.History, dialogue DialogueGenerator, store policystore.Store, cfg Config) *Service {
	if cfg.Window <= 0 {
		cfg.Window = 5
	}
	return &Service{
		agent:    agent,
		history:  history,
		dialogue: dialogue,
		store:    store,
		cfg:      cfg,
		pending:  make(map[string]pendingDecision),
	}
}

// Agent exposes the underlying agent for inspection.
func (s *Service) Agent() *rl.Agent[emotion.Label, string] {
	return s.agent
}

// RecordEmotion appends a reading to the user's history.
func (s *Service) RecordEmotion(user string, reading emotion.Reading) {
	s.history.Append(user, reading.Label)
	slog.Debug("emotion recorded", "user", user, "emotion", reading.Label, "confidence", reading.Confidence)
}

// SafeAction is the action used when there is not enough data or when
// selection fails.
func (s *Service) SafeAction() string {
	actions := s.agent.Actions()
	if slices.Contains(actions, defaultAction) {
		return defaultAction
	}
	return actions[len(actions)-1]
}

// CurrentState returns the majority label over the user's recent window and
// whether the window is full.
func (s *Service) CurrentState(user string) (emotion.Label, bool) {
	recent := s.history.Recent(user, s.cfg.Window)
	if len(recent) < s.cfg.Window {
		return emotion.Neutral, false
	}
	state, ok := emotion.MajorityVote(recent)
	if !ok {
		return emotion.Neutral, false
	}
	return state, true
}

// NextAction decides what the tutor does next for user and remembers the
// decision so a later Feedback call can reward it.
func (s *Service) NextAction(ctx context.Context, user, userContext string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	var d Decision
	state, ok := s.CurrentState(user)
	if ok {
		d.State = state
		d.Action = s.agent.ChooseAction(state)
	} else {
		have := s.history.Len(user)
		slog.Warn("not enough emotion data, using default", "user", user, "have", have, "need", s.cfg.Window)
		d.State = emotion.Neutral
		d.Action = s.SafeAction()
		d.Warning = fmt.Sprintf("Using default state/action due to insufficient emotion data (%d/%d).", have, s.cfg.Window)
	}
	slog.Info("action selected", "user", user, "state", d.State, "action", d.Action)

	d.Dialogue = FallbackDialogue
	if s.dialogue != nil {
		line, err := s.dialogue.Generate(ctx, d.State, d.Action, userContext)
		if err != nil {
			slog.Error("failed to generate avatar dialogue", "user", user, "error", err.Error())
		} else {
			d.Dialogue = line
		}
	}

	s.mu.Lock()
	s.pending[user] = pendingDecision{state: d.State, action: d.Action}
	s.mu.Unlock()
	return d, nil
}

// Feedback rewards the user's pending decision. When nextState is nil the
// user's current state is used.
func (s *Service) Feedback(ctx context.Context, user string, reward float64, nextState *emotion.Label) (FeedbackResult, error) {
	if math.IsNaN(reward) || math.Abs(reward) > MaxRewardMagnitude {
		return FeedbackResult{}, ErrInvalidReward
	}

	s.mu.Lock()
	p, ok := s.pending[user]
	if ok {
		delete(s.pending, user)
	}
	s.mu.Unlock()
	if !ok {
		return FeedbackResult{}, ErrNoPendingDecision
	}

	next := emotion.Neutral
	if nextState != nil {
		next = *nextState
	} else if state, full := s.CurrentState(user); full {
		next = state
	}

	res := FeedbackResult{
		State:     p.state,
		Action:    p.action,
		NextState: next,
		Reward:    reward,
		Value:     s.agent.Update(p.state, p.action, reward, next),
	}
	slog.Info("policy updated", "user", user, "state", p.state, "action", p.action, "reward", reward, "value", res.Value)

	if s.shouldPersist() {
		if err := s.Persist(ctx); err != nil {
			slog.Error("failed to persist policy", "error", err.Error())
		}
	}
	return res, nil
}

func (s *Service) shouldPersist() bool {
	if s.store == nil || s.cfg.SaveEvery <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held {
		return false
	}
	s.updates++
	return s.updates%s.cfg.SaveEvery == 0
}

// Persist writes the current table to the policy store. It returns
// ErrSnapshotHeld when the stored snapshot could not be restored.
func (s *Service) Persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	held := s.held
	s.mu.Unlock()
	if held {
		return ErrSnapshotHeld
	}
	var buf bytes.Buffer
	if err := s.agent.Save(&buf); err != nil {
		return err
	}
	snap, err := s.store.Save(ctx, buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to save policy snapshot: %w", err)
	}
	slog.Info("policy persisted", "version", snap.Version, "bytes", snap.Size, "entries", s.agent.Len())
	return nil
}

// Restore loads the latest snapshot. A store with no snapshot leaves the
// agent empty and is not an error. Any other failure is reported, the table
// is left unchanged, and Persist stops writing until the process restarts.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	body, snap, err := s.store.Latest(ctx)
	if errors.Is(err, policystore.ErrNoSnapshot) {
		slog.Info("no policy snapshot, starting fresh")
		return nil
	}
	if err != nil {
		s.hold()
		return fmt.Errorf("failed to read policy snapshot: %w", err)
	}
	if err := s.agent.Load(bytes.NewReader(body)); err != nil {
		s.hold()
		return fmt.Errorf("failed to load policy snapshot %s: %w", snap.Version, err)
	}
	slog.Info("policy restored", "version", snap.Version, "entries", s.agent.Len())
	return nil
}

func (s *Service) hold() {
	s.mu.Lock()
	s.held = true
	s.mu.Unlock()
}
