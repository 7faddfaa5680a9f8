// Package rl implements the tabular Q-learning agent that maps an observed
// emotional state to a pedagogical action and learns from reward feedback.
package rl

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	// ErrNoActions is returned when an agent is built with an empty action set.
	ErrNoActions = errors.New("rl: action set is empty")
	// ErrInvalidConfig is returned when a hyperparameter is out of range.
	ErrInvalidConfig = errors.New("rl: invalid hyperparameters")
)

// Config holds the agent hyperparameters. They are fixed at construction.
type Config struct {
	Alpha   float64 // learning rate, (0,1]
	Gamma   float64 // discount factor, [0,1]
	Epsilon float64 // exploration probability, [0,1]
}

// DefaultConfig returns the hyperparameters the tutor ships with.
func DefaultConfig() Config {
	return Config{Alpha: 0.1, Gamma: 0.95, Epsilon: 0.2}
}

// Validate checks every hyperparameter against its domain.
func (c Config) Validate() error {
	switch {
	case !(c.Alpha > 0 && c.Alpha <= 1):
		return fmt.Errorf("%w: alpha %v not in (0,1]", ErrInvalidConfig, c.Alpha)
	case !(c.Gamma >= 0 && c.Gamma <= 1):
		return fmt.Errorf("%w: gamma %v not in [0,1]", ErrInvalidConfig, c.Gamma)
	case !(c.Epsilon >= 0 && c.Epsilon <= 1):
		return fmt.Errorf("%w: epsilon %v not in [0,1]", ErrInvalidConfig, c.Epsilon)
	}
	return nil
}

type key[S, A comparable] struct {
	state  S
	action A
}

// Agent is an epsilon-greedy Q-learning agent over a fixed, ordered action set.
//
// A single mutex guards the value table and the random source, so an Agent
// may be shared between request handlers.
type Agent[S, A comparable] struct {
	actions []A
	cfg     Config

	mu    sync.Mutex
	rng   Source
	table map[key[S, A]]float64
}

// New builds an agent. The action slice is copied. A nil src is replaced by a
// time-seeded generator.
func New[S, A comparable](actions []A, cfg Config, src Source) (*Agent[S, A], error) {
	if len(actions) == 0 {
		return nil, ErrNoActions
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = NewSource(0)
	}
	owned := make([]A, len(actions))
	copy(owned, actions)
	return &Agent[S, A]{
		actions: owned,
		cfg:     cfg,
		rng:     src,
		table:   make(map[key[S, A]]float64),
	}, nil
}

// Actions returns a copy of the configured action set in order.
func (a *Agent[S, A]) Actions() []A {
	out := make([]A, len(a.actions))
	copy(out, a.actions)
	return out
}

// Config returns the hyperparameters.
func (a *Agent[S, A]) Config() Config {
	return a.cfg
}

// Value returns Q(state, action), or 0 when the pair has never been updated.
func (a *Agent[S, A]) Value(state S, action A) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table[key[S, A]{state, action}]
}

// Values returns Q(state, ·) for every configured action.
func (a *Agent[S, A]) Values(state S) map[A]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[A]float64, len(a.actions))
	for _, act := range a.actions {
		out[act] = a.table[key[S, A]{state, act}]
	}
	return out
}

// Len reports how many (state, action) pairs are stored.
func (a *Agent[S, A]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.table)
}

// ChooseAction picks an action for state. With probability epsilon it
// explores uniformly over all actions; otherwise it returns one of the
// highest-valued actions, breaking ties uniformly at random. Unseen states
// read as all zeros, so every action ties. A state with no comparable value
// (all NaN) falls back to a uniform draw.
func (a *Agent[S, A]) ChooseAction(state S) A {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rng.Float64() < a.cfg.Epsilon {
		return a.actions[a.rng.IntN(len(a.actions))]
	}

	best := make([]A, 0, len(a.actions))
	maxQ := math.Inf(-1)
	for _, act := range a.actions {
		q := a.table[key[S, A]{state, act}]
		switch {
		case q > maxQ:
			maxQ = q
			best = append(best[:0], act)
		case q == maxQ:
			best = append(best, act)
		}
	}
	if len(best) == 0 {
		return a.actions[a.rng.IntN(len(a.actions))]
	}
	return best[a.rng.IntN(len(best))]
}

// Update applies the Q-learning rule
//
//	Q(s,a) <- Q(s,a) + alpha * (reward + gamma * max_a' Q(s',a') - Q(s,a))
//
// creating the entry when it does not exist yet. It returns the new value.
func (a *Agent[S, A]) Update(state S, action A, reward float64, nextState S) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := key[S, A]{state, action}
	current := a.table[k]
	updated := current + a.cfg.Alpha*(reward+a.cfg.Gamma*a.maxValueLocked(nextState)-current)
	a.table[k] = updated
	return updated
}

func (a *Agent[S, A]) maxValueLocked(state S) float64 {
	if len(a.actions) == 0 {
		return 0
	}
	maxQ := math.Inf(-1)
	for _, act := range a.actions {
		if q := a.table[key[S, A]{state, act}]; q > maxQ {
			maxQ = q
		}
	}
	return maxQ
}
