// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance

import (
	"context"
	"fmt"
	"time"

	"github.com/muvera-ai/agentgov/storage"
)

// TrustManagerIface is the interface for managing agent trust levels.
// Trust changes are manual only — there is no automatic progression, no
// behavioral scoring, and no anomaly-driven promotion or demotion.
//
// All methods are safe for concurrent use.
type TrustManagerIface interface {
	// SetLevel manually assigns a trust level to an agent within a scope.
	// The assignment is durable for the lifetime of the storage backend.
	SetLevel(ctx context.Context, agentID string, level TrustLevel, scope string, opts ...AssignOption) (*TrustAssignment, error)

	// GetLevel returns the effective trust level for an agent in a scope,
	// after applying expiry and any configured decay. When no assignment
	// exists, the configured default level is returned.
	GetLevel(ctx context.Context, agentID, scope string) TrustLevel

	// CheckLevel reports whether agentID meets the required trust level in
	// the given scope. It never returns an error — all outcomes are
	// expressed through TrustResult.Permitted.
	CheckLevel(ctx context.Context, agentID string, required TrustLevel, scope string) *TrustResult
}

// AssignOption is a functional option for TrustManager.SetLevel.
type AssignOption func(*assignOptions)

type assignOptions struct {
	assignedBy string
	expiresAt  *time.Time
	decay      DecayStrategy
}

// WithAssignedBy records the identity of the caller that made the
// assignment (e.g. "owner", "policy", "admin"). Defaults to "owner".
func WithAssignedBy(assignedBy string) AssignOption {
	return func(o *assignOptions) { o.assignedBy = assignedBy }
}

// WithExpiry sets a hard expiry time for the trust assignment. After this
// time, GetLevel and CheckLevel fall back to the configured default level,
// regardless of any configured decay.
func WithExpiry(expiresAt time.Time) AssignOption {
	return func(o *assignOptions) { o.expiresAt = &expiresAt }
}

// WithDecay attaches a monotone, reading-only decay strategy to the
// assignment. Decay never mutates the stored assignment; it only changes
// what GetLevel computes from (level, assignedAt, now).
func WithDecay(decay DecayStrategy) AssignOption {
	return func(o *assignOptions) { o.decay = decay }
}

// DecayStrategy computes the effective trust level at now, given the level
// that was assigned and when it was assigned. Implementations must be
// monotone-decreasing and deterministic in (assignedAt, now), and must
// never return a level above the one assigned.
type DecayStrategy interface {
	Apply(level TrustLevel, assignedAt, now time.Time, floor TrustLevel) TrustLevel
	kind() string
	param() time.Duration
}

// CliffDecay collapses the effective level to floor once TTL has elapsed
// since assignment, and leaves it untouched before that.
type CliffDecay struct {
	TTL time.Duration
}

// Apply implements DecayStrategy.
func (d CliffDecay) Apply(level TrustLevel, assignedAt, now time.Time, floor TrustLevel) TrustLevel {
	if now.Sub(assignedAt) >= d.TTL {
		return floor
	}
	return level
}

func (d CliffDecay) kind() string          { return "cliff" }
func (d CliffDecay) param() time.Duration  { return d.TTL }

// GradualDecay lowers the effective level by one for every StepInterval
// that has elapsed since assignment, clamped at floor.
type GradualDecay struct {
	StepInterval time.Duration
}

// Apply implements DecayStrategy.
func (d GradualDecay) Apply(level TrustLevel, assignedAt, now time.Time, floor TrustLevel) TrustLevel {
	if d.StepInterval <= 0 {
		return level
	}
	elapsed := now.Sub(assignedAt)
	if elapsed <= 0 {
		return level
	}
	steps := int(elapsed / d.StepInterval)
	effective := int(level) - steps
	if TrustLevel(effective) < floor {
		return floor
	}
	return TrustLevel(effective)
}

func (d GradualDecay) kind() string         { return "gradual" }
func (d GradualDecay) param() time.Duration { return d.StepInterval }

func decodeDecay(kind string, param time.Duration) DecayStrategy {
	switch kind {
	case "cliff":
		return CliffDecay{TTL: param}
	case "gradual":
		return GradualDecay{StepInterval: param}
	default:
		return nil
	}
}

// TrustManager is the default implementation of TrustManagerIface. It
// stores assignments in the provided storage.Storage backend.
type TrustManager struct {
	store  storage.Storage
	config TrustConfig
}

// NewTrustManager constructs a TrustManager backed by the given storage.
func NewTrustManager(store storage.Storage, cfg TrustConfig) *TrustManager {
	if cfg.DefaultScope == "" {
		cfg.DefaultScope = "default"
	}
	return &TrustManager{store: store, config: cfg}
}

// SetLevel manually assigns a trust level to an agent within a scope. The
// assignment takes effect on the next call to GetLevel or CheckLevel and
// replaces any prior assignment for (agentID, scope).
func (m *TrustManager) SetLevel(
	ctx context.Context,
	agentID string,
	level TrustLevel,
	scope string,
	opts ...AssignOption,
) (*TrustAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !level.Valid() {
		return nil, fmt.Errorf("%w: value %d", ErrInvalidTrustLevel, level)
	}
	if agentID == "" {
		return nil, fmt.Errorf("%w: agentID must not be empty", ErrInvalidInput)
	}
	if scope == "" {
		scope = m.config.DefaultScope
	}

	options := &assignOptions{assignedBy: "owner"}
	for _, opt := range opts {
		opt(options)
	}

	assignment := TrustAssignment{
		AgentID:    agentID,
		Level:      level,
		Scope:      scope,
		AssignedAt: time.Now().UTC(),
		ExpiresAt:  options.expiresAt,
		AssignedBy: options.assignedBy,
		Decay:      options.decay,
	}

	stored := storage.TrustAssignment{
		AgentID:    assignment.AgentID,
		Level:      int(assignment.Level),
		Scope:      assignment.Scope,
		AssignedAt: assignment.AssignedAt,
		ExpiresAt:  assignment.ExpiresAt,
		AssignedBy: assignment.AssignedBy,
	}
	if options.decay != nil {
		stored.DecayKind = options.decay.kind()
		stored.DecayParam = options.decay.param()
	}
	m.store.SetTrust(agentID, scope, stored)

	return &assignment, nil
}

// GetLevel returns the effective trust level for agentID in scope. If no
// assignment exists, or the existing assignment has expired, the
// configured default level is returned. If a decay strategy was attached
// to the assignment, the minimum of the expiry-checked level and the
// decayed level is returned — expiry is a hard cliff, decay is a
// continuous monotone transform, and the two compose by taking the lower
// of the two at any instant.
func (m *TrustManager) GetLevel(ctx context.Context, agentID, scope string) TrustLevel {
	if scope == "" {
		scope = m.config.DefaultScope
	}
	raw, ok := m.store.GetTrust(agentID, scope)
	if !ok {
		return m.config.DefaultLevel
	}

	now := time.Now().UTC()
	if raw.ExpiresAt != nil && now.After(*raw.ExpiresAt) {
		return m.config.DefaultLevel
	}

	level := TrustLevel(raw.Level)
	if decay := decodeDecay(raw.DecayKind, raw.DecayParam); decay != nil {
		decayed := decay.Apply(level, raw.AssignedAt, now, m.config.DefaultLevel)
		if decayed < level {
			level = decayed
		}
	}
	return level
}

// CheckLevel reports whether agentID meets required trust in scope. The
// result is always non-nil; errors are expressed via Permitted=false.
func (m *TrustManager) CheckLevel(
	ctx context.Context,
	agentID string,
	required TrustLevel,
	scope string,
) *TrustResult {
	current := m.GetLevel(ctx, agentID, scope)

	if current >= required {
		return &TrustResult{
			Permitted:     true,
			CurrentLevel:  current,
			RequiredLevel: required,
			Reason: fmt.Sprintf(
				"agent %q has trust %s which meets required %s in scope %q",
				agentID, TrustLevelName(current), TrustLevelName(required), scope,
			),
		}
	}

	return &TrustResult{
		Permitted:     false,
		CurrentLevel:  current,
		RequiredLevel: required,
		Reason: fmt.Sprintf(
			"agent %q has trust %s which is below required %s in scope %q",
			agentID, TrustLevelName(current), TrustLevelName(required), scope,
		),
	}
}
