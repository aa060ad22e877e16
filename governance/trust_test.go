// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muvera-ai/agentgov/governance"
	"github.com/muvera-ai/agentgov/storage"
)

func newTrustManager(t *testing.T, cfg governance.TrustConfig) *governance.TrustManager {
	t.Helper()
	return governance.NewTrustManager(storage.NewMemoryStorage(), cfg)
}

func TestTrustManager_DefaultLevelWhenUnassigned(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{DefaultLevel: governance.TrustMonitor})
	ctx := context.Background()

	level := tm.GetLevel(ctx, "agent-unknown", "production")
	assert.Equal(t, governance.TrustMonitor, level)
}

func TestTrustManager_SetAndGetLevel(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{DefaultLevel: governance.TrustObserver})
	ctx := context.Background()

	_, err := tm.SetLevel(ctx, "agent-1", governance.TrustActAndReport, "production")
	require.NoError(t, err)

	assert.Equal(t, governance.TrustActAndReport, tm.GetLevel(ctx, "agent-1", "production"))
}

func TestTrustManager_SetLevel_RejectsInvalidLevel(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{})
	ctx := context.Background()

	_, err := tm.SetLevel(ctx, "agent-1", governance.TrustLevel(99), "production")
	assert.ErrorIs(t, err, governance.ErrInvalidTrustLevel)
}

func TestTrustManager_SetLevel_RejectsEmptyAgentID(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{})
	ctx := context.Background()

	_, err := tm.SetLevel(ctx, "", governance.TrustObserver, "production")
	assert.ErrorIs(t, err, governance.ErrInvalidInput)
}

func TestTrustManager_ScopeIsolation(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{DefaultLevel: governance.TrustObserver})
	ctx := context.Background()

	_, err := tm.SetLevel(ctx, "agent-1", governance.TrustAutonomous, "staging")
	require.NoError(t, err)

	assert.Equal(t, governance.TrustAutonomous, tm.GetLevel(ctx, "agent-1", "staging"))
	assert.Equal(t, governance.TrustObserver, tm.GetLevel(ctx, "agent-1", "production"))
}

func TestTrustManager_ExpiryFallsBackToDefault(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{DefaultLevel: governance.TrustObserver})
	ctx := context.Background()

	_, err := tm.SetLevel(ctx, "agent-1", governance.TrustAutonomous, "production",
		governance.WithExpiry(time.Now().Add(-time.Hour)),
	)
	require.NoError(t, err)

	assert.Equal(t, governance.TrustObserver, tm.GetLevel(ctx, "agent-1", "production"))
}

func TestTrustManager_UnexpiredAssignmentRetainsLevel(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{DefaultLevel: governance.TrustObserver})
	ctx := context.Background()

	_, err := tm.SetLevel(ctx, "agent-1", governance.TrustAutonomous, "production",
		governance.WithExpiry(time.Now().Add(time.Hour)),
	)
	require.NoError(t, err)

	assert.Equal(t, governance.TrustAutonomous, tm.GetLevel(ctx, "agent-1", "production"))
}

func TestTrustManager_CliffDecay(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{DefaultLevel: governance.TrustObserver})
	ctx := context.Background()

	_, err := tm.SetLevel(ctx, "agent-1", governance.TrustAutonomous, "production",
		governance.WithDecay(governance.CliffDecay{TTL: -time.Second}),
	)
	require.NoError(t, err)

	// TTL already elapsed at assignment time, so the cliff has fired.
	assert.Equal(t, governance.TrustObserver, tm.GetLevel(ctx, "agent-1", "production"))
}

func TestTrustManager_GradualDecayNeverMutatesStoredAssignment(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{DefaultLevel: governance.TrustObserver})
	ctx := context.Background()

	_, err := tm.SetLevel(ctx, "agent-1", governance.TrustAutonomous, "production",
		governance.WithDecay(governance.GradualDecay{StepInterval: time.Nanosecond}),
	)
	require.NoError(t, err)

	// Enough nanoseconds have elapsed by the time GetLevel runs that the
	// gradual decay should have floored to TrustObserver — but a second
	// read must be consistent, proving the stored assignment itself (not
	// just a one-shot computation) stays untouched.
	first := tm.GetLevel(ctx, "agent-1", "production")
	second := tm.GetLevel(ctx, "agent-1", "production")
	assert.Equal(t, first, second)
}

func TestTrustManager_ExpiryAndDecayComposeAsMinimum(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{DefaultLevel: governance.TrustMonitor})
	ctx := context.Background()

	// Decay would floor to TrustMonitor (the configured default), but
	// expiry has not yet elapsed, so the minimum of the two should still
	// reflect the decayed value, not the assigned value.
	_, err := tm.SetLevel(ctx, "agent-1", governance.TrustAutonomous, "production",
		governance.WithExpiry(time.Now().Add(time.Hour)),
		governance.WithDecay(governance.CliffDecay{TTL: -time.Second}),
	)
	require.NoError(t, err)

	assert.Equal(t, governance.TrustMonitor, tm.GetLevel(ctx, "agent-1", "production"))
}

func TestTrustManager_CheckLevel(t *testing.T) {
	tm := newTrustManager(t, governance.TrustConfig{DefaultLevel: governance.TrustObserver})
	ctx := context.Background()

	_, err := tm.SetLevel(ctx, "agent-1", governance.TrustSuggest, "production")
	require.NoError(t, err)

	ok := tm.CheckLevel(ctx, "agent-1", governance.TrustSuggest, "production")
	assert.True(t, ok.Permitted)

	tooHigh := tm.CheckLevel(ctx, "agent-1", governance.TrustActAndReport, "production")
	assert.False(t, tooHigh.Permitted)
	assert.Equal(t, governance.TrustSuggest, tooHigh.CurrentLevel)
	assert.Equal(t, governance.TrustActAndReport, tooHigh.RequiredLevel)
}
