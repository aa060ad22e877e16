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

func newBudgetManager(t *testing.T, cfg governance.BudgetConfig) *governance.BudgetManager {
	t.Helper()
	return governance.NewBudgetManager(storage.NewMemoryStorage(), cfg)
}

func TestBudgetManager_CreateEnvelopeRejectsDuplicate(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	_, err = bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	assert.ErrorIs(t, err, governance.ErrEnvelopeExists)
}

func TestBudgetManager_CheckBoundary(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	// amount == available must be permitted (ties permit).
	result := bm.Check(ctx, "email", 10)
	assert.True(t, result.Permitted)

	result = bm.Check(ctx, "email", 10.0001)
	assert.False(t, result.Permitted)
}

func TestBudgetManager_CheckUnknownCategory(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	result := bm.Check(ctx, "nonexistent", 1)
	assert.False(t, result.Permitted)
}

func TestBudgetManager_RecordStrictModeDenies(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{AllowOverspend: false})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	err = bm.Record(ctx, "email", 11)
	var denied *governance.BudgetDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "email", denied.Category)
}

func TestBudgetManager_RecordPermissiveModeAllowsOverspend(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{AllowOverspend: true})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	err = bm.Record(ctx, "email", 15)
	require.NoError(t, err)

	result := bm.Check(ctx, "email", 0.01)
	assert.False(t, result.Permitted)
	assert.Equal(t, float64(0), result.Available)
}

func TestBudgetManager_RecordRejectsNegativeAmount(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	err = bm.Record(ctx, "email", -1)
	assert.ErrorIs(t, err, governance.ErrInvalidAmount)
}

func TestBudgetManager_LazyRolloverResetsSpentAndCommitted(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Nanosecond)
	require.NoError(t, err)

	require.NoError(t, bm.Record(ctx, "email", 5))
	require.NoError(t, bm.Reserve(ctx, "email", 2))

	time.Sleep(time.Millisecond)

	result := bm.Check(ctx, "email", 10)
	assert.True(t, result.Permitted)
	assert.Equal(t, float64(10), result.Available)
}

func TestBudgetManager_ReserveReducesAvailable(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	require.NoError(t, bm.Reserve(ctx, "email", 4))

	result := bm.Check(ctx, "email", 7)
	assert.False(t, result.Permitted)
	assert.Equal(t, float64(6), result.Available)
}

func TestBudgetManager_ReleaseRestoresAvailable(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	require.NoError(t, bm.Reserve(ctx, "email", 4))
	require.NoError(t, bm.Release(ctx, "email", 4))

	result := bm.Check(ctx, "email", 10)
	assert.True(t, result.Permitted)
}

func TestBudgetManager_ReleaseFloorsAtZero(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	require.NoError(t, bm.Release(ctx, "email", 100))

	result := bm.Check(ctx, "email", 10)
	assert.True(t, result.Permitted)
}

func TestBudgetManager_RecordUnknownCategoryErrors(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	err := bm.Record(ctx, "nonexistent", 1)
	assert.ErrorIs(t, err, governance.ErrEnvelopeNotFound)
}

func TestBudgetManager_RecordSettlesFullReservation(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	require.NoError(t, bm.Reserve(ctx, "email", 10))

	// The reservation already claimed the headroom; settling it with a
	// matching Record must not double-count against Available.
	require.NoError(t, bm.Record(ctx, "email", 10))

	result := bm.Check(ctx, "email", 0.01)
	assert.False(t, result.Permitted)
	assert.Equal(t, float64(0), result.Available)
}

func TestBudgetManager_RecordSettlesPartialReservation(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	require.NoError(t, bm.Reserve(ctx, "email", 4))
	require.NoError(t, bm.Record(ctx, "email", 4))

	result := bm.Check(ctx, "email", 6)
	assert.True(t, result.Permitted)
	assert.Equal(t, float64(6), result.Available)
}

func TestBudgetManager_RecordBeyondReservationChecksRemainder(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{AllowOverspend: false})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, time.Hour)
	require.NoError(t, err)

	require.NoError(t, bm.Reserve(ctx, "email", 4))

	// 4 is settled against the reservation; the remaining 7 is checked
	// against the 6 still available (10 - 4 committed) and must be denied.
	err = bm.Record(ctx, "email", 11)
	var denied *governance.BudgetDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, float64(7), denied.Requested)
	assert.Equal(t, float64(6), denied.Available)
}

func TestBudgetManager_TotalPeriodNeverRollsOver(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, governance.TotalPeriod)
	require.NoError(t, err)

	require.NoError(t, bm.Record(ctx, "email", 5))
	time.Sleep(time.Millisecond)

	result := bm.Check(ctx, "email", 10)
	assert.False(t, result.Permitted)
	assert.Equal(t, float64(5), result.Available)
}

func TestBudgetManager_CreateEnvelopeRejectsInvalidPeriod(t *testing.T) {
	bm := newBudgetManager(t, governance.BudgetConfig{})
	ctx := context.Background()

	_, err := bm.CreateEnvelope(ctx, "email", 10, -2*time.Hour)
	assert.ErrorIs(t, err, governance.ErrInvalidAmount)
}
