// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muvera-ai/agentgov/governance"
	"github.com/muvera-ai/agentgov/storage"
)

func TestCanonicalization_MetadataKeyOrderDoesNotAffectHash(t *testing.T) {
	ctx := context.Background()

	storeA := storage.NewMemoryStorage()
	loggerA := governance.NewAuditLogger(storeA, governance.AuditConfig{}, nil)
	decisionA := decisionFor("agent-1", "act", true)
	decisionA.Metadata = map[string]any{"z": 1, "a": 2, "m": 3}
	require.NoError(t, loggerA.Log(ctx, decisionA))

	recordsA, err := storeA.AllAudit()
	require.NoError(t, err)

	// Every Log call draws a fresh ID and timestamp, so the hash is checked
	// by recomputation: record A, with its metadata written in another key
	// order, must still verify against its stored RecordHash.
	reordered := recordsA[0]
	reordered.Metadata = map[string]any{"a": 2, "m": 3, "z": 1}
	storeB := storage.NewMemoryStorage()
	require.NoError(t, storeB.AppendAudit(reordered))
	loggerB := governance.NewAuditLogger(storeB, governance.AuditConfig{}, nil)

	result, err := loggerB.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestCanonicalization_NestedMetadataKeyOrderDoesNotAffectHash(t *testing.T) {
	ctx := context.Background()

	storeA := storage.NewMemoryStorage()
	loggerA := governance.NewAuditLogger(storeA, governance.AuditConfig{}, nil)
	decisionA := decisionFor("agent-1", "act", true)
	decisionA.Metadata = map[string]any{
		"nested": map[string]any{"b": 1, "a": 2},
	}
	require.NoError(t, loggerA.Log(ctx, decisionA))

	recordsA, err := storeA.AllAudit()
	require.NoError(t, err)

	// As above: recompute record A's hash with the nested metadata written
	// in another key order instead of comparing two independently logged
	// records, whose IDs and timestamps always differ.
	reordered := recordsA[0]
	reordered.Metadata = map[string]any{
		"nested": map[string]any{"a": 2, "b": 1},
	}
	storeB := storage.NewMemoryStorage()
	require.NoError(t, storeB.AppendAudit(reordered))
	loggerB := governance.NewAuditLogger(storeB, governance.AuditConfig{}, nil)

	result, err := loggerB.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestCanonicalization_AbsentOptionalFieldsOmitted(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	logger := governance.NewAuditLogger(store, governance.AuditConfig{}, nil)

	// No trust/budget check ran, so trustRan/budgetRan are both false and
	// the record must omit those optional pointer fields entirely.
	require.NoError(t, logger.Log(ctx, decisionFor("agent-1", "act", true)))

	records, err := store.AllAudit()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].TrustLevel)
	assert.Nil(t, records[0].RequiredLevel)
	assert.Nil(t, records[0].BudgetUsed)
	assert.Nil(t, records[0].BudgetRemaining)
}
