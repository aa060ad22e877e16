// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance

import (
	"errors"
	"fmt"
)

// Sentinel errors that callers can test with errors.Is. These are
// infrastructure/validation errors — distinct from governance denials,
// which never surface as errors and instead live inside a Decision.
var (
	// ErrAgentNotFound identifies an agent ID with no record in the store.
	// No operation in this package returns it: GetLevel/CheckLevel fall
	// back to the configured default level for unknown agents.
	ErrAgentNotFound = errors.New("governance: agent not found")

	// ErrEnvelopeNotFound is returned when a budget operation references a
	// category that has no envelope in the store.
	ErrEnvelopeNotFound = errors.New("governance: envelope not found")

	// ErrEnvelopeExists is returned when CreateEnvelope is called for a
	// category that already has an envelope.
	ErrEnvelopeExists = errors.New("governance: envelope already exists")

	// ErrConsentNotFound is returned when a consent operation references
	// an (agentID, action) pair that has no recorded consent.
	ErrConsentNotFound = errors.New("governance: consent record not found")

	// ErrAssignmentExpired is returned by callers that want to distinguish
	// an expired assignment from a missing one; GetLevel/CheckLevel never
	// return it directly since they fall back to the configured default.
	ErrAssignmentExpired = errors.New("governance: trust assignment has expired")

	// ErrInvalidTrustLevel is returned when a TrustLevel value is outside
	// the valid range [TrustObserver, TrustAutonomous].
	ErrInvalidTrustLevel = errors.New("governance: invalid trust level")

	// ErrInvalidAmount is returned when a budget amount is negative or
	// otherwise invalid.
	ErrInvalidAmount = errors.New("governance: invalid budget amount")

	// ErrInvalidInput is returned when a required string argument (agent
	// ID, action, category, grantedBy) is empty.
	ErrInvalidInput = errors.New("governance: invalid input")

	// ErrDecisionNil is returned when AuditLogger.Log is called with a nil
	// decision.
	ErrDecisionNil = errors.New("governance: decision must not be nil")

	// ErrUnsupportedExportFormat is returned by AuditLogger.Export for an
	// ExportFormat value other than ExportJSON, ExportCSV, or ExportCEF.
	ErrUnsupportedExportFormat = errors.New("governance: unsupported export format")
)

// TrustDeniedError carries structured context about a trust check failure.
// It is never returned as an error from Engine.Check — the denial lives in
// Decision.Trust/Decision.Reason — but is exposed for callers that want a
// typed value when constructing their own error responses around a
// Decision.
type TrustDeniedError struct {
	AgentID       string
	CurrentLevel  TrustLevel
	RequiredLevel TrustLevel
}

func (e *TrustDeniedError) Error() string {
	return fmt.Sprintf(
		"governance: trust denied for agent %q: current=%s required=%s",
		e.AgentID,
		TrustLevelName(e.CurrentLevel),
		TrustLevelName(e.RequiredLevel),
	)
}

// BudgetDeniedError carries structured context about a budget check or
// record failure.
type BudgetDeniedError struct {
	Category  string
	Available float64
	Requested float64
}

func (e *BudgetDeniedError) Error() string {
	return fmt.Sprintf(
		"governance: budget denied for category %q: available=%.4f requested=%.4f",
		e.Category,
		e.Available,
		e.Requested,
	)
}

// ConsentDeniedError carries structured context about a consent check
// failure.
type ConsentDeniedError struct {
	AgentID string
	Action  string
}

func (e *ConsentDeniedError) Error() string {
	return fmt.Sprintf(
		"governance: consent denied for agent %q action %q",
		e.AgentID,
		e.Action,
	)
}

// ConfigError is returned by NewEngine when the supplied Config is invalid.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("governance: config error for field %q: %s", e.Field, e.Message)
}
