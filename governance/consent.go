// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance

import (
	"context"
	"fmt"
	"time"

	"github.com/muvera-ai/agentgov/storage"
)

// ConsentManagerIface is the interface for recording and checking consent
// grants. Consent is always operator-granted; there is no proactive or
// automatic consent suggestion.
//
// All methods are safe for concurrent use.
type ConsentManagerIface interface {
	// Record grants consent for agentID to perform action. The grant is
	// associated with grantedBy for auditability. A previously revoked
	// grant is reinstated rather than duplicated.
	Record(ctx context.Context, agentID, action, grantedBy string) error

	// Check reports whether active consent exists for agentID to perform
	// action. It never returns an error — all outcomes are in
	// ConsentResult.
	Check(ctx context.Context, action, agentID string) *ConsentResult

	// Revoke withdraws a previously recorded consent grant. Returns
	// ErrConsentNotFound if no active grant exists for the pair.
	Revoke(ctx context.Context, agentID, action string) error
}

// ConsentManager is the default implementation of ConsentManagerIface.
type ConsentManager struct {
	store storage.Storage
}

// NewConsentManager constructs a ConsentManager backed by the given
// storage.
func NewConsentManager(store storage.Storage) *ConsentManager {
	return &ConsentManager{store: store}
}

// Record grants consent for agentID to perform action. If consent was
// previously revoked, Record reinstates it rather than creating a second
// entry — grants are uniquely keyed by (agentID, action). grantedBy
// identifies who or what authorised the grant (e.g. "admin", "policy",
// "user:alice").
func (m *ConsentManager) Record(ctx context.Context, agentID, action, grantedBy string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if agentID == "" {
		return fmt.Errorf("%w: agentID must not be empty", ErrInvalidInput)
	}
	if action == "" {
		return fmt.Errorf("%w: action must not be empty", ErrInvalidInput)
	}
	if grantedBy == "" {
		return fmt.Errorf("%w: grantedBy must not be empty", ErrInvalidInput)
	}

	m.store.SetConsent(agentID, action, storage.ConsentGrant{
		AgentID:   agentID,
		Action:    action,
		Granted:   true,
		GrantedAt: time.Now().UTC(),
		GrantedBy: grantedBy,
	})
	return nil
}

// Check reports whether active consent exists for agentID to perform
// action. Consent is absent when no record exists or when the most recent
// record was a revocation. The result is always non-nil.
func (m *ConsentManager) Check(ctx context.Context, action, agentID string) *ConsentResult {
	grant, ok := m.store.GetConsent(agentID, action)
	if !ok || !grant.Granted {
		return &ConsentResult{
			Permitted: false,
			Reason:    fmt.Sprintf("no active consent for agent %q to perform %q", agentID, action),
		}
	}
	return &ConsentResult{
		Permitted: true,
		Reason:    fmt.Sprintf("consent granted for agent %q to perform %q", agentID, action),
	}
}

// Revoke withdraws consent for agentID to perform action. Returns
// ErrConsentNotFound if no active grant exists for the pair — including
// when it was already revoked, so a second Revoke call also fails.
func (m *ConsentManager) Revoke(ctx context.Context, agentID, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	grant, ok := m.store.GetConsent(agentID, action)
	if !ok || !grant.Granted {
		return fmt.Errorf("%w: agent %q action %q", ErrConsentNotFound, agentID, action)
	}

	grant.Granted = false
	m.store.SetConsent(agentID, action, grant)
	return nil
}
