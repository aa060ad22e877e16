// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance

import (
	"context"
	"fmt"
	"time"

	"github.com/muvera-ai/agentgov/storage"
)

// Engine ties the Trust, Budget, Consent, and Audit managers together into
// the sequential evaluation pipeline described in the package doc: trust,
// then budget, then consent, short-circuiting on the first denial, with
// exactly one audit record written per Check call regardless of outcome.
type Engine struct {
	Trust   *TrustManager
	Budget  *BudgetManager
	Consent *ConsentManager
	Audit   *AuditLogger

	config Config
}

// NewEngine constructs an Engine backed by an in-memory storage.Storage.
// Use NewEngineWithStorage to supply a custom backend.
func NewEngine(cfg Config) (*Engine, error) {
	return NewEngineWithStorage(cfg, storage.NewMemoryStorage())
}

// NewEngineWithStorage constructs an Engine backed by store. Returns a
// *ConfigError if cfg fails validation.
func NewEngineWithStorage(cfg Config, store storage.Storage) (*Engine, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		Trust:   NewTrustManager(store, cfg.TrustConfig),
		Budget:  NewBudgetManager(store, cfg.BudgetConfig),
		Consent: NewConsentManager(store),
		Audit:   NewAuditLogger(store, cfg.AuditConfig, cfg.OnWarning),
		config:  cfg,
	}, nil
}

// CheckOption configures a single call to Engine.Check.
type CheckOption func(*checkOptions)

type checkOptions struct {
	agentID        string
	scope          string
	requireTrust   *TrustLevel
	budgetCategory string
	budgetAmount   float64
	budgetCheck    bool
	budgetRecord   bool
	consentAgentID string
	consentAction  string
	consentCheck   bool
	metadata       map[string]any
}

// WithAgentID sets the agent identifier for this check, overriding
// Config.DefaultAgentID.
func WithAgentID(agentID string) CheckOption {
	return func(o *checkOptions) { o.agentID = agentID }
}

// WithScope sets the trust scope for this check, overriding
// Config.DefaultScope.
func WithScope(scope string) CheckOption {
	return func(o *checkOptions) { o.scope = scope }
}

// WithRequiredTrust enables the trust stage, denying the action unless the
// agent's effective trust level meets required.
func WithRequiredTrust(required TrustLevel) CheckOption {
	return func(o *checkOptions) { o.requireTrust = &required }
}

// WithBudgetCheck enables the budget stage, denying the action unless
// amount is available in category's envelope. It does not itself record
// the spend — pair it with WithBudgetRecord to settle on permit.
func WithBudgetCheck(category string, amount float64) CheckOption {
	return func(o *checkOptions) {
		o.budgetCategory = category
		o.budgetAmount = amount
		o.budgetCheck = true
	}
}

// WithBudgetRecord settles the checked amount against the envelope
// immediately after a permitted decision, best-effort: a settlement
// failure is forwarded to Config.OnBudgetRecordError and does not reverse
// the decision, since the caller has already been told the action is
// permitted. Has no effect unless paired with WithBudgetCheck.
func WithBudgetRecord() CheckOption {
	return func(o *checkOptions) { o.budgetRecord = true }
}

// WithConsentCheck enables the consent stage, denying the action unless an
// active consent grant exists for (agentID, action). agentID is optional —
// an empty string falls back to the check's own agent (the one set by
// WithAgentID or Config.DefaultAgentID), letting most callers write
// WithConsentCheck("", action) while still allowing a check to consult
// consent recorded for a different agent than the one performing it.
func WithConsentCheck(agentID, action string) CheckOption {
	return func(o *checkOptions) {
		o.consentAgentID = agentID
		o.consentAction = action
		o.consentCheck = true
	}
}

// WithMetadata attaches caller-supplied context to the resulting audit
// record. Keys are canonicalised in sorted order when the record is
// hashed, so the supplied map need not be ordered.
func WithMetadata(metadata map[string]any) CheckOption {
	return func(o *checkOptions) { o.metadata = metadata }
}

// Check runs the governance pipeline for action: trust, then budget, then
// consent, in that fixed order, stopping at the first stage that denies.
// Exactly one audit record is written regardless of the outcome. If ctx is
// already done on entry, Check returns a nil *Decision and ctx's error
// without evaluating or writing an audit record. Otherwise the returned
// *Decision is non-nil even when Check also returns a non-nil error — the
// error reports an infrastructure failure (e.g. audit persistence), not a
// governance denial, which is always expressed via Decision.Permitted.
func (e *Engine) Check(ctx context.Context, action string, opts ...CheckOption) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	options := &checkOptions{
		agentID: e.config.DefaultAgentID,
		scope:   e.config.DefaultScope,
	}
	for _, opt := range opts {
		opt(options)
	}

	decision := &Decision{
		Permitted: true,
		AgentID:   options.agentID,
		Action:    action,
		Timestamp: time.Now().UTC(),
		Metadata:  options.metadata,
	}

	if options.requireTrust != nil {
		decision.trustRan = true
		result := e.Trust.CheckLevel(ctx, options.agentID, *options.requireTrust, options.scope)
		decision.Trust = *result
		if !result.Permitted {
			decision.Permitted = false
			decision.Reason = result.Reason
		}
	}

	if decision.Permitted && options.budgetCheck {
		decision.budgetRan = true
		result := e.Budget.Check(ctx, options.budgetCategory, options.budgetAmount)
		decision.Budget = *result
		if !result.Permitted {
			decision.Permitted = false
			decision.Reason = result.Reason
		}
	}

	if decision.Permitted && options.consentCheck {
		decision.consentRan = true
		consentAgent := options.consentAgentID
		if consentAgent == "" {
			consentAgent = options.agentID
		}
		result := e.Consent.Check(ctx, options.consentAction, consentAgent)
		decision.Consent = *result
		if !result.Permitted {
			decision.Permitted = false
			decision.Reason = result.Reason
		}
	}

	if decision.Permitted {
		decision.Reason = "all governance checks passed"
		if options.budgetCheck && options.budgetRecord {
			if err := e.Budget.Record(ctx, options.budgetCategory, options.budgetAmount); err != nil {
				if e.config.OnBudgetRecordError != nil {
					e.config.OnBudgetRecordError(options.agentID, action, err)
				}
			}
		}
	}

	if err := e.Audit.Log(ctx, decision); err != nil {
		return decision, fmt.Errorf("governance: failed to log decision: %w", err)
	}

	return decision, nil
}
