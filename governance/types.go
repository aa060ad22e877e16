// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

// Package governance implements an AI agent governance runtime: a
// sequential policy-evaluation pipeline (trust, then budget, then consent)
// that decides whether a requested agent action is permitted, and a
// tamper-evident, hash-chained audit ledger that records every decision.
//
// All managers are safe for concurrent use. Storage is in-memory by
// default; callers may supply an alternative implementation of
// [storage.Storage].
//
// # Quick Start
//
//	engine, err := governance.NewEngine(governance.Config{
//	    DefaultScope: "production",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Assign trust to an agent (manual only — never automatic).
//	_, err = engine.Trust.SetLevel(ctx, "agent-1", governance.TrustSuggest, "production")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create a spending envelope and record consent for the action.
//	if _, err := engine.Budget.CreateEnvelope(ctx, "email", 10.0, 24*time.Hour); err != nil {
//	    log.Fatal(err)
//	}
//	if err := engine.Consent.Record(ctx, "agent-1", "email", "admin"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Check a governed action.
//	decision, err := engine.Check(ctx, "send_email",
//	    governance.WithAgentID("agent-1"),
//	    governance.WithRequiredTrust(governance.TrustSuggest),
//	    governance.WithBudgetCheck("email", 0.01),
//	    governance.WithConsentCheck("agent-1", "email"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(decision.Permitted) // true
package governance

import "time"

// TrustLevel represents the six-level graduated trust hierarchy for AI
// agent authorisation. Each level strictly supersedes the one below it.
type TrustLevel int

const (
	// TrustObserver grants read-only observation. No side-effecting actions
	// are permitted at this level.
	TrustObserver TrustLevel = 0

	// TrustMonitor grants active monitoring with alerting capability. No
	// mutations to external state are permitted.
	TrustMonitor TrustLevel = 1

	// TrustSuggest permits the agent to generate proposals and suggestions.
	// All outputs require human review before execution.
	TrustSuggest TrustLevel = 2

	// TrustActWithApproval permits the agent to act but every action
	// requires explicit human approval before it is executed.
	TrustActWithApproval TrustLevel = 3

	// TrustActAndReport permits the agent to act autonomously. All actions
	// must be reported post-hoc to the operator.
	TrustActAndReport TrustLevel = 4

	// TrustAutonomous grants fully autonomous operation within the defined
	// scope. This is the highest trust level.
	TrustAutonomous TrustLevel = 5
)

var trustLevelNames = map[TrustLevel]string{
	TrustObserver:        "Observer",
	TrustMonitor:         "Monitor",
	TrustSuggest:         "Suggest",
	TrustActWithApproval: "Act-with-Approval",
	TrustActAndReport:    "Act-and-Report",
	TrustAutonomous:      "Autonomous",
}

// TrustLevelName returns the human-readable display name for a TrustLevel.
// Returns "Unknown" for out-of-range values.
func TrustLevelName(level TrustLevel) string {
	if name, ok := trustLevelNames[level]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether level lies within the closed range [TrustObserver,
// TrustAutonomous].
func (l TrustLevel) Valid() bool {
	return l >= TrustObserver && l <= TrustAutonomous
}

// Decision is the unified result of an Engine.Check call. It aggregates the
// results from all governance checks that were performed; sub-results for
// checks that did not run (because an earlier stage short-circuited) are
// left at their zero value.
type Decision struct {
	// Permitted is true when all governance checks that ran passed.
	Permitted bool

	// AgentID is the agent identifier used for the checks. It is populated
	// from WithAgentID or Config.DefaultAgentID and is stored in the audit
	// record for filtering.
	AgentID string

	// Action is the action string passed to Check.
	Action string

	// Timestamp records when the decision was made.
	Timestamp time.Time

	// Reason is a human-readable summary of the final decision outcome.
	// When Permitted is false, Reason identifies the first check that
	// failed.
	Reason string

	// Trust contains the result of the trust level check, if one was
	// requested via WithRequiredTrust.
	Trust TrustResult

	// Budget contains the result of the budget envelope check, if one was
	// requested via WithBudgetCheck.
	Budget BudgetResult

	// Consent contains the result of the consent check, if one was
	// requested via WithConsentCheck.
	Consent ConsentResult

	// Metadata carries caller-supplied context attached via WithMetadata.
	// It is persisted on the audit record and canonicalised with sorted
	// keys when the record is hashed.
	Metadata map[string]any

	// trustRan, budgetRan, and consentRan record whether each stage
	// actually executed, letting AuditLogger.Log distinguish "checked and
	// got level 0" from "never checked" when deciding which optional
	// audit fields to populate. Skipped stages leave their sub-result at
	// the zero value per spec.md §4.8, which these flags alone
	// disambiguate.
	trustRan, budgetRan, consentRan bool
}

// TrustAssignment is an immutable record of a trust level being manually
// assigned to an agent. Every call to TrustManager.SetLevel produces one.
// The stored assignment is never mutated; decay and expiry are applied only
// when reading.
type TrustAssignment struct {
	// AgentID is the identifier of the agent receiving the assignment.
	AgentID string

	// Level is the trust level that was assigned.
	Level TrustLevel

	// Scope narrows the domain in which this assignment is valid.
	Scope string

	// AssignedAt records when the assignment was made.
	AssignedAt time.Time

	// ExpiresAt is the optional time after which this assignment falls back
	// to the configured floor level. A nil pointer means it never expires.
	ExpiresAt *time.Time

	// AssignedBy records who or what created this assignment (e.g.
	// "owner", "system", "policy").
	AssignedBy string

	// Decay is an optional, reading-only transformation that lowers the
	// effective level over time without mutating the stored assignment.
	Decay DecayStrategy
}

// TrustResult is returned by TrustManager.CheckLevel and embedded in
// Decision.
type TrustResult struct {
	// Permitted is true when the agent's current level meets RequiredLevel.
	Permitted bool

	// CurrentLevel is the effective trust level the agent held at check
	// time (after expiry and decay have been applied).
	CurrentLevel TrustLevel

	// RequiredLevel is the minimum trust level the action demanded.
	RequiredLevel TrustLevel

	// Reason is a human-readable explanation of the check outcome.
	Reason string
}

// BudgetResult is returned by BudgetManager.Check and embedded in Decision.
type BudgetResult struct {
	// Permitted is true when the envelope had sufficient funds.
	Permitted bool

	// Available is the remaining balance in the envelope at check time.
	Available float64

	// Requested is the amount that was checked.
	Requested float64

	// Category identifies which spending envelope was consulted.
	Category string

	// Reason is a human-readable explanation of the check outcome.
	Reason string
}

// Envelope is a bounded spending allocation for a named cost category. It
// tracks cumulative spending over a configurable rolling period.
type Envelope struct {
	// Category is the human-readable name for this spending bucket.
	Category string

	// Limit is the maximum total spend permitted within one Period.
	Limit float64

	// Spent is the cumulative amount recorded in the current period.
	Spent float64

	// Committed is the amount reserved (via BudgetManager.Reserve) but not
	// yet settled into Spent. It resets to zero on rollover, same as Spent.
	Committed float64

	// Period is the duration over which the Limit applies before reset. A
	// zero value means the envelope never rolls over.
	Period time.Duration

	// StartsAt records when the current period began.
	StartsAt time.Time
}

// Available returns the remaining balance in the envelope:
// max(0, Limit - Spent - Committed).
func (e Envelope) Available() float64 {
	available := e.Limit - e.Spent - e.Committed
	if available < 0 {
		return 0
	}
	return available
}

// ConsentResult is returned by ConsentManager.Check and embedded in
// Decision.
type ConsentResult struct {
	// Permitted is true when an active consent grant was found.
	Permitted bool

	// Reason is a human-readable explanation of the check outcome.
	Reason string
}

// ConsentGrant is the stored record of a (agentID, action) consent
// decision. A second Record call reinstates a revoked grant rather than
// creating a new entry.
type ConsentGrant struct {
	AgentID    string
	Action     string
	Granted    bool
	GrantedAt  time.Time
	GrantedBy  string
}

// ExportFormat selects the wire format produced by AuditLogger.Export.
type ExportFormat string

const (
	// ExportJSON renders records as a pretty-printed JSON array.
	ExportJSON ExportFormat = "json"
	// ExportCSV renders records as an RFC 4180 CSV document.
	ExportCSV ExportFormat = "csv"
	// ExportCEF renders records as newline-delimited ArcSight CEF events.
	ExportCEF ExportFormat = "cef"
)

// AuditRecord is the persisted form of a Decision plus chain metadata.
// Optional fields are omitted from the canonical hashing form when absent —
// never serialised as null — so the hash is computed only over present
// fields.
type AuditRecord struct {
	// ID uniquely identifies this record within a single ledger lifetime.
	ID string

	// Timestamp records when the record was appended to the log, UTC with
	// millisecond precision.
	Timestamp time.Time

	// AgentID is the agent the decision concerned.
	AgentID string

	// Action is the action string that was evaluated.
	Action string

	// Permitted is the final outcome of the decision.
	Permitted bool

	// TrustLevel is the agent's effective trust level at check time.
	// Zero value (and omitted from canonicalization) when no trust check
	// ran.
	TrustLevel *TrustLevel

	// RequiredLevel is the trust level the action demanded, when a trust
	// check ran.
	RequiredLevel *TrustLevel

	// BudgetUsed is the amount requested in the budget check, when one ran.
	BudgetUsed *float64

	// BudgetRemaining is the envelope's available balance at check time,
	// when a budget check ran.
	BudgetRemaining *float64

	// Reason is the human-readable denial or success explanation.
	Reason string

	// Metadata carries arbitrary caller-supplied context. Its keys are
	// sorted during canonicalization so the hash remains deterministic
	// regardless of map iteration order.
	Metadata map[string]any

	// PreviousHash is the recordHash of the immediately preceding record,
	// or the genesis constant for the first record in the chain.
	PreviousHash string

	// RecordHash is the SHA-256 digest of this record's canonical payload
	// combined with PreviousHash, encoded as lowercase hex.
	RecordHash string
}

// AuditFilter specifies criteria for querying audit records. Zero values
// are treated as "match any"; all set fields are AND-combined.
type AuditFilter struct {
	// AgentID restricts results to this agent. Empty matches all agents.
	AgentID string

	// Action restricts results to this action. Empty matches all actions.
	Action string

	// Permitted, when non-nil, restricts results to the given outcome.
	Permitted *bool

	// StartTime returns only records with Timestamp >= StartTime. A zero
	// Time matches all timestamps.
	StartTime time.Time

	// EndTime returns only records with Timestamp <= EndTime. A zero Time
	// matches all timestamps.
	EndTime time.Time

	// Limit caps the number of records returned. Zero means no limit.
	Limit int

	// Offset skips this many matching records before collecting results.
	Offset int
}

// ChainVerification is the result of AuditLogger.Verify.
type ChainVerification struct {
	// Valid is true when every record's PreviousHash/RecordHash links
	// check out from genesis through the end of the chain.
	Valid bool

	// BrokenAt is the index of the first record that failed verification.
	// Meaningless when Valid is true.
	BrokenAt int

	// Reason describes why verification failed. Empty when Valid is true.
	Reason string

	// RecordCount is the number of records considered during
	// verification. When MaxRecords eviction has occurred, this includes
	// the evicted prefix's checkpointed count.
	RecordCount int
}
