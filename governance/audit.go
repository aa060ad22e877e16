// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/muvera-ai/agentgov/export"
	"github.com/muvera-ai/agentgov/storage"
)

// AuditLoggerIface is the interface for the tamper-evident audit logger.
// Each record is linked to its predecessor via a SHA-256 hash chain,
// making retrospective tampering detectable.
//
// All methods are safe for concurrent use.
type AuditLoggerIface interface {
	// Log appends a Decision to the audit chain and persists it via the
	// storage backend. Exactly one record is written per call.
	Log(ctx context.Context, decision *Decision) error

	// Query returns audit records matching the given QueryOptions, in
	// insertion order. With no options, Query returns every record.
	Query(ctx context.Context, opts ...QueryOption) ([]AuditRecord, error)

	// Count returns the number of retained audit records.
	Count(ctx context.Context) (int, error)

	// Verify re-derives the hash chain over every retained record (via a
	// full scan, not Query) and reports whether it is intact.
	Verify(ctx context.Context) (*ChainVerification, error)

	// Export serialises the records matching the given QueryOptions in the
	// requested format.
	Export(ctx context.Context, format ExportFormat, opts ...QueryOption) ([]byte, error)
}

// QueryOption narrows an AuditLogger.Query or AuditLogger.Export call.
type QueryOption func(*AuditFilter)

// WithAgentFilter restricts results to agentID.
func WithAgentFilter(agentID string) QueryOption {
	return func(f *AuditFilter) { f.AgentID = agentID }
}

// WithActionFilter restricts results to action.
func WithActionFilter(action string) QueryOption {
	return func(f *AuditFilter) { f.Action = action }
}

// WithPermittedOnly restricts results to permitted decisions.
func WithPermittedOnly() QueryOption {
	permitted := true
	return func(f *AuditFilter) { f.Permitted = &permitted }
}

// WithDeniedOnly restricts results to denied decisions.
func WithDeniedOnly() QueryOption {
	denied := false
	return func(f *AuditFilter) { f.Permitted = &denied }
}

// WithTimeRange restricts results to records with start <= Timestamp <=
// end. A zero start or end leaves that bound unset.
func WithTimeRange(start, end time.Time) QueryOption {
	return func(f *AuditFilter) { f.StartTime = start; f.EndTime = end }
}

// WithQueryLimit caps the number of records returned.
func WithQueryLimit(limit int) QueryOption {
	return func(f *AuditFilter) { f.Limit = limit }
}

// WithQueryOffset skips the first n matching records.
func WithQueryOffset(n int) QueryOption {
	return func(f *AuditFilter) { f.Offset = n }
}

// AuditLogger is the default implementation of AuditLoggerIface. It owns
// the mutable chain tip and serialises Log calls internally so concurrent
// callers always produce a well-formed, gap-free chain.
type AuditLogger struct {
	mu       sync.Mutex
	store    storage.Storage
	lastHash string
	config   AuditConfig
	onWarning func(string)

	// checkpointHash/checkpointCount anchor Verify past a prefix that
	// MaxRecords eviction has pruned from storage, per spec.md §9's
	// checkpoint-hash remedy (see SPEC_FULL.md §4.13).
	checkpointHash  string
	checkpointCount int
	warnedNoPruner  bool
}

// NewAuditLogger constructs an AuditLogger backed by the given storage.
// onWarning, if non-nil, receives non-fatal operational messages (e.g. a
// MaxRecords cap that the backend cannot enforce because it does not
// implement storage.Pruner).
func NewAuditLogger(store storage.Storage, cfg AuditConfig, onWarning func(string)) *AuditLogger {
	return &AuditLogger{
		store:     store,
		lastHash:  genesisHash,
		config:    cfg,
		onWarning: onWarning,
	}
}

// Log appends a Decision to the audit chain. The method is serialised
// internally so concurrent callers safely produce a well-formed chain with
// no gaps. decision must not be nil.
func (l *AuditLogger) Log(ctx context.Context, decision *Decision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if decision == nil {
		return ErrDecisionNil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record := storage.AuditRecord{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC().Truncate(time.Millisecond),
		AgentID:      decision.AgentID,
		Action:       decision.Action,
		Permitted:    decision.Permitted,
		Reason:       decision.Reason,
		Metadata:     decision.Metadata,
		PreviousHash: l.lastHash,
	}

	if decision.trustRan {
		current := int(decision.Trust.CurrentLevel)
		required := int(decision.Trust.RequiredLevel)
		record.TrustLevel = &current
		record.RequiredLevel = &required
	}
	if decision.budgetRan {
		used := decision.Budget.Requested
		remaining := decision.Budget.Available
		record.BudgetUsed = &used
		record.BudgetRemaining = &remaining
	}

	hash, err := computeRecordHash(record)
	if err != nil {
		return fmt.Errorf("governance: compute audit hash: %w", err)
	}
	record.RecordHash = hash

	if err := l.store.AppendAudit(record); err != nil {
		return fmt.Errorf("governance: append audit record: %w", err)
	}
	l.lastHash = hash

	l.evictIfNeededLocked()

	return nil
}

// evictIfNeededLocked enforces AuditConfig.MaxRecords by pruning the
// oldest retained record into the running checkpoint once the cap is
// exceeded. The caller must already hold l.mu. A storage backend that does
// not implement storage.Pruner makes MaxRecords a no-op, surfaced once via
// onWarning rather than silently ignored.
func (l *AuditLogger) evictIfNeededLocked() {
	if l.config.MaxRecords <= 0 {
		return
	}
	count, err := l.store.CountAudit()
	if err != nil || count <= l.config.MaxRecords {
		return
	}

	pruner, ok := l.store.(storage.Pruner)
	if !ok {
		if !l.warnedNoPruner && l.onWarning != nil {
			l.onWarning("governance: AuditConfig.MaxRecords is set but the storage backend does not implement storage.Pruner; eviction is disabled")
		}
		l.warnedNoPruner = true
		return
	}

	for count > l.config.MaxRecords {
		evicted, ok := pruner.PruneOldestAudit()
		if !ok {
			return
		}
		l.checkpointHash = evicted.RecordHash
		l.checkpointCount++
		count--
	}
}

// Query returns audit records matching the given QueryOptions, in
// insertion order. With no options, Query returns every record.
func (l *AuditLogger) Query(ctx context.Context, opts ...QueryOption) ([]AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var filter AuditFilter
	for _, opt := range opts {
		opt(&filter)
	}

	raw, err := l.store.QueryAudit(toStorageFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("governance: query audit: %w", err)
	}

	records := make([]AuditRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, auditRecordFromStorage(r))
	}
	return records, nil
}

// Count returns the number of retained audit records.
func (l *AuditLogger) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := l.store.CountAudit()
	if err != nil {
		return 0, fmt.Errorf("governance: count audit: %w", err)
	}
	return n, nil
}

// Verify re-derives the hash chain over every retained record via a full
// scan (AllAudit, not Query — the two are semantically distinct per
// spec.md §4.3) and reports whether it is intact. When MaxRecords eviction
// has pruned a prefix, verification starts from the checkpointed hash
// instead of genesis and reports RecordCount as the checkpointed count
// plus the live suffix; the evicted prefix itself cannot be re-verified by
// design.
func (l *AuditLogger) Verify(ctx context.Context) (*ChainVerification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	startHash := genesisHash
	if l.checkpointCount > 0 {
		startHash = l.checkpointHash
	}
	countOffset := l.checkpointCount
	l.mu.Unlock()

	all, err := l.store.AllAudit()
	if err != nil {
		return nil, fmt.Errorf("governance: full scan audit: %w", err)
	}

	result := verifyChain(all, startHash, countOffset)
	return &result, nil
}

// Export serialises the records matching the given QueryOptions in the
// requested format.
func (l *AuditLogger) Export(ctx context.Context, format ExportFormat, opts ...QueryOption) ([]byte, error) {
	records, err := l.Query(ctx, opts...)
	if err != nil {
		return nil, err
	}
	raw := make([]storage.AuditRecord, 0, len(records))
	for _, r := range records {
		raw = append(raw, auditRecordToStorage(r))
	}

	var ef export.Format
	switch format {
	case ExportJSON:
		ef = export.JSON
	case ExportCSV:
		ef = export.CSV
	case ExportCEF:
		ef = export.CEF
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExportFormat, format)
	}

	return export.Records(ef, raw)
}

func toStorageFilter(f AuditFilter) storage.AuditFilter {
	return storage.AuditFilter{
		AgentID:   f.AgentID,
		Action:    f.Action,
		Permitted: f.Permitted,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		Limit:     f.Limit,
		Offset:    f.Offset,
	}
}

func auditRecordFromStorage(r storage.AuditRecord) AuditRecord {
	var trustLevel, requiredLevel *TrustLevel
	if r.TrustLevel != nil {
		tl := TrustLevel(*r.TrustLevel)
		trustLevel = &tl
	}
	if r.RequiredLevel != nil {
		rl := TrustLevel(*r.RequiredLevel)
		requiredLevel = &rl
	}
	return AuditRecord{
		ID:              r.ID,
		Timestamp:       r.Timestamp,
		AgentID:         r.AgentID,
		Action:          r.Action,
		Permitted:       r.Permitted,
		TrustLevel:      trustLevel,
		RequiredLevel:   requiredLevel,
		BudgetUsed:      r.BudgetUsed,
		BudgetRemaining: r.BudgetRemaining,
		Reason:          r.Reason,
		Metadata:        r.Metadata,
		PreviousHash:    r.PreviousHash,
		RecordHash:      r.RecordHash,
	}
}

func auditRecordToStorage(r AuditRecord) storage.AuditRecord {
	var trustLevel, requiredLevel *int
	if r.TrustLevel != nil {
		tl := int(*r.TrustLevel)
		trustLevel = &tl
	}
	if r.RequiredLevel != nil {
		rl := int(*r.RequiredLevel)
		requiredLevel = &rl
	}
	return storage.AuditRecord{
		ID:              r.ID,
		Timestamp:       r.Timestamp,
		AgentID:         r.AgentID,
		Action:          r.Action,
		Permitted:       r.Permitted,
		TrustLevel:      trustLevel,
		RequiredLevel:   requiredLevel,
		BudgetUsed:      r.BudgetUsed,
		BudgetRemaining: r.BudgetRemaining,
		Reason:          r.Reason,
		Metadata:        r.Metadata,
		PreviousHash:    r.PreviousHash,
		RecordHash:      r.RecordHash,
	}
}
