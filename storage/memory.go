// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package storage

import "sync"

// MemoryStorage is a thread-safe, in-memory implementation of Storage. It
// is the default backend for the governance runtime.
//
// All data is lost when the process exits. MemoryStorage is intended for
// testing, local development, and single-process deployments.
//
// MemoryStorage holds one sync.RWMutex per logical table (trust,
// envelopes, consent, audit) to prevent data races across the four
// independent data stores while letting unrelated tables proceed
// concurrently.
type MemoryStorage struct {
	trustMu sync.RWMutex
	trust   map[trustKey]TrustAssignment

	envelopeMu sync.RWMutex
	envelopes  map[string]Envelope

	consentMu sync.RWMutex
	consent   map[consentKey]ConsentGrant

	auditMu sync.RWMutex
	audit   []AuditRecord
}

type trustKey struct {
	agentID string
	scope   string
}

type consentKey struct {
	agentID string
	action  string
}

// NewMemoryStorage constructs an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		trust:     make(map[trustKey]TrustAssignment),
		envelopes: make(map[string]Envelope),
		consent:   make(map[consentKey]ConsentGrant),
		audit:     make([]AuditRecord, 0),
	}
}

// GetTrust returns the TrustAssignment for (agentID, scope), or (zero,
// false) when no assignment has been stored.
func (s *MemoryStorage) GetTrust(agentID, scope string) (TrustAssignment, bool) {
	s.trustMu.RLock()
	defer s.trustMu.RUnlock()
	a, ok := s.trust[trustKey{agentID: agentID, scope: scope}]
	return a, ok
}

// SetTrust stores or replaces the TrustAssignment for (agentID, scope).
func (s *MemoryStorage) SetTrust(agentID, scope string, assignment TrustAssignment) {
	s.trustMu.Lock()
	defer s.trustMu.Unlock()
	s.trust[trustKey{agentID: agentID, scope: scope}] = assignment
}

// GetEnvelope returns the Envelope for category, or (zero, false) when no
// envelope has been created for that category.
func (s *MemoryStorage) GetEnvelope(category string) (Envelope, bool) {
	s.envelopeMu.RLock()
	defer s.envelopeMu.RUnlock()
	env, ok := s.envelopes[category]
	return env, ok
}

// SetEnvelope stores or replaces the Envelope for category.
func (s *MemoryStorage) SetEnvelope(category string, envelope Envelope) {
	s.envelopeMu.Lock()
	defer s.envelopeMu.Unlock()
	s.envelopes[category] = envelope
}

// GetConsent returns the ConsentGrant for (agentID, action), or (zero,
// false) when no grant has ever been recorded.
func (s *MemoryStorage) GetConsent(agentID, action string) (ConsentGrant, bool) {
	s.consentMu.RLock()
	defer s.consentMu.RUnlock()
	grant, ok := s.consent[consentKey{agentID: agentID, action: action}]
	return grant, ok
}

// SetConsent stores or replaces the ConsentGrant for (agentID, action).
func (s *MemoryStorage) SetConsent(agentID, action string, grant ConsentGrant) {
	s.consentMu.Lock()
	defer s.consentMu.Unlock()
	s.consent[consentKey{agentID: agentID, action: action}] = grant
}

// AppendAudit appends record to the in-memory audit log. Never returns an
// error for MemoryStorage.
func (s *MemoryStorage) AppendAudit(record AuditRecord) error {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	s.audit = append(s.audit, record)
	return nil
}

// QueryAudit returns audit records matching filter, in append order.
//
// Filtering is applied in this order: time range, agent, action, permit
// status, offset, then limit.
func (s *MemoryStorage) QueryAudit(filter AuditFilter) ([]AuditRecord, error) {
	s.auditMu.RLock()
	defer s.auditMu.RUnlock()

	results := make([]AuditRecord, 0, len(s.audit))
	skipped := 0
	for _, record := range s.audit {
		if !matchesFilter(record, filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		results = append(results, record)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// AllAudit returns every retained record in append order, with no
// filtering or pagination.
func (s *MemoryStorage) AllAudit() ([]AuditRecord, error) {
	s.auditMu.RLock()
	defer s.auditMu.RUnlock()
	all := make([]AuditRecord, len(s.audit))
	copy(all, s.audit)
	return all, nil
}

// CountAudit returns the total number of retained audit records.
func (s *MemoryStorage) CountAudit() (int, error) {
	s.auditMu.RLock()
	defer s.auditMu.RUnlock()
	return len(s.audit), nil
}

// PruneOldestAudit removes and returns the oldest retained audit record,
// implementing the optional Pruner capability for AuditConfig.MaxRecords
// eviction.
func (s *MemoryStorage) PruneOldestAudit() (AuditRecord, bool) {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	if len(s.audit) == 0 {
		return AuditRecord{}, false
	}
	oldest := s.audit[0]
	s.audit = s.audit[1:]
	return oldest, true
}

// matchesFilter returns true when record satisfies all non-zero filter
// criteria.
func matchesFilter(record AuditRecord, filter AuditFilter) bool {
	if !filter.StartTime.IsZero() && record.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && record.Timestamp.After(filter.EndTime) {
		return false
	}
	if filter.AgentID != "" && record.AgentID != filter.AgentID {
		return false
	}
	if filter.Action != "" && record.Action != filter.Action {
		return false
	}
	if filter.Permitted != nil && record.Permitted != *filter.Permitted {
		return false
	}
	return true
}
