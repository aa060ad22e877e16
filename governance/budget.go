// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/muvera-ai/agentgov/storage"
)

// BudgetManagerIface is the interface for managing static spending
// envelopes. All allocations are set once at creation time and never
// change automatically — there is no adaptive budgeting.
//
// All methods are safe for concurrent use.
type BudgetManagerIface interface {
	// CreateEnvelope creates a new bounded spending envelope for a
	// category. Returns ErrEnvelopeExists if the category is already
	// registered.
	CreateEnvelope(ctx context.Context, category string, limit float64, period time.Duration) (*Envelope, error)

	// Check reports whether amount can be spent from the category's
	// envelope without exceeding its limit. It never records a spend or
	// a reservation, so it is safe to call speculatively; it does apply
	// the lazy period rollover.
	Check(ctx context.Context, category string, amount float64) *BudgetResult

	// Record records a spend of amount against the category's envelope.
	Record(ctx context.Context, category string, amount float64) error
}

// BudgetManager is the default implementation of BudgetManagerIface. A
// per-category lock set serialises the lazy-rollover read-modify-write and
// the Reserve/Record sequence, per spec.md §5's requirement that compound
// check-and-record operations hold the envelope's lock across both steps.
type BudgetManager struct {
	store  storage.Storage
	config BudgetConfig

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewBudgetManager constructs a BudgetManager backed by the given storage.
func NewBudgetManager(store storage.Storage, cfg BudgetConfig) *BudgetManager {
	return &BudgetManager{
		store:  store,
		config: cfg,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (m *BudgetManager) lockFor(category string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[category]
	if !ok {
		l = &sync.Mutex{}
		m.locks[category] = l
	}
	return l
}

// TotalPeriod is a sentinel passed as CreateEnvelope's period to create a
// "total" envelope per spec.md §3: one whose Limit never resets. It is
// distinct from the zero Duration, which instead selects
// BudgetConfig.DefaultPeriod — without this sentinel a caller has no way to
// ask for a non-resetting envelope through the public API.
const TotalPeriod time.Duration = -1

// CreateEnvelope creates a new bounded spending envelope for a category.
// period determines how long Limit applies before it resets; a zero period
// substitutes the configured default period, and TotalPeriod creates a
// "total" envelope that never resets. Any other negative period is invalid.
// Calling CreateEnvelope for a category that already exists returns
// ErrEnvelopeExists.
func (m *BudgetManager) CreateEnvelope(
	ctx context.Context,
	category string,
	limit float64,
	period time.Duration,
) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if category == "" {
		return nil, fmt.Errorf("%w: category must not be empty", ErrInvalidInput)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0", ErrInvalidAmount)
	}
	switch {
	case period == TotalPeriod:
		// resetIfExpiredLocked treats a stored Period of zero as "never
		// resets" — TotalPeriod is the public spelling of that state.
		period = 0
	case period == 0:
		period = m.config.DefaultPeriod
	case period < 0:
		return nil, fmt.Errorf("%w: period must be >= 0 or TotalPeriod", ErrInvalidAmount)
	}

	lock := m.lockFor(category)
	lock.Lock()
	defer lock.Unlock()

	if _, exists := m.store.GetEnvelope(category); exists {
		return nil, fmt.Errorf("%w: category %q", ErrEnvelopeExists, category)
	}

	now := time.Now().UTC()
	env := storage.Envelope{
		Category: category,
		Limit:    limit,
		Period:   period,
		StartsAt: now,
	}
	m.store.SetEnvelope(category, env)

	return envelopeFromStorage(env), nil
}

// Check reports whether amount can be spent from the category's envelope.
// It never records a spend or a reservation — it is safe to call
// speculatively — but it does perform the lazy rollover defined in spec.md
// §3 (zeroing Spent and Committed once the period has elapsed), since
// rollover is triggered by any access, not only by Record. If the category
// has no envelope, Permitted is false with a descriptive reason rather
// than an error.
func (m *BudgetManager) Check(ctx context.Context, category string, amount float64) *BudgetResult {
	lock := m.lockFor(category)
	lock.Lock()
	defer lock.Unlock()

	raw, ok := m.store.GetEnvelope(category)
	if !ok {
		return &BudgetResult{
			Permitted: false,
			Requested: amount,
			Category:  category,
			Reason:    fmt.Sprintf("no budget envelope found for category %q", category),
		}
	}

	raw = m.resetIfExpiredLocked(category, raw)
	available := envelopeFromStorage(raw).Available()

	if amount <= available {
		return &BudgetResult{
			Permitted: true,
			Available: available,
			Requested: amount,
			Category:  category,
			Reason: fmt.Sprintf(
				"budget check passed for %q: requested=%.4f available=%.4f",
				category, amount, available,
			),
		}
	}

	return &BudgetResult{
		Permitted: false,
		Available: available,
		Requested: amount,
		Category:  category,
		Reason: fmt.Sprintf(
			"budget check failed for %q: requested=%.4f exceeds available=%.4f",
			category, amount, available,
		),
	}
}

// Record records a spend of amount against the category's envelope. If a
// Reserve call already holds headroom for this category, Record settles
// against it first: up to amount is moved from Committed to Spent, so a
// Reserve(amount) followed by Record(amount) does not double-count against
// Available. Any portion of amount beyond the existing reservation is
// checked against the envelope's remaining balance exactly as an
// unreserved Record would be.
//
// In strict mode (BudgetConfig.AllowOverspend=false, the default), Record
// returns a *BudgetDeniedError when the unsettled portion of the spend
// would push Spent above the available balance. In permissive mode it
// records the overspend and returns nil; subsequent Check calls return
// Permitted=false until the period rolls over.
func (m *BudgetManager) Record(ctx context.Context, category string, amount float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("%w: amount must be >= 0, got %.4f", ErrInvalidAmount, amount)
	}

	lock := m.lockFor(category)
	lock.Lock()
	defer lock.Unlock()

	raw, ok := m.store.GetEnvelope(category)
	if !ok {
		return fmt.Errorf("%w: category %q", ErrEnvelopeNotFound, category)
	}

	raw = m.resetIfExpiredLocked(category, raw)

	settled := amount
	if settled > raw.Committed {
		settled = raw.Committed
	}
	unsettled := amount - settled
	committedAfterSettle := raw.Committed - settled
	availableAfterSettle := raw.Limit - raw.Spent - settled - committedAfterSettle
	if availableAfterSettle < 0 {
		availableAfterSettle = 0
	}

	if !m.config.AllowOverspend && unsettled > availableAfterSettle {
		return &BudgetDeniedError{Category: category, Available: availableAfterSettle, Requested: unsettled}
	}

	raw.Committed = committedAfterSettle
	raw.Spent += amount
	m.store.SetEnvelope(category, raw)
	return nil
}

// Reserve adds amount to the category's committed (reserved-but-unsettled)
// balance, letting a caller hold headroom across an asynchronous operation
// without racing a concurrent Check. Returns *BudgetDeniedError in strict
// mode when amount exceeds the currently available balance.
func (m *BudgetManager) Reserve(ctx context.Context, category string, amount float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("%w: amount must be >= 0, got %.4f", ErrInvalidAmount, amount)
	}

	lock := m.lockFor(category)
	lock.Lock()
	defer lock.Unlock()

	raw, ok := m.store.GetEnvelope(category)
	if !ok {
		return fmt.Errorf("%w: category %q", ErrEnvelopeNotFound, category)
	}

	raw = m.resetIfExpiredLocked(category, raw)
	available := envelopeFromStorage(raw).Available()

	if !m.config.AllowOverspend && amount > available {
		return &BudgetDeniedError{Category: category, Available: available, Requested: amount}
	}

	raw.Committed += amount
	m.store.SetEnvelope(category, raw)
	return nil
}

// Release subtracts amount from the category's committed balance, floored
// at zero. Use it to give back a reservation that was never settled with
// Record (e.g. the reserved operation failed or was cancelled).
func (m *BudgetManager) Release(ctx context.Context, category string, amount float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("%w: amount must be >= 0, got %.4f", ErrInvalidAmount, amount)
	}

	lock := m.lockFor(category)
	lock.Lock()
	defer lock.Unlock()

	raw, ok := m.store.GetEnvelope(category)
	if !ok {
		return fmt.Errorf("%w: category %q", ErrEnvelopeNotFound, category)
	}

	raw.Committed -= amount
	if raw.Committed < 0 {
		raw.Committed = 0
	}
	m.store.SetEnvelope(category, raw)
	return nil
}

// resetIfExpiredLocked checks whether the envelope's period has elapsed
// and, if so, resets Spent and Committed to zero and advances StartsAt.
// Per spec.md §3's explicit rollover rule, Committed resets alongside
// Spent — a reservation that survives a period boundary would otherwise
// let available go negative under the clamp, or leak headroom the period
// never granted. The caller must already hold category's lock.
func (m *BudgetManager) resetIfExpiredLocked(category string, raw storage.Envelope) storage.Envelope {
	if raw.Period == 0 {
		return raw
	}
	periodEnd := raw.StartsAt.Add(raw.Period)
	if time.Now().UTC().After(periodEnd) {
		raw.Spent = 0
		raw.Committed = 0
		raw.StartsAt = time.Now().UTC()
		m.store.SetEnvelope(category, raw)
	}
	return raw
}

func envelopeFromStorage(e storage.Envelope) *Envelope {
	return &Envelope{
		Category:  e.Category,
		Limit:     e.Limit,
		Spent:     e.Spent,
		Committed: e.Committed,
		Period:    e.Period,
		StartsAt:  e.StartsAt,
	}
}
