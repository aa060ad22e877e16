// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance

import "time"

// Config holds all configuration for an Engine instance. All fields are
// optional; zero values produce sensible defaults via applyDefaults.
//
// Loading a Config from a file, environment variables, or CLI flags is
// explicitly outside this package's scope — host applications own that
// concern and construct a Config directly.
type Config struct {
	// DefaultScope is used for trust checks when no explicit scope is
	// provided via CheckOption. Defaults to "default".
	DefaultScope string

	// DefaultAgentID is used for trust, budget, and consent checks when no
	// explicit agent ID is provided via CheckOption. An empty string
	// disables the default: a check without WithAgentID is not rejected,
	// it runs and is audited with an empty agent ID.
	DefaultAgentID string

	// TrustConfig holds trust-manager-specific configuration.
	TrustConfig TrustConfig

	// BudgetConfig holds budget-manager-specific configuration.
	BudgetConfig BudgetConfig

	// AuditConfig holds audit-logger-specific configuration.
	AuditConfig AuditConfig

	// OnBudgetRecordError, if set, is called with the error from a
	// best-effort budget settlement performed by WithBudgetRecord after a
	// permitted decision. The error never reverses the decision; this hook
	// only gives a host a place to forward it to its own observability
	// stack. May be called concurrently.
	OnBudgetRecordError func(agentID, action string, err error)

	// OnWarning, if set, is called for non-fatal operational conditions
	// that a host may want to surface (e.g. AuditConfig.MaxRecords set on
	// a storage backend that cannot evict). May be called concurrently.
	OnWarning func(message string)
}

// TrustConfig holds configuration for the TrustManager.
type TrustConfig struct {
	// DefaultLevel is the trust level assigned to agents that have no
	// explicit assignment, and the floor that expired assignments fall
	// back to. Defaults to TrustObserver.
	DefaultLevel TrustLevel

	// DefaultScope is used when SetLevel/GetLevel/CheckLevel receive an
	// empty scope. Defaults to "default". Config.DefaultScope takes
	// precedence when both are set; this field exists for callers using
	// TrustManager directly without an Engine.
	DefaultScope string
}

// BudgetConfig holds configuration for the BudgetManager.
type BudgetConfig struct {
	// AllowOverspend, if true, permits Record calls that would push Spent
	// above Limit. Check still returns Permitted=false in that case, but
	// Record does not return an error. Defaults to false (strict mode).
	AllowOverspend bool

	// DefaultPeriod is used by CreateEnvelope when no period is specified.
	// Defaults to 30 days.
	DefaultPeriod time.Duration
}

// AuditConfig holds configuration for the AuditLogger.
type AuditConfig struct {
	// MaxRecords caps the number of records retained by the storage
	// backend. When the cap is reached, the oldest record is evicted and
	// folded into a running checkpoint hash so Verify can still validate
	// the live suffix of the chain (see AuditLogger.Verify). Zero means no
	// cap (unbounded). Negative values are rejected at construction.
	MaxRecords int
}

// validate returns a non-nil *ConfigError when the Config contains invalid
// values.
func (c *Config) validate() error {
	if !c.TrustConfig.DefaultLevel.Valid() {
		return &ConfigError{
			Field:   "TrustConfig.DefaultLevel",
			Message: "must be in range [0, 5]",
		}
	}
	if c.BudgetConfig.DefaultPeriod < 0 {
		return &ConfigError{
			Field:   "BudgetConfig.DefaultPeriod",
			Message: "must be >= 0",
		}
	}
	if c.AuditConfig.MaxRecords < 0 {
		return &ConfigError{
			Field:   "AuditConfig.MaxRecords",
			Message: "must be >= 0",
		}
	}
	return nil
}

// applyDefaults fills in zero values with their defaults.
func (c *Config) applyDefaults() {
	if c.DefaultScope == "" {
		c.DefaultScope = "default"
	}
	if c.TrustConfig.DefaultScope == "" {
		c.TrustConfig.DefaultScope = c.DefaultScope
	}
	if c.BudgetConfig.DefaultPeriod == 0 {
		c.BudgetConfig.DefaultPeriod = 30 * 24 * time.Hour
	}
}
