// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package export

import (
	"bytes"
	"encoding/json"

	"github.com/muvera-ai/agentgov/storage"
)

// jsonRecord mirrors storage.AuditRecord with JSON tags in the same column
// order as the CSV export. This is independent of the hash-chain's
// canonical field order (canonical.go), which is sorted lexicographically
// by JSON tag for hashing purposes only — the two orderings are not meant
// to match.
type jsonRecord struct {
	ID              string         `json:"id"`
	Timestamp       string         `json:"timestamp"`
	AgentID         string         `json:"agentId"`
	Action          string         `json:"action"`
	Permitted       bool           `json:"permitted"`
	TrustLevel      *int           `json:"trustLevel,omitempty"`
	RequiredLevel   *int           `json:"requiredLevel,omitempty"`
	BudgetUsed      *float64       `json:"budgetUsed,omitempty"`
	BudgetRemaining *float64       `json:"budgetRemaining,omitempty"`
	Reason          string         `json:"reason,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	PreviousHash    string         `json:"previousHash"`
	RecordHash      string         `json:"recordHash"`
}

// renderJSON produces a pretty-printed JSON array with 2-space indent. An
// empty record set renders as "[]", never "null".
func renderJSON(records []storage.AuditRecord) ([]byte, error) {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, jsonRecord{
			ID:              r.ID,
			Timestamp:       formatTimestamp(r.Timestamp),
			AgentID:         r.AgentID,
			Action:          r.Action,
			Permitted:       r.Permitted,
			TrustLevel:      r.TrustLevel,
			RequiredLevel:   r.RequiredLevel,
			BudgetUsed:      r.BudgetUsed,
			BudgetRemaining: r.BudgetRemaining,
			Reason:          r.Reason,
			Metadata:        r.Metadata,
			PreviousHash:    r.PreviousHash,
			RecordHash:      r.RecordHash,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
