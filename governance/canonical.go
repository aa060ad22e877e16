// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/muvera-ai/agentgov/storage"
)

// formatTimestamp renders t in the UTC ISO-8601 millisecond-precision form
// spec.md §6 mandates for every timestamp this package emits or hashes.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// preHashRecord is the canonical, pre-hash representation of an audit
// record. Its JSON field tags are declared in strict lexicographic
// code-point order and every optional field carries `omitempty`, so
// encoding/json's declared-field-order marshaling produces exactly the
// canonical form spec.md §4.1 requires: keys in lexicographic order,
// absent optional fields omitted entirely (never emitted as null), no
// insignificant whitespace, numbers in their shortest round-trip decimal
// form.
//
// Field order here is part of this package's hashing contract — do not
// reorder these fields, and do not add a field without placing it in
// lexicographic position by its JSON tag.
type preHashRecord struct {
	Action          string   `json:"action"`
	AgentID         string   `json:"agentId"`
	BudgetRemaining *float64 `json:"budgetRemaining,omitempty"`
	BudgetUsed      *float64 `json:"budgetUsed,omitempty"`
	ID              string   `json:"id"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	Permitted       bool     `json:"permitted"`
	PreviousHash    string   `json:"previousHash"`
	Reason          string   `json:"reason,omitempty"`
	RequiredLevel   *int     `json:"requiredLevel,omitempty"`
	Timestamp       string   `json:"timestamp"`
	TrustLevel      *int     `json:"trustLevel,omitempty"`
}

// canonicalBytes produces the deterministic byte encoding of rec (minus its
// RecordHash) used as the hash input, per spec.md §4.1.
func canonicalBytes(rec storage.AuditRecord) ([]byte, error) {
	pre := preHashRecord{
		Action:          rec.Action,
		AgentID:         rec.AgentID,
		BudgetRemaining: rec.BudgetRemaining,
		BudgetUsed:      rec.BudgetUsed,
		ID:              rec.ID,
		Permitted:       rec.Permitted,
		PreviousHash:    rec.PreviousHash,
		Reason:          rec.Reason,
		RequiredLevel:   rec.RequiredLevel,
		Timestamp:       formatTimestamp(rec.Timestamp),
		TrustLevel:      rec.TrustLevel,
	}

	if len(rec.Metadata) > 0 {
		meta, err := canonicalizeMap(rec.Metadata)
		if err != nil {
			return nil, err
		}
		pre.Metadata = meta
	}

	return json.Marshal(pre)
}

// canonicalizeMap renders m as JSON with its keys (and the keys of any
// nested map[string]any values) sorted lexicographically, so caller-
// supplied metadata hashes deterministically regardless of Go's
// randomised map iteration order.
func canonicalizeMap(m map[string]any) (json.RawMessage, error) {
	ordered, err := canonicalizeValue(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ordered)
}

// canonicalizeValue recursively rewrites v so that any map[string]any it
// contains is emitted via orderedMap, whose MarshalJSON sorts keys.
func canonicalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]orderedPair, 0, len(keys))
		for _, k := range keys {
			child, err := canonicalizeValue(val[k])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, orderedPair{key: k, value: child})
		}
		return orderedMap(pairs), nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			child, err := canonicalizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = child
		}
		return out, nil
	default:
		return val, nil
	}
}

type orderedPair struct {
	key   string
	value any
}

// orderedMap marshals as a JSON object whose keys appear in the order of
// the underlying slice, bypassing Go's default alphabetical-but-unordered
// map marshaling so nested metadata objects hash deterministically.
type orderedMap []orderedPair

func (m orderedMap) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = append(buf, '{')
	for i, pair := range m {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(pair.key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		valJSON, err := json.Marshal(pair.value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}
