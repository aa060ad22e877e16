// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"

	"github.com/muvera-ai/agentgov/storage"
)

var csvHeader = []string{
	"id", "timestamp", "agentId", "action", "permitted",
	"trustLevel", "requiredLevel", "budgetUsed", "budgetRemaining",
	"reason", "metadata", "previousHash", "recordHash",
}

// renderCSV produces an RFC 4180 document with the fixed column header
// defined by spec.md §6. Every record emits every column; absent optional
// fields produce empty cells. Metadata is rendered as embedded JSON, which
// encoding/csv then escapes per RFC 4180 (quoting fields that contain a
// comma, quote, or newline, and doubling inner quotes).
func renderCSV(records []storage.AuditRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, r := range records {
		row, err := csvRow(r)
		if err != nil {
			return nil, err
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvRow(r storage.AuditRecord) ([]string, error) {
	metadata := ""
	if len(r.Metadata) > 0 {
		b, err := json.Marshal(r.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = string(b)
	}

	return []string{
		r.ID,
		formatTimestamp(r.Timestamp),
		r.AgentID,
		r.Action,
		strconv.FormatBool(r.Permitted),
		intPtrString(r.TrustLevel),
		intPtrString(r.RequiredLevel),
		floatPtrString(r.BudgetUsed),
		floatPtrString(r.BudgetRemaining),
		r.Reason,
		metadata,
		r.PreviousHash,
		r.RecordHash,
	}, nil
}

func intPtrString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func floatPtrString(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
