// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package export

import (
	"strconv"
	"strings"

	"github.com/muvera-ai/agentgov/storage"
)

const (
	cefVendor  = "MuVeraAI"
	cefProduct = "AgentGov"
	cefVersion = "1.0"
)

// renderCEF produces one ArcSight CEF event per line, newline-joined.
// Header fields escape backslash and pipe; extension fields escape
// backslash and equals, per spec.md §6.
func renderCEF(records []storage.AuditRecord) ([]byte, error) {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, cefLine(r))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

func cefLine(r storage.AuditRecord) string {
	severity := "3"
	outcome := "permitted"
	if !r.Permitted {
		severity = "7"
		outcome = "denied"
	}

	name := "Governance Decision: " + r.Action

	header := strings.Join([]string{
		"CEF:0",
		cefHeaderEscape(cefVendor),
		cefHeaderEscape(cefProduct),
		cefHeaderEscape(cefVersion),
		cefHeaderEscape(r.Action),
		cefHeaderEscape(name),
		severity,
	}, "|")

	ext := []string{
		"rt=" + cefExtEscape(formatTimestamp(r.Timestamp)),
		"src=" + cefExtEscape(r.AgentID),
		"act=" + cefExtEscape(r.Action),
		"outcome=" + outcome,
		"cs1Label=recordId",
		"cs1=" + cefExtEscape(r.ID),
		"cs2Label=previousHash",
		"cs2=" + cefExtEscape(r.PreviousHash),
		"cs3Label=recordHash",
		"cs3=" + cefExtEscape(r.RecordHash),
	}

	if r.TrustLevel != nil {
		ext = append(ext, "cn1="+strconv.Itoa(*r.TrustLevel))
	}
	if r.RequiredLevel != nil {
		ext = append(ext, "cn2="+strconv.Itoa(*r.RequiredLevel))
	}
	if r.BudgetUsed != nil {
		ext = append(ext, "cn3="+strconv.FormatFloat(*r.BudgetUsed, 'f', -1, 64))
	}
	if r.BudgetRemaining != nil {
		ext = append(ext, "cn4="+strconv.FormatFloat(*r.BudgetRemaining, 'f', -1, 64))
	}

	return header + "|" + strings.Join(ext, " ")
}

func cefHeaderEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `|`, `\|`)
	return s
}

func cefExtEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `=`, `\=`)
	return s
}
