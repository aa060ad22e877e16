// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package governance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/muvera-ai/agentgov/storage"
)

// genesisHash is the previousHash value for the very first record in a
// chain: 64 lowercase hex zeros.
var genesisHash = strings.Repeat("0", 64)

// computeRecordHash produces the SHA-256 digest of rec's canonical form
// combined with rec.PreviousHash, per spec.md §4.2:
//
//	hash = SHA256(canonical(rec \ recordHash) ‖ 0x0A ‖ previousHash)
//
// The newline separator prevents boundary ambiguity between the canonical
// JSON and the appended previous hash.
func computeRecordHash(rec storage.AuditRecord) (string, error) {
	canonical, err := canonicalBytes(rec)
	if err != nil {
		return "", fmt.Errorf("governance: canonicalize audit record: %w", err)
	}
	input := make([]byte, 0, len(canonical)+1+len(rec.PreviousHash))
	input = append(input, canonical...)
	input = append(input, '\n')
	input = append(input, rec.PreviousHash...)

	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:]), nil
}

// verifyChain walks records from index 0, checking that each one's
// PreviousHash matches the preceding record's RecordHash (or genesisHash /
// a supplied checkpoint for the first record) and that its RecordHash
// matches a fresh recomputation. startHash is the expected PreviousHash of
// records[0]; pass genesisHash unless verifying a suffix that begins after
// a checkpointed eviction (see AuditLogger.Verify). countOffset is added to
// the reported RecordCount to account for any checkpointed prefix.
func verifyChain(records []storage.AuditRecord, startHash string, countOffset int) ChainVerification {
	expected := startHash

	for i, record := range records {
		if record.PreviousHash != expected {
			return ChainVerification{
				Valid:       false,
				BrokenAt:    i,
				Reason:      fmt.Sprintf("record %d: previousHash %q does not match expected %q", i, record.PreviousHash, expected),
				RecordCount: countOffset + len(records),
			}
		}

		recomputed, err := computeRecordHash(record)
		if err != nil {
			return ChainVerification{
				Valid:       false,
				BrokenAt:    i,
				Reason:      fmt.Sprintf("record %d: failed to recompute hash: %v", i, err),
				RecordCount: countOffset + len(records),
			}
		}
		if recomputed != record.RecordHash {
			return ChainVerification{
				Valid:       false,
				BrokenAt:    i,
				Reason:      fmt.Sprintf("record %d: recordHash altered, expected %q got %q", i, recomputed, record.RecordHash),
				RecordCount: countOffset + len(records),
			}
		}

		expected = record.RecordHash
	}

	return ChainVerification{
		Valid:       true,
		RecordCount: countOffset + len(records),
	}
}
