// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

package export

import "time"

// formatTimestamp renders t in the UTC ISO-8601 millisecond-precision form
// used throughout this package, matching governance's canonical hashing
// format so exported timestamps are recognisable against the ledger.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
