// SPDX-License-Identifier: BUSL-1.1
// Copyright (c) 2026 MuVeraAI Corporation

// Package export renders audit records in the bit-level stable formats
// used for interoperability with SIEM and analytics tooling: JSON, CSV,
// and ArcSight CEF. Every formatter is pure and deterministic — the same
// record set always produces byte-identical output, regardless of call
// order or map iteration.
//
// This package formats records for external transport; it does not ship
// them anywhere. Wiring the output to an OpenTelemetry collector, a SIEM
// ingest endpoint, or any other transport is a host concern.
package export

import "github.com/muvera-ai/agentgov/storage"

// Format selects the output encoding produced by Records.
type Format string

const (
	// JSON renders records as a pretty-printed JSON array.
	JSON Format = "json"
	// CSV renders records as an RFC 4180 document.
	CSV Format = "csv"
	// CEF renders records as newline-delimited ArcSight CEF events.
	CEF Format = "cef"
)

// Records serialises records in the requested format.
func Records(format Format, records []storage.AuditRecord) ([]byte, error) {
	switch format {
	case JSON:
		return renderJSON(records)
	case CSV:
		return renderCSV(records)
	case CEF:
		return renderCEF(records)
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
}

// UnsupportedFormatError is returned by Records for a Format other than
// JSON, CSV, or CEF.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return "export: unsupported format " + e.Format
}
