// Package core provides the business logic for award file ingestion.
//
// This package is the heart of the importer, containing all domain logic
// independent of any UI or transport layer. It is used by the web handlers,
// the awardsctl CLI and tests without modification.
//
// # Architecture
//
// An ingestion call runs four phases, strictly in order and on one goroutine:
//
//  1. Validation: [ValidateFile] checks that the bytes plausibly match the
//     file extension (CSV text, legacy XLS workbook, or XLSX ZIP package).
//  2. Selection: [SelectParser] picks the [Parser] for the extension.
//  3. Parsing: the parser turns the file into a slice of [Record] using the
//     fixed [ColumnLayout]. Parsing is fail-fast: the first bad row aborts.
//  4. Reconciliation: every record is upserted in its own store [Unit].
//     A failing record is rolled back, reported in [UploadResult.Errors]
//     and counted as skipped; the batch continues.
//
// Each phase opens its own stream through the [Opener] carried by [Upload],
// so the caller must hand in something that can be opened more than once
// (a multipart.FileHeader, a path on disk, a byte slice).
//
// # Error Handling
//
// Failures before reconciliation are returned as a single [*Error] and are
// classified as bad requests by [IsBadRequest]. Technical errors are mapped
// to user-friendly messages using [MapError]. Each error category has a
// unique code for support reference:
//
//   - FMT001-FMT002: Format errors (unsupported type, missing extension)
//   - FILE001-FILE005: File errors (size, structure, empty upload)
//   - PARSE001-PARSE005: Row parse errors (column count, values, sheet)
//   - REC001: Record errors (employee not found)
//   - UPL001-UPL003: Upload errors (busy, cancelled, timeout)
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
package core
