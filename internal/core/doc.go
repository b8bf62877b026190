// Package core provides the register-map normalization pipeline.
//
// The package turns raw tables taken from vendor documents (spreadsheets,
// PDF and HTML exports) into canonical device-variable records. It holds no
// transport or storage code and can be used by the HTTP service, the CLI or
// tests without modification.
//
// # Backends
//
// A [Backend] is a declarative bundle: header synonyms, extraction switches,
// merge passes, classification rules and rule tables. Bundles are registered
// at init time using [Register] and all run through the same [Pipeline]:
//
//	core.Register(core.Backend{
//	    Key:    "cefa",
//	    Header: core.HeaderRules{Aliases: []core.Alias{{Field: core.FieldRegister, Variants: []string{"direccion"}}}},
//	    ...
//	})
//
// # Pipeline
//
//	raw tables -> HeaderDetector -> Extractor -> Merger
//	           -> RuleEngine.Prepare -> Classifier -> RuleEngine.Apply -> Finalizer
//
// Tables are isolated from each other: a table without a header, or one that
// fails, is recorded in a [TableReport] and skipped. Working rows are loosely
// typed [Row] values; only the [Finalizer] produces typed [Record] values in
// [Columns] order.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CONV001-CONV006: Conversion errors (nothing extracted, busy, timeouts)
//   - DET001: Header detection errors
//   - FILE001-FILE007: File errors (size, format, encoding)
//   - BE001: Unknown backend
//   - DB001-DB004: History database errors
//   - RATE001: Rate limiting
package core
