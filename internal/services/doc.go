// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations (crawler, whitepaper downloads, PDF text).
//
// Key responsibilities:
//   - Context helpers that stamp item identifiers, stage names, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so batch code can tell
//     per-item failures apart from interrupts and configuration problems.
//
// Subpackages hold the integrations themselves. Use these helpers when wiring
// new stage logic so failure handling and observability stay uniform.
package services
