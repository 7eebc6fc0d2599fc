// Package preflight provides readiness checks for the filesystem paths and
// the market site icokit depends on.
//
// The CLI "doctor" command runs RunAll and renders each Result. Long batch
// commands call CheckDirectoryAccess on their output folders before any
// work starts so a permissions problem surfaces before hours of downloads.
package preflight
