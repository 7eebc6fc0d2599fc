// Package whitepaper downloads offering whitepapers listed in a CSV of
// entries into a status-partitioned folder tree.
//
// Plain links are saved as <root>/<status>/<ticker>_<name>.pdf. Google Drive
// links are resolved to the file id and fetched through the export endpoint,
// following the confirmation step Drive inserts for large files. file://
// links are copied from a local mirror with size and checksum verification.
// Existing files are never fetched again.
package whitepaper
