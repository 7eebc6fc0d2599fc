// Package corpus persists whitepaper texts, their processed forms, the
// corpus dictionary and the history of pipeline runs in SQLite.
//
// Documents are keyed by their id and keep the order in which they were
// first stored. Saving a run result replaces the dictionary wholesale.
// Writes retry on SQLITE_BUSY with exponential backoff so a second process
// reading the corpus never fails a run.
package corpus
