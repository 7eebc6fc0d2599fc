// Package logs reads back the icokit log file for `icokit logs`.
//
// Tail returns the last N lines or everything after a byte offset, and can
// wait for new lines in follow mode. A Filter narrows the output by minimum
// level, component or run id and understands both the console and the JSON
// line formats written by the logging package.
package logs
