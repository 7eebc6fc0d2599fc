// Package textutil provides the default word tokenizer and filename
// sanitization.
//
// The primary use cases are:
//   - Splitting cleaned text into word and punctuation tokens
//   - Sanitizing filenames and path segments for safe filesystem use
package textutil
