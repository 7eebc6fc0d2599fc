// Package pipeline turns raw text items into cleaned, tokenized, filtered
// and bag-of-words encoded documents.
//
// Stages run in a fixed order: Raw -> Cleaned -> Tokenized -> Filtered ->
// Encoded. Cleaning and tokenization fan out over a bounded worker pool and
// keep the input order. A failure in one item marks that document as failed,
// is logged with the item id, and leaves the rest of the batch untouched.
// An interrupt aborts the whole batch.
package pipeline
