// Package vocab filters tokenized documents by corpus-wide frequency and
// token length, and maps the surviving tokens to integer ids.
//
// Filtering counts every token across the whole collection once and then
// drops tokens that are too rare or too short. Item count and order never
// change; a document may end up with an empty token list.
//
// Dictionary assigns stable ids to tokens and encodes documents as sparse
// bag-of-words vectors sorted by id.
package vocab
