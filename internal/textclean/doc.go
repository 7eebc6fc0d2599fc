// Package textclean normalizes raw whitepaper and web text before
// tokenization.
//
// Cleaning is an ordered sequence of string transformations. Two steps always
// run first (URL token removal, escaped hex artifact removal); the rest are
// toggled through Options:
//
//	urls -> hex -> lower -> min length -> stopwords -> html -> letters -> spaces
//
// The order is part of the contract. Minimum-length filtering happens before
// stopword removal, and HTML is stripped after stopword removal and before
// letter filtering.
//
// The package holds no mutable global state: the English stopword list is
// returned as a fresh set by EnglishStopwords and injected through Options.
package textclean
