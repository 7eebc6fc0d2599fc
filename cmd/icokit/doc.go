// Command icokit builds a cleaned text corpus from ICO whitepapers.
//
// A typical session scrapes the market listing, downloads the whitepapers
// named in a listing CSV, extracts their text into the corpus database and
// runs the cleaning pipeline over it:
//
//	icokit scrape listing --output listing.csv
//	icokit download --input whitepapers.csv
//	icokit extract
//	icokit clean --min-freq 2
//	icokit similar --threshold 0.6
//
// Every command reads ~/.config/icokit/config.toml unless --config names
// another file; "icokit config init" writes a commented sample.
package main
