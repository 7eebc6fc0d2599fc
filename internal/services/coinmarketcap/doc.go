// Package coinmarketcap scrapes market tables and historical snapshot links
// from coinmarketcap-style HTML pages.
//
// Pages are fetched with resty and parsed with goquery. A target may also be
// a local file path, which keeps scraping reproducible from saved pages.
package coinmarketcap
