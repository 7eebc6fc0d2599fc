package coinmarketcap

import (
	"bytes"
	"errors"
	"math"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"icokit/internal/services"
)

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	file, err := os.Open("testdata/" + name)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer file.Close()
	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestParseTableListing(t *testing.T) {
	table, err := ParseTable(loadFixture(t, "listing.html"), ListingSpec)
	if err != nil {
		t.Fatalf("ParseTable returned error: %v", err)
	}
	if !reflect.DeepEqual(table.Columns, ListingSpec.Columns) {
		t.Fatalf("columns = %v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}

	btc := table.Rows[0]
	if btc[table.Column("name")].Text != "Bitcoin" || btc[table.Column("symbol")].Text != "BTC" {
		t.Fatalf("unexpected text cells: %+v", btc)
	}
	checks := map[string]float64{
		"market_cap":         189483123456,
		"price":              11250.40,
		"circulating_supply": 16842475,
		"change_24h":         -1.30,
	}
	for col, want := range checks {
		cell := btc[table.Column(col)]
		if !cell.Numeric || math.Abs(cell.Number-want) > 1e-9 {
			t.Errorf("%s = %+v, want %v", col, cell, want)
		}
	}
	if btc[table.Column("index")].Numeric {
		t.Error("index column should stay textual")
	}

	ico := table.Rows[1]
	if !math.IsNaN(ico[table.Column("market_cap")].Number) {
		t.Errorf("expected NaN market cap for '?', got %v", ico[table.Column("market_cap")].Number)
	}
	if got := ico[table.Column("volume")].Value(); got != "NaN" {
		t.Errorf("volume value = %q, want NaN", got)
	}
	if got := ico[table.Column("price")].Value(); got != "0.0041" {
		t.Errorf("price value = %q", got)
	}
}

func TestParseTableUsesHeaderWithoutColumns(t *testing.T) {
	table, err := ParseTable(loadFixture(t, "listing.html"), TableSpec{ID: "currencies-all"})
	if err != nil {
		t.Fatalf("ParseTable returned error: %v", err)
	}
	if table.Columns[0] != "#" || table.Columns[6] != "Volume (24h)" {
		t.Fatalf("unexpected header %v", table.Columns)
	}
	if table.Rows[0][5].Text != "16,842,475 BTC" {
		t.Fatalf("nested cell text = %q", table.Rows[0][5].Text)
	}
}

func TestParseTableByClass(t *testing.T) {
	table, err := ParseTable(loadFixture(t, "listing.html"), TableSpec{Class: "summary"})
	if err != nil {
		t.Fatalf("ParseTable returned error: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0][0].Text != "x" {
		t.Fatalf("unexpected table %+v", table)
	}
}

func TestParseTableErrors(t *testing.T) {
	doc := loadFixture(t, "listing.html")
	tests := []struct {
		name   string
		spec   TableSpec
		marker error
	}{
		{"missing table", TableSpec{ID: "nope"}, services.ErrNotFound},
		{"column count", TableSpec{ID: "currencies-all", Columns: []string{"a", "b"}}, services.ErrInvalidInput},
		{"unknown numeric", TableSpec{ID: "currencies-all", NumericColumns: []string{"cap"}}, services.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable(doc, tt.spec)
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestParseLinks(t *testing.T) {
	doc := loadFixture(t, "historical.html")
	got := ParseLinks(doc.Find("div" + classSelector(historyContainer)))
	want := []string{"/historical/20180107/", "/historical/20180114/", "/historical/20180121/"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseLinks() = %v, want %v", got, want)
	}
}

func TestWriteCSV(t *testing.T) {
	table, err := ParseTable(loadFixture(t, "listing.html"), ListingSpec)
	if err != nil {
		t.Fatalf("ParseTable returned error: %v", err)
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "index,name,symbol,market_cap") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "Bitcoin,BTC,189483123456,11250.4") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
