package coinmarketcap

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"icokit/internal/services"
	"icokit/internal/textclean"
)

// TableSpec selects a table and describes how to read it. ID and Class
// narrow the match; the first matching <table> wins. Columns renames the
// header and must have as many entries as the table has columns.
type TableSpec struct {
	ID             string
	Class          string
	Columns        []string
	NumericColumns []string
}

// Cell is one table value. Numeric cells carry the parsed Number, which is
// NaN when the text holds no number.
type Cell struct {
	Text    string  `json:"text"`
	Number  float64 `json:"-"`
	Numeric bool    `json:"numeric,omitempty"`
}

// Table is a parsed HTML table.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// ParseTable extracts the table described by spec from doc.
func ParseTable(doc *goquery.Document, spec TableSpec) (*Table, error) {
	selector := "table"
	if spec.ID != "" {
		selector += fmt.Sprintf("[id=%q]", spec.ID)
	}
	selector += classSelector(spec.Class)

	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return nil, services.Wrap(services.ErrNotFound, "crawler", "parse table", fmt.Sprintf("no table matches %s", selector), nil)
	}

	var header []string
	node.Find("tr").First().Find("th").Each(func(_ int, s *goquery.Selection) {
		header = append(header, cellText(s))
	})

	var raw [][]string
	node.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, s *goquery.Selection) {
			row = append(row, cellText(s))
		})
		raw = append(raw, row)
	})

	columns := header
	if len(spec.Columns) > 0 {
		if len(header) > 0 && len(header) != len(spec.Columns) {
			return nil, services.Wrap(services.ErrInvalidInput, "crawler", "parse table",
				fmt.Sprintf("table has %d columns, %d names given", len(header), len(spec.Columns)), nil)
		}
		columns = append([]string(nil), spec.Columns...)
	}
	if len(columns) == 0 && len(raw) > 0 {
		for i := range raw[0] {
			columns = append(columns, strconv.Itoa(i))
		}
	}

	numeric := make(map[int]bool, len(spec.NumericColumns))
	for _, name := range spec.NumericColumns {
		idx := indexOf(columns, name)
		if idx < 0 {
			return nil, services.Wrap(services.ErrInvalidInput, "crawler", "parse table", fmt.Sprintf("unknown numeric column %q", name), nil)
		}
		numeric[idx] = true
	}

	table := &Table{Columns: columns, Rows: make([][]Cell, 0, len(raw))}
	for n, values := range raw {
		if len(values) > len(columns) {
			return nil, services.Wrap(services.ErrInvalidInput, "crawler", "parse table",
				fmt.Sprintf("row %d has %d cells for %d columns", n, len(values), len(columns)), nil)
		}
		row := make([]Cell, len(columns))
		for i := range columns {
			if i < len(values) {
				row[i].Text = values[i]
			}
			if numeric[i] {
				row[i].Numeric = true
				row[i].Number = textclean.ToNumeric(row[i].Text)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ParseLinks returns the href of every anchor under sel, in document order.
// Anchors without an href are skipped.
func ParseLinks(sel *goquery.Selection) []string {
	var links []string
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			links = append(links, href)
		}
	})
	return links
}

// Column returns the index of name, or -1.
func (t *Table) Column(name string) int {
	return indexOf(t.Columns, name)
}

// Value renders a cell for display. Numeric cells print their parsed
// number, or "NaN" when parsing failed.
func (c Cell) Value() string {
	if !c.Numeric {
		return c.Text
	}
	if math.IsNaN(c.Number) {
		return "NaN"
	}
	return strconv.FormatFloat(c.Number, 'f', -1, 64)
}

// WriteCSV writes the header and every row using Cell.Value.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[i] = cell.Value()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// cellText joins the text nodes below a cell and collapses whitespace.
func cellText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &b)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
}

func classSelector(class string) string {
	var b strings.Builder
	for _, c := range strings.Fields(class) {
		b.WriteByte('.')
		b.WriteString(c)
	}
	return b.String()
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
