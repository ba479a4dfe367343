package sheet

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// ParseWaffle extracts the cell grids of every Google Sheets "waffle" table
// in an htmlview snapshot. Colspans are expanded into empty trailing cells
// and <br> inside a cell becomes a newline, matching the CSV exports.
func ParseWaffle(r io.Reader) ([]Grid, error) {
	z := html.NewTokenizer(r)

	var (
		tables      []Grid
		inTable     bool
		currentRow  []string
		inRow       bool
		cellBuf     strings.Builder
		inCell      bool
		cellColspan int
	)

	flushCell := func() {
		if !inCell || !inRow {
			return
		}
		value := strings.TrimSpace(cellBuf.String())
		currentRow = append(currentRow, value)
		for i := 1; i < cellColspan; i++ {
			currentRow = append(currentRow, "")
		}
		cellBuf.Reset()
		inCell = false
		cellColspan = 1
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				if len(tables) == 0 {
					return nil, eris.New("sheet: no waffle table found")
				}
				return tables, nil
			}
			return nil, eris.Wrap(z.Err(), "sheet: parse html")
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			switch t.Data {
			case "table":
				for _, attr := range t.Attr {
					if attr.Key == "class" && attr.Val == "waffle" {
						tables = append(tables, Grid{})
						inTable = true
					}
				}
			case "tr":
				if inTable {
					inRow = true
					currentRow = nil
				}
			case "td", "th":
				if inTable && inRow {
					inCell = true
					cellBuf.Reset()
					cellColspan = 1
					for _, attr := range t.Attr {
						if attr.Key == "colspan" {
							if n, err := strconv.Atoi(attr.Val); err == nil && n > 1 {
								cellColspan = n
							}
						}
					}
				}
			case "br":
				if inCell {
					cellBuf.WriteString("\n")
				}
			}
		case html.EndTagToken:
			t := z.Token()
			switch t.Data {
			case "table":
				if inTable {
					flushCell()
					inTable = false
					inRow = false
				}
			case "tr":
				if inTable && inRow {
					flushCell()
					tables[len(tables)-1] = append(tables[len(tables)-1], currentRow)
					inRow = false
				}
			case "td", "th":
				flushCell()
			}
		case html.TextToken:
			if inCell {
				cellBuf.Write(z.Text())
			}
		}
	}
}
