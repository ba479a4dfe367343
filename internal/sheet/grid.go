package sheet

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// Grid is a rectangular-ish matrix of raw cell text. Rows may have uneven
// lengths; out-of-range cells read as empty strings.
type Grid [][]string

// Cell returns the trimmed-nothing raw value at (row, col), or "" when the
// coordinates fall outside the grid.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	r := g[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// CellInt returns the numeric coercion of the cell at (row, col).
func (g Grid) CellInt(row, col int) int {
	return CoerceInt(g.Cell(row, col))
}

// ReadCSV parses CSV content into a Grid, allowing variable field counts.
func ReadCSV(r io.Reader) (Grid, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var grid Grid
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return grid, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "sheet: read csv row")
		}
		grid = append(grid, record)
	}
}

// ReadCSVFile parses a CSV file from disk into a Grid.
func ReadCSVFile(path string) (Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sheet: open %s", path)
	}
	defer f.Close()
	return ReadCSV(f)
}
