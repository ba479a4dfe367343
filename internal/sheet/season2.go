package sheet

import (
	"strings"

	"github.com/rotisserie/eris"
)

// NominalValues are the question point values in play order. They double as
// structural marker cells in the source sheets.
var NominalValues = [...]string{"10", "20", "30", "40", "50"}

// guardHeaders terminate the fight region of a season-2 tour sheet. The
// columns after them hold host/inactive rosters, not fights.
var guardHeaders = map[string]struct{}{
	"Ведущие тура": {},
	"не играли":    {},
}

const totalsRow = 2

// QuestionRow is one question captured from a tour sheet fight block.
type QuestionRow struct {
	Nominal   int   `json:"nominal"`
	Deltas    []int `json:"deltas"`
	SourceRow int   `json:"source_row"`
}

// FightBlock is a parsed fight column group extracted from a tour sheet.
type FightBlock struct {
	Ordinal       int           `json:"ordinal"`
	StartColumn   int           `json:"start_column"`
	PlayerColumns []int         `json:"player_columns"`
	PlayerTotals  []int         `json:"player_totals"`
	Questions     []QuestionRow `json:"questions"`
}

// TourSheet iterates fights within a season-2 style tour CSV export.
//
// Fights occupy column groups instead of rows: column 0 of a block carries
// the nominal markers, the following columns carry per-player totals and
// question deltas. Player columns never include names; those come from the
// aggregate roster sheets later in the pipeline.
type TourSheet struct {
	TourNumber int
	grid       Grid
}

// NewTourSheet wraps a parsed grid. The grid must have at least one row.
func NewTourSheet(tourNumber int, grid Grid) (*TourSheet, error) {
	if len(grid) == 0 {
		return nil, eris.New("sheet: tour sheet has no rows")
	}
	return &TourSheet{TourNumber: tourNumber, grid: grid}, nil
}

// TourSheetFromCSV reads a tour CSV snapshot from disk.
func TourSheetFromCSV(path string, tourNumber int) (*TourSheet, error) {
	grid, err := ReadCSVFile(path)
	if err != nil {
		return nil, err
	}
	return NewTourSheet(tourNumber, grid)
}

// Fights returns the fight blocks detected in the sheet, in column order.
// Blocks without any question rows are dropped as unused column groups.
func (s *TourSheet) Fights() []FightBlock {
	header := s.grid[0]
	cutoff := len(header)
	for idx, value := range header {
		if _, ok := guardHeaders[strings.TrimSpace(value)]; ok && idx < cutoff {
			cutoff = idx
		}
	}

	var startColumns []int
	for idx := 0; idx < cutoff && idx < len(header); idx++ {
		if strings.TrimSpace(header[idx]) != "" {
			startColumns = append(startColumns, idx)
		}
	}

	var fights []FightBlock
	for pos, startCol := range startColumns {
		endCol := cutoff
		if pos+1 < len(startColumns) {
			endCol = startColumns[pos+1]
		}
		playerCols := s.detectPlayerColumns(startCol, endCol)
		totals := make([]int, len(playerCols))
		for i, col := range playerCols {
			totals[i] = s.grid.CellInt(totalsRow, col)
		}
		questions := s.collectQuestions(startCol, playerCols)
		if len(questions) == 0 {
			continue
		}
		fights = append(fights, FightBlock{
			Ordinal:       pos + 1,
			StartColumn:   startCol,
			PlayerColumns: playerCols,
			PlayerTotals:  totals,
			Questions:     questions,
		})
	}
	return fights
}

// detectPlayerColumns keeps only columns that record a total. Host and
// inactive roster columns leave the totals row blank.
func (s *TourSheet) detectPlayerColumns(startCol, endCol int) []int {
	var columns []int
	for col := startCol + 1; col < endCol; col++ {
		if strings.TrimSpace(s.grid.Cell(totalsRow, col)) == "" {
			continue
		}
		columns = append(columns, col)
	}
	return columns
}

func (s *TourSheet) collectQuestions(startCol int, playerCols []int) []QuestionRow {
	var questions []QuestionRow
	for rowIndex := range s.grid {
		cell := s.grid.Cell(rowIndex, startCol)
		if !isNominalMarker(cell) {
			continue
		}
		deltas := make([]int, len(playerCols))
		for i, col := range playerCols {
			deltas[i] = s.grid.CellInt(rowIndex, col)
		}
		questions = append(questions, QuestionRow{
			Nominal:   CoerceInt(cell),
			Deltas:    deltas,
			SourceRow: rowIndex,
		})
		// The round count is fixed; trailing nominal-looking rows are
		// summary footers, not questions.
		if len(questions) == len(NominalValues) {
			break
		}
	}
	return questions
}

func isNominalMarker(cell string) bool {
	for _, v := range NominalValues {
		if cell == v {
			return true
		}
	}
	return false
}
