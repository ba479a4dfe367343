package sheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tourCSV = `Бой 1,,,,Бой 2,,,,Ведущие тура,
,,,,,,,,Вася,
,200,-30,,,150,-20,,,
10,10,-30,,10,10,-10,,,
20,20,0,,20,20,-10,,,
30,30,0,,30,30,0,,,
40,40,0,,40,40,0,,,
50,100,0,,50,50,0,,,
`

func parseTour(t *testing.T) *TourSheet {
	t.Helper()
	grid, err := ReadCSV(strings.NewReader(tourCSV))
	require.NoError(t, err)
	sheet, err := NewTourSheet(3, grid)
	require.NoError(t, err)
	return sheet
}

func TestFightsDetectsBlocks(t *testing.T) {
	fights := parseTour(t).Fights()
	require.Len(t, fights, 2)

	first := fights[0]
	assert.Equal(t, 1, first.Ordinal)
	assert.Equal(t, 0, first.StartColumn)
	assert.Equal(t, []int{1, 2}, first.PlayerColumns)
	assert.Equal(t, []int{200, -30}, first.PlayerTotals)
	require.Len(t, first.Questions, 5)
	assert.Equal(t, 10, first.Questions[0].Nominal)
	assert.Equal(t, []int{10, -30}, first.Questions[0].Deltas)
	assert.Equal(t, 3, first.Questions[0].SourceRow)
	assert.Equal(t, []int{100, 0}, first.Questions[4].Deltas)

	second := fights[1]
	assert.Equal(t, 2, second.Ordinal)
	assert.Equal(t, 4, second.StartColumn)
	assert.Equal(t, []int{150, -20}, second.PlayerTotals)
}

func TestFightsGuardHeaderExcludesRosterColumns(t *testing.T) {
	for _, fight := range parseTour(t).Fights() {
		for _, col := range fight.PlayerColumns {
			assert.Less(t, col, 8, "fight %d", fight.Ordinal)
		}
	}
}

func TestFightsDropsEmptyBlocks(t *testing.T) {
	// The third header cell starts a block that never accrues questions.
	csv := `Бой 1,,,Пусто,,не играли
,,,,,
,100,,,,
10,10,,,,
20,20,,,,
30,30,,,,
40,40,,,,
50,40,,,,
`
	grid, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	sheet, err := NewTourSheet(1, grid)
	require.NoError(t, err)

	fights := sheet.Fights()
	require.Len(t, fights, 1)
	assert.Equal(t, 1, fights[0].Ordinal)
	assert.Equal(t, []int{100}, fights[0].PlayerTotals)
}

func TestFightsCapsQuestionRows(t *testing.T) {
	// A summary footer repeating "10" after five question rows is ignored.
	csv := `Бой 1,,не играли
,,
,60,
10,10,
20,10,
30,10,
40,10,
50,10,
10,999,
`
	grid, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	sheet, err := NewTourSheet(1, grid)
	require.NoError(t, err)

	fights := sheet.Fights()
	require.Len(t, fights, 1)
	require.Len(t, fights[0].Questions, 5)
	assert.Equal(t, []int{10}, fights[0].Questions[4].Deltas)
}

func TestNewTourSheetRejectsEmptyGrid(t *testing.T) {
	_, err := NewTourSheet(1, Grid{})
	assert.Error(t, err)
}
