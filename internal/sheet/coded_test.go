package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codedGrid() Grid {
	return Grid{
		{"S01E02F01", "", "", "", "S01E02F02", "", ""},
		{"", "Анна", "Борис", "номинал", "", "Вера", "номинал"},
		{"", "30", "-10", "", "", "-10", ""},
		{"История", "10", "-10", "10", "Кино", "-10", "10"},
		{"", "20", "0", "20", "", "", ""},
		{"Сумма очков", "30", "-10", "", "Всего", "-10", ""},
	}
}

func TestParseFightCode(t *testing.T) {
	code, err := ParseFightCode(" s01e02f03 ")
	require.NoError(t, err)
	assert.Equal(t, FightCode{Season: 1, Tour: 2, Fight: 3}, code)
	assert.Equal(t, "S01E02F03", code.String())

	_, err = ParseFightCode("S1E2F3")
	assert.Error(t, err)
	_, err = ParseFightCode("S01E02")
	assert.Error(t, err)
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", ColumnLetter(0))
	assert.Equal(t, "Z", ColumnLetter(25))
	assert.Equal(t, "AA", ColumnLetter(26))
	assert.Equal(t, "AZ", ColumnLetter(51))
}

func TestParseCodedSheet(t *testing.T) {
	fights := ParseCodedSheet(codedGrid())
	require.Len(t, fights, 2)

	first := fights[0]
	assert.Equal(t, "S01E02F01", first.FightCode)
	assert.Equal(t, FightCode{Season: 1, Tour: 2, Fight: 1}, first.Code)
	assert.Equal(t, []string{"Анна", "Борис"}, first.PlayerNames)
	assert.Equal(t, []int{30, -10}, first.PlayerTotals)
	require.Len(t, first.Questions, 2)

	assert.Equal(t, 10, first.Questions[0].Nominal)
	assert.Equal(t, "История", first.Questions[0].Theme)
	assert.Equal(t, []int{10, -10}, first.Questions[0].Deltas)

	// The second question row has no theme cell of its own and reuses the
	// previous theme; the summary footer never becomes a theme.
	assert.Equal(t, 20, first.Questions[1].Nominal)
	assert.Equal(t, "История", first.Questions[1].Theme)
	assert.Equal(t, []int{20, 0}, first.Questions[1].Deltas)

	second := fights[1]
	assert.Equal(t, "S01E02F02", second.FightCode)
	assert.Equal(t, []string{"Вера"}, second.PlayerNames)
	assert.Equal(t, []int{-10}, second.PlayerTotals)
	require.Len(t, second.Questions, 1)
	assert.Equal(t, "Кино", second.Questions[0].Theme)
	assert.Equal(t, []int{-10}, second.Questions[0].Deltas)
	assert.Equal(t, "E:G", second.ColumnRange())
}

func TestParseCodedSheetKeepsEveryLabelledQuestionRow(t *testing.T) {
	grid := Grid{
		{"S01E03F01", "", ""},
		{"", "Анна", "номинал"},
		{"", "90", ""},
		{"История", "10", "10"},
		{"", "20", "20"},
		{"", "30", "30"},
		{"", "40", "40"},
		{"", "50", "50"},
		{"Кино", "-10", "10"},
	}

	fights := ParseCodedSheet(grid)
	require.Len(t, fights, 1)
	require.Len(t, fights[0].Questions, 6)
	assert.Equal(t, 10, fights[0].Questions[5].Nominal)
	assert.Equal(t, "Кино", fights[0].Questions[5].Theme)
	assert.Equal(t, []int{-10}, fights[0].Questions[5].Deltas)
}

func TestParseCodedSheetIgnoresBlocksWithoutPlayers(t *testing.T) {
	grid := Grid{
		{"S01E01F01", ""},
		{"", ""},
		{"", ""},
		{"Тема", "10"},
	}
	assert.Empty(t, ParseCodedSheet(grid))
}
