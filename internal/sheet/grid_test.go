package sheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVRaggedRows(t *testing.T) {
	grid, err := ReadCSV(strings.NewReader("a,b,c\nd\n,e,f,g\n"))
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Len(t, grid[1], 1)
	assert.Len(t, grid[2], 4)
}

func TestCellOutOfRange(t *testing.T) {
	grid := Grid{{"a", "10"}}
	assert.Equal(t, "a", grid.Cell(0, 0))
	assert.Equal(t, "", grid.Cell(0, 5))
	assert.Equal(t, "", grid.Cell(3, 0))
	assert.Equal(t, "", grid.Cell(-1, 0))
	assert.Equal(t, 10, grid.CellInt(0, 1))
	assert.Equal(t, 0, grid.CellInt(2, 2))
}

func TestParseWaffle(t *testing.T) {
	body := `<html><body>
<table class="other"><tr><td>noise</td></tr></table>
<table class="waffle">
<tr><th>S01E01F01</th><td colspan="3"></td></tr>
<tr><td>Тема</td><td>Анна<br>Борис</td><td>10</td><td>-10</td></tr>
</table>
</body></html>`

	grids, err := ParseWaffle(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, grids, 1)

	grid := grids[0]
	require.Len(t, grid, 2)
	assert.Equal(t, []string{"S01E01F01", "", "", ""}, grid[0])
	assert.Equal(t, "Анна\nБорис", grid.Cell(1, 1))
	assert.Equal(t, -10, grid.CellInt(1, 3))
}

func TestParseWaffleNoTable(t *testing.T) {
	_, err := ParseWaffle(strings.NewReader("<html><body><p>empty</p></body></html>"))
	assert.Error(t, err)
}
