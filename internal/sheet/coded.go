package sheet

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
)

var fightCodeRe = regexp.MustCompile(`^(?i)S(\d{2})E(\d{2})F(\d{2})$`)

// themeGuardPrefixes mark footer/summary rows that must never be picked up
// as question themes.
var themeGuardPrefixes = []string{
	"после",
	"нажатия",
	"сумма",
	"плюсы",
	"минусы",
	"всего",
	"count",
}

// FightCode holds the components of a S{SS}E{TT}F{FF} identifier.
type FightCode struct {
	Season int
	Tour   int
	Fight  int
}

// String renders the canonical zero-padded form.
func (c FightCode) String() string {
	return "S" + pad2(c.Season) + "E" + pad2(c.Tour) + "F" + pad2(c.Fight)
}

func pad2(n int) string {
	if n < 10 && n >= 0 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ParseFightCode parses a fight code such as "S01E02F03".
func ParseFightCode(code string) (FightCode, error) {
	m := fightCodeRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return FightCode{}, eris.Errorf("sheet: unrecognised fight code %q", code)
	}
	season, _ := strconv.Atoi(m[1])
	tour, _ := strconv.Atoi(m[2])
	fight, _ := strconv.Atoi(m[3])
	return FightCode{Season: season, Tour: tour, Fight: fight}, nil
}

// CodedQuestion is a question row from a season-1 style sheet, including the
// theme carried forward from preceding theme cells.
type CodedQuestion struct {
	Nominal  int
	Theme    string
	Deltas   []int
	RowIndex int
}

// CodedFight is a fight block addressed by an explicit fight-code header.
type CodedFight struct {
	Code         FightCode
	FightCode    string
	StartColumn  int
	EndColumn    int
	PlayerNames  []string
	PlayerTotals []int
	Questions    []CodedQuestion
}

// ColumnRange renders the block's column span in A1 letters, e.g. "B:F".
func (f CodedFight) ColumnRange() string {
	end := f.EndColumn - 1
	if end < f.StartColumn {
		end = f.StartColumn
	}
	return ColumnLetter(f.StartColumn) + ":" + ColumnLetter(end)
}

// ColumnLetter converts a zero-based column index into A1 letters.
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	result := ""
	for {
		remainder := index % 26
		result = string(rune('A'+remainder)) + result
		index = index / 26
		if index == 0 {
			return result
		}
		index--
	}
}

// ParseCodedSheet extracts fights from a season-1 style grid where the header
// row labels every block with its fight code, row 1 holds player names, row 2
// totals, and question rows start at row 3.
func ParseCodedSheet(grid Grid) []CodedFight {
	if len(grid) == 0 {
		return nil
	}
	header := grid[0]
	var startColumns []int
	for idx, cell := range header {
		if fightCodeRe.MatchString(strings.TrimSpace(cell)) {
			startColumns = append(startColumns, idx)
		}
	}

	var fights []CodedFight
	for pos, start := range startColumns {
		nextStart := len(header)
		if pos+1 < len(startColumns) {
			nextStart = startColumns[pos+1]
		}
		end := detectBlockEnd(grid, start, nextStart)
		names, totals, playerCols := extractPlayers(grid, start, end)
		if len(names) == 0 {
			continue
		}
		nominalCol := detectNominalColumn(grid, start, end)
		questions := extractQuestions(grid, start, nominalCol, playerCols)
		if len(questions) == 0 {
			continue
		}
		raw := strings.TrimSpace(header[start])
		code, err := ParseFightCode(raw)
		if err != nil {
			continue
		}
		fights = append(fights, CodedFight{
			Code:         code,
			FightCode:    raw,
			StartColumn:  start,
			EndColumn:    end,
			PlayerNames:  names,
			PlayerTotals: totals,
			Questions:    questions,
		})
	}
	return fights
}

func detectBlockEnd(grid Grid, start, nextStart int) int {
	for col := start + 1; col < nextStart; col++ {
		if isBlankColumn(grid, col) {
			return col
		}
	}
	return nextStart
}

func isBlankColumn(grid Grid, col int) bool {
	for row := range grid {
		if strings.TrimSpace(grid.Cell(row, col)) != "" {
			return false
		}
	}
	return true
}

func extractPlayers(grid Grid, start, end int) ([]string, []int, []int) {
	var names []string
	var totals []int
	var columns []int
	for col := start + 1; col < end; col++ {
		name := strings.TrimSpace(grid.Cell(1, col))
		if name == "" {
			continue
		}
		switch strings.ToLower(name) {
		case "номинал", "темы":
			continue
		}
		names = append(names, name)
		totals = append(totals, grid.CellInt(totalsRow, col))
		columns = append(columns, col)
	}
	return names, totals, columns
}

// detectNominalColumn prefers an explicit "номинал" header; otherwise the
// column with the most nominal marker hits wins.
func detectNominalColumn(grid Grid, start, end int) int {
	for col := start; col < end; col++ {
		if strings.ToLower(strings.TrimSpace(grid.Cell(1, col))) == "номинал" {
			return col
		}
	}
	bestColumn := end - 1
	bestHits := -1
	for col := start; col < end; col++ {
		hits := 0
		for row := 3; row < len(grid); row++ {
			if isNominalMarker(strings.TrimSpace(grid.Cell(row, col))) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestColumn = col
		}
	}
	return bestColumn
}

func extractQuestions(grid Grid, start, nominalCol int, playerCols []int) []CodedQuestion {
	var questions []CodedQuestion
	currentTheme := ""
	for rowIndex := 3; rowIndex < len(grid); rowIndex++ {
		nominalRaw := strings.TrimSpace(grid.Cell(rowIndex, nominalCol))
		if isNominalMarker(nominalRaw) {
			theme := resolveTheme(grid, rowIndex, start, nominalCol)
			if theme == "" {
				theme = currentTheme
			}
			if theme == "" {
				continue
			}
			currentTheme = theme
			deltas := make([]int, len(playerCols))
			for i, col := range playerCols {
				deltas[i] = grid.CellInt(rowIndex, col)
			}
			questions = append(questions, CodedQuestion{
				Nominal:  CoerceInt(nominalRaw),
				Theme:    currentTheme,
				Deltas:   deltas,
				RowIndex: rowIndex,
			})
			continue
		}
		if theme := resolveTheme(grid, rowIndex, start, nominalCol); theme != "" {
			currentTheme = theme
		}
	}
	return questions
}

func resolveTheme(grid Grid, row, start, nominalCol int) string {
	for col := start; col < nominalCol; col++ {
		if value := grid.Cell(row, col); looksLikeTheme(value) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func looksLikeTheme(value string) bool {
	stripped := strings.TrimSpace(value)
	if stripped == "" {
		return false
	}
	lowered := strings.ToLower(stripped)
	for _, prefix := range themeGuardPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return false
		}
	}
	if isNumericToken(stripped) {
		return false
	}
	for _, r := range stripped {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isNumericToken(s string) bool {
	cleaned := strings.TrimSpace(numericCleaner.Replace(s))
	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" {
		return false
	}
	if _, err := strconv.Atoi(cleaned); err == nil {
		return true
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(cleaned, ",", "."), 64)
	return err == nil
}
