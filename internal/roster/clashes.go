package roster

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/panenka-league/results-cli/internal/sheet"
)

// The aggregate "clashes" sheet keys tours by row (labels like "S02E03") and
// fights by numeric column header. Each cell lists the fight's players in
// finishing order together with scoring fragments, e.g.
// "Имя 320 (440/-120, 15/4)"; only the leading name is wanted.
var (
	clashRowRe   = regexp.MustCompile(`(?i)^s?(\d{2})e(\d{2})$`)
	playerLineRe = regexp.MustCompile(`^(.+?)\s+[+\-−]?\d`)
)

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalizeClashLine(value string) string {
	value = strings.ReplaceAll(value, "−", "-")
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(value), " ")
}

// extractPlayerNames pulls the player names out of one clashes cell, dropping
// host and miss markers.
func extractPlayerNames(block string) []string {
	var names []string
	for _, line := range strings.Split(block, "\n") {
		candidate := normalizeClashLine(line)
		if candidate == "" {
			continue
		}
		match := playerLineRe.FindStringSubmatch(candidate)
		if match == nil {
			continue
		}
		name := normalizeClashLine(match[1])
		if name == "" {
			continue
		}
		switch strings.ToLower(name) {
		case "host", "miss":
			continue
		}
		names = append(names, name)
	}
	return names
}

// ParseClashes converts a clashes grid into rosters keyed by tour and fight.
func ParseClashes(grid sheet.Grid) Rosters {
	rosters := make(Rosters)
	if len(grid) == 0 {
		return rosters
	}

	header := grid[0]
	type fightColumn struct {
		index int
		fight int
	}
	var columns []fightColumn
	for index := 1; index < len(header); index++ {
		label := strings.TrimSpace(header[index])
		if label == "" {
			continue
		}
		fight, err := strconv.Atoi(label)
		if err != nil {
			continue
		}
		columns = append(columns, fightColumn{index: index, fight: fight})
	}
	if len(columns) == 0 {
		return rosters
	}

	for _, row := range grid[1:] {
		if len(row) == 0 {
			continue
		}
		code := strings.TrimSpace(row[0])
		match := clashRowRe.FindStringSubmatch(code)
		if match == nil {
			continue
		}
		tour, _ := strconv.Atoi(match[2])

		for _, column := range columns {
			if column.index >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[column.index])
			if cell == "" {
				continue
			}
			if participants := extractPlayerNames(cell); len(participants) > 0 {
				rosters[Key{Tour: tour, Fight: column.fight}] = participants
			}
		}
	}
	return rosters
}

// LoadClashes reads a clashes CSV export and parses it into rosters.
func LoadClashes(path string) (Rosters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: open %s", path)
	}
	defer f.Close()

	grid, err := sheet.ReadCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: read clashes %s", path)
	}
	return ParseClashes(grid), nil
}
