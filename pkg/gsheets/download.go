package gsheets

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/panenka-league/results-cli/internal/sheet"
)

// ManifestEntry describes one downloaded worksheet in manifest.json.
type ManifestEntry struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	GID      string `json:"gid"`
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
}

// cyrillicTranslit approximates Cyrillic letters in ASCII for slugs.
var cyrillicTranslit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

var slugSeparatorRe = regexp.MustCompile(`[^0-9a-zA-Z]+`)

// asciiFold strips combining marks after NFKD decomposition and drops
// anything still outside ASCII.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Slug derives an ASCII filename fragment from a worksheet name. Empty
// results fall back to the gid.
func (w Worksheet) Slug() string {
	var sb strings.Builder
	for _, r := range w.Name {
		if replacement, ok := cyrillicTranslit[unicode.ToLower(r)]; ok {
			if unicode.IsUpper(r) && replacement != "" {
				replacement = strings.ToUpper(replacement[:1]) + replacement[1:]
			}
			sb.WriteString(replacement)
			continue
		}
		sb.WriteRune(r)
	}

	folded, _, err := transform.String(asciiFold, sb.String())
	if err != nil {
		folded = sb.String()
	}
	var ascii strings.Builder
	for _, r := range folded {
		if r < 128 {
			ascii.WriteRune(r)
		}
	}

	slug := slugSeparatorRe.ReplaceAllString(ascii.String(), "_")
	slug = strings.ToLower(strings.Trim(slug, "_"))
	if slug == "" {
		return "sheet_" + w.GID
	}
	return slug
}

// DownloadAll snapshots every worksheet of a spreadsheet: CSVs go into a
// csv/ subdirectory as NN_slug.csv, and manifest.json in the destination
// lists them. Returns the manifest entries in worksheet order.
func (c *Client) DownloadAll(ctx context.Context, spreadsheetID, destination string) ([]ManifestEntry, error) {
	csvDir := filepath.Join(destination, "csv")
	if err := os.MkdirAll(csvDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "gsheets: create %s", csvDir)
	}

	worksheets, err := c.Catalog(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	manifest := make([]ManifestEntry, 0, len(worksheets))
	for i, worksheet := range worksheets {
		grid, err := c.FetchCSV(ctx, spreadsheetID, worksheet.GID)
		if err != nil {
			return nil, err
		}

		filename := fmt.Sprintf("%02d_%s.csv", i+1, worksheet.Slug())
		path := filepath.Join(csvDir, filename)
		if err := writeCSV(path, grid); err != nil {
			return nil, err
		}

		zap.L().Info("saved worksheet snapshot",
			zap.String("name", worksheet.Name),
			zap.String("gid", worksheet.GID),
			zap.String("path", path),
			zap.Int("rows", len(grid)))

		manifest = append(manifest, ManifestEntry{
			Index:    i + 1,
			Name:     worksheet.Name,
			GID:      worksheet.GID,
			Filename: filename,
			Rows:     len(grid),
		})
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "gsheets: marshal manifest")
	}
	manifestPath := filepath.Join(destination, "manifest.json")
	if err := os.WriteFile(manifestPath, append(data, '\n'), 0o644); err != nil {
		return nil, eris.Wrapf(err, "gsheets: write %s", manifestPath)
	}
	return manifest, nil
}

func writeCSV(path string, grid sheet.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "gsheets: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range grid {
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "gsheets: write %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "gsheets: flush %s", path)
	}
	return eris.Wrapf(f.Close(), "gsheets: close %s", path)
}
