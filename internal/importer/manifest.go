package importer

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
)

// ManifestEntry describes one downloaded worksheet snapshot.
type ManifestEntry struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	GID      string `json:"gid"`
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
}

// LoadManifest reads a snapshot manifest and returns the tour worksheets
// keyed by tour number. Worksheets are matched by a name starting with
// "tour" (case-insensitive); the tour number is the concatenation of the
// digits in the name. Other worksheets are ignored.
func LoadManifest(path string) (map[int]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: read manifest %s", path)
	}

	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrapf(err, "importer: parse manifest %s", path)
	}

	tours := make(map[int]ManifestEntry)
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" || !strings.HasPrefix(strings.ToLower(name), "tour") {
			continue
		}
		var digits strings.Builder
		for _, r := range name {
			if unicode.IsDigit(r) {
				digits.WriteRune(r)
			}
		}
		if digits.Len() == 0 {
			continue
		}
		tourNumber, err := strconv.Atoi(digits.String())
		if err != nil {
			continue
		}
		tours[tourNumber] = entry
	}
	return tours, nil
}
