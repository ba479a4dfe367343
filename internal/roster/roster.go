// Package roster loads externally supplied fight rosters: ordered player
// lists keyed by tour and fight number, used to name seats that the result
// sheets themselves leave anonymous.
package roster

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/sheet"
)

// Key identifies one fight inside a season.
type Key struct {
	Tour  int
	Fight int
}

// Rosters maps fights to their ordered participant names.
type Rosters map[Key][]string

// Players returns the roster for a fight, if one is known.
func (r Rosters) Players(tour, fight int) ([]string, bool) {
	players, ok := r[Key{Tour: tour, Fight: fight}]
	return players, ok
}

// Keys returns the known fights in (tour, fight) order.
func (r Rosters) Keys() []Key {
	keys := make([]Key, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Tour != keys[j].Tour {
			return keys[i].Tour < keys[j].Tour
		}
		return keys[i].Fight < keys[j].Fight
	})
	return keys
}

// ParseJSON decodes roster data in any of the shapes the export tooling has
// produced over time: a nested tour → fight map, a flat list of
// {tour, fight, players} records, or a map keyed by full fight codes.
func ParseJSON(data []byte) (Rosters, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return Rosters{}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		return parseFlatList(data)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, eris.Wrap(err, "roster: decode json")
	}

	rosters := make(Rosters)
	for key, raw := range top {
		if code, err := sheet.ParseFightCode(key); err == nil {
			players, err := decodePlayers(raw)
			if err != nil {
				return nil, eris.Wrapf(err, "roster: fight %s", key)
			}
			rosters[Key{Tour: code.Tour, Fight: code.Fight}] = players
			continue
		}

		tour, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, eris.Errorf("roster: unrecognized top-level key %q", key)
		}
		var fights map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fights); err != nil {
			return nil, eris.Wrapf(err, "roster: tour %d", tour)
		}
		for fightKey, fightRaw := range fights {
			fight, err := parseFightKey(fightKey)
			if err != nil {
				return nil, eris.Wrapf(err, "roster: tour %d", tour)
			}
			players, err := decodePlayers(fightRaw)
			if err != nil {
				return nil, eris.Wrapf(err, "roster: tour %d fight %d", tour, fight)
			}
			rosters[Key{Tour: tour, Fight: fight}] = players
		}
	}
	return rosters, nil
}

// LoadJSON reads and decodes a roster file.
func LoadJSON(path string) (Rosters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: read %s", path)
	}
	rosters, err := ParseJSON(data)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: parse %s", path)
	}
	return rosters, nil
}

// Resolve walks the fallback chain: an explicitly configured roster file, a
// rosters.json next to the manifest, then the aggregate clashes sheet. A
// missing source is skipped, not an error; only a present-but-broken source
// fails the resolution.
func Resolve(explicitPath, manifestPath, clashesPath string) (Rosters, error) {
	if explicitPath != "" {
		return LoadJSON(explicitPath)
	}

	if manifestPath != "" {
		sibling := filepath.Join(filepath.Dir(manifestPath), "rosters.json")
		if _, err := os.Stat(sibling); err == nil {
			zap.L().Debug("using sibling roster file", zap.String("path", sibling))
			return LoadJSON(sibling)
		}
	}

	if clashesPath != "" {
		if _, err := os.Stat(clashesPath); err == nil {
			return LoadClashes(clashesPath)
		}
	}

	return Rosters{}, nil
}

func parseFlatList(data []byte) (Rosters, error) {
	var records []struct {
		Tour    int      `json:"tour"`
		Fight   int      `json:"fight"`
		Players []string `json:"players"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "roster: decode json list")
	}
	rosters := make(Rosters, len(records))
	for _, record := range records {
		rosters[Key{Tour: record.Tour, Fight: record.Fight}] = record.Players
	}
	return rosters, nil
}

func parseFightKey(key string) (int, error) {
	key = strings.TrimSpace(key)
	if code, err := sheet.ParseFightCode(key); err == nil {
		return code.Fight, nil
	}
	fight, err := strconv.Atoi(key)
	if err != nil {
		return 0, eris.Errorf("unrecognized fight key %q", key)
	}
	return fight, nil
}

func decodePlayers(raw json.RawMessage) ([]string, error) {
	var players []string
	if err := json.Unmarshal(raw, &players); err != nil {
		return nil, eris.Wrap(err, "decode player list")
	}
	return players, nil
}
