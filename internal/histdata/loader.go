// Package histdata assembles the cross-season historical dataset: it imports
// every configured source into a throwaway database and extracts a compact
// in-memory view of fights and participants, plus the raw-name corpus used
// to build the identity resolver.
package histdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/importer"
	"github.com/panenka-league/results-cli/internal/roster"
	"github.com/panenka-league/results-cli/internal/store"
)

// ParticipantRecord is one seat of a historical fight.
type ParticipantRecord struct {
	Display    string `json:"display" yaml:"display"`
	Normalized string `json:"normalized" yaml:"normalized"`
	Total      int    `json:"total" yaml:"total"`
}

// FightRecord is one historical fight with its participants in seat order.
type FightRecord struct {
	SeasonNumber int                 `json:"season_number" yaml:"season_number"`
	TourNumber   int                 `json:"tour_number" yaml:"tour_number"`
	FightCode    string              `json:"fight_code" yaml:"fight_code"`
	Ordinal      int                 `json:"ordinal" yaml:"ordinal"`
	Letter       string              `json:"letter,omitempty" yaml:"letter,omitempty"`
	Participants []ParticipantRecord `json:"participants" yaml:"participants"`
}

// Dataset is the extracted historical view.
type Dataset struct {
	Fights   []FightRecord `json:"fights" yaml:"fights"`
	Seasons  []int         `json:"seasons" yaml:"seasons"`
	RawNames []string      `json:"-" yaml:"-"`
}

// Sources names everything a dataset build reads.
type Sources struct {
	DataRoot     string
	ManifestPath string
	SeasonNumber int
	RosterPath   string
	ClashesPath  string
	FixturePaths []string
}

// Loader builds the dataset on demand and caches the result keyed by a
// fingerprint of the input files. A changed, added or removed input makes
// the next Load rebuild; Invalidate forces it.
type Loader struct {
	Sources Sources

	mu          sync.Mutex
	cached      *Dataset
	fingerprint string
}

// Invalidate drops the cached dataset.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
	l.fingerprint = ""
}

// Load returns the historical dataset, rebuilding it only when the source
// fingerprint changed since the previous call.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	fingerprint, err := l.computeFingerprint()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cached != nil && l.fingerprint == fingerprint {
		return l.cached, nil
	}

	dataset, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.cached = dataset
	l.fingerprint = fingerprint
	return dataset, nil
}

// computeFingerprint hashes path, size and mtime of every input file. Paths
// that do not exist contribute their absence, so creating a missing file
// later still invalidates the cache.
func (l *Loader) computeFingerprint() (string, error) {
	paths := []string{l.Sources.ManifestPath, l.Sources.RosterPath, l.Sources.ClashesPath}
	paths = append(paths, l.Sources.FixturePaths...)

	if entries, err := importer.LoadManifest(l.Sources.ManifestPath); err == nil {
		tours := make([]int, 0, len(entries))
		for tour := range entries {
			tours = append(tours, tour)
		}
		sort.Ints(tours)
		for _, tour := range tours {
			paths = append(paths, filepath.Join(l.Sources.DataRoot, entries[tour].Filename))
		}
	}

	h := sha256.New()
	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(h, "%s|absent\n", path)
			continue
		}
		fmt.Fprintf(h, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (l *Loader) build(ctx context.Context) (*Dataset, error) {
	workDir, err := os.MkdirTemp("", "histdata-*")
	if err != nil {
		return nil, eris.Wrap(err, "histdata: create scratch dir")
	}
	defer os.RemoveAll(workDir)

	st, err := store.Open(filepath.Join(workDir, "bundle.sqlite3"))
	if err != nil {
		return nil, err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	rosters, err := roster.Resolve(l.Sources.RosterPath, l.Sources.ManifestPath, l.Sources.ClashesPath)
	if err != nil {
		return nil, err
	}

	imp := &importer.Importer{
		Store:        st,
		DataRoot:     l.Sources.DataRoot,
		ManifestPath: l.Sources.ManifestPath,
		SeasonNumber: l.Sources.SeasonNumber,
		Source:       "historical_bundle",
		Rosters:      rosters,
	}
	summary, err := imp.ImportSeason(ctx, nil)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("historical bundle season imported", summary.ZapFields()...)

	for _, fixturePath := range l.Sources.FixturePaths {
		if _, err := os.Stat(fixturePath); err != nil {
			continue
		}
		fixture, err := importer.LoadFixture(fixturePath)
		if err != nil {
			return nil, err
		}
		if _, err := importer.ImportFixture(ctx, st, fixture, fixturePath); err != nil {
			return nil, err
		}
	}

	return extract(ctx, st)
}

func extract(ctx context.Context, st *store.Store) (*Dataset, error) {
	dataset := &Dataset{}
	db := st.DB()

	seasonRows, err := db.QueryContext(ctx, `SELECT season_number FROM seasons ORDER BY season_number`)
	if err != nil {
		return nil, eris.Wrap(err, "histdata: list seasons")
	}
	defer seasonRows.Close()
	for seasonRows.Next() {
		var season int
		if err := seasonRows.Scan(&season); err != nil {
			return nil, eris.Wrap(err, "histdata: scan season")
		}
		dataset.Seasons = append(dataset.Seasons, season)
	}
	if err := seasonRows.Err(); err != nil {
		return nil, eris.Wrap(err, "histdata: list seasons")
	}

	fightRows, err := db.QueryContext(ctx,
		`SELECT f.id, f.fight_code, f.ordinal, COALESCE(f.letter, ''),
		        t.tour_number, s.season_number
		 FROM fights f
		 JOIN tours t ON f.tour_id = t.id
		 JOIN seasons s ON t.season_id = s.id
		 ORDER BY s.season_number, t.tour_number, f.ordinal`)
	if err != nil {
		return nil, eris.Wrap(err, "histdata: list fights")
	}
	defer fightRows.Close()

	type fightRef struct {
		id     int64
		record FightRecord
	}
	var fights []fightRef
	for fightRows.Next() {
		var ref fightRef
		err := fightRows.Scan(
			&ref.id,
			&ref.record.FightCode,
			&ref.record.Ordinal,
			&ref.record.Letter,
			&ref.record.TourNumber,
			&ref.record.SeasonNumber,
		)
		if err != nil {
			return nil, eris.Wrap(err, "histdata: scan fight")
		}
		fights = append(fights, ref)
	}
	if err := fightRows.Err(); err != nil {
		return nil, eris.Wrap(err, "histdata: list fights")
	}

	for _, ref := range fights {
		rows, err := db.QueryContext(ctx,
			`SELECT display_name, normalized_name, total_score
			 FROM fight_participants WHERE fight_id = ? ORDER BY seat_index`,
			ref.id,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "histdata: participants of %s", ref.record.FightCode)
		}
		for rows.Next() {
			var participant ParticipantRecord
			if err := rows.Scan(&participant.Display, &participant.Normalized, &participant.Total); err != nil {
				rows.Close()
				return nil, eris.Wrapf(err, "histdata: scan participant of %s", ref.record.FightCode)
			}
			ref.record.Participants = append(ref.record.Participants, participant)
			dataset.RawNames = append(dataset.RawNames, participant.Display)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, eris.Wrapf(err, "histdata: participants of %s", ref.record.FightCode)
		}
		dataset.Fights = append(dataset.Fights, ref.record)
	}

	return dataset, nil
}
