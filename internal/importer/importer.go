package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/names"
	"github.com/panenka-league/results-cli/internal/roster"
	"github.com/panenka-league/results-cli/internal/sheet"
	"github.com/panenka-league/results-cli/internal/store"
)

// Importer drives a season import: manifest, per-tour CSV snapshots, roster
// lookups, and transactional writes into the store.
type Importer struct {
	Store        *store.Store
	DataRoot     string
	ManifestPath string
	SeasonNumber int
	Source       string
	Rosters      roster.Rosters
	Resolver     *names.Resolver
}

// ImportSeason imports the requested tours. A nil tour filter means every
// tour the manifest knows. The run is recorded in the imports audit table
// before the write transaction begins, so failed runs keep their trace after
// the rollback.
func (imp *Importer) ImportSeason(ctx context.Context, tours []int) (*Summary, error) {
	manifest, err := LoadManifest(imp.ManifestPath)
	if err != nil {
		return nil, err
	}

	selected := selectTours(manifest, tours)
	summary := &Summary{ToursAttempted: len(selected)}

	seasonID, err := imp.Store.EnsureSeason(ctx, imp.Store.DB(), imp.SeasonNumber)
	if err != nil {
		return nil, err
	}
	importID, err := imp.Store.CreateImport(ctx, imp.Source, imp.ManifestPath, imp.SeasonNumber)
	if err != nil {
		return nil, err
	}

	tx, err := imp.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	runErr := func() error {
		for _, tourNumber := range selected {
			entry, ok := manifest[tourNumber]
			if !ok {
				summary.ToursSkipped++
				continue
			}

			csvPath := filepath.Join(imp.DataRoot, entry.Filename)
			if _, err := os.Stat(csvPath); err != nil {
				zap.L().Warn("tour snapshot missing",
					zap.Int("tour", tourNumber),
					zap.String("path", csvPath))
				summary.ToursSkipped++
				continue
			}

			tourSheet, err := sheet.TourSheetFromCSV(csvPath, tourNumber)
			if err != nil {
				return err
			}

			tourID, err := imp.Store.EnsureTour(ctx, tx, seasonID, tourNumber, gidValue(entry.GID))
			if err != nil {
				return err
			}

			imported, err := imp.importTour(ctx, tx, importID, tourID, tourNumber, tourSheet, csvPath, summary)
			if err != nil {
				return err
			}
			if imported {
				summary.ToursImported++
			} else {
				summary.ToursSkipped++
			}
		}
		return nil
	}()

	if runErr != nil {
		if err := tx.Rollback(); err != nil {
			zap.L().Error("rollback failed", zap.Error(err))
		}
		if err := imp.Store.CompleteImport(ctx, importID, store.ImportStatusFailed, runErr.Error()); err != nil {
			zap.L().Error("failed to record import failure", zap.Error(err))
		}
		return nil, runErr
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "importer: commit season import")
	}
	if err := imp.Store.CompleteImport(ctx, importID, store.ImportStatusSuccess, ""); err != nil {
		return nil, err
	}
	return summary, nil
}

func (imp *Importer) importTour(
	ctx context.Context,
	tx store.DBTX,
	importID, tourID int64,
	tourNumber int,
	tourSheet *sheet.TourSheet,
	csvPath string,
	summary *Summary,
) (bool, error) {
	fights := tourSheet.Fights()
	for _, fight := range fights {
		fightCode := fmt.Sprintf("S%02dE%02dF%02d", imp.SeasonNumber, tourNumber, fight.Ordinal)

		if err := imp.Store.DeleteFightByCode(ctx, tx, fightCode); err != nil {
			return false, err
		}

		fightID, err := imp.Store.InsertFight(ctx, tx, store.Fight{
			TourID:      tourID,
			FightNumber: fight.Ordinal,
			Ordinal:     fight.Ordinal,
			FightCode:   fightCode,
			SourcePath:  csvPath,
			ImportID:    importID,
		})
		if err != nil {
			return false, err
		}

		participantIDs, err := imp.insertParticipants(ctx, tx, fightID, tourNumber, fight)
		if err != nil {
			return false, err
		}
		summary.ParticipantsInserted += len(participantIDs)

		for order, question := range fight.Questions {
			questionID, err := imp.Store.InsertQuestion(ctx, tx, store.Question{
				FightID:       fightID,
				QuestionOrder: order + 1,
				Nominal:       question.Nominal,
				SourceRow:     question.SourceRow,
			})
			if err != nil {
				return false, err
			}
			summary.QuestionsInserted++

			for i, participantID := range participantIDs {
				delta := 0
				if i < len(question.Deltas) {
					delta = question.Deltas[i]
				}
				if err := imp.Store.InsertQuestionResult(ctx, tx, questionID, participantID, delta, delta > 0); err != nil {
					return false, err
				}
				summary.QuestionResultsInserted++
			}
		}
		summary.FightsImported++
	}
	return len(fights) > 0, nil
}

// insertParticipants names each seat from the roster when one is available,
// else with a deterministic placeholder. Normalized names are made unique
// within the fight by suffixing repeats.
func (imp *Importer) insertParticipants(
	ctx context.Context,
	tx store.DBTX,
	fightID int64,
	tourNumber int,
	fight sheet.FightBlock,
) ([]int64, error) {
	rosterNames, _ := imp.Rosters.Players(tourNumber, fight.Ordinal)

	seen := make(map[string]int)
	participantIDs := make([]int64, 0, len(fight.PlayerTotals))
	for seatIndex, total := range fight.PlayerTotals {
		seat := seatIndex + 1
		display, normalized := imp.seatName(rosterNames, seatIndex, tourNumber, fight.Ordinal, seat)
		normalized = uniqueNormalized(seen, normalized)

		id, err := imp.Store.InsertParticipant(ctx, tx, store.Participant{
			FightID:        fightID,
			DisplayName:    display,
			NormalizedName: normalized,
			SeatIndex:      seat,
			TotalScore:     total,
		})
		if err != nil {
			return nil, err
		}
		participantIDs = append(participantIDs, id)
	}
	return participantIDs, nil
}

func (imp *Importer) seatName(rosterNames []string, seatIndex, tourNumber, fightOrdinal, seat int) (string, string) {
	if seatIndex < len(rosterNames) {
		raw := rosterNames[seatIndex]
		if imp.Resolver != nil {
			if display, ok := imp.Resolver.Canonicalize(raw); ok {
				return display, names.Normalize(display)
			}
		} else if !names.IsPlaceholder(raw) {
			display := names.Sanitize(raw)
			return display, names.Normalize(display)
		}
	}
	display := fmt.Sprintf("Seat %d", seat)
	normalized := fmt.Sprintf("s%02de%02df%02d_seat%d", imp.SeasonNumber, tourNumber, fightOrdinal, seat)
	return display, normalized
}

// uniqueNormalized suffixes repeated normalized names with #2, #3, ... so
// the per-fight uniqueness constraint holds even when a roster repeats a
// spelling.
func uniqueNormalized(seen map[string]int, normalized string) string {
	seen[normalized]++
	if count := seen[normalized]; count > 1 {
		return fmt.Sprintf("%s#%d", normalized, count)
	}
	return normalized
}

func selectTours(manifest map[int]ManifestEntry, tours []int) []int {
	if tours == nil {
		selected := make([]int, 0, len(manifest))
		for tourNumber := range manifest {
			selected = append(selected, tourNumber)
		}
		sort.Ints(selected)
		return selected
	}

	unique := make(map[int]struct{}, len(tours))
	for _, tourNumber := range tours {
		unique[tourNumber] = struct{}{}
	}
	selected := make([]int, 0, len(unique))
	for tourNumber := range unique {
		selected = append(selected, tourNumber)
	}
	sort.Ints(selected)
	return selected
}

func gidValue(gid string) *int64 {
	if gid == "" {
		return nil
	}
	value, err := strconv.ParseInt(gid, 10, 64)
	if err != nil {
		return nil
	}
	return &value
}
