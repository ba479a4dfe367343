package importer

import (
	"context"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/names"
	"github.com/panenka-league/results-cli/internal/sheet"
	"github.com/panenka-league/results-cli/internal/store"
)

// ImportCoded writes fights parsed from a coded legacy sheet into the store,
// with the same replace-by-fight-code semantics as a season import. Fights
// may span several tours of one season; a resolver (optional) canonicalizes
// the sheet's player spellings.
func ImportCoded(ctx context.Context, st *store.Store, fights []sheet.CodedFight, resolver *names.Resolver, sourcePath string) (*Summary, error) {
	if len(fights) == 0 {
		return nil, eris.New("importer: coded sheet holds no fights")
	}
	seasonNumber := fights[0].Code.Season
	for _, fight := range fights {
		if fight.Code.Season != seasonNumber {
			return nil, eris.Errorf("importer: coded sheet mixes seasons %d and %d", seasonNumber, fight.Code.Season)
		}
	}

	byTour := make(map[int][]sheet.CodedFight)
	for _, fight := range fights {
		byTour[fight.Code.Tour] = append(byTour[fight.Code.Tour], fight)
	}
	tourNumbers := make([]int, 0, len(byTour))
	for tourNumber := range byTour {
		tourNumbers = append(tourNumbers, tourNumber)
	}
	sort.Ints(tourNumbers)

	summary := &Summary{ToursAttempted: len(tourNumbers)}

	seasonID, err := st.EnsureSeason(ctx, st.DB(), seasonNumber)
	if err != nil {
		return nil, err
	}
	source := fmt.Sprintf("legacy_coded_season_%02d", seasonNumber)
	importID, err := st.CreateImport(ctx, source, sourcePath, seasonNumber)
	if err != nil {
		return nil, err
	}

	tx, err := st.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	runErr := func() error {
		for _, tourNumber := range tourNumbers {
			tourID, err := st.EnsureTour(ctx, tx, seasonID, tourNumber, nil)
			if err != nil {
				return err
			}

			for _, fight := range byTour[tourNumber] {
				if err := importCodedFight(ctx, st, tx, importID, tourID, fight, resolver, sourcePath, summary); err != nil {
					return err
				}
			}
			summary.ToursImported++
		}
		return nil
	}()

	if runErr != nil {
		if err := tx.Rollback(); err != nil {
			zap.L().Error("rollback failed", zap.Error(err))
		}
		if err := st.CompleteImport(ctx, importID, store.ImportStatusFailed, runErr.Error()); err != nil {
			zap.L().Error("failed to record import failure", zap.Error(err))
		}
		return nil, runErr
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "importer: commit coded import")
	}
	if err := st.CompleteImport(ctx, importID, store.ImportStatusSuccess, ""); err != nil {
		return nil, err
	}
	return summary, nil
}

func importCodedFight(
	ctx context.Context,
	st *store.Store,
	tx store.DBTX,
	importID, tourID int64,
	fight sheet.CodedFight,
	resolver *names.Resolver,
	sourcePath string,
	summary *Summary,
) error {
	if err := st.DeleteFightByCode(ctx, tx, fight.Code.String()); err != nil {
		return err
	}
	fightID, err := st.InsertFight(ctx, tx, store.Fight{
		TourID:      tourID,
		FightNumber: fight.Code.Fight,
		Ordinal:     fight.Code.Fight,
		FightCode:   fight.Code.String(),
		SourcePath:  sourcePath,
		ImportID:    importID,
	})
	if err != nil {
		return err
	}

	seen := make(map[string]int)
	participantIDs := make([]int64, 0, len(fight.PlayerNames))
	for seatIndex, raw := range fight.PlayerNames {
		seat := seatIndex + 1
		display := names.Sanitize(raw)
		if resolver != nil {
			if canonical, ok := resolver.Canonicalize(raw); ok {
				display = canonical
			}
		}
		if names.IsPlaceholder(display) {
			display = fmt.Sprintf("Неизвестный игрок %d", seat)
		}
		normalized := uniqueNormalized(seen, names.Normalize(display))

		total := 0
		if seatIndex < len(fight.PlayerTotals) {
			total = fight.PlayerTotals[seatIndex]
		}
		id, err := st.InsertParticipant(ctx, tx, store.Participant{
			FightID:        fightID,
			DisplayName:    display,
			NormalizedName: normalized,
			SeatIndex:      seat,
			TotalScore:     total,
		})
		if err != nil {
			return err
		}
		participantIDs = append(participantIDs, id)
	}
	summary.ParticipantsInserted += len(participantIDs)

	for order, question := range fight.Questions {
		questionID, err := st.InsertQuestion(ctx, tx, store.Question{
			FightID:       fightID,
			QuestionOrder: order + 1,
			Nominal:       question.Nominal,
			Theme:         question.Theme,
			SourceRow:     question.RowIndex,
		})
		if err != nil {
			return err
		}
		summary.QuestionsInserted++

		for i, participantID := range participantIDs {
			delta := 0
			if i < len(question.Deltas) {
				delta = question.Deltas[i]
			}
			if err := st.InsertQuestionResult(ctx, tx, questionID, participantID, delta, delta > 0); err != nil {
				return err
			}
			summary.QuestionResultsInserted++
		}
	}
	summary.FightsImported++
	return nil
}

// CodedNames collects every player spelling a coded sheet mentions, in
// reading order, for resolver construction.
func CodedNames(fights []sheet.CodedFight) []string {
	var corpus []string
	for _, fight := range fights {
		corpus = append(corpus, fight.PlayerNames...)
	}
	return corpus
}
