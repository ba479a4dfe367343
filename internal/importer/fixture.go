package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/names"
	"github.com/panenka-league/results-cli/internal/sheet"
	"github.com/panenka-league/results-cli/internal/store"
)

// Fixture is a hand-curated season results file, used for seasons that were
// never exported as CSV snapshots.
type Fixture struct {
	SeasonNumber int           `json:"season_number"`
	Tours        []FixtureTour `json:"tours"`
}

// FixtureTour holds one tour's fights.
type FixtureTour struct {
	TourNumber int            `json:"tour_number"`
	GID        *int64         `json:"gid,omitempty"`
	Fights     []FixtureFight `json:"fights"`
}

// FixtureFight mirrors one fight: coded identity, seats and questions.
type FixtureFight struct {
	Code      string            `json:"code"`
	Letter    string            `json:"letter,omitempty"`
	Players   []FixturePlayer   `json:"players"`
	Questions []FixtureQuestion `json:"questions"`
}

// FixturePlayer is one seat, in seat order.
type FixturePlayer struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// FixtureQuestion is one question with per-seat results in seat order.
type FixtureQuestion struct {
	Order   int             `json:"order"`
	Nominal int             `json:"nominal"`
	Theme   string          `json:"theme,omitempty"`
	Results []FixtureResult `json:"results"`
}

// FixtureResult is one seat's outcome on a question.
type FixtureResult struct {
	Delta     int  `json:"delta"`
	IsCorrect bool `json:"is_correct"`
}

// LoadFixture reads and decodes a season fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: read fixture %s", path)
	}
	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, eris.Wrapf(err, "importer: parse fixture %s", path)
	}
	if fixture.SeasonNumber == 0 {
		fixture.SeasonNumber = 1
	}
	return &fixture, nil
}

// ImportFixture writes a fixture into the store with the same transactional
// and delete-then-insert semantics as a season import.
func ImportFixture(ctx context.Context, st *store.Store, fixture *Fixture, sourcePath string) (*Summary, error) {
	summary := &Summary{ToursAttempted: len(fixture.Tours)}

	seasonID, err := st.EnsureSeason(ctx, st.DB(), fixture.SeasonNumber)
	if err != nil {
		return nil, err
	}
	source := fmt.Sprintf("fixture_season_%02d", fixture.SeasonNumber)
	importID, err := st.CreateImport(ctx, source, sourcePath, fixture.SeasonNumber)
	if err != nil {
		return nil, err
	}

	tx, err := st.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	runErr := func() error {
		for _, tour := range fixture.Tours {
			tourID, err := st.EnsureTour(ctx, tx, seasonID, tour.TourNumber, tour.GID)
			if err != nil {
				return err
			}

			imported := 0
			for _, fight := range tour.Fights {
				if fight.Code == "" {
					summary.FightsSkipped++
					continue
				}
				code, err := sheet.ParseFightCode(fight.Code)
				if err != nil {
					return eris.Wrapf(err, "importer: fixture tour %d", tour.TourNumber)
				}

				if err := st.DeleteFightByCode(ctx, tx, code.String()); err != nil {
					return err
				}
				fightID, err := st.InsertFight(ctx, tx, store.Fight{
					TourID:      tourID,
					FightNumber: code.Fight,
					Ordinal:     code.Fight,
					FightCode:   code.String(),
					Letter:      fight.Letter,
					SourcePath:  sourcePath,
					ImportID:    importID,
				})
				if err != nil {
					return err
				}

				participantIDs, err := insertFixtureParticipants(ctx, st, tx, fightID, fight.Players, summary)
				if err != nil {
					return err
				}

				for _, question := range fight.Questions {
					questionID, err := st.InsertQuestion(ctx, tx, store.Question{
						FightID:       fightID,
						QuestionOrder: question.Order,
						Nominal:       question.Nominal,
						Theme:         question.Theme,
					})
					if err != nil {
						return err
					}
					summary.QuestionsInserted++

					for i, result := range question.Results {
						if i >= len(participantIDs) {
							break
						}
						if err := st.InsertQuestionResult(ctx, tx, questionID, participantIDs[i], result.Delta, result.IsCorrect); err != nil {
							return err
						}
						summary.QuestionResultsInserted++
					}
				}
				summary.FightsImported++
				imported++
			}
			if imported > 0 {
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
		if err := st.CompleteImport(ctx, importID, store.ImportStatusFailed, runErr.Error()); err != nil {
			zap.L().Error("failed to record import failure", zap.Error(err))
		}
		return nil, runErr
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "importer: commit fixture import")
	}
	if err := st.CompleteImport(ctx, importID, store.ImportStatusSuccess, ""); err != nil {
		return nil, err
	}
	return summary, nil
}

func insertFixtureParticipants(
	ctx context.Context,
	st *store.Store,
	tx store.DBTX,
	fightID int64,
	players []FixturePlayer,
	summary *Summary,
) ([]int64, error) {
	seen := make(map[string]int)
	participantIDs := make([]int64, 0, len(players))
	for seatIndex, player := range players {
		seat := seatIndex + 1
		display := names.Sanitize(player.Name)
		if display == "" || display == "-" || display == "--" || display == "—" {
			display = fmt.Sprintf("Неизвестный игрок %d", seat)
		}
		normalized := uniqueNormalized(seen, names.Normalize(display))

		id, err := st.InsertParticipant(ctx, tx, store.Participant{
			FightID:        fightID,
			DisplayName:    display,
			NormalizedName: normalized,
			SeatIndex:      seat,
			TotalScore:     player.Total,
		})
		if err != nil {
			return nil, err
		}
		participantIDs = append(participantIDs, id)
	}
	summary.ParticipantsInserted += len(participantIDs)
	return participantIDs, nil
}
