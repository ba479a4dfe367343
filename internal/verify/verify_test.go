package verify

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panenka-league/results-cli/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "results.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// seedFight writes one structurally complete fight: two seats, five
// questions, a full result cross product, and totals that match the deltas.
func seedFight(t *testing.T, s *store.Store) (participantIDs []int64) {
	t.Helper()
	ctx := context.Background()

	seasonID, err := s.EnsureSeason(ctx, s.DB(), 2)
	require.NoError(t, err)
	tourID, err := s.EnsureTour(ctx, s.DB(), seasonID, 1, nil)
	require.NoError(t, err)
	importID, err := s.CreateImport(ctx, "test", "seed", 2)
	require.NoError(t, err)

	fightID, err := s.InsertFight(ctx, s.DB(), store.Fight{
		TourID:      tourID,
		FightNumber: 1,
		Ordinal:     1,
		FightCode:   "S02E01F01",
		ImportID:    importID,
	})
	require.NoError(t, err)

	deltas := [][]int{
		{10, 20, 30, 40, 50},
		{-10, 0, 30, 0, 0},
	}
	for seat, seatDeltas := range deltas {
		total := 0
		for _, delta := range seatDeltas {
			total += delta
		}
		id, err := s.InsertParticipant(ctx, s.DB(), store.Participant{
			FightID:        fightID,
			DisplayName:    "Seat " + string(rune('1'+seat)),
			NormalizedName: "seat" + string(rune('1'+seat)),
			SeatIndex:      seat + 1,
			TotalScore:     total,
		})
		require.NoError(t, err)
		participantIDs = append(participantIDs, id)
	}

	for q := 0; q < 5; q++ {
		questionID, err := s.InsertQuestion(ctx, s.DB(), store.Question{
			FightID:       fightID,
			QuestionOrder: q + 1,
			Nominal:       (q + 1) * 10,
			SourceRow:     q + 3,
		})
		require.NoError(t, err)
		for seat, id := range participantIDs {
			delta := deltas[seat][q]
			require.NoError(t, s.InsertQuestionResult(ctx, s.DB(), questionID, id, delta, delta > 0))
		}
	}
	return participantIDs
}

func TestVerifyCleanStore(t *testing.T) {
	s := newTestStore(t)
	seedFight(t, s)

	v := &Verifier{Store: s}
	report, err := v.Verify(context.Background())
	require.NoError(t, err)

	assert.True(t, report.IsSuccessful)
	assert.Equal(t, 1, report.FightsChecked)
	assert.Equal(t, 2, report.ParticipantsChecked)
	assert.Equal(t, 5, report.QuestionsChecked)
	assert.Empty(t, report.ParticipantTotalMismatches)
	assert.Empty(t, report.FightStructureIssues)

	_, err = v.AssertValid(context.Background())
	assert.NoError(t, err)
}

func TestVerifyDetectsTotalMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedFight(t, s)

	_, err := s.DB().ExecContext(ctx,
		`UPDATE fight_participants SET total_score = total_score + 100 WHERE id = ?`, ids[0])
	require.NoError(t, err)

	v := &Verifier{Store: s}
	report, err := v.Verify(ctx)
	require.NoError(t, err)

	assert.False(t, report.IsSuccessful)
	require.Len(t, report.ParticipantTotalMismatches, 1)
	mismatch := report.ParticipantTotalMismatches[0]
	assert.Equal(t, "S02E01F01", mismatch.FightCode)
	assert.Equal(t, 1, mismatch.SeatIndex)
	assert.Equal(t, 250, mismatch.RecordedTotal)
	assert.Equal(t, 150, mismatch.ComputedTotal)

	_, err = v.AssertValid(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "participant totals mismatched in 1 record(s)")
}

func TestVerifyDetectsMissingResultRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedFight(t, s)

	// Deleting a zero-delta result keeps the totals intact but breaks the
	// cross product.
	_, err := s.DB().ExecContext(ctx,
		`DELETE FROM question_results WHERE participant_id = ? AND delta = 0 AND id IN (
			SELECT id FROM question_results WHERE participant_id = ? AND delta = 0 LIMIT 1
		)`, ids[1], ids[1])
	require.NoError(t, err)

	v := &Verifier{Store: s}
	report, err := v.Verify(ctx)
	require.NoError(t, err)

	assert.False(t, report.IsSuccessful)
	assert.Empty(t, report.ParticipantTotalMismatches)
	require.Len(t, report.FightStructureIssues, 1)
	issue := report.FightStructureIssues[0]
	assert.Equal(t, 10, issue.ExpectedResults)
	assert.Equal(t, 9, issue.ActualResults)
	assert.Equal(t, 5, issue.ActualQuestions)
}

func TestVerifyDetectsWrongQuestionCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFight(t, s)

	_, err := s.DB().ExecContext(ctx, `DELETE FROM questions WHERE question_order = 5`)
	require.NoError(t, err)

	v := &Verifier{Store: s, ExpectedQuestions: 5}
	report, err := v.Verify(ctx)
	require.NoError(t, err)

	require.Len(t, report.FightStructureIssues, 1)
	issue := report.FightStructureIssues[0]
	assert.Equal(t, 5, issue.ExpectedQuestions)
	assert.Equal(t, 4, issue.ActualQuestions)
}
