package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrateSeedsBaselineSeasons(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A second migrate must be a no-op.
	require.NoError(t, s.Migrate(ctx))

	rows, err := s.DB().QueryContext(ctx, `SELECT season_number, slug FROM seasons ORDER BY season_number`)
	require.NoError(t, err)
	defer rows.Close()

	seasons := map[int]string{}
	for rows.Next() {
		var number int
		var slug string
		require.NoError(t, rows.Scan(&number, &slug))
		seasons[number] = slug
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, map[int]string{1: "01", 2: "02"}, seasons)
}

func TestEnsureSeasonAndTour(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seasonID, err := s.EnsureSeason(ctx, s.DB(), 2)
	require.NoError(t, err)
	again, err := s.EnsureSeason(ctx, s.DB(), 2)
	require.NoError(t, err)
	assert.Equal(t, seasonID, again)

	tourID, err := s.EnsureTour(ctx, s.DB(), seasonID, 3, nil)
	require.NoError(t, err)

	gid := int64(12345)
	sameTour, err := s.EnsureTour(ctx, s.DB(), seasonID, 3, &gid)
	require.NoError(t, err)
	assert.Equal(t, tourID, sameTour)

	var stored int64
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT gid FROM tours WHERE id = ?`, tourID).Scan(&stored))
	assert.Equal(t, gid, stored)
}

func TestDeleteFightCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seasonID, err := s.EnsureSeason(ctx, s.DB(), 2)
	require.NoError(t, err)
	tourID, err := s.EnsureTour(ctx, s.DB(), seasonID, 1, nil)
	require.NoError(t, err)

	importID, err := s.CreateImport(ctx, "test", "manifest.json", 2)
	require.NoError(t, err)

	fightID, err := s.InsertFight(ctx, s.DB(), Fight{
		TourID:      tourID,
		FightNumber: 1,
		Ordinal:     1,
		FightCode:   "S02E01F01",
		ImportID:    importID,
	})
	require.NoError(t, err)

	participantID, err := s.InsertParticipant(ctx, s.DB(), Participant{
		FightID:        fightID,
		DisplayName:    "Seat 1",
		NormalizedName: "s02e01f01_seat1",
		SeatIndex:      1,
		TotalScore:     120,
	})
	require.NoError(t, err)

	questionID, err := s.InsertQuestion(ctx, s.DB(), Question{
		FightID:       fightID,
		QuestionOrder: 1,
		Nominal:       10,
		SourceRow:     3,
	})
	require.NoError(t, err)

	require.NoError(t, s.InsertQuestionResult(ctx, s.DB(), questionID, participantID, 10, true))

	// Force the delete onto a fresh connection; cascades rely on the DSN
	// enabling foreign keys for every connection, not just the first.
	s.DB().SetMaxIdleConns(0)

	require.NoError(t, s.DeleteFightByCode(ctx, s.DB(), "S02E01F01"))

	for _, table := range []string{"fights", "fight_participants", "questions", "question_results"} {
		var count int
		require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count))
		assert.Zero(t, count, "table %s", table)
	}
}

func TestImportAuditTrail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateImport(ctx, "season02_csv_snapshot", "data/manifest.json", 2)
	require.NoError(t, err)
	second, err := s.CreateImport(ctx, "fixture", "fights.json", 1)
	require.NoError(t, err)

	require.NoError(t, s.CompleteImport(ctx, first, ImportStatusSuccess, ""))
	require.NoError(t, s.CompleteImport(ctx, second, ImportStatusFailed, "boom"))

	records, err := s.ListImports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := map[int64]ImportRecord{}
	for _, record := range records {
		byID[record.ID] = record
	}

	success := byID[first]
	assert.Equal(t, ImportStatusSuccess, success.Status)
	require.NotNil(t, success.FinishedAt)
	assert.Nil(t, success.Message)

	failed := byID[second]
	assert.Equal(t, ImportStatusFailed, failed.Status)
	require.NotNil(t, failed.Message)
	assert.Equal(t, "boom", *failed.Message)

	limited, err := s.ListImports(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
