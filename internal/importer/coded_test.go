package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panenka-league/results-cli/internal/names"
	"github.com/panenka-league/results-cli/internal/sheet"
)

func codedFights() []sheet.CodedFight {
	return []sheet.CodedFight{
		{
			Code:        sheet.FightCode{Season: 1, Tour: 2, Fight: 1},
			PlayerNames:  []string{"Руслан Огородник", "Борис Галкин"},
			PlayerTotals: []int{30, -10},
			Questions: []sheet.CodedQuestion{
				{Nominal: 10, Theme: "История", Deltas: []int{10, -10}, RowIndex: 3},
				{Nominal: 20, Theme: "История", Deltas: []int{20, 0}, RowIndex: 4},
			},
		},
		{
			Code:         sheet.FightCode{Season: 1, Tour: 2, Fight: 2},
			PlayerNames:  []string{"Огородник Руслан", "-"},
			PlayerTotals: []int{50, 0},
			Questions: []sheet.CodedQuestion{
				{Nominal: 50, Theme: "Кино", Deltas: []int{50, 0}, RowIndex: 3},
			},
		},
	}
}

func TestImportCoded(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	fights := codedFights()

	resolver := names.NewResolver()
	resolver.Build(CodedNames(fights))

	summary, err := ImportCoded(ctx, s, fights, resolver, "snapshot.html")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ToursAttempted)
	assert.Equal(t, 1, summary.ToursImported)
	assert.Equal(t, 2, summary.FightsImported)
	assert.Equal(t, 4, summary.ParticipantsInserted)
	assert.Equal(t, 3, summary.QuestionsInserted)
	assert.Equal(t, 6, summary.QuestionResultsInserted)

	var theme string
	var sourceRow int
	err = s.DB().QueryRowContext(ctx,
		`SELECT q.theme, q.source_row FROM questions q
		 JOIN fights f ON q.fight_id = f.id
		 WHERE f.fight_code = 'S01E02F02'`).Scan(&theme, &sourceRow)
	require.NoError(t, err)
	assert.Equal(t, "Кино", theme)
	assert.Equal(t, 3, sourceRow)

	// Both spellings of the same player resolve to one display form.
	var display string
	err = s.DB().QueryRowContext(ctx,
		`SELECT p.display_name FROM fight_participants p
		 JOIN fights f ON p.fight_id = f.id
		 WHERE f.fight_code = 'S01E02F02' AND p.seat_index = 1`).Scan(&display)
	require.NoError(t, err)
	assert.Equal(t, "Руслан Огородник", display)

	// Placeholder seat names fall back to a numbered unknown.
	err = s.DB().QueryRowContext(ctx,
		`SELECT p.display_name FROM fight_participants p
		 JOIN fights f ON p.fight_id = f.id
		 WHERE f.fight_code = 'S01E02F02' AND p.seat_index = 2`).Scan(&display)
	require.NoError(t, err)
	assert.Equal(t, "Неизвестный игрок 2", display)

	records, err := s.ListImports(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "legacy_coded_season_01", records[0].Source)
	assert.Equal(t, "success", records[0].Status)
}

func TestImportCodedReplacesExistingFights(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	fights := codedFights()

	_, err := ImportCoded(ctx, s, fights, nil, "snapshot.html")
	require.NoError(t, err)
	_, err = ImportCoded(ctx, s, fights, nil, "snapshot.html")
	require.NoError(t, err)

	var count int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM fights`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestImportCodedRejectsMixedSeasons(t *testing.T) {
	s := newTestStore(t)
	fights := codedFights()
	fights[1].Code.Season = 2

	_, err := ImportCoded(context.Background(), s, fights, nil, "snapshot.html")
	assert.Error(t, err)
}

func TestImportCodedRejectsEmptyInput(t *testing.T) {
	s := newTestStore(t)
	_, err := ImportCoded(context.Background(), s, nil, nil, "snapshot.html")
	assert.Error(t, err)
}
