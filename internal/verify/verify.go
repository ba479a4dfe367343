// Package verify runs read-only consistency checks over imported results:
// fight structure (question and result counts) and participant totals
// against recomputed per-question sums.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/panenka-league/results-cli/internal/store"
)

// DefaultExpectedQuestions is the fixed round length of a fight.
const DefaultExpectedQuestions = 5

// ParticipantTotalMismatch reports a stored total that disagrees with the
// sum of the participant's per-question deltas.
type ParticipantTotalMismatch struct {
	FightCode     string `json:"fight_code" yaml:"fight_code"`
	ParticipantID int64  `json:"participant_id" yaml:"participant_id"`
	SeatIndex     int    `json:"seat_index" yaml:"seat_index"`
	DisplayName   string `json:"display_name" yaml:"display_name"`
	RecordedTotal int    `json:"recorded_total" yaml:"recorded_total"`
	ComputedTotal int    `json:"computed_total" yaml:"computed_total"`
}

// FightStructureIssue reports a fight whose question or result counts are
// off: not the expected number of questions, or result rows missing from the
// questions × participants cross product.
type FightStructureIssue struct {
	FightCode         string `json:"fight_code" yaml:"fight_code"`
	ParticipantCount  int    `json:"participant_count" yaml:"participant_count"`
	ExpectedQuestions int    `json:"expected_questions" yaml:"expected_questions"`
	ActualQuestions   int    `json:"actual_questions" yaml:"actual_questions"`
	ExpectedResults   int    `json:"expected_results" yaml:"expected_results"`
	ActualResults     int    `json:"actual_results" yaml:"actual_results"`
}

// Report summarizes one verification pass.
type Report struct {
	FightsChecked              int                        `json:"fights_checked" yaml:"fights_checked"`
	ParticipantsChecked        int                        `json:"participants_checked" yaml:"participants_checked"`
	QuestionsChecked           int                        `json:"questions_checked" yaml:"questions_checked"`
	ParticipantTotalMismatches []ParticipantTotalMismatch `json:"participant_total_mismatches" yaml:"participant_total_mismatches"`
	FightStructureIssues       []FightStructureIssue      `json:"fight_structure_issues" yaml:"fight_structure_issues"`
	IsSuccessful               bool                       `json:"is_successful" yaml:"is_successful"`
}

func (r *Report) successful() bool {
	return len(r.ParticipantTotalMismatches) == 0 && len(r.FightStructureIssues) == 0
}

// Verifier checks the store without modifying it.
type Verifier struct {
	Store             *store.Store
	ExpectedQuestions int
}

func (v *Verifier) expectedQuestions() int {
	if v.ExpectedQuestions > 0 {
		return v.ExpectedQuestions
	}
	return DefaultExpectedQuestions
}

// Verify runs every check and reports findings. Findings never make Verify
// itself fail; use AssertValid for that.
func (v *Verifier) Verify(ctx context.Context) (*Report, error) {
	report := &Report{
		ParticipantTotalMismatches: []ParticipantTotalMismatch{},
		FightStructureIssues:       []FightStructureIssue{},
	}
	db := v.Store.DB()

	fightRows, err := db.QueryContext(ctx, `SELECT id, fight_code FROM fights ORDER BY fight_code`)
	if err != nil {
		return nil, eris.Wrap(err, "verify: list fights")
	}
	defer fightRows.Close()

	type fightRef struct {
		id   int64
		code string
	}
	var fights []fightRef
	for fightRows.Next() {
		var fight fightRef
		if err := fightRows.Scan(&fight.id, &fight.code); err != nil {
			return nil, eris.Wrap(err, "verify: scan fight")
		}
		fights = append(fights, fight)
	}
	if err := fightRows.Err(); err != nil {
		return nil, eris.Wrap(err, "verify: list fights")
	}
	report.FightsChecked = len(fights)

	for _, fight := range fights {
		if err := v.checkFight(ctx, report, fight.id, fight.code); err != nil {
			return nil, err
		}
	}

	report.IsSuccessful = report.successful()
	return report, nil
}

func (v *Verifier) checkFight(ctx context.Context, report *Report, fightID int64, fightCode string) error {
	db := v.Store.DB()

	type participantRef struct {
		id          int64
		seatIndex   int
		displayName string
		totalScore  int
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, seat_index, display_name, total_score
		 FROM fight_participants WHERE fight_id = ? ORDER BY seat_index`,
		fightID,
	)
	if err != nil {
		return eris.Wrapf(err, "verify: participants of %s", fightCode)
	}
	var participants []participantRef
	for rows.Next() {
		var p participantRef
		if err := rows.Scan(&p.id, &p.seatIndex, &p.displayName, &p.totalScore); err != nil {
			rows.Close()
			return eris.Wrapf(err, "verify: scan participant of %s", fightCode)
		}
		participants = append(participants, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return eris.Wrapf(err, "verify: participants of %s", fightCode)
	}
	report.ParticipantsChecked += len(participants)

	var questionCount int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE fight_id = ?`, fightID,
	).Scan(&questionCount)
	if err != nil {
		return eris.Wrapf(err, "verify: question count of %s", fightCode)
	}
	report.QuestionsChecked += questionCount

	var actualResults int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM question_results
		 WHERE question_id IN (SELECT id FROM questions WHERE fight_id = ?)`,
		fightID,
	).Scan(&actualResults)
	if err != nil {
		return eris.Wrapf(err, "verify: result count of %s", fightCode)
	}

	expectedResults := questionCount * len(participants)
	if questionCount != v.expectedQuestions() || actualResults != expectedResults {
		report.FightStructureIssues = append(report.FightStructureIssues, FightStructureIssue{
			FightCode:         fightCode,
			ParticipantCount:  len(participants),
			ExpectedQuestions: v.expectedQuestions(),
			ActualQuestions:   questionCount,
			ExpectedResults:   expectedResults,
			ActualResults:     actualResults,
		})
	}

	for _, participant := range participants {
		var computed int
		err := db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(delta), 0) FROM question_results WHERE participant_id = ?`,
			participant.id,
		).Scan(&computed)
		if err != nil {
			return eris.Wrapf(err, "verify: total of participant %d", participant.id)
		}
		if computed != participant.totalScore {
			report.ParticipantTotalMismatches = append(report.ParticipantTotalMismatches, ParticipantTotalMismatch{
				FightCode:     fightCode,
				ParticipantID: participant.id,
				SeatIndex:     participant.seatIndex,
				DisplayName:   participant.displayName,
				RecordedTotal: participant.totalScore,
				ComputedTotal: computed,
			})
		}
	}
	return nil
}

// AssertValid verifies and turns findings into a single error naming the
// category counts.
func (v *Verifier) AssertValid(ctx context.Context) (*Report, error) {
	report, err := v.Verify(ctx)
	if err != nil {
		return nil, err
	}
	if report.IsSuccessful {
		return report, nil
	}

	var reasons []string
	if n := len(report.ParticipantTotalMismatches); n > 0 {
		reasons = append(reasons, fmt.Sprintf("participant totals mismatched in %d record(s)", n))
	}
	if n := len(report.FightStructureIssues); n > 0 {
		reasons = append(reasons, fmt.Sprintf("fight structure issues detected in %d fight(s)", n))
	}
	return report, eris.Errorf("verify: verification failed: %s", strings.Join(reasons, "; "))
}
