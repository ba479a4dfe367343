// Package store manages the SQLite schema holding imported tournament
// results: seasons, tours, fights, participants, questions and per-question
// results, plus an audit trail of import runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx, so the
// same statements can run inside or outside an import transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps the results database.
type Store struct {
	db   *sql.DB
	path string
}

// dsnPragmas ride along in the DSN so that every connection the pool opens
// runs with them; per-connection state like foreign_keys must not depend on
// which connection executed a setup statement.
const dsnPragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=foreign_keys(1)"

// Open opens (creating if needed) the SQLite database at path and configures
// WAL mode. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "store: create directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	return &Store{db: db, path: path}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS seasons (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	season_number INTEGER NOT NULL UNIQUE,
	slug          TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS tours (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	season_id   INTEGER NOT NULL REFERENCES seasons(id) ON DELETE CASCADE,
	tour_number INTEGER NOT NULL,
	gid         INTEGER,
	UNIQUE (season_id, tour_number)
);

CREATE TABLE IF NOT EXISTS imports (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	source            TEXT NOT NULL,
	source_identifier TEXT NOT NULL,
	season_number     INTEGER NOT NULL,
	started_at        REAL NOT NULL,
	finished_at       REAL,
	status            TEXT NOT NULL,
	message           TEXT
);

CREATE TABLE IF NOT EXISTS fights (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tour_id      INTEGER NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
	fight_number INTEGER NOT NULL,
	ordinal      INTEGER NOT NULL,
	fight_code   TEXT NOT NULL UNIQUE,
	letter       TEXT,
	imported_at  REAL NOT NULL,
	source_path  TEXT,
	import_id    INTEGER REFERENCES imports(id) ON DELETE SET NULL,
	UNIQUE (tour_id, fight_number)
);

CREATE TABLE IF NOT EXISTS fight_participants (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	fight_id        INTEGER NOT NULL REFERENCES fights(id) ON DELETE CASCADE,
	display_name    TEXT NOT NULL,
	normalized_name TEXT NOT NULL,
	seat_index      INTEGER NOT NULL,
	total_score     INTEGER NOT NULL,
	UNIQUE (fight_id, normalized_name)
);

CREATE TABLE IF NOT EXISTS questions (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	fight_id       INTEGER NOT NULL REFERENCES fights(id) ON DELETE CASCADE,
	question_order INTEGER NOT NULL,
	nominal        INTEGER NOT NULL,
	theme          TEXT,
	source_row     INTEGER,
	UNIQUE (fight_id, question_order)
);

CREATE TABLE IF NOT EXISTS question_results (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	question_id    INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
	participant_id INTEGER NOT NULL REFERENCES fight_participants(id) ON DELETE CASCADE,
	delta          INTEGER NOT NULL,
	is_correct     INTEGER NOT NULL,
	UNIQUE (question_id, participant_id)
);

CREATE INDEX IF NOT EXISTS idx_tours_season ON tours (season_id, tour_number);
CREATE INDEX IF NOT EXISTS idx_fights_tour ON fights (tour_id, fight_number);
CREATE INDEX IF NOT EXISTS idx_participants_fight ON fight_participants (fight_id);
CREATE INDEX IF NOT EXISTS idx_questions_fight ON questions (fight_id, question_order);
CREATE INDEX IF NOT EXISTS idx_results_question ON question_results (question_id);
`

// Migrate creates the schema and seeds the baseline seasons.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migration); err != nil {
		return eris.Wrap(err, "store: migrate")
	}
	for _, seasonNumber := range []int{1, 2} {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO seasons (season_number, slug) VALUES (?, printf('%02d', ?))
			 ON CONFLICT(season_number) DO NOTHING`,
			seasonNumber, seasonNumber,
		)
		if err != nil {
			return eris.Wrapf(err, "store: seed season %d", seasonNumber)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the raw handle for read-only queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// BeginTx starts a deferred write transaction.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "store: begin tx")
	}
	return tx, nil
}

// EnsureSeason returns the id for a season number, inserting it if absent.
func (s *Store) EnsureSeason(ctx context.Context, q DBTX, seasonNumber int) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM seasons WHERE season_number = ?`, seasonNumber,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, eris.Wrapf(err, "store: lookup season %d", seasonNumber)
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO seasons (season_number, slug) VALUES (?, printf('%02d', ?))`,
		seasonNumber, seasonNumber,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "store: insert season %d", seasonNumber)
	}
	return lastInsertID(res, "season")
}

// EnsureTour returns the id for a tour, inserting it if absent. A non-nil gid
// updates the stored worksheet id on an existing row.
func (s *Store) EnsureTour(ctx context.Context, q DBTX, seasonID int64, tourNumber int, gid *int64) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM tours WHERE season_id = ? AND tour_number = ?`,
		seasonID, tourNumber,
	).Scan(&id)
	if err == nil {
		if gid != nil {
			if _, err := q.ExecContext(ctx, `UPDATE tours SET gid = ? WHERE id = ?`, *gid, id); err != nil {
				return 0, eris.Wrapf(err, "store: update tour %d gid", tourNumber)
			}
		}
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, eris.Wrapf(err, "store: lookup tour %d", tourNumber)
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO tours (season_id, tour_number, gid) VALUES (?, ?, ?)`,
		seasonID, tourNumber, gid,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "store: insert tour %d", tourNumber)
	}
	return lastInsertID(res, "tour")
}

// DeleteFightByCode removes a fight and, via cascades, everything hanging off
// it. Re-importing a fight is therefore a replace.
func (s *Store) DeleteFightByCode(ctx context.Context, q DBTX, fightCode string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM fights WHERE fight_code = ?`, fightCode)
	return eris.Wrapf(err, "store: delete fight %s", fightCode)
}

// Fight is one imported fight row.
type Fight struct {
	TourID      int64
	FightNumber int
	Ordinal     int
	FightCode   string
	Letter      string
	SourcePath  string
	ImportID    int64
}

// InsertFight inserts a fight and returns its id.
func (s *Store) InsertFight(ctx context.Context, q DBTX, fight Fight) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO fights (tour_id, fight_number, ordinal, fight_code, letter, imported_at, source_path, import_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fight.TourID,
		fight.FightNumber,
		fight.Ordinal,
		fight.FightCode,
		nullString(fight.Letter),
		epochSeconds(time.Now()),
		nullString(fight.SourcePath),
		fight.ImportID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "store: insert fight %s", fight.FightCode)
	}
	return lastInsertID(res, "fight")
}

// Participant is one seat in a fight.
type Participant struct {
	FightID        int64
	DisplayName    string
	NormalizedName string
	SeatIndex      int
	TotalScore     int
}

// InsertParticipant inserts a participant and returns its id.
func (s *Store) InsertParticipant(ctx context.Context, q DBTX, p Participant) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO fight_participants (fight_id, display_name, normalized_name, seat_index, total_score)
		 VALUES (?, ?, ?, ?, ?)`,
		p.FightID, p.DisplayName, p.NormalizedName, p.SeatIndex, p.TotalScore,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "store: insert participant %q", p.DisplayName)
	}
	return lastInsertID(res, "participant")
}

// Question is one question row within a fight.
type Question struct {
	FightID       int64
	QuestionOrder int
	Nominal       int
	Theme         string
	SourceRow     int
}

// InsertQuestion inserts a question and returns its id.
func (s *Store) InsertQuestion(ctx context.Context, q DBTX, question Question) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO questions (fight_id, question_order, nominal, theme, source_row)
		 VALUES (?, ?, ?, ?, ?)`,
		question.FightID,
		question.QuestionOrder,
		question.Nominal,
		nullString(question.Theme),
		nullInt(question.SourceRow),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "store: insert question %d", question.QuestionOrder)
	}
	return lastInsertID(res, "question")
}

// InsertQuestionResult records one participant's delta on one question.
func (s *Store) InsertQuestionResult(ctx context.Context, q DBTX, questionID, participantID int64, delta int, correct bool) error {
	isCorrect := 0
	if correct {
		isCorrect = 1
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO question_results (question_id, participant_id, delta, is_correct)
		 VALUES (?, ?, ?, ?)`,
		questionID, participantID, delta, isCorrect,
	)
	return eris.Wrap(err, "store: insert question result")
}

func lastInsertID(res sql.Result, entity string) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrapf(err, "store: last insert id for %s", entity)
	}
	return id, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
