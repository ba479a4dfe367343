package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
)

// Import statuses.
const (
	ImportStatusRunning = "running"
	ImportStatusSuccess = "success"
	ImportStatusFailed  = "failed"
)

// ImportRecord is one row of the import audit trail.
type ImportRecord struct {
	ID               int64    `json:"id"`
	Source           string   `json:"source"`
	SourceIdentifier string   `json:"source_identifier"`
	SeasonNumber     int      `json:"season_number"`
	StartedAt        float64  `json:"started_at"`
	FinishedAt       *float64 `json:"finished_at,omitempty"`
	Status           string   `json:"status"`
	Message          *string  `json:"message,omitempty"`
}

// CreateImport records the start of an import run. It is committed outside
// the import transaction so that failed runs still leave a trace.
func (s *Store) CreateImport(ctx context.Context, source, sourceIdentifier string, seasonNumber int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (source, source_identifier, season_number, started_at, status)
		 VALUES (?, ?, ?, ?, ?)`,
		source, sourceIdentifier, seasonNumber, epochSeconds(time.Now()), ImportStatusRunning,
	)
	if err != nil {
		return 0, eris.Wrap(err, "store: create import record")
	}
	return lastInsertID(res, "import")
}

// CompleteImport stamps an import run with its outcome. An empty message
// leaves any previously stored message in place.
func (s *Store) CompleteImport(ctx context.Context, importID int64, status, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE imports SET finished_at = ?, status = ?, message = COALESCE(?, message) WHERE id = ?`,
		epochSeconds(time.Now()), status, nullString(message), importID,
	)
	return eris.Wrapf(err, "store: complete import %d", importID)
}

// ListImports returns the most recent import records, newest first. A limit
// of zero or less means no limit.
func (s *Store) ListImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	query := `SELECT id, source, source_identifier, season_number, started_at, finished_at, status, message
		FROM imports ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list imports")
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		var (
			record     ImportRecord
			finishedAt sql.NullFloat64
			message    sql.NullString
		)
		err := rows.Scan(
			&record.ID,
			&record.Source,
			&record.SourceIdentifier,
			&record.SeasonNumber,
			&record.StartedAt,
			&finishedAt,
			&record.Status,
			&message,
		)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan import record")
		}
		if finishedAt.Valid {
			record.FinishedAt = &finishedAt.Float64
		}
		if message.Valid {
			record.Message = &message.String
		}
		records = append(records, record)
	}
	return records, eris.Wrap(rows.Err(), "store: list imports")
}
