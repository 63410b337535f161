package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/brightpath/onboard/internal/model"
	"github.com/brightpath/onboard/pkg/anthropic"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS prompt_templates (
	id          TEXT PRIMARY KEY,
	family      TEXT NOT NULL,
	version     INTEGER NOT NULL,
	instruction TEXT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	temperature REAL,
	max_tokens  INTEGER NOT NULL DEFAULT 0,
	active      INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(family, version)
);

CREATE TABLE IF NOT EXISTS operation_log (
	id            TEXT PRIMARY KEY,
	pipeline      TEXT NOT NULL,
	model         TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	success       INTEGER NOT NULL,
	error_message TEXT,
	metadata      TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS error_events (
	id          TEXT PRIMARY KEY,
	message     TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 1,
	resolved    INTEGER NOT NULL DEFAULT 0,
	first_seen  DATETIME NOT NULL,
	last_seen   DATETIME NOT NULL,
	resolved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_templates_family_active ON prompt_templates(family, active, version);
CREATE INDEX IF NOT EXISTS idx_operation_log_created ON operation_log(created_at);
CREATE INDEX IF NOT EXISTS idx_error_events_message ON error_events(message, resolved);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindActiveTemplate(ctx context.Context, family model.Family) (*model.PromptTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, family, version, instruction, model, temperature, max_tokens, active, created_at
		 FROM prompt_templates WHERE family = ? AND active = 1
		 ORDER BY version DESC LIMIT 1`,
		string(family),
	)
	tpl, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find active template %s", family)
	}
	return tpl, nil
}

func (s *SQLiteStore) SaveTemplate(ctx context.Context, tpl model.PromptTemplate) (*model.PromptTemplate, error) {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	if tpl.Version == 0 {
		var maxVersion sql.NullInt64
		err := s.db.QueryRowContext(ctx,
			`SELECT MAX(version) FROM prompt_templates WHERE family = ?`, string(tpl.Family),
		).Scan(&maxVersion)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: next template version")
		}
		tpl.Version = int(maxVersion.Int64) + 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin save template")
	}
	defer tx.Rollback() //nolint:errcheck

	// One active template per family at a time.
	if tpl.Active {
		if _, err := tx.ExecContext(ctx,
			`UPDATE prompt_templates SET active = 0 WHERE family = ?`, string(tpl.Family),
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: deactivate templates")
		}
	}

	var temperature any
	if tpl.Temperature != nil {
		temperature = *tpl.Temperature
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO prompt_templates (id, family, version, instruction, model, temperature, max_tokens, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tpl.ID, string(tpl.Family), tpl.Version, tpl.Instruction, tpl.Model, temperature, tpl.MaxTokens, tpl.Active, tpl.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert template")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit save template")
	}
	return &tpl, nil
}

func (s *SQLiteStore) ListTemplates(ctx context.Context, family model.Family) ([]model.PromptTemplate, error) {
	query := `SELECT id, family, version, instruction, model, temperature, max_tokens, active, created_at
	          FROM prompt_templates`
	args := []any{}
	if family != "" {
		query += ` WHERE family = ?`
		args = append(args, string(family))
	}
	query += ` ORDER BY family, version DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list templates")
	}
	defer rows.Close()

	var out []model.PromptTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan template")
		}
		out = append(out, *tpl)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendOperations(ctx context.Context, ops []model.OperationRecord) error {
	if len(ops) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin append operations")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO operation_log (id, pipeline, model, input_tokens, output_tokens, latency_ms, success, error_message, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare append operations")
	}
	defer stmt.Close()

	for _, op := range ops {
		if op.ID == "" {
			op.ID = uuid.New().String()
		}
		if op.CreatedAt.IsZero() {
			op.CreatedAt = time.Now().UTC()
		}
		metaJSON, err := marshalMetadata(op.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			op.ID, op.Pipeline, op.Model, op.InputTokens, op.OutputTokens,
			op.LatencyMs, op.Success, nullable(op.ErrorMessage), metaJSON, op.CreatedAt,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert operation")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit append operations")
}

func (s *SQLiteStore) SummarizeOperations(ctx context.Context, since time.Time) (*model.OperationSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model, COUNT(*), SUM(success), SUM(input_tokens), SUM(output_tokens), SUM(latency_ms)
		 FROM operation_log WHERE created_at >= ? GROUP BY model`,
		sinceOrEpoch(since),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summarize operations")
	}
	defer rows.Close()

	summary := &model.OperationSummary{}
	var totalLatency int64
	for rows.Next() {
		var modelID string
		var count, succeeded int
		var inTok, outTok, latency sql.NullInt64
		if err := rows.Scan(&modelID, &count, &succeeded, &inTok, &outTok, &latency); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan summary row")
		}
		summary.Total += count
		summary.Succeeded += succeeded
		summary.InputTokens += int(inTok.Int64)
		summary.OutputTokens += int(outTok.Int64)
		totalLatency += latency.Int64
		summary.CostUSD += anthropic.EstimateCost(modelID, int(inTok.Int64), int(outTok.Int64))
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: summary rows")
	}

	summary.Failed = summary.Total - summary.Succeeded
	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Succeeded) / float64(summary.Total)
		summary.AvgLatencyMs = totalLatency / int64(summary.Total)
	}
	return summary, nil
}

func (s *SQLiteStore) FindOpenError(ctx context.Context, message string) (*model.ErrorEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, message, count, resolved, first_seen, last_seen, resolved_at
		 FROM error_events WHERE message = ? AND resolved = 0 LIMIT 1`,
		message,
	)
	ev, err := scanErrorEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find open error")
	}
	return ev, nil
}

func (s *SQLiteStore) IncrementError(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE error_events SET count = count + 1, last_seen = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	return eris.Wrapf(err, "sqlite: increment error %s", id)
}

func (s *SQLiteStore) CreateError(ctx context.Context, message string) (*model.ErrorEvent, error) {
	ev := &model.ErrorEvent{
		ID:        uuid.New().String(),
		Message:   message,
		Count:     1,
		FirstSeen: time.Now().UTC(),
		LastSeen:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO error_events (id, message, count, resolved, first_seen, last_seen)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		ev.ID, ev.Message, ev.Count, ev.FirstSeen, ev.LastSeen,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create error event")
	}
	return ev, nil
}

func (s *SQLiteStore) ResolveError(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE error_events SET resolved = 1, resolved_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	return eris.Wrapf(err, "sqlite: resolve error %s", id)
}

func (s *SQLiteStore) ListErrors(ctx context.Context, includeResolved bool, limit int) ([]model.ErrorEvent, error) {
	query := `SELECT id, message, count, resolved, first_seen, last_seen, resolved_at FROM error_events`
	if !includeResolved {
		query += ` WHERE resolved = 0`
	}
	query += ` ORDER BY last_seen DESC`
	if limit > 0 {
		query += ` LIMIT ?`
	}

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list errors")
	}
	defer rows.Close()

	var out []model.ErrorEvent
	for rows.Next() {
		ev, err := scanErrorEvent(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan error event")
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}
