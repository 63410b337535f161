package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/brightpath/onboard/internal/model"
	"github.com/brightpath/onboard/pkg/anthropic"
)

// Pool is the subset of pgxpool.Pool the store needs. Tests swap in a
// pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to Postgres and verifies the connection.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS prompt_templates (
	id          TEXT PRIMARY KEY,
	family      TEXT NOT NULL,
	version     INTEGER NOT NULL,
	instruction TEXT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	temperature DOUBLE PRECISION,
	max_tokens  INTEGER NOT NULL DEFAULT 0,
	active      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(family, version)
);

CREATE TABLE IF NOT EXISTS operation_log (
	id            TEXT PRIMARY KEY,
	pipeline      TEXT NOT NULL,
	model         TEXT NOT NULL,
	input_tokens  BIGINT NOT NULL DEFAULT 0,
	output_tokens BIGINT NOT NULL DEFAULT 0,
	latency_ms    BIGINT NOT NULL DEFAULT 0,
	success       BOOLEAN NOT NULL,
	error_message TEXT,
	metadata      JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS error_events (
	id          TEXT PRIMARY KEY,
	message     TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 1,
	resolved    BOOLEAN NOT NULL DEFAULT FALSE,
	first_seen  TIMESTAMPTZ NOT NULL,
	last_seen   TIMESTAMPTZ NOT NULL,
	resolved_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_templates_family_active ON prompt_templates(family, active, version);
CREATE INDEX IF NOT EXISTS idx_operation_log_created ON operation_log(created_at);
CREATE INDEX IF NOT EXISTS idx_error_events_message ON error_events(message, resolved);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) FindActiveTemplate(ctx context.Context, family model.Family) (*model.PromptTemplate, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, family, version, instruction, model, temperature, max_tokens, active, created_at
		 FROM prompt_templates WHERE family = $1 AND active = TRUE
		 ORDER BY version DESC LIMIT 1`,
		string(family),
	)
	tpl, err := scanTemplate(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find active template %s", family)
	}
	return tpl, nil
}

func (s *PostgresStore) SaveTemplate(ctx context.Context, tpl model.PromptTemplate) (*model.PromptTemplate, error) {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	if tpl.Version == 0 {
		var maxVersion *int
		err := s.pool.QueryRow(ctx,
			`SELECT MAX(version) FROM prompt_templates WHERE family = $1`, string(tpl.Family),
		).Scan(&maxVersion)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: next template version")
		}
		if maxVersion != nil {
			tpl.Version = *maxVersion + 1
		} else {
			tpl.Version = 1
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin save template")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if tpl.Active {
		if _, err := tx.Exec(ctx,
			`UPDATE prompt_templates SET active = FALSE WHERE family = $1`, string(tpl.Family),
		); err != nil {
			return nil, eris.Wrap(err, "postgres: deactivate templates")
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO prompt_templates (id, family, version, instruction, model, temperature, max_tokens, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tpl.ID, string(tpl.Family), tpl.Version, tpl.Instruction, tpl.Model,
		tpl.Temperature, tpl.MaxTokens, tpl.Active, tpl.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert template")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit save template")
	}
	return &tpl, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context, family model.Family) ([]model.PromptTemplate, error) {
	query := `SELECT id, family, version, instruction, model, temperature, max_tokens, active, created_at
	          FROM prompt_templates`
	args := []any{}
	if family != "" {
		query += ` WHERE family = $1`
		args = append(args, string(family))
	}
	query += ` ORDER BY family, version DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list templates")
	}
	defer rows.Close()

	var out []model.PromptTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan template")
		}
		out = append(out, *tpl)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendOperations(ctx context.Context, ops []model.OperationRecord) error {
	if len(ops) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin append operations")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

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
		if _, err := tx.Exec(ctx,
			`INSERT INTO operation_log (id, pipeline, model, input_tokens, output_tokens, latency_ms, success, error_message, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			op.ID, op.Pipeline, op.Model, op.InputTokens, op.OutputTokens,
			op.LatencyMs, op.Success, nullable(op.ErrorMessage), metaJSON, op.CreatedAt,
		); err != nil {
			return eris.Wrap(err, "postgres: insert operation")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit append operations")
}

func (s *PostgresStore) SummarizeOperations(ctx context.Context, since time.Time) (*model.OperationSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT model, COUNT(*), COUNT(*) FILTER (WHERE success),
		        COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(latency_ms), 0)
		 FROM operation_log WHERE created_at >= $1 GROUP BY model`,
		sinceOrEpoch(since),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summarize operations")
	}
	defer rows.Close()

	summary := &model.OperationSummary{}
	var totalLatency int64
	for rows.Next() {
		var modelID string
		var count, succeeded, inTok, outTok, latency int64
		if err := rows.Scan(&modelID, &count, &succeeded, &inTok, &outTok, &latency); err != nil {
			return nil, eris.Wrap(err, "postgres: scan summary row")
		}
		summary.Total += int(count)
		summary.Succeeded += int(succeeded)
		summary.InputTokens += int(inTok)
		summary.OutputTokens += int(outTok)
		totalLatency += latency
		summary.CostUSD += anthropic.EstimateCost(modelID, int(inTok), int(outTok))
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: summary rows")
	}

	summary.Failed = summary.Total - summary.Succeeded
	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Succeeded) / float64(summary.Total)
		summary.AvgLatencyMs = totalLatency / int64(summary.Total)
	}
	return summary, nil
}

func (s *PostgresStore) FindOpenError(ctx context.Context, message string) (*model.ErrorEvent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, message, count, resolved, first_seen, last_seen, resolved_at
		 FROM error_events WHERE message = $1 AND resolved = FALSE LIMIT 1`,
		message,
	)
	ev, err := scanErrorEvent(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find open error")
	}
	return ev, nil
}

func (s *PostgresStore) IncrementError(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE error_events SET count = count + 1, last_seen = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	return eris.Wrapf(err, "postgres: increment error %s", id)
}

func (s *PostgresStore) CreateError(ctx context.Context, message string) (*model.ErrorEvent, error) {
	ev := &model.ErrorEvent{
		ID:        uuid.New().String(),
		Message:   message,
		Count:     1,
		FirstSeen: time.Now().UTC(),
		LastSeen:  time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO error_events (id, message, count, resolved, first_seen, last_seen)
		 VALUES ($1, $2, $3, FALSE, $4, $5)`,
		ev.ID, ev.Message, ev.Count, ev.FirstSeen, ev.LastSeen,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create error event")
	}
	return ev, nil
}

func (s *PostgresStore) ResolveError(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE error_events SET resolved = TRUE, resolved_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	return eris.Wrapf(err, "postgres: resolve error %s", id)
}

func (s *PostgresStore) ListErrors(ctx context.Context, includeResolved bool, limit int) ([]model.ErrorEvent, error) {
	query := `SELECT id, message, count, resolved, first_seen, last_seen, resolved_at FROM error_events`
	if !includeResolved {
		query += ` WHERE resolved = FALSE`
	}
	query += ` ORDER BY last_seen DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list errors")
	}
	defer rows.Close()

	var out []model.ErrorEvent
	for rows.Next() {
		ev, err := scanErrorEvent(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan error event")
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}
