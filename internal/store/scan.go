package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/brightpath/onboard/internal/model"
)

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx rows alike.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.PromptTemplate, error) {
	var tpl model.PromptTemplate
	var family string
	var temperature sql.NullFloat64
	if err := row.Scan(&tpl.ID, &family, &tpl.Version, &tpl.Instruction, &tpl.Model,
		&temperature, &tpl.MaxTokens, &tpl.Active, &tpl.CreatedAt); err != nil {
		return nil, err
	}
	tpl.Family = model.Family(family)
	if temperature.Valid {
		t := temperature.Float64
		tpl.Temperature = &t
	}
	return &tpl, nil
}

func scanErrorEvent(row rowScanner) (*model.ErrorEvent, error) {
	var ev model.ErrorEvent
	var resolvedAt sql.NullTime
	if err := row.Scan(&ev.ID, &ev.Message, &ev.Count, &ev.Resolved,
		&ev.FirstSeen, &ev.LastSeen, &resolvedAt); err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		ev.ResolvedAt = resolvedAt.Time
	}
	return &ev, nil
}

func marshalMetadata(meta map[string]string) (any, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal metadata")
	}
	return string(b), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// sinceOrEpoch guards summary queries against a zero time which some
// drivers refuse to compare.
func sinceOrEpoch(t time.Time) time.Time {
	if t.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return t
}
