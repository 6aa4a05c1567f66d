// Package store persists screening outcomes to Postgres. Schema migrations
// are embedded and applied on startup; writes retry with backoff so a brief
// database blip doesn't lose a finished screening.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/legalaid-go/screenline/pkg/outcome"
	"github.com/legalaid-go/screenline/pkg/screening"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	writeAttempts  = 4
	writeBaseDelay = 250 * time.Millisecond
)

// Postgres is an outcome.Recorder backed by a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to dsn, applies pending migrations, and returns the store.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// factRow is the JSON shape facts are stored in.
type factRow struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Text       string `json:"text,omitempty"`
	Number     int    `json:"number,omitempty"`
	Bool       bool   `json:"bool,omitempty"`
	Confidence string `json:"confidence"`
}

func encodeFacts(s *screening.Set) ([]byte, error) {
	rows := make([]factRow, 0, s.Len())
	for _, v := range s.Values() {
		row := factRow{Name: string(v.Name), Confidence: v.Confidence.String()}
		switch v.Kind {
		case screening.KindText:
			row.Kind = "text"
			row.Text = v.Text
		case screening.KindNumber:
			row.Kind = "number"
			row.Number = v.Number
		case screening.KindBool:
			row.Kind = "bool"
			row.Bool = v.Bool
		}
		rows = append(rows, row)
	}
	return json.Marshal(rows)
}

// Record implements outcome.Recorder. The insert retries with fibonacci
// backoff; a duplicate session id is treated as already recorded, which
// keeps the write idempotent if a retry raced a success.
func (p *Postgres) Record(ctx context.Context, o *outcome.Outcome) error {
	facts, err := encodeFacts(o.Facts)
	if err != nil {
		return fmt.Errorf("encode facts: %w", err)
	}
	transcript, err := json.Marshal(o.Transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	providers, err := json.Marshal(o.AlternativeProviders)
	if err != nil {
		return fmt.Errorf("encode providers: %w", err)
	}

	backoff := retry.WithMaxRetries(writeAttempts, retry.NewFibonacci(writeBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := p.pool.Exec(ctx, `
			INSERT INTO screening_outcomes (
				session_id, disposition, reason, final_node,
				emergency, domestic_violence,
				facts, transcript, alternative_providers,
				started_at, ended_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (session_id) DO NOTHING`,
			o.SessionID, string(o.Disposition), o.Reason, o.FinalNode.String(),
			o.Emergency, o.DomesticViolence,
			facts, transcript, providers,
			o.StartedAt.UTC(), o.EndedAt.UTC(),
		)
		if err != nil {
			p.logger.Warn("outcome insert failed, retrying", "session_id", o.SessionID, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
