// Package journal persists lead events to Postgres. It is an optional
// collaborator: operators use it to spot inconsistencies such as a booked
// meeting whose card update failed. It never stores conversation content.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

type Config struct {
	// DSN of the Postgres database; empty disables the journal.
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// Enabled reports whether a backend is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

type leadEventRow struct {
	bun.BaseModel `bun:"table:lead_events"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Kind       string    `bun:"kind,notnull"`
	CardID     string    `bun:"card_id"`
	Email      string    `bun:"email"`
	Detail     string    `bun:"detail"`
	OccurredAt time.Time `bun:"occurred_at,notnull"`
}

// Store implements contract.Journal on bun over Postgres.
type Store struct {
	db      *bun.DB
	timeout time.Duration
}

func NewStore(cfg Config) (*Store, error) {
	if !cfg.Enabled() {
		return nil, errors.New("journal dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(strings.TrimSpace(cfg.DSN)),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &Store{db: db, timeout: timeout}, nil
}

func MustNew(cfg Config) *Store {
	store, err := NewStore(cfg)
	if err != nil {
		panic(err)
	}
	return store
}

// Init creates the lead_events table when missing.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*leadEventRow)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (s *Store) Record(ctx context.Context, ev contractx.LeadEvent) error {
	occurredAt := ev.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	row := &leadEventRow{
		Kind:       ev.Kind,
		CardID:     ev.CardID,
		Email:      ev.Email,
		Detail:     ev.Detail,
		OccurredAt: occurredAt,
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
