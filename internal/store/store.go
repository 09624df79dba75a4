package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tradecockpit/cockpit/internal/model"
)

const _schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	color   TEXT NOT NULL DEFAULT '',
	balance DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS positions (
	id          TEXT PRIMARY KEY,
	ticker      TEXT NOT NULL,
	account_id  TEXT NOT NULL REFERENCES accounts (id),
	entry_price DOUBLE PRECISION NOT NULL CHECK (entry_price > 0),
	shares      BIGINT NOT NULL CHECK (shares > 0),
	added_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	triggered_7 BOOLEAN NOT NULL DEFAULT FALSE,
	manual_stop DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS signals (
	id            TEXT PRIMARY KEY,
	ticker        TEXT NOT NULL,
	category      TEXT NOT NULL,
	source        TEXT NOT NULL,
	days          INT NOT NULL DEFAULT 0,
	sector        TEXT NOT NULL DEFAULT '',
	eps_growth    TEXT NOT NULL DEFAULT '',
	rev_growth    TEXT NOT NULL DEFAULT '',
	next_earnings TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	added_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value DOUBLE PRECISION NOT NULL
);`

const _seedAccount = `INSERT INTO accounts (id, name, color, balance)
						VALUES ($1,$2,$3,$4)
						ON CONFLICT (id) DO NOTHING`

// Store bundles all durable state behind one sqlx connection.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Init creates the schema and seeds accounts that don't exist yet.
// Existing balances are left alone: they belong to the user.
func (s *Store) Init(ctx context.Context, accounts []model.Account) error {
	if _, err := s.db.ExecContext(ctx, _schema); err != nil {
		return fmt.Errorf("%w: can't create schema", err)
	}

	for _, a := range accounts {
		if _, err := s.db.ExecContext(ctx, _seedAccount, a.ID, a.Name, a.Color, a.Balance); err != nil {
			return fmt.Errorf("%w: can't seed account %s", err, a.ID)
		}
	}

	return nil
}
