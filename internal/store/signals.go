package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradecockpit/cockpit/internal/model"
)

var ErrSignalNotFound = errors.New("signal not found")

const (
	_insertSignal = `INSERT INTO signals (
						id, ticker, category, source, days, sector, eps_growth, rev_growth, next_earnings, description, added_at
					) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_querySignals = `SELECT * FROM signals ORDER BY source, added_at`
	_deleteSignal = `DELETE FROM signals WHERE id = $1`
)

func (s *Store) CreateSignal(ctx context.Context, sig model.Signal) (model.Signal, error) {
	sig.ID = uuid.NewString()
	sig.AddedAt = time.Now().UTC()
	if sig.Source == "" {
		sig.Source = model.ManualSignal
	}
	if sig.Category == "" {
		sig.Category = model.Watchlist
	}

	if _, err := s.db.ExecContext(ctx, _insertSignal,
		sig.ID, sig.Ticker, sig.Category, sig.Source, sig.Days,
		sig.Sector, sig.EPSGrowth, sig.RevGrowth, sig.NextEarnings, sig.Description, sig.AddedAt,
	); err != nil {
		return model.Signal{}, fmt.Errorf("%w: can't insert signal", err)
	}

	return sig, nil
}

func (s *Store) ListSignals(ctx context.Context) ([]model.Signal, error) {
	var signals []model.Signal
	if err := s.db.SelectContext(ctx, &signals, _querySignals); err != nil {
		return nil, fmt.Errorf("%w: can't query signals", err)
	}
	return signals, nil
}

func (s *Store) DeleteSignal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, _deleteSignal, id)
	if err != nil {
		return fmt.Errorf("%w: can't delete signal", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't read rows affected", err)
	}
	if n == 0 {
		return ErrSignalNotFound
	}
	return nil
}
