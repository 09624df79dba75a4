package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradecockpit/cockpit/internal/model"
)

var ErrPositionNotFound = errors.New("position not found")

const (
	_insertPosition = `INSERT INTO positions (
							id, ticker, account_id, entry_price, shares, added_at, triggered_7, manual_stop
						) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_queryPositions      = `SELECT * FROM positions ORDER BY added_at`
	_queryPosition       = `SELECT * FROM positions WHERE id = $1`
	_updateManualStop    = `UPDATE positions SET manual_stop = $1 WHERE id = $2`
	_markTriggered       = `UPDATE positions SET triggered_7 = TRUE WHERE id = $1 AND NOT triggered_7`
	_deletePosition      = `DELETE FROM positions WHERE id = $1`
	_queryByAccount      = `SELECT * FROM positions WHERE account_id = $1 ORDER BY added_at`
	_queryPositionExists = `SELECT EXISTS (SELECT 1 FROM positions WHERE id = $1)`
)

// CreatePosition persists a new position under a fresh id.
func (s *Store) CreatePosition(ctx context.Context, ticker, accountID string, entryPrice float64, shares int64) (model.Position, error) {
	p := model.Position{
		ID:         uuid.NewString(),
		Ticker:     ticker,
		AccountID:  accountID,
		EntryPrice: entryPrice,
		Shares:     shares,
		AddedAt:    time.Now().UTC(),
	}

	if _, err := s.db.ExecContext(ctx, _insertPosition,
		p.ID, p.Ticker, p.AccountID, p.EntryPrice, p.Shares, p.AddedAt, p.Triggered7, p.ManualStop,
	); err != nil {
		return model.Position{}, fmt.Errorf("%w: can't insert position", err)
	}

	return p, nil
}

func (s *Store) ListPositions(ctx context.Context) ([]model.Position, error) {
	var positions []model.Position
	if err := s.db.SelectContext(ctx, &positions, _queryPositions); err != nil {
		return nil, fmt.Errorf("%w: can't query positions", err)
	}
	return positions, nil
}

func (s *Store) ListPositionsByAccount(ctx context.Context, accountID string) ([]model.Position, error) {
	var positions []model.Position
	if err := s.db.SelectContext(ctx, &positions, _queryByAccount, accountID); err != nil {
		return nil, fmt.Errorf("%w: can't query account positions", err)
	}
	return positions, nil
}

func (s *Store) GetPosition(ctx context.Context, id string) (model.Position, error) {
	var p model.Position
	if err := s.db.GetContext(ctx, &p, _queryPosition, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Position{}, ErrPositionNotFound
		}
		return model.Position{}, fmt.Errorf("%w: can't query position", err)
	}
	return p, nil
}

// SetManualStop overrides the automatic stop; nil clears the override.
func (s *Store) SetManualStop(ctx context.Context, id string, stop *float64) error {
	res, err := s.db.ExecContext(ctx, _updateManualStop, stop, id)
	if err != nil {
		return fmt.Errorf("%w: can't update manual stop", err)
	}
	return checkFound(res)
}

// MarkTriggered flips the breakeven trigger. The WHERE clause makes
// the flip one-way at the database level too.
func (s *Store) MarkTriggered(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, _markTriggered, id); err != nil {
		return fmt.Errorf("%w: can't mark position triggered", err)
	}
	return nil
}

// DeletePosition removes a closed position permanently. No history is
// retained.
func (s *Store) DeletePosition(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, _deletePosition, id)
	if err != nil {
		return fmt.Errorf("%w: can't delete position", err)
	}
	return checkFound(res)
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't read rows affected", err)
	}
	if n == 0 {
		return ErrPositionNotFound
	}
	return nil
}
