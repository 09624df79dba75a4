package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tradecockpit/cockpit/internal/model"
)

var ErrAccountNotFound = errors.New("account not found")

const (
	_queryAccounts = `SELECT * FROM accounts ORDER BY id`
	_queryAccount  = `SELECT * FROM accounts WHERE id = $1`
	_updateBalance = `UPDATE accounts SET balance = $1 WHERE id = $2`
)

func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := s.db.SelectContext(ctx, &accounts, _queryAccounts); err != nil {
		return nil, fmt.Errorf("%w: can't query accounts", err)
	}
	return accounts, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (model.Account, error) {
	var a model.Account
	if err := s.db.GetContext(ctx, &a, _queryAccount, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("%w: can't query account", err)
	}
	return a, nil
}

// UpdateBalance overwrites the account balance. No transaction log.
func (s *Store) UpdateBalance(ctx context.Context, id string, balance float64) error {
	if balance < 0 {
		return fmt.Errorf("negative balance %f for account %s", balance, id)
	}

	res, err := s.db.ExecContext(ctx, _updateBalance, balance, id)
	if err != nil {
		return fmt.Errorf("%w: can't update balance", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't read rows affected", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
