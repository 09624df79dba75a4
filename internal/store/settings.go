package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tradecockpit/cockpit/internal/model"
)

const (
	_riskPercentKey = "risk_percent"

	_querySetting  = `SELECT value FROM settings WHERE key = $1`
	_upsertSetting = `INSERT INTO settings (key, value) VALUES ($1,$2)
						ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
)

// GetRiskPercent returns the global sizing setting, falling back to
// the given default when it was never set.
func (s *Store) GetRiskPercent(ctx context.Context, fallback model.RiskPercent) (model.RiskPercent, error) {
	var value float64
	if err := s.db.GetContext(ctx, &value, _querySetting, _riskPercentKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fallback, nil
		}
		return 0, fmt.Errorf("%w: can't query risk percent", err)
	}

	r := model.RiskPercent(value)
	if !r.Valid() {
		return fallback, nil
	}
	return r, nil
}

func (s *Store) SetRiskPercent(ctx context.Context, r model.RiskPercent) error {
	if !r.Valid() {
		return fmt.Errorf("invalid risk percent %v, allowed: %v", r, model.RiskPercentOptions)
	}

	if _, err := s.db.ExecContext(ctx, _upsertSetting, _riskPercentKey, float64(r)); err != nil {
		return fmt.Errorf("%w: can't set risk percent", err)
	}
	return nil
}
