package model

import "time"

type Position struct {
	ID         string    `json:"id" db:"id"`
	Ticker     string    `json:"ticker" db:"ticker"`
	AccountID  string    `json:"account_id" db:"account_id"`
	EntryPrice float64   `json:"entry_price" db:"entry_price"`
	Shares     int64     `json:"shares" db:"shares"`
	AddedAt    time.Time `json:"added_at" db:"added_at"`
	// Triggered7 is one-way: once the gain since entry has reached 7%
	// the automatic stop moves to breakeven and never moves back.
	Triggered7 bool     `json:"triggered_7" db:"triggered_7"`
	ManualStop *float64 `json:"manual_stop,omitempty" db:"manual_stop"`
}

func (p Position) GetUID() string {
	return p.ID
}

func (p Position) HasManualStop() bool {
	return p.ManualStop != nil
}
