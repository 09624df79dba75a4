package model

import "time"

type SignalCategory string

const (
	Watchlist SignalCategory = "watchlist"
	Breakout  SignalCategory = "breakout"
	Pullback  SignalCategory = "pullback"
	Earnings  SignalCategory = "earnings"
	AboveVWAP SignalCategory = "above"
	BelowVWAP SignalCategory = "below"
)

type SignalSource string

const (
	AlgoSignal   SignalSource = "algo"
	ManualSignal SignalSource = "manual"
)

type Signal struct {
	ID           string         `json:"id" db:"id"`
	Ticker       string         `json:"ticker" db:"ticker"`
	Category     SignalCategory `json:"category" db:"category"`
	Source       SignalSource   `json:"source" db:"source"`
	Days         int            `json:"days" db:"days"`
	Sector       string         `json:"sector" db:"sector"`
	EPSGrowth    string         `json:"eps_growth" db:"eps_growth"`
	RevGrowth    string         `json:"rev_growth" db:"rev_growth"`
	NextEarnings string         `json:"next_earnings" db:"next_earnings"`
	Description  string         `json:"description" db:"description"`
	AddedAt      time.Time      `json:"added_at" db:"added_at"`
}

func (s Signal) GetUID() string {
	return s.ID
}
