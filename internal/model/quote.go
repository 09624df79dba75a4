package model

type Quote struct {
	Ticker           string   `json:"ticker"`
	Name             string   `json:"name"`
	Price            float64  `json:"price"`
	SMA10            *float64 `json:"sma10,omitempty"`
	DayChangePercent float64  `json:"day_change_percent"`
	RelativeVolume   float64  `json:"rvol"`
	Volume           int64    `json:"volume"`
	AvgVolume        int64    `json:"avg_volume"`
}

// QuoteSet is one refresh cycle worth of quotes keyed by ticker.
// Any ticker may be missing on any cycle.
type QuoteSet map[string]Quote

func (qs QuoteSet) Get(ticker string) (Quote, bool) {
	q, ok := qs[ticker]
	return q, ok
}
