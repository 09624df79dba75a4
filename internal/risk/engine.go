package risk

import (
	"math"

	"github.com/tradecockpit/cockpit/internal/model"
)

const (
	// InitialStopFactor places the automatic stop 10% under entry
	// until the breakeven trigger fires.
	InitialStopFactor = 0.90

	// TriggerGainPercent is the gain at which the automatic stop
	// moves to breakeven, permanently.
	TriggerGainPercent = 7.0

	// ElevatedRiskPercent flags an account or the portfolio when open
	// risk exceeds this share of balance. Advisory only.
	ElevatedRiskPercent = 5.0

	_neutralRvol = 1.0
)

// EffectiveStop resolves the stop price for a position. A manual stop
// wins verbatim; otherwise breakeven once triggered, else entry * 0.90.
func EffectiveStop(p model.Position) float64 {
	if p.HasManualStop() {
		return *p.ManualStop
	}
	if p.Triggered7 {
		return p.EntryPrice
	}
	return p.EntryPrice * InitialStopFactor
}

// GainPercent is the gain since entry at the given price.
func GainPercent(p model.Position, price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// ShouldTrigger reports whether this refresh cycle flips the one-way
// breakeven trigger. Already-triggered positions and positions without
// a quote this cycle never flip.
func ShouldTrigger(p model.Position, qs model.QuoteSet) bool {
	if p.Triggered7 {
		return false
	}
	q, ok := qs.Get(p.Ticker)
	if !ok {
		return false
	}
	return GainPercent(p, q.Price) >= TriggerGainPercent
}

// StopHit reports whether the current price is at or below the
// effective stop. Advisory: closing stays a user decision.
func StopHit(p model.Position, qs model.QuoteSet) bool {
	return currentPrice(p, qs) <= EffectiveStop(p)
}

// Metrics are the derived per-position numbers, recomputed from
// scratch on every refresh cycle.
type Metrics struct {
	Price            float64 `json:"price"`
	GainPercent      float64 `json:"gain_percent"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	DayChangePercent float64 `json:"day_change_percent"`
	RelativeVolume   float64 `json:"rvol"`
	ExtensionPercent float64 `json:"extension_percent"`
	HasTrend         bool    `json:"has_trend"`
	EffectiveStop    float64 `json:"effective_stop"`
	StopCushion      float64 `json:"stop_cushion_percent"`
	DollarRisk       float64 `json:"dollar_risk"`
	Value            float64 `json:"value"`
	StopHit          bool    `json:"stop_hit"`
}

// ComputeMetrics derives all display numbers for one position. A
// missing quote degrades to entry price, zero day change, neutral
// volume and no trend, and never produces NaN or infinity.
func ComputeMetrics(p model.Position, qs model.QuoteSet) Metrics {
	m := Metrics{
		Price:          p.EntryPrice,
		RelativeVolume: _neutralRvol,
	}

	q, ok := qs.Get(p.Ticker)
	if ok {
		m.Price = q.Price
		m.DayChangePercent = q.DayChangePercent
		m.RelativeVolume = q.RelativeVolume
		if q.SMA10 != nil && *q.SMA10 != 0 {
			m.HasTrend = true
			m.ExtensionPercent = (q.Price - *q.SMA10) / *q.SMA10 * 100
		}
	}

	shares := float64(p.Shares)
	m.GainPercent = GainPercent(p, m.Price)
	m.UnrealizedPnL = (m.Price - p.EntryPrice) * shares
	m.EffectiveStop = EffectiveStop(p)
	if m.Price != 0 {
		m.StopCushion = (m.Price - m.EffectiveStop) / m.Price * 100
	}
	m.DollarRisk = math.Max(0, (m.Price-m.EffectiveStop)*shares)
	m.Value = m.Price * shares
	m.StopHit = m.Price <= m.EffectiveStop

	return m
}

// Sizing is the plan for a position that does not exist yet, so it
// always assumes the untriggered 10% stop.
type Sizing struct {
	EntryPrice    float64 `json:"entry_price"`
	StopPrice     float64 `json:"stop_price"`
	RiskPerShare  float64 `json:"risk_per_share"`
	RiskBudget    float64 `json:"risk_budget"`
	Shares        int64   `json:"shares"`
	PositionValue float64 `json:"position_value"`
}

// SizePosition computes how many shares a risk budget buys. Entry <= 0
// is a caller precondition; rejected at the API boundary.
func SizePosition(entry, balance float64, riskPercent model.RiskPercent) Sizing {
	s := Sizing{
		EntryPrice: entry,
		StopPrice:  entry * InitialStopFactor,
		RiskBudget: balance * float64(riskPercent) / 100,
	}
	s.RiskPerShare = entry - s.StopPrice

	if s.RiskPerShare > 0 {
		s.Shares = int64(math.Floor(s.RiskBudget / s.RiskPerShare))
	}
	s.PositionValue = float64(s.Shares) * entry

	return s
}

// AccountSummary is the per-account risk roll-up.
type AccountSummary struct {
	AccountID     string  `json:"account_id"`
	Name          string  `json:"name"`
	Color         string  `json:"color"`
	Balance       float64 `json:"balance"`
	PositionCount int     `json:"position_count"`
	TotalRisk     float64 `json:"total_risk"`
	RiskPercent   float64 `json:"risk_percent"`
	TotalValue    float64 `json:"total_value"`
	TotalPnL      float64 `json:"total_pnl"`
	ElevatedRisk  bool    `json:"elevated_risk"`
}

// AggregateAccount rolls up every position belonging to the account.
// Zero balance yields zero risk percent, never NaN.
func AggregateAccount(acct model.Account, positions []model.Position, qs model.QuoteSet) AccountSummary {
	s := AccountSummary{
		AccountID: acct.ID,
		Name:      acct.Name,
		Color:     acct.Color,
		Balance:   acct.Balance,
	}

	for _, p := range positions {
		if p.AccountID != acct.ID {
			continue
		}
		m := ComputeMetrics(p, qs)
		s.PositionCount++
		s.TotalRisk += m.DollarRisk
		s.TotalValue += m.Value
		s.TotalPnL += m.UnrealizedPnL
	}

	if s.Balance > 0 {
		s.RiskPercent = s.TotalRisk / s.Balance * 100
	}
	s.ElevatedRisk = s.RiskPercent > ElevatedRiskPercent

	return s
}

// PortfolioSummary is the roll-up across all accounts.
type PortfolioSummary struct {
	Accounts      []AccountSummary `json:"accounts"`
	TotalBalance  float64          `json:"total_balance"`
	PositionCount int              `json:"position_count"`
	TotalRisk     float64          `json:"total_risk"`
	RiskPercent   float64          `json:"risk_percent"`
	TotalValue    float64          `json:"total_value"`
	TotalPnL      float64          `json:"total_pnl"`
	ElevatedRisk  bool             `json:"elevated_risk"`
}

// AggregatePortfolio sums per-account summaries, preserving account
// order for display.
func AggregatePortfolio(accounts []model.Account, positions []model.Position, qs model.QuoteSet) PortfolioSummary {
	s := PortfolioSummary{
		Accounts: make([]AccountSummary, 0, len(accounts)),
	}

	for _, acct := range accounts {
		as := AggregateAccount(acct, positions, qs)
		s.Accounts = append(s.Accounts, as)
		s.TotalBalance += as.Balance
		s.PositionCount += as.PositionCount
		s.TotalRisk += as.TotalRisk
		s.TotalValue += as.TotalValue
		s.TotalPnL += as.TotalPnL
	}

	if s.TotalBalance > 0 {
		s.RiskPercent = s.TotalRisk / s.TotalBalance * 100
	}
	s.ElevatedRisk = s.RiskPercent > ElevatedRiskPercent

	return s
}

func currentPrice(p model.Position, qs model.QuoteSet) float64 {
	if q, ok := qs.Get(p.Ticker); ok {
		return q.Price
	}
	return p.EntryPrice
}
