package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecockpit/cockpit/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func quoteSet(ticker string, price float64) model.QuoteSet {
	return model.QuoteSet{ticker: {Ticker: ticker, Price: price, RelativeVolume: 1.0}}
}

func TestEffectiveStop(t *testing.T) {
	tests := []struct {
		name     string
		position model.Position
		want     float64
	}{
		{
			name:     "untriggered uses 10 percent initial stop",
			position: model.Position{EntryPrice: 100},
			want:     90,
		},
		{
			name:     "triggered moves to breakeven",
			position: model.Position{EntryPrice: 100, Triggered7: true},
			want:     100,
		},
		{
			name:     "manual stop wins over automatic rule",
			position: model.Position{EntryPrice: 100, ManualStop: floatPtr(97.5)},
			want:     97.5,
		},
		{
			name:     "manual stop wins even when triggered",
			position: model.Position{EntryPrice: 100, Triggered7: true, ManualStop: floatPtr(85)},
			want:     85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStop(tt.position))
		})
	}
}

func TestEffectiveStopRevertsWhenManualCleared(t *testing.T) {
	p := model.Position{EntryPrice: 50, ManualStop: floatPtr(48)}
	assert.Equal(t, 48.0, EffectiveStop(p))

	p.ManualStop = nil
	assert.Equal(t, 45.0, EffectiveStop(p))

	p.Triggered7 = true
	assert.Equal(t, 50.0, EffectiveStop(p))
}

func TestShouldTrigger(t *testing.T) {
	p := model.Position{Ticker: "NVDA", EntryPrice: 50}

	assert.False(t, ShouldTrigger(p, quoteSet("NVDA", 53.4)), "6.8 percent gain must not trigger")
	assert.True(t, ShouldTrigger(p, quoteSet("NVDA", 53.5)), "exactly 7 percent gain triggers")

	p.Triggered7 = true
	assert.False(t, ShouldTrigger(p, quoteSet("NVDA", 49)), "triggered positions never re-evaluate")
	assert.False(t, ShouldTrigger(p, quoteSet("NVDA", 60)))
}

func TestShouldTriggerMissingQuote(t *testing.T) {
	p := model.Position{Ticker: "NVDA", EntryPrice: 50}
	assert.False(t, ShouldTrigger(p, model.QuoteSet{}))
	assert.False(t, ShouldTrigger(p, quoteSet("HOOD", 100)))
}

func TestTriggerScenario(t *testing.T) {
	// entry=50, price hits 53.5 (7.0%), later falls to 49: the flag
	// stays, the stop is breakeven and 49 <= 50 reads as stop hit.
	p := model.Position{Ticker: "CRDO", EntryPrice: 50, Shares: 10}

	require.True(t, ShouldTrigger(p, quoteSet("CRDO", 53.5)))
	p.Triggered7 = true

	later := quoteSet("CRDO", 49)
	assert.False(t, ShouldTrigger(p, later))
	assert.Equal(t, 50.0, EffectiveStop(p))
	assert.True(t, StopHit(p, later))
}

func TestComputeMetrics(t *testing.T) {
	p := model.Position{Ticker: "VRT", EntryPrice: 100, Shares: 20}
	qs := model.QuoteSet{"VRT": {
		Ticker:           "VRT",
		Price:            110,
		SMA10:            floatPtr(104),
		DayChangePercent: 1.5,
		RelativeVolume:   1.8,
	}}

	m := ComputeMetrics(p, qs)
	assert.InDelta(t, 10.0, m.GainPercent, 1e-9)
	assert.InDelta(t, 200.0, m.UnrealizedPnL, 1e-9)
	assert.InDelta(t, (110.0-104.0)/104.0*100, m.ExtensionPercent, 1e-9)
	assert.True(t, m.HasTrend)
	assert.Equal(t, 90.0, m.EffectiveStop)
	assert.InDelta(t, (110.0-90.0)/110.0*100, m.StopCushion, 1e-9)
	assert.InDelta(t, 400.0, m.DollarRisk, 1e-9)
	assert.InDelta(t, 2200.0, m.Value, 1e-9)
	assert.False(t, m.StopHit)
}

func TestComputeMetricsMissingQuote(t *testing.T) {
	p := model.Position{Ticker: "CEG", EntryPrice: 80, Shares: 5}

	m := ComputeMetrics(p, model.QuoteSet{})
	assert.Equal(t, 80.0, m.Price)
	assert.Zero(t, m.GainPercent)
	assert.Zero(t, m.UnrealizedPnL)
	assert.Zero(t, m.ExtensionPercent)
	assert.False(t, m.HasTrend)
	assert.Zero(t, m.DayChangePercent)
	assert.Equal(t, 1.0, m.RelativeVolume)
	assert.Equal(t, 400.0, m.Value)
}

func TestComputeMetricsNoTrend(t *testing.T) {
	p := model.Position{Ticker: "HOOD", EntryPrice: 40, Shares: 10}
	qs := model.QuoteSet{"HOOD": {Ticker: "HOOD", Price: 42, RelativeVolume: 1.2}}

	m := ComputeMetrics(p, qs)
	assert.False(t, m.HasTrend)
	assert.Zero(t, m.ExtensionPercent)
	assert.Equal(t, SeverityNeutral, ClassifyExtension(m.ExtensionPercent, m.HasTrend))
}

func TestDollarRiskNeverNegative(t *testing.T) {
	tests := []struct {
		name     string
		position model.Position
		price    float64
	}{
		{"far below manual stop", model.Position{Ticker: "A", EntryPrice: 100, Shares: 10, ManualStop: floatPtr(120)}, 95},
		{"below initial stop", model.Position{Ticker: "A", EntryPrice: 100, Shares: 10}, 80},
		{"below breakeven stop", model.Position{Ticker: "A", EntryPrice: 100, Shares: 10, Triggered7: true}, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMetrics(tt.position, quoteSet("A", tt.price))
			assert.GreaterOrEqual(t, m.DollarRisk, 0.0)
			assert.Zero(t, m.DollarRisk)
			assert.True(t, m.StopHit)
		})
	}
}

func TestSizePosition(t *testing.T) {
	s := SizePosition(100, 10000, model.RiskOnePercent)

	assert.Equal(t, 90.0, s.StopPrice)
	assert.InDelta(t, 10.0, s.RiskPerShare, 1e-9)
	assert.Equal(t, 100.0, s.RiskBudget)
	assert.Equal(t, int64(10), s.Shares)
	assert.Equal(t, 1000.0, s.PositionValue)
}

func TestSizePositionFloorsShares(t *testing.T) {
	// budget 150, risk/share 3.3 -> 45.45... -> 45 shares
	s := SizePosition(33, 10000, model.RiskOneHalfPercent)
	assert.Equal(t, int64(45), s.Shares)
}

func TestSizePositionZeroBalance(t *testing.T) {
	s := SizePosition(100, 0, model.RiskTwoPercent)
	assert.Zero(t, s.Shares)
	assert.Zero(t, s.PositionValue)
}

func TestAggregateAccount(t *testing.T) {
	acct := model.Account{ID: "ira", Name: "IRA", Balance: 20000}
	positions := []model.Position{
		// price 110, stop 80 manual -> risk (110-80)*10 = 300
		{ID: "1", Ticker: "AAA", AccountID: "ira", EntryPrice: 100, Shares: 10, ManualStop: floatPtr(80)},
		// price 50, stop 45 -> risk (50-45)*30 = 150
		{ID: "2", Ticker: "BBB", AccountID: "ira", EntryPrice: 50, Shares: 30},
		// other account, excluded
		{ID: "3", Ticker: "CCC", AccountID: "tasty", EntryPrice: 10, Shares: 100},
	}
	qs := model.QuoteSet{
		"AAA": {Ticker: "AAA", Price: 110, RelativeVolume: 1},
		"BBB": {Ticker: "BBB", Price: 50, RelativeVolume: 1},
		"CCC": {Ticker: "CCC", Price: 12, RelativeVolume: 1},
	}

	s := AggregateAccount(acct, positions, qs)
	assert.Equal(t, 2, s.PositionCount)
	assert.InDelta(t, 450.0, s.TotalRisk, 1e-9)
	assert.InDelta(t, 2.25, s.RiskPercent, 1e-9)
	assert.InDelta(t, 110.0*10+50.0*30, s.TotalValue, 1e-9)
	assert.InDelta(t, 100.0, s.TotalPnL, 1e-9)
	assert.False(t, s.ElevatedRisk)
}

func TestAggregateAccountZeroBalance(t *testing.T) {
	acct := model.Account{ID: "ira", Balance: 0}
	positions := []model.Position{
		{ID: "1", Ticker: "AAA", AccountID: "ira", EntryPrice: 100, Shares: 10},
	}

	s := AggregateAccount(acct, positions, quoteSet("AAA", 100))
	assert.Positive(t, s.TotalRisk)
	assert.Zero(t, s.RiskPercent)
	assert.False(t, s.ElevatedRisk)
}

func TestAggregatePortfolio(t *testing.T) {
	accounts := []model.Account{
		{ID: "ira", Name: "IRA", Balance: 20000},
		{ID: "tasty", Name: "Tasty", Balance: 10000},
	}
	positions := []model.Position{
		{ID: "1", Ticker: "AAA", AccountID: "ira", EntryPrice: 100, Shares: 10},
		{ID: "2", Ticker: "BBB", AccountID: "tasty", EntryPrice: 200, Shares: 40},
	}
	qs := model.QuoteSet{
		"AAA": {Ticker: "AAA", Price: 100, RelativeVolume: 1},
		"BBB": {Ticker: "BBB", Price: 200, RelativeVolume: 1},
	}

	s := AggregatePortfolio(accounts, positions, qs)
	require.Len(t, s.Accounts, 2)
	assert.Equal(t, 30000.0, s.TotalBalance)
	assert.Equal(t, 2, s.PositionCount)
	// risks: (100-90)*10=100 and (200-180)*40=800
	assert.InDelta(t, 900.0, s.TotalRisk, 1e-9)
	assert.InDelta(t, 3.0, s.RiskPercent, 1e-9)
	assert.False(t, s.ElevatedRisk)

	// tasty alone carries 8% of its balance
	assert.True(t, s.Accounts[1].ElevatedRisk)
}

func TestAggregatePortfolioEmpty(t *testing.T) {
	s := AggregatePortfolio(nil, nil, model.QuoteSet{})
	assert.Zero(t, s.TotalBalance)
	assert.Zero(t, s.RiskPercent)
	assert.False(t, s.ElevatedRisk)
}
