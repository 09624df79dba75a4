package refresher

import (
	"context"
	"sync"
	"time"

	"github.com/tradecockpit/cockpit/internal/logger"
	"github.com/tradecockpit/cockpit/internal/model"
	"github.com/tradecockpit/cockpit/internal/risk"
)

type QuoteService interface {
	GetQuotes(ctx context.Context, tickers []string) model.QuoteSet
}

type Storage interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListPositions(ctx context.Context) ([]model.Position, error)
	ListSignals(ctx context.Context) ([]model.Signal, error)
	MarkTriggered(ctx context.Context, id string) error
}

// Refresher re-runs the full derivation cycle on an interval: fetch
// quotes for every held and watched ticker, flip due breakeven
// triggers, and rebuild the aggregates from scratch. The latest cycle
// stays available for the API between runs.
type Refresher struct {
	quotes  QuoteService
	storage Storage
	logger  logger.Logger

	interval time.Duration

	mu         sync.RWMutex
	latest     model.QuoteSet
	summary    risk.PortfolioSummary
	lastUpdate time.Time
}

func New(quotes QuoteService, storage Storage, interval time.Duration, logger logger.Logger) *Refresher {
	return &Refresher{
		quotes:   quotes,
		storage:  storage,
		logger:   logger,
		interval: interval,
		latest:   make(model.QuoteSet),
	}
}

func (r *Refresher) Run(ctx context.Context) {
	r.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.interval):
			r.Refresh(ctx)
		}
	}
}

// Refresh runs one full cycle. Partial quote data is fine: positions
// without a fresh quote degrade per the engine rules and triggers for
// them simply wait for the next cycle.
func (r *Refresher) Refresh(ctx context.Context) {
	positions, err := r.storage.ListPositions(ctx)
	if err != nil {
		r.logger.Errorf("%s: can't list positions on refresh", err)
		return
	}
	signals, err := r.storage.ListSignals(ctx)
	if err != nil {
		r.logger.Errorf("%s: can't list signals on refresh", err)
		return
	}
	accounts, err := r.storage.ListAccounts(ctx)
	if err != nil {
		r.logger.Errorf("%s: can't list accounts on refresh", err)
		return
	}

	qs := r.quotes.GetQuotes(ctx, tickersOf(positions, signals))
	if len(qs) == 0 && len(positions)+len(signals) > 0 {
		r.logger.Warnf("empty quote cycle, keeping previous quotes")
		r.mu.RLock()
		qs = r.latest
		r.mu.RUnlock()
	}

	flipped := 0
	for i, p := range positions {
		if !risk.ShouldTrigger(p, qs) {
			continue
		}
		if err := r.storage.MarkTriggered(ctx, p.ID); err != nil {
			r.logger.Errorf("%s: can't persist trigger for %s", err, p.Ticker)
			continue
		}
		positions[i].Triggered7 = true
		flipped++
		r.logger.Infof("breakeven trigger fired for %s (entry %.2f)", p.Ticker, p.EntryPrice)
	}

	summary := risk.AggregatePortfolio(accounts, positions, qs)

	r.mu.Lock()
	r.latest = qs
	r.summary = summary
	r.lastUpdate = time.Now()
	r.mu.Unlock()

	r.logger.Debugf("refresh cycle done: %d quotes, %d positions, %d triggers flipped, portfolio risk %.2f%%",
		len(qs), len(positions), flipped, summary.RiskPercent)
}

// Quotes returns the latest quote cycle.
func (r *Refresher) Quotes() model.QuoteSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Summary returns the aggregation produced by the latest cycle.
func (r *Refresher) Summary() risk.PortfolioSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summary
}

func (r *Refresher) LastUpdate() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastUpdate
}

func tickersOf(positions []model.Position, signals []model.Signal) []string {
	tickers := make([]string, 0, len(positions)+len(signals))
	for _, p := range positions {
		tickers = append(tickers, p.Ticker)
	}
	for _, s := range signals {
		tickers = append(tickers, s.Ticker)
	}
	return tickers
}
