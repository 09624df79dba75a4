package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/tradecockpit/cockpit/internal/config"
	"github.com/tradecockpit/cockpit/internal/logger"
	"github.com/tradecockpit/cockpit/internal/model"
	"github.com/tradecockpit/cockpit/internal/postgres"
	"github.com/tradecockpit/cockpit/internal/quote"
	"github.com/tradecockpit/cockpit/internal/risk"
	"github.com/tradecockpit/cockpit/internal/store"
)

const (
	_cockpitCfgFilePath = "./configs/cockpit.yaml"
)

// One-shot terminal snapshot of the portfolio. Reads the same config
// and database as the daemon, pulls one quote cycle and renders
// positions and account totals without touching stored trigger state.
func main() {
	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Error)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadCockpitConfig(_cockpitCfgFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load cockpit cfg", err)
	}

	db, err := postgres.NewDB(postgres.NewConfigFromEnv())
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to postgres", err)
	}
	defer db.Close()

	storage := store.New(db)
	if err := storage.Init(ctx, cfg.Accounts); err != nil {
		zapLogger.Fatalf("%s: can't init storage", err)
	}

	accounts, err := storage.ListAccounts(ctx)
	if err != nil {
		zapLogger.Fatalf("%s: can't list accounts", err)
	}
	positions, err := storage.ListPositions(ctx)
	if err != nil {
		zapLogger.Fatalf("%s: can't list positions", err)
	}

	quotes := quote.NewYahooService(cfg.Quotes, zapLogger)
	qs := quotes.GetQuotes(ctx, tickersOf(positions))

	session, err := risk.NewSessionWindow(cfg.Session.Location, cfg.Session.OpenMinute, cfg.Session.CloseMinute)
	if err != nil {
		zapLogger.Fatalf("%s: can't init session window", err)
	}

	printPositions(positions, accounts, qs)
	printSummary(risk.AggregatePortfolio(accounts, positions, qs), session)
}

func tickersOf(positions []model.Position) []string {
	tickers := make([]string, 0, len(positions))
	for _, p := range positions {
		tickers = append(tickers, p.Ticker)
	}
	return tickers
}

func printPositions(positions []model.Position, accounts []model.Account, qs model.QuoteSet) {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("POSITIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Ticker", "Account", "Shares", "Entry", "Price", "Gain", "Stop", "Cushion", "$ Risk", "RVol", "Ext"})

	for _, p := range positions {
		m := risk.ComputeMetrics(p, qs)

		ext := "-"
		if m.HasTrend {
			ext = fmt.Sprintf("%s%%", decimal.NewFromFloat(m.ExtensionPercent).StringFixed(1))
		}
		stop := "$" + decimal.NewFromFloat(m.EffectiveStop).StringFixed(2)
		if m.StopHit {
			stop += " HIT"
		}

		t.AppendRow(table.Row{
			p.Ticker,
			names[p.AccountID],
			p.Shares,
			"$" + decimal.NewFromFloat(p.EntryPrice).StringFixed(2),
			"$" + decimal.NewFromFloat(m.Price).StringFixed(2),
			fmt.Sprintf("%s%%", decimal.NewFromFloat(m.GainPercent).StringFixed(1)),
			stop,
			fmt.Sprintf("%s%%", decimal.NewFromFloat(m.StopCushion).StringFixed(1)),
			"$" + decimal.NewFromFloat(m.DollarRisk).StringFixed(2),
			decimal.NewFromFloat(m.RelativeVolume).StringFixed(2),
			ext,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
		{Number: 10, Align: text.AlignRight},
		{Number: 11, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

func printSummary(s risk.PortfolioSummary, session risk.SessionWindow) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("ACCOUNTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Account", "Balance", "Positions", "$ Risk", "Risk %", "Value", "PnL"})

	for _, a := range s.Accounts {
		riskPct := fmt.Sprintf("%s%%", decimal.NewFromFloat(a.RiskPercent).StringFixed(2))
		if a.ElevatedRisk {
			riskPct += " !"
		}
		t.AppendRow(table.Row{
			a.Name,
			"$" + decimal.NewFromFloat(a.Balance).StringFixed(2),
			a.PositionCount,
			"$" + decimal.NewFromFloat(a.TotalRisk).StringFixed(2),
			riskPct,
			"$" + decimal.NewFromFloat(a.TotalValue).StringFixed(2),
			"$" + decimal.NewFromFloat(a.TotalPnL).StringFixed(2),
		})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"$" + decimal.NewFromFloat(s.TotalBalance).StringFixed(2),
		s.PositionCount,
		"$" + decimal.NewFromFloat(s.TotalRisk).StringFixed(2),
		fmt.Sprintf("%s%%", decimal.NewFromFloat(s.RiskPercent).StringFixed(2)),
		"$" + decimal.NewFromFloat(s.TotalValue).StringFixed(2),
		"$" + decimal.NewFromFloat(s.TotalPnL).StringFixed(2),
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	t.Render()

	fmt.Printf("\nOrder type now: %s (as of %s)\n",
		session.OrderTypeLabel(time.Now()), time.Now().Format(time.RFC1123))
}
