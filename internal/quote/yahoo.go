package quote

import (
	"context"
	"strings"
	"time"

	"github.com/tradecockpit/cockpit/internal/config"
	"github.com/tradecockpit/cockpit/internal/logger"
	"github.com/tradecockpit/cockpit/internal/model"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	_sparkRange    = "1mo"
	_sparkInterval = "1d"
	_smaWindow     = 10
)

type sparkResponse struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Indicators struct {
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"response"`
		} `json:"result"`
	} `json:"spark"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                   string  `json:"symbol"`
			RegularMarketPrice       float64 `json:"regularMarketPrice"`
			RegularMarketChange      float64 `json:"regularMarketChangePercent"`
			RegularMarketVolume      int64   `json:"regularMarketVolume"`
			AverageDailyVolume10Day  int64   `json:"averageDailyVolume10Day"`
			AverageDailyVolume3Month int64   `json:"averageDailyVolume3Month"`
			ShortName                string  `json:"shortName"`
			LongName                 string  `json:"longName"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// YahooService fetches one refresh cycle of quotes from the Yahoo
// Finance spark and quote endpoints.
type YahooService struct {
	c           *resty.Client
	cfg         config.QuotesConfig
	rateLimiter ratelimit.Limiter

	logger logger.Logger
}

func NewYahooService(cfg config.QuotesConfig, logger logger.Logger) *YahooService {
	client := resty.New().
		SetLogger(logger).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	return &YahooService{
		c:           client,
		cfg:         cfg,
		rateLimiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(1*time.Minute)),
		logger:      logger,
	}
}

// GetQuotes returns best-effort quotes for the given tickers. Absent
// tickers are simply missing from the result; a total upstream failure
// yields an empty set, never an error, so a refresh cycle can always
// proceed on whatever arrived.
func (s *YahooService) GetQuotes(ctx context.Context, tickers []string) model.QuoteSet {
	result := make(model.QuoteSet, len(tickers))
	if len(tickers) == 0 {
		return result
	}

	symbols := strings.Join(normalize(tickers), ",")

	quoteByTicker := s.fetchQuotes(ctx, symbols)
	closesByTicker := s.fetchCloses(ctx, symbols)

	for ticker, closes := range closesByTicker {
		q := model.Quote{
			Ticker:         ticker,
			Name:           ticker,
			RelativeVolume: 1.0,
		}

		if len(closes) > 0 {
			q.Price = closes[len(closes)-1]
		}
		if sma, ok := trailingMean(closes, _smaWindow); ok {
			q.SMA10 = &sma
		}

		if info, ok := quoteByTicker[ticker]; ok {
			if info.Price != 0 {
				q.Price = info.Price
			}
			q.Name = info.Name
			q.DayChangePercent = info.DayChangePercent
			q.Volume = info.Volume
			q.AvgVolume = info.AvgVolume
			q.RelativeVolume = rvol(info.Volume, info.AvgVolume)
		}

		result[ticker] = q
	}

	// Tickers the spark endpoint skipped still get a trendless quote.
	for ticker, info := range quoteByTicker {
		if _, ok := result[ticker]; ok {
			continue
		}
		result[ticker] = model.Quote{
			Ticker:           ticker,
			Name:             info.Name,
			Price:            info.Price,
			DayChangePercent: info.DayChangePercent,
			Volume:           info.Volume,
			AvgVolume:        info.AvgVolume,
			RelativeVolume:   rvol(info.Volume, info.AvgVolume),
		}
	}

	return result
}

type quoteInfo struct {
	Price            float64
	DayChangePercent float64
	Volume           int64
	AvgVolume        int64
	Name             string
}

func (s *YahooService) fetchQuotes(ctx context.Context, symbols string) map[string]quoteInfo {
	s.rateLimiter.Take()

	req := s.c.R().
		SetQueryParams(map[string]string{"symbols": symbols}).
		SetResult(&quoteResponse{}).
		SetContext(ctx)

	resp, err := req.Get(s.cfg.QuoteURL)
	if err != nil {
		s.logger.Warnf("%s: can't fetch quote data", err)
		return nil
	}
	defer resp.Body.Close()

	if !resp.IsSuccess() {
		s.logger.Warnf("quote request status %s", resp.Status())
		return nil
	}

	parsed := resp.Result().(*quoteResponse)
	m := make(map[string]quoteInfo, len(parsed.QuoteResponse.Result))
	for _, r := range parsed.QuoteResponse.Result {
		avgVolume := r.AverageDailyVolume10Day
		if avgVolume == 0 {
			avgVolume = r.AverageDailyVolume3Month
		}
		name := r.ShortName
		if name == "" {
			name = r.LongName
		}
		if name == "" {
			name = r.Symbol
		}
		m[r.Symbol] = quoteInfo{
			Price:            r.RegularMarketPrice,
			DayChangePercent: r.RegularMarketChange,
			Volume:           r.RegularMarketVolume,
			AvgVolume:        avgVolume,
			Name:             name,
		}
	}
	return m
}

func (s *YahooService) fetchCloses(ctx context.Context, symbols string) map[string][]float64 {
	s.rateLimiter.Take()

	req := s.c.R().
		SetQueryParams(map[string]string{
			"symbols":  symbols,
			"range":    _sparkRange,
			"interval": _sparkInterval,
		}).
		SetResult(&sparkResponse{}).
		SetContext(ctx)

	resp, err := req.Get(s.cfg.SparkURL)
	if err != nil {
		s.logger.Warnf("%s: can't fetch spark data", err)
		return nil
	}
	defer resp.Body.Close()

	if !resp.IsSuccess() {
		s.logger.Warnf("spark request status %s", resp.Status())
		return nil
	}

	parsed := resp.Result().(*sparkResponse)
	m := make(map[string][]float64, len(parsed.Spark.Result))
	for _, r := range parsed.Spark.Result {
		if len(r.Response) == 0 || len(r.Response[0].Indicators.Quote) == 0 {
			continue
		}
		raw := r.Response[0].Indicators.Quote[0].Close
		closes := make([]float64, 0, len(raw))
		for _, c := range raw {
			if c != nil {
				closes = append(closes, *c)
			}
		}
		m[r.Symbol] = closes
	}
	return m
}

func normalize(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func trailingMean(closes []float64, window int) (float64, bool) {
	if len(closes) == 0 {
		return 0, false
	}
	if len(closes) > window {
		closes = closes[len(closes)-window:]
	}
	var sum float64
	for _, c := range closes {
		sum += c
	}
	return sum / float64(len(closes)), true
}

func rvol(volume, avgVolume int64) float64 {
	if avgVolume <= 0 {
		return 1.0
	}
	ratio := float64(volume) / float64(avgVolume)
	// two decimals, matching the display precision everywhere else
	return float64(int64(ratio*100+0.5)) / 100
}
