package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tradecockpit/cockpit/internal/logger"
	"github.com/tradecockpit/cockpit/internal/model"
	"github.com/tradecockpit/cockpit/internal/risk"
	"github.com/tradecockpit/cockpit/internal/store"
)

type Storage interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	GetAccount(ctx context.Context, id string) (model.Account, error)
	UpdateBalance(ctx context.Context, id string, balance float64) error

	CreatePosition(ctx context.Context, ticker, accountID string, entryPrice float64, shares int64) (model.Position, error)
	ListPositions(ctx context.Context) ([]model.Position, error)
	GetPosition(ctx context.Context, id string) (model.Position, error)
	SetManualStop(ctx context.Context, id string, stop *float64) error
	DeletePosition(ctx context.Context, id string) error

	CreateSignal(ctx context.Context, sig model.Signal) (model.Signal, error)
	ListSignals(ctx context.Context) ([]model.Signal, error)
	DeleteSignal(ctx context.Context, id string) error

	GetRiskPercent(ctx context.Context, fallback model.RiskPercent) (model.RiskPercent, error)
	SetRiskPercent(ctx context.Context, r model.RiskPercent) error
}

type Snapshot interface {
	Quotes() model.QuoteSet
	Refresh(ctx context.Context)
	LastUpdate() time.Time
}

// API derives everything it serves from current store state plus the
// latest quote cycle, so responses never drift from the stores.
type API struct {
	storage     Storage
	snapshot    Snapshot
	session     risk.SessionWindow
	defaultRisk model.RiskPercent
	logger      logger.Logger
}

func NewAPI(storage Storage, snapshot Snapshot, session risk.SessionWindow, defaultRisk model.RiskPercent, logger logger.Logger) *API {
	return &API{
		storage:     storage,
		snapshot:    snapshot,
		session:     session,
		defaultRisk: defaultRisk,
		logger:      logger,
	}
}

func (a *API) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/quotes", a.getQuotes)
	mux.HandleFunc("GET /api/summary", a.getSummary)
	mux.HandleFunc("POST /api/refresh", a.postRefresh)

	mux.HandleFunc("GET /api/positions", a.getPositions)
	mux.HandleFunc("POST /api/positions", a.postPosition)
	mux.HandleFunc("POST /api/positions/preview", a.postPreview)
	mux.HandleFunc("PUT /api/positions/{id}/stop", a.putStop)
	mux.HandleFunc("DELETE /api/positions/{id}", a.deletePosition)

	mux.HandleFunc("GET /api/signals", a.getSignals)
	mux.HandleFunc("POST /api/signals", a.postSignal)
	mux.HandleFunc("DELETE /api/signals/{id}", a.deleteSignal)

	mux.HandleFunc("PUT /api/accounts/{id}/balance", a.putBalance)

	mux.HandleFunc("GET /api/settings/risk", a.getRisk)
	mux.HandleFunc("PUT /api/settings/risk", a.putRisk)

	return mux
}

type quotesResponse struct {
	Quotes    model.QuoteSet `json:"quotes"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (a *API) getQuotes(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, quotesResponse{
		Quotes:    a.snapshot.Quotes(),
		UpdatedAt: a.snapshot.LastUpdate(),
	})
}

func (a *API) getSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := a.storage.ListAccounts(ctx)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	positions, err := a.storage.ListPositions(ctx)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	a.writeJSON(w, http.StatusOK, risk.AggregatePortfolio(accounts, positions, a.snapshot.Quotes()))
}

func (a *API) postRefresh(w http.ResponseWriter, r *http.Request) {
	a.snapshot.Refresh(r.Context())
	a.getQuotes(w, r)
}

type positionResponse struct {
	model.Position
	Metrics risk.Metrics `json:"metrics"`
}

func (a *API) getPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := a.storage.ListPositions(r.Context())
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	qs := a.snapshot.Quotes()
	out := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, positionResponse{Position: p, Metrics: risk.ComputeMetrics(p, qs)})
	}

	a.writeJSON(w, http.StatusOK, out)
}

type openPositionRequest struct {
	Ticker     string  `json:"ticker"`
	AccountID  string  `json:"account_id"`
	EntryPrice float64 `json:"entry_price"`
	// Shares overrides the calculated size when > 0. The override is
	// a user decision and is not reconciled against the risk budget.
	Shares int64 `json:"shares"`
}

func (a *API) postPosition(w http.ResponseWriter, r *http.Request) {
	var req openPositionRequest
	if err := a.readJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	if req.Ticker == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("ticker is required"))
		return
	}
	if req.EntryPrice <= 0 {
		a.writeError(w, http.StatusBadRequest, errors.New("entry price must be positive"))
		return
	}
	if req.Shares < 0 {
		a.writeError(w, http.StatusBadRequest, errors.New("shares override must be positive"))
		return
	}

	ctx := r.Context()
	acct, err := a.storage.GetAccount(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			a.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown account %q", req.AccountID))
			return
		}
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	shares := req.Shares
	if shares == 0 {
		riskPercent, err := a.storage.GetRiskPercent(ctx, a.defaultRisk)
		if err != nil {
			a.writeError(w, http.StatusInternalServerError, err)
			return
		}
		sizing := risk.SizePosition(req.EntryPrice, acct.Balance, riskPercent)
		if sizing.Shares == 0 {
			a.writeError(w, http.StatusBadRequest, errors.New("risk budget buys zero shares, use an explicit share count"))
			return
		}
		shares = sizing.Shares
	}

	p, err := a.storage.CreatePosition(ctx, req.Ticker, acct.ID, req.EntryPrice, shares)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, positionResponse{Position: p, Metrics: risk.ComputeMetrics(p, a.snapshot.Quotes())})
}

type previewRequest struct {
	AccountID  string  `json:"account_id"`
	EntryPrice float64 `json:"entry_price"`
}

type previewResponse struct {
	risk.Sizing
	RiskPercent model.RiskPercent `json:"risk_percent"`
	OrderType   risk.OrderLabel   `json:"order_type"`
}

func (a *API) postPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := a.readJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.EntryPrice <= 0 {
		a.writeError(w, http.StatusBadRequest, errors.New("entry price must be positive"))
		return
	}

	ctx := r.Context()
	acct, err := a.storage.GetAccount(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			a.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown account %q", req.AccountID))
			return
		}
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	riskPercent, err := a.storage.GetRiskPercent(ctx, a.defaultRisk)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	a.writeJSON(w, http.StatusOK, previewResponse{
		Sizing:      risk.SizePosition(req.EntryPrice, acct.Balance, riskPercent),
		RiskPercent: riskPercent,
		OrderType:   a.session.OrderTypeLabel(time.Now()),
	})
}

type stopRequest struct {
	Stop *float64 `json:"stop"`
}

func (a *API) putStop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if err := a.readJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Stop != nil && *req.Stop <= 0 {
		a.writeError(w, http.StatusBadRequest, errors.New("manual stop must be positive"))
		return
	}

	id := r.PathValue("id")
	if err := a.storage.SetManualStop(r.Context(), id, req.Stop); err != nil {
		if errors.Is(err, store.ErrPositionNotFound) {
			a.writeError(w, http.StatusNotFound, err)
			return
		}
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	p, err := a.storage.GetPosition(r.Context(), id)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, positionResponse{Position: p, Metrics: risk.ComputeMetrics(p, a.snapshot.Quotes())})
}

func (a *API) deletePosition(w http.ResponseWriter, r *http.Request) {
	if err := a.storage.DeletePosition(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrPositionNotFound) {
			a.writeError(w, http.StatusNotFound, err)
			return
		}
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := a.storage.ListSignals(r.Context())
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, signals)
}

func (a *API) postSignal(w http.ResponseWriter, r *http.Request) {
	var sig model.Signal
	if err := a.readJSON(r, &sig); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	sig.Ticker = strings.ToUpper(strings.TrimSpace(sig.Ticker))
	if sig.Ticker == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("ticker is required"))
		return
	}

	created, err := a.storage.CreateSignal(r.Context(), sig)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) deleteSignal(w http.ResponseWriter, r *http.Request) {
	if err := a.storage.DeleteSignal(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrSignalNotFound) {
			a.writeError(w, http.StatusNotFound, err)
			return
		}
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceRequest struct {
	Balance float64 `json:"balance"`
}

func (a *API) putBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := a.readJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Balance < 0 {
		a.writeError(w, http.StatusBadRequest, errors.New("balance must be non-negative"))
		return
	}

	id := r.PathValue("id")
	if err := a.storage.UpdateBalance(r.Context(), id, req.Balance); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			a.writeError(w, http.StatusNotFound, err)
			return
		}
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	acct, err := a.storage.GetAccount(r.Context(), id)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, acct)
}

type riskSettingResponse struct {
	RiskPercent model.RiskPercent   `json:"risk_percent"`
	Options     []model.RiskPercent `json:"options"`
}

func (a *API) getRisk(w http.ResponseWriter, r *http.Request) {
	riskPercent, err := a.storage.GetRiskPercent(r.Context(), a.defaultRisk)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, riskSettingResponse{RiskPercent: riskPercent, Options: model.RiskPercentOptions})
}

type riskSettingRequest struct {
	RiskPercent model.RiskPercent `json:"risk_percent"`
}

func (a *API) putRisk(w http.ResponseWriter, r *http.Request) {
	var req riskSettingRequest
	if err := a.readJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !req.RiskPercent.Valid() {
		a.writeError(w, http.StatusBadRequest,
			fmt.Errorf("invalid risk percent %v, allowed: %v", req.RiskPercent, model.RiskPercentOptions))
		return
	}

	if err := a.storage.SetRiskPercent(r.Context(), req.RiskPercent); err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, riskSettingResponse{RiskPercent: req.RiskPercent, Options: model.RiskPercentOptions})
}

func (a *API) readJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: can't read request body", err)
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: can't unmarshal request body", err)
	}
	return nil
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		a.logger.Errorf("%s: can't marshal response", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		a.logger.Errorf("%s: can't write response", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		a.logger.Errorf("%s: request failed", err)
	}
	a.writeJSON(w, status, errorResponse{Error: err.Error()})
}
