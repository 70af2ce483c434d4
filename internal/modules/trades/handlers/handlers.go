// Package handlers provides HTTP handlers for the trade ledger API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sambutler/wheeltrack/internal/domain"
	"github.com/sambutler/wheeltrack/internal/modules/trades"
)

// TradeHandlers contains HTTP handlers for the trade ledger API
type TradeHandlers struct {
	log        zerolog.Logger
	tradeRepo  *trades.Repository
	rateSource domain.RateSource
	baseCcy    string
	quoteCcy   string
}

// NewTradeHandlers creates a new trade handlers instance
func NewTradeHandlers(
	tradeRepo *trades.Repository,
	rateSource domain.RateSource,
	baseCurrency string,
	quoteCurrency string,
	log zerolog.Logger,
) *TradeHandlers {
	return &TradeHandlers{
		tradeRepo:  tradeRepo,
		rateSource: rateSource,
		baseCcy:    baseCurrency,
		quoteCcy:   quoteCurrency,
		log:        log.With().Str("handler", "trades").Logger(),
	}
}

// tradeRequest is the POST body for recording a trade
type tradeRequest struct {
	Date       string          `json:"date"`
	Ticker     string          `json:"ticker"`
	TradeType  string          `json:"trade_type"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	OptionType *string         `json:"option_type,omitempty"`
	Strike     *string         `json:"strike,omitempty"`
	Expiration *string         `json:"expiration,omitempty"`
}

// HandleAddTrade records a new trade in the ledger.
// The exchange rate at the trade date is snapshotted onto the row so later
// reporting does not depend on the rate provider still covering that date.
// POST /api/trades
func (h *TradeHandlers) HandleAddTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	trade := domain.Trade{
		Date:       req.Date,
		Ticker:     req.Ticker,
		Type:       domain.TradeType(req.TradeType),
		Quantity:   req.Quantity,
		Price:      req.Price,
		OptionType: req.OptionType,
		Expiration: req.Expiration,
	}

	if req.Strike != nil {
		strike, err := decimal.NewFromString(*req.Strike)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid strike price")
			return
		}
		trade.Strike = &strike
	}

	fx, err := h.snapshotRate(req.Date)
	if err != nil {
		h.log.Error().Err(err).Str("date", req.Date).Msg("Failed to snapshot exchange rate")
		h.writeError(w, http.StatusServiceUnavailable, "Exchange rate unavailable, trade not recorded")
		return
	}
	trade.FxRate = fx

	id, err := h.tradeRepo.Append(trade)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTradeType) {
			h.writeError(w, http.StatusBadRequest, "Unknown trade type: "+req.TradeType)
			return
		}
		h.log.Error().Err(err).Msg("Failed to append trade")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      id,
		"fx_rate": fx.String(),
	})
}

// snapshotRate returns the base->quote rate at the trade date, falling back
// to the spot rate when the historical provider cannot serve the date.
func (h *TradeHandlers) snapshotRate(date string) (decimal.Decimal, error) {
	rate, err := h.rateSource.HistoricalRate(h.baseCcy, h.quoteCcy, date)
	if err == nil {
		return rate, nil
	}

	h.log.Warn().Err(err).Str("date", date).Msg("Historical rate unavailable, falling back to spot")
	return h.rateSource.SpotRate(h.baseCcy, h.quoteCcy)
}

// HandleListTrades returns the full ledger in replay order
// GET /api/trades
func (h *TradeHandlers) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	allTrades, err := h.tradeRepo.ListAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list trades")
		h.writeError(w, http.StatusInternalServerError, "Failed to list trades")
		return
	}

	response := make([]map[string]interface{}, 0, len(allTrades))
	for _, t := range allTrades {
		entry := map[string]interface{}{
			"id":         t.ID,
			"date":       t.Date,
			"ticker":     t.Ticker,
			"trade_type": string(t.Type),
			"quantity":   t.Quantity,
			"price":      t.Price.String(),
			"fx_rate":    t.FxRate.String(),
		}
		if t.OptionType != nil {
			entry["option_type"] = *t.OptionType
		}
		if t.Strike != nil {
			entry["strike"] = t.Strike.String()
		}
		if t.Expiration != nil {
			entry["expiration"] = *t.Expiration
		}
		response = append(response, entry)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *TradeHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *TradeHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
