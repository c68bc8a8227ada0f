package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/stripeconn/infra/response"
	"github.com/mstgnz/stripeconn/provider"
)

// ExchangeReader looks up recorded exchanges
type ExchangeReader interface {
	ExchangesByTransaction(ctx context.Context, transactionID string) ([]provider.Exchange, error)
}

// ExchangesHandler serves the audit trail of a transaction
type ExchangesHandler struct {
	reader ExchangeReader
}

// NewExchangesHandler creates a new exchanges handler
func NewExchangesHandler(reader ExchangeReader) *ExchangesHandler {
	return &ExchangesHandler{reader: reader}
}

// ListByTransaction lists every recorded exchange of one processor transaction
func (h *ExchangesHandler) ListByTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	transactionID := chi.URLParam(r, "transactionID")
	if transactionID == "" {
		response.Error(w, http.StatusBadRequest, "Missing transaction ID", nil)
		return
	}

	exchanges, err := h.reader.ExchangesByTransaction(ctx, transactionID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to load exchanges", err)
		return
	}

	if len(exchanges) == 0 {
		response.Error(w, http.StatusNotFound, "No exchanges recorded for transaction", nil)
		return
	}

	response.Success(w, http.StatusOK, "Exchanges retrieved", map[string]any{
		"transactionId": transactionID,
		"exchanges":     exchanges,
		"count":         len(exchanges),
	})
}
