package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/stripeconn/infra/response"
	"github.com/mstgnz/stripeconn/provider"
)

// requestTimeout is a ceiling above the connector's own HTTP timeout
const requestTimeout = 60 * time.Second

// PaymentServiceInterface defines the interface for payment operations
type PaymentServiceInterface interface {
	Processor() string
	Authorize(ctx context.Context, amount int64, currency string, card provider.CardDetails) provider.AuthorizationResult
	Capture(ctx context.Context, transactionID string) provider.CaptureResult
	Cancel(ctx context.Context, transactionID string) provider.CancelResult
}

// AuthorizeRequest is the body of POST /v1/payments/authorize
type AuthorizeRequest struct {
	Amount   int64                `json:"amount" validate:"required,gt=0"`
	Currency string               `json:"currency" validate:"required,len=3,alpha"`
	Card     provider.CardDetails `json:"card" validate:"required"`
}

// PaymentHandler handles payment related HTTP requests
type PaymentHandler struct {
	paymentService PaymentServiceInterface
	validate       *validator.Validate
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentServiceInterface, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validate,
	}
}

// Authorize reserves funds on a card without capturing them
func (h *PaymentHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req AuthorizeRequest
	if err := response.ReadJSON(w, r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	result := h.paymentService.Authorize(ctx, req.Amount, strings.ToUpper(req.Currency), req.Card)

	switch result.TransactionStatus {
	case provider.StatusAuthorized:
		response.Success(w, http.StatusOK, "Payment authorized", result)
	case provider.StatusDeclined:
		_ = response.WriteJSON(w, http.StatusPaymentRequired, response.Response{
			Success: false,
			Message: "Payment declined",
			Data:    result,
		})
	default:
		writeFailed(w, "Authorization failed", result.ErrorMessage, result)
	}
}

// Capture settles a previously authorized payment
func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	transactionID := chi.URLParam(r, "transactionID")
	if strings.TrimSpace(transactionID) == "" {
		response.Error(w, http.StatusBadRequest, "Missing transaction ID", nil)
		return
	}

	result := h.paymentService.Capture(ctx, transactionID)
	if result.TransactionStatus == provider.StatusSettled {
		response.Success(w, http.StatusOK, "Payment captured", result)
		return
	}
	writeFailed(w, "Capture failed", result.ErrorMessage, result)
}

// Cancel voids a previously authorized payment
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	transactionID := chi.URLParam(r, "transactionID")
	if strings.TrimSpace(transactionID) == "" {
		response.Error(w, http.StatusBadRequest, "Missing transaction ID", nil)
		return
	}

	result := h.paymentService.Cancel(ctx, transactionID)
	if result.TransactionStatus == provider.StatusCancelled {
		response.Success(w, http.StatusOK, "Payment cancelled", result)
		return
	}
	writeFailed(w, "Cancel failed", result.ErrorMessage, result)
}

// writeFailed reports a FAILED result as a bad gateway
func writeFailed(w http.ResponseWriter, message, errorMessage string, data any) {
	_ = response.WriteJSON(w, http.StatusBadGateway, response.Response{
		Success: false,
		Message: message,
		Error:   errorMessage,
		Data:    data,
	})
}
