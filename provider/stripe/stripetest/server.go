// Package stripetest provides an in-memory stand-in for the Stripe
// PaymentIntents API, for tests that must not reach api.stripe.com.
package stripetest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Stripe test card numbers understood by the fake server
const (
	CardValid             = "4111111111111111"
	CardIncorrectCVC      = "4000000000000101"
	CardInsufficientFunds = "4000000000009995"
	CardGenericDecline    = "4000000000000002"
)

// Intent statuses used by the fake server
const (
	StatusRequiresCapture = "requires_capture"
	StatusSucceeded       = "succeeded"
	StatusCanceled        = "canceled"
)

// RecordedRequest is a request received by the fake server
type RecordedRequest struct {
	Method string
	Path   string
	// EscapedPath is the path as sent on the wire
	EscapedPath   string
	RawQuery      string
	Authorization string
	ContentType   string
	Body          string
}

type intent struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// Server is a fake Stripe API backed by httptest.Server
type Server struct {
	*httptest.Server

	apiKey string

	mu       sync.Mutex
	seq      int
	intents  map[string]*intent
	declines map[string]string
	requests []RecordedRequest
}

// NewServer starts a fake Stripe API accepting apiKey as its only secret key
func NewServer(apiKey string) *Server {
	s := &Server{
		apiKey:  apiKey,
		intents: make(map[string]*intent),
		declines: map[string]string{
			CardIncorrectCVC:      "incorrect_cvc",
			CardInsufficientFunds: "insufficient_funds",
			CardGenericDecline:    "generic_decline",
		},
	}

	r := chi.NewRouter()
	r.Use(s.record, s.authenticate)
	r.Post("/v1/payment_intents", s.createIntent)
	r.Post("/v1/payment_intents/{id}/capture", s.captureIntent)
	r.Post("/v1/payment_intents/{id}/cancel", s.cancelIntent)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "invalid_request_error", "", "", "Unrecognized request URL ("+r.Method+": "+r.URL.Path+").")
	})

	s.Server = httptest.NewServer(r)
	return s
}

// Decline makes authorizations of cardNumber fail with declineCode
func (s *Server) Decline(cardNumber, declineCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declines[cardNumber] = declineCode
}

// Requests returns a copy of every request received so far
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// IntentStatus returns the current status of a payment intent
func (s *Server) IntentStatus(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, ok := s.intents[id]
	if !ok {
		return "", false
	}
	return pi.Status, true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			EscapedPath:   r.URL.EscapedPath(),
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          string(body),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid_request_error", "", "", "Invalid API Key provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createIntent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "", "", "Invalid request body.")
		return
	}

	amount, err := strconv.ParseInt(r.PostForm.Get("amount"), 10, 64)
	if err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "parameter_invalid_integer", "", "Invalid integer: "+r.PostForm.Get("amount"))
		return
	}
	currency := r.PostForm.Get("currency")
	if currency == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "parameter_missing", "", "Missing required param: currency.")
		return
	}
	if r.PostForm.Get("capture_method") != "manual" || r.PostForm.Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "", "", "This fake only supports confirmed manual-capture intents.")
		return
	}

	number := r.PostForm.Get("payment_method_data[card][number]")

	s.mu.Lock()
	declineCode, declined := s.declines[number]
	var pi *intent
	if !declined {
		s.seq++
		pi = &intent{
			ID:       fmt.Sprintf("pi_fake_%d", s.seq),
			Object:   "payment_intent",
			Amount:   amount,
			Currency: currency,
			Status:   StatusRequiresCapture,
		}
		s.intents[pi.ID] = pi
	}
	s.mu.Unlock()

	if declined {
		code, message := "card_declined", "Your card was declined."
		if declineCode == "incorrect_cvc" {
			code, message = "incorrect_cvc", "Your card's security code is incorrect."
		}
		writeError(w, http.StatusPaymentRequired, "card_error", code, declineCode, message)
		return
	}

	writeJSON(w, http.StatusOK, pi)
}

func (s *Server) captureIntent(w http.ResponseWriter, r *http.Request) {
	s.transition(w, chi.URLParam(r, "id"), StatusSucceeded, "captured")
}

func (s *Server) cancelIntent(w http.ResponseWriter, r *http.Request) {
	s.transition(w, chi.URLParam(r, "id"), StatusCanceled, "canceled")
}

// transition moves an intent out of requires_capture. Both target states are terminal.
func (s *Server) transition(w http.ResponseWriter, id, to, verb string) {
	s.mu.Lock()
	pi, ok := s.intents[id]
	var snapshot intent
	var from string
	if ok {
		from = pi.Status
		if from == StatusRequiresCapture {
			pi.Status = to
		}
		snapshot = *pi
	}
	s.mu.Unlock()

	switch {
	case !ok:
		writeError(w, http.StatusNotFound, "invalid_request_error", "resource_missing", "", fmt.Sprintf("No such payment_intent: '%s'", id))
	case from != StatusRequiresCapture:
		writeError(w, http.StatusBadRequest, "invalid_request_error", "payment_intent_unexpected_state", "",
			fmt.Sprintf("This PaymentIntent could not be %s because it has a status of %s.", verb, from))
	default:
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, code, declineCode, message string) {
	body := map[string]string{"type": errType, "message": message}
	if code != "" {
		body["code"] = code
	}
	if declineCode != "" {
		body["decline_code"] = declineCode
	}
	writeJSON(w, status, map[string]any{"error": body})
}
