package provider

import (
	"context"
	"strings"
	"time"
)

// Operation names a connector operation
type Operation string

const (
	OperationAuthorize Operation = "authorize"
	OperationCapture   Operation = "capture"
	OperationCancel    Operation = "cancel"
)

// Exchange is the audit record of one connector operation. It never carries
// the CVV or the full card number.
type Exchange struct {
	RequestID     string            `json:"request_id"`
	Timestamp     time.Time         `json:"timestamp"`
	Processor     string            `json:"processor"`
	Operation     Operation         `json:"operation"`
	Amount        int64             `json:"amount,omitempty"`
	Currency      string            `json:"currency,omitempty"`
	MaskedCard    string            `json:"masked_card,omitempty"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Status        TransactionStatus `json:"status"`
	DeclineReason DeclineReason     `json:"decline_reason,omitempty"`
	ErrorMessage  string            `json:"error_message,omitempty"`
	DurationMs    int64             `json:"duration_ms"`
}

// ExchangeRecorder persists exchange records somewhere outside the process
type ExchangeRecorder interface {
	RecordExchange(ctx context.Context, exchange Exchange) error
}

// MaskCardNumber keeps the BIN and last four digits of a card number
func MaskCardNumber(number string) string {
	n := len(number)
	switch {
	case n == 0:
		return ""
	case n >= 13:
		return number[:6] + strings.Repeat("*", n-10) + number[n-4:]
	case n > 4:
		return strings.Repeat("*", n-4) + number[n-4:]
	default:
		return strings.Repeat("*", n)
	}
}
