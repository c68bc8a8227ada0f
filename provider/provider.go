package provider

import (
	"context"
	"time"
)

// TransactionStatus is the normalized outcome of a connector operation
type TransactionStatus string

const (
	StatusAuthorized TransactionStatus = "AUTHORIZED"
	StatusDeclined   TransactionStatus = "DECLINED"
	StatusFailed     TransactionStatus = "FAILED"
	StatusSettled    TransactionStatus = "SETTLED"
	StatusCancelled  TransactionStatus = "CANCELLED"
)

// DeclineReason categorizes an explicit card decline
type DeclineReason string

const (
	DeclineInsufficientFunds DeclineReason = "INSUFFICIENT_FUNDS"
	DeclineDoNotHonor        DeclineReason = "DO_NOT_HONOR"
	DeclineUnknown           DeclineReason = "UNKNOWN"
)

// APIKeyCredentials identifies the merchant account at the processor
type APIKeyCredentials struct {
	AccountID string `json:"accountId,omitempty"`
	APIKey    string `json:"-" validate:"required"`
}

// CardDetails represents raw card data supplied for a single authorization
type CardDetails struct {
	CardNumber     string `json:"cardNumber" validate:"required,numeric,min=12,max=19"`
	ExpiryMonth    int    `json:"expiryMonth" validate:"required,min=1,max=12"`
	ExpiryYear     int    `json:"expiryYear" validate:"required,min=2000"`
	CardholderName string `json:"cardholderName" validate:"required"`
	CVV            string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

// AuthorizationRequest asks the processor to reserve funds without capturing them
type AuthorizationRequest[C any, P any] struct {
	ProcessorConfig C
	Amount          int64 // minor currency units
	CurrencyCode    string
	PaymentMethod   P
}

// CaptureRequest settles a previously authorized transaction
type CaptureRequest[C any] struct {
	ProcessorConfig        C
	ProcessorTransactionID string
}

// CancelRequest voids a previously authorized transaction
type CancelRequest[C any] struct {
	ProcessorConfig        C
	ProcessorTransactionID string
}

// AuthorizationResult is AUTHORIZED, DECLINED or FAILED
type AuthorizationResult struct {
	TransactionStatus      TransactionStatus `json:"transactionStatus"`
	ProcessorTransactionID string            `json:"processorTransactionId,omitempty"`
	DeclineReason          DeclineReason     `json:"declineReason,omitempty"`
	ErrorMessage           string            `json:"errorMessage,omitempty"`
}

// CaptureResult is SETTLED or FAILED
type CaptureResult struct {
	TransactionStatus TransactionStatus `json:"transactionStatus"`
	ErrorMessage      string            `json:"errorMessage,omitempty"`
}

// CancelResult is CANCELLED or FAILED
type CancelResult struct {
	TransactionStatus TransactionStatus `json:"transactionStatus"`
	ErrorMessage      string            `json:"errorMessage,omitempty"`
}

func Authorized(transactionID string) AuthorizationResult {
	return AuthorizationResult{TransactionStatus: StatusAuthorized, ProcessorTransactionID: transactionID}
}

func Declined(reason DeclineReason) AuthorizationResult {
	return AuthorizationResult{TransactionStatus: StatusDeclined, DeclineReason: reason}
}

func AuthorizationFailed(message string) AuthorizationResult {
	return AuthorizationResult{TransactionStatus: StatusFailed, ErrorMessage: message}
}

func Settled() CaptureResult {
	return CaptureResult{TransactionStatus: StatusSettled}
}

func CaptureFailed(message string) CaptureResult {
	return CaptureResult{TransactionStatus: StatusFailed, ErrorMessage: message}
}

func Cancelled() CancelResult {
	return CancelResult{TransactionStatus: StatusCancelled}
}

func CancelFailed(message string) CancelResult {
	return CancelResult{TransactionStatus: StatusFailed, ErrorMessage: message}
}

// ProcessorConnection defines the contract every processor connector implements.
// C is the credential type and P the payment method type the processor accepts.
//
// Every operation performs a single request/response exchange with the
// processor. Declines, processor errors and transport failures are reported
// through the returned result, never as a Go error or a panic.
type ProcessorConnection[C any, P any] interface {
	// Name returns the processor's display name
	Name() string

	// Website returns the processor's public domain
	Website() string

	// Authorize reserves funds on the payment method without capturing them
	Authorize(ctx context.Context, request AuthorizationRequest[C, P]) AuthorizationResult

	// Capture settles the funds of an authorized transaction
	Capture(ctx context.Context, request CaptureRequest[C]) CaptureResult

	// Cancel voids an authorized transaction
	Cancel(ctx context.Context, request CancelRequest[C]) CancelResult
}

// CardConnection is the connection shape served by this module: API-key
// credentials with raw card details.
type CardConnection interface {
	ProcessorConnection[APIKeyCredentials, CardDetails]
}

// ConnectionSettings locates the processor API. Zero values keep the
// connection's defaults.
type ConnectionSettings struct {
	BaseURL string
	Timeout time.Duration
}

// ConnectionFactory creates a new processor connection
type ConnectionFactory[C any, P any] func(settings ConnectionSettings) ProcessorConnection[C, P]
