package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/stripeconn/infra/logger"
	"github.com/mstgnz/stripeconn/infra/metrics"
)

// PaymentService binds one processor connection to the credentials loaded
// from configuration and adds logging, metrics and exchange recording around
// every call. It keeps no state between calls.
type PaymentService struct {
	processor   string
	connection  CardConnection
	credentials APIKeyCredentials
	recorders   []ExchangeRecorder
	now         func() time.Time
}

// ServiceOption configures a PaymentService
type ServiceOption func(*PaymentService)

// WithRecorder adds an exchange recorder. Nil recorders are ignored.
func WithRecorder(recorder ExchangeRecorder) ServiceOption {
	return func(s *PaymentService) {
		if recorder != nil {
			s.recorders = append(s.recorders, recorder)
		}
	}
}

// NewPaymentService creates a payment service for the given connection
func NewPaymentService(processor string, connection CardConnection, credentials APIKeyCredentials, opts ...ServiceOption) (*PaymentService, error) {
	if connection == nil {
		return nil, errors.New("processor connection is required")
	}
	if strings.TrimSpace(credentials.APIKey) == "" {
		return nil, fmt.Errorf("%s: api key is required", processor)
	}

	s := &PaymentService{
		processor:   processor,
		connection:  connection,
		credentials: credentials,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// NewPaymentServiceFromRegistry creates a payment service using a connection
// registered under name in the default registry
func NewPaymentServiceFromRegistry(name string, settings ConnectionSettings, credentials APIKeyCredentials, opts ...ServiceOption) (*PaymentService, error) {
	connection, err := Create(name, settings)
	if err != nil {
		return nil, err
	}
	return NewPaymentService(name, connection, credentials, opts...)
}

// Processor returns the name the service was created with
func (s *PaymentService) Processor() string {
	return s.processor
}

// Authorize reserves amount (minor units) on the card
func (s *PaymentService) Authorize(ctx context.Context, amount int64, currency string, card CardDetails) AuthorizationResult {
	exchange := s.newExchange(OperationAuthorize)
	exchange.Amount = amount
	exchange.Currency = currency
	exchange.MaskedCard = MaskCardNumber(card.CardNumber)

	start := s.now()
	result := s.connection.Authorize(ctx, AuthorizationRequest[APIKeyCredentials, CardDetails]{
		ProcessorConfig: s.credentials,
		Amount:          amount,
		CurrencyCode:    currency,
		PaymentMethod:   card,
	})

	exchange.TransactionID = result.ProcessorTransactionID
	exchange.Status = result.TransactionStatus
	exchange.DeclineReason = result.DeclineReason
	exchange.ErrorMessage = result.ErrorMessage
	s.finish(ctx, exchange, start)

	return result
}

// Capture settles an authorized transaction
func (s *PaymentService) Capture(ctx context.Context, transactionID string) CaptureResult {
	exchange := s.newExchange(OperationCapture)
	exchange.TransactionID = transactionID

	start := s.now()
	result := s.connection.Capture(ctx, CaptureRequest[APIKeyCredentials]{
		ProcessorConfig:        s.credentials,
		ProcessorTransactionID: transactionID,
	})

	exchange.Status = result.TransactionStatus
	exchange.ErrorMessage = result.ErrorMessage
	s.finish(ctx, exchange, start)

	return result
}

// Cancel voids an authorized transaction
func (s *PaymentService) Cancel(ctx context.Context, transactionID string) CancelResult {
	exchange := s.newExchange(OperationCancel)
	exchange.TransactionID = transactionID

	start := s.now()
	result := s.connection.Cancel(ctx, CancelRequest[APIKeyCredentials]{
		ProcessorConfig:        s.credentials,
		ProcessorTransactionID: transactionID,
	})

	exchange.Status = result.TransactionStatus
	exchange.ErrorMessage = result.ErrorMessage
	s.finish(ctx, exchange, start)

	return result
}

func (s *PaymentService) newExchange(op Operation) Exchange {
	return Exchange{
		RequestID: uuid.New().String(),
		Processor: s.processor,
		Operation: op,
	}
}

func (s *PaymentService) finish(ctx context.Context, exchange Exchange, start time.Time) {
	elapsed := s.now().Sub(start)
	exchange.Timestamp = start.UTC()
	exchange.DurationMs = elapsed.Milliseconds()

	metrics.ObserveOperation(s.processor, string(exchange.Operation), string(exchange.Status), elapsed)

	log := logger.WithContext(logger.LogContext{
		Provider:  s.processor,
		RequestID: exchange.RequestID,
	}).
		AddField("operation", exchange.Operation).
		AddField("status", exchange.Status).
		AddField("duration_ms", exchange.DurationMs)
	if exchange.TransactionID != "" {
		log.AddField("transaction_id", exchange.TransactionID)
	}

	switch exchange.Status {
	case StatusFailed:
		log.Error("processor operation failed", errors.New(exchange.ErrorMessage))
	case StatusDeclined:
		log.AddField("decline_reason", exchange.DeclineReason).Warn("authorization declined")
	default:
		log.Info("processor operation completed")
	}

	// the caller's deadline may already have expired on a transport failure
	recordCtx := context.WithoutCancel(ctx)
	for _, recorder := range s.recorders {
		if err := recorder.RecordExchange(recordCtx, exchange); err != nil {
			logger.Error("failed to record exchange", err, logger.LogContext{
				Provider:  s.processor,
				RequestID: exchange.RequestID,
			})
		}
	}
}
