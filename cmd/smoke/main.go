// Command smoke runs authorize, capture and cancel against the configured
// Stripe account and exits non-zero on the first unexpected outcome.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mstgnz/stripeconn/infra/config"
	"github.com/mstgnz/stripeconn/infra/logger"
	"github.com/mstgnz/stripeconn/provider"
	"github.com/mstgnz/stripeconn/provider/stripe"
)

// Service is the part of provider.PaymentService the harness drives
type Service interface {
	Processor() string
	Authorize(ctx context.Context, amount int64, currency string, card provider.CardDetails) provider.AuthorizationResult
	Capture(ctx context.Context, transactionID string) provider.CaptureResult
	Cancel(ctx context.Context, transactionID string) provider.CancelResult
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.InitGlobalLogger(logger.Options{
		Environment: cfg.Environment,
		Level:       cfg.LoggingLevel,
	})

	svc, err := provider.NewPaymentServiceFromRegistry(cfg.Processor, stripe.Settings(cfg.Stripe), stripe.Credentials(cfg.Stripe))
	if err != nil {
		fmt.Fprintf(os.Stderr, "payment service: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), svc, cfg.Smoke, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type harness struct {
	svc  Service
	cfg  config.SmokeConfig
	card provider.CardDetails
	out  io.Writer
}

// run executes the three flows in order and stops at the first failure
func run(ctx context.Context, svc Service, cfg config.SmokeConfig, out io.Writer) error {
	h := &harness{
		svc: svc,
		cfg: cfg,
		card: provider.CardDetails{
			CardNumber:     cfg.CardNumber,
			ExpiryMonth:    4,
			ExpiryYear:     time.Now().Year() + 2,
			CardholderName: "Mr Foo Bar",
			CVV:            "020",
		},
		out: out,
	}

	flows := []struct {
		title string
		fn    func(context.Context) error
	}{
		{"authorization", h.authorizeOnly},
		{"capture", h.authorizeThenCapture},
		{"cancel", h.authorizeThenCancel},
	}

	for _, flow := range flows {
		fmt.Fprintf(out, "\n=== TEST: %s ===\n", flow.title)
		if err := flow.fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (h *harness) authorize(ctx context.Context) (string, error) {
	fmt.Fprintf(h.out, "Authorizing payment using %q\n", h.svc.Processor())

	result := h.svc.Authorize(ctx, h.cfg.Amount, h.cfg.Currency, h.card)
	switch result.TransactionStatus {
	case provider.StatusAuthorized:
		fmt.Fprintf(h.out, "✓ Authorization request complete: %q\n", result.TransactionStatus)
		return result.ProcessorTransactionID, nil
	case provider.StatusDeclined:
		return "", fmt.Errorf("authorization was declined: %s", result.DeclineReason)
	case provider.StatusFailed:
		return "", fmt.Errorf("authorization request failed: %s", result.ErrorMessage)
	default:
		return "", fmt.Errorf("unexpected authorization status %q", result.TransactionStatus)
	}
}

func (h *harness) authorizeOnly(ctx context.Context) error {
	_, err := h.authorize(ctx)
	return err
}

func (h *harness) authorizeThenCapture(ctx context.Context) error {
	id, err := h.authorize(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(h.out, "Capturing authorized payment...")
	result := h.svc.Capture(ctx, id)
	if result.TransactionStatus != provider.StatusSettled {
		return fmt.Errorf("expected transaction status %q but received %q: %s",
			provider.StatusSettled, result.TransactionStatus, result.ErrorMessage)
	}
	fmt.Fprintf(h.out, "✓ Capture request complete: %q\n", result.TransactionStatus)
	return nil
}

func (h *harness) authorizeThenCancel(ctx context.Context) error {
	id, err := h.authorize(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(h.out, "Cancelling authorized payment...")
	result := h.svc.Cancel(ctx, id)
	if result.TransactionStatus != provider.StatusCancelled {
		return fmt.Errorf("expected transaction status %q but received %q: %s",
			provider.StatusCancelled, result.TransactionStatus, result.ErrorMessage)
	}
	fmt.Fprintf(h.out, "✓ Cancellation request complete: %q\n", result.TransactionStatus)
	return nil
}
