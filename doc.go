// Package stripeconn connects a merchant backend to Stripe for card payments
// that are authorized first and settled or voided later. It exposes the
// connection as a Go library and as a small HTTP API.
//
// # Overview
//
// A processor connection implements three operations:
//
//   - Authorize: reserve an amount (minor currency units) on a card
//   - Capture: settle a previously authorized transaction
//   - Cancel: void a previously authorized transaction
//
// Every operation returns a normalized result value. Declines, processor
// errors and network failures are reported in the result, never as a Go
// error:
//
//	AUTHORIZED  processorTransactionId is set
//	DECLINED    declineReason is INSUFFICIENT_FUNDS, DO_NOT_HONOR or UNKNOWN
//	FAILED      errorMessage describes the failure
//	SETTLED     capture succeeded
//	CANCELLED   cancel succeeded
//
// # Architecture
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│  Merchant App   │◄──►│   stripeconn    │◄──►│   Stripe API    │
//	│                 │    │  (connector)    │    │ PaymentIntents  │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//
//	    "github.com/mstgnz/stripeconn/infra/config"
//	    "github.com/mstgnz/stripeconn/provider"
//	    "github.com/mstgnz/stripeconn/provider/stripe"
//	)
//
//	func main() {
//	    cfg, err := config.Load()
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    service, err := provider.NewPaymentServiceFromRegistry(cfg.Processor,
//	        stripe.Settings(cfg.Stripe), stripe.Credentials(cfg.Stripe))
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    ctx := context.Background()
//	    auth := service.Authorize(ctx, 100, "GBP", provider.CardDetails{
//	        CardNumber:     "4111111111111111",
//	        ExpiryMonth:    4,
//	        ExpiryYear:     2030,
//	        CardholderName: "Mr Foo Bar",
//	        CVV:            "020",
//	    })
//	    if auth.TransactionStatus != provider.StatusAuthorized {
//	        fmt.Println(auth.TransactionStatus, auth.DeclineReason, auth.ErrorMessage)
//	        return
//	    }
//
//	    capture := service.Capture(ctx, auth.ProcessorTransactionID)
//	    fmt.Println(capture.TransactionStatus) // SETTLED
//	}
//
// # HTTP API
//
//	POST /v1/payments/authorize
//	POST /v1/payments/{transactionID}/capture
//	POST /v1/payments/{transactionID}/cancel
//	GET  /v1/payments/{transactionID}/exchanges
//	GET  /health
//	GET  /metrics
//
// Requests under /v1 require "Authorization: Bearer <API_KEY>" when API_KEY
// is set. Authorized, settled and cancelled results answer 200, declines 402
// and failures 502.
//
// # Configuration
//
// Configuration is read from the environment or a .env file:
//
//	STRIPE_API_KEY=sk_test_...
//	STRIPE_BASE_URL=https://api.stripe.com
//	STRIPE_TIMEOUT=30s
//	EXCHANGE_DB_PATH=./data/exchanges.db
//	OPENSEARCH_ENABLED=false
//
// # Exchange Records
//
// Each operation produces an exchange record (masked card, status, timing)
// that can be stored in SQLite, OpenSearch or both. The CVV is never stored.
//
// # Smoke Test
//
// cmd/smoke runs authorize, authorize then capture, and authorize then cancel
// against the configured account and exits non-zero on the first failure.
// SMOKE_CARD_NUMBER=4000000000000101 exercises the decline path.
package stripeconn
