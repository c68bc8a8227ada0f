// Package provider defines the processor connection contract and the
// service that wraps a connection for use by the API and the smoke harness.
//
// # Core Concepts
//
//   - ProcessorConnection[C, P]: one method per operation (Authorize, Capture,
//     Cancel), generic over the credential type C and payment method type P
//   - AuthorizationResult, CaptureResult, CancelResult: normalized outcomes,
//     built with Authorized, Declined, AuthorizationFailed, Settled, ...
//   - Registry[C, P]: named connection factories built from
//     ConnectionSettings; DefaultRegistry holds the API-key/card connections
//   - PaymentService: one connection plus configured credentials, with
//     logging, metrics and exchange recording around every call
//   - ProviderHTTPClient: form-encoded HTTP transport shared by connections
//
// # Basic Usage
//
//	import (
//	    "github.com/mstgnz/stripeconn/provider"
//	    _ "github.com/mstgnz/stripeconn/provider/stripe" // registers "stripe"
//	)
//
//	service, err := provider.NewPaymentServiceFromRegistry("stripe",
//	    provider.ConnectionSettings{BaseURL: os.Getenv("STRIPE_BASE_URL")},
//	    provider.APIKeyCredentials{APIKey: os.Getenv("STRIPE_API_KEY")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result := service.Authorize(ctx, 100, "GBP", card)
//	switch result.TransactionStatus {
//	case provider.StatusAuthorized:
//	    // keep result.ProcessorTransactionID for capture or cancel
//	case provider.StatusDeclined:
//	    // result.DeclineReason
//	case provider.StatusFailed:
//	    // result.ErrorMessage
//	}
//
// Results are values. A connection never returns a Go error or panics for a
// decline, a processor error or a network failure.
//
// # Adding a Connection
//
//  1. Implement ProcessorConnection[APIKeyCredentials, CardDetails]
//  2. Add the package under provider/{name}/
//  3. Register the factory in provider/{name}/register.go
//  4. Test it against an httptest fake of the processor API
package provider
