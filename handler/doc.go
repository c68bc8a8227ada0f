// Package handler provides the HTTP handlers of the connector service.
//
// PaymentHandler exposes the three connector operations:
//
//	POST /v1/payments/authorize
//	POST /v1/payments/{transactionID}/capture
//	POST /v1/payments/{transactionID}/cancel
//
// An authorize body looks like:
//
//	{
//	  "amount": 100,
//	  "currency": "GBP",
//	  "card": {
//	    "cardNumber": "4111111111111111",
//	    "expiryMonth": 4,
//	    "expiryYear": 2030,
//	    "cardholderName": "Mr Foo Bar",
//	    "cvv": "020"
//	  }
//	}
//
// Results map to status codes as follows:
//
//   - 200 OK: AUTHORIZED, SETTLED or CANCELLED
//   - 400 Bad Request: malformed or invalid body
//   - 402 Payment Required: DECLINED, with the decline reason in data
//   - 502 Bad Gateway: FAILED, with the processor message in error
//
// ExchangesHandler serves the recorded exchanges of a transaction and
// HealthHandler reports liveness without contacting the processor.
package handler
