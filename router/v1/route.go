package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/stripeconn/handler"
	"github.com/mstgnz/stripeconn/infra/config"
)

// Routes registers all v1 API routes. exchanges may be nil when no
// queryable exchange store is configured.
func Routes(r chi.Router, paymentService handler.PaymentServiceInterface, exchanges handler.ExchangeReader) {
	paymentHandler := handler.NewPaymentHandler(paymentService, config.Validator())

	r.Route("/payments", func(r chi.Router) {
		r.Post("/authorize", paymentHandler.Authorize)
		r.Post("/{transactionID}/capture", paymentHandler.Capture)
		r.Post("/{transactionID}/cancel", paymentHandler.Cancel)

		if exchanges != nil {
			r.Get("/{transactionID}/exchanges", handler.NewExchangesHandler(exchanges).ListByTransaction)
		}
	})
}
