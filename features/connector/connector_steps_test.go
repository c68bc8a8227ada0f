package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/mstgnz/stripeconn/provider"
	"github.com/mstgnz/stripeconn/provider/stripe"
	"github.com/mstgnz/stripeconn/provider/stripe/stripetest"
)

type connectorState struct {
	ctx         context.Context
	server      *stripetest.Server
	connection  *stripe.StripeConnection
	credentials provider.APIKeyCredentials

	lastAuth     provider.AuthorizationResult
	lastCapture  provider.CaptureResult
	lastCancel   provider.CancelResult
	lastError    string
	transactions []string
}

func InitializeConnectorScenario(ctx *godog.ScenarioContext) {
	state := &connectorState{ctx: context.Background()}

	ctx.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if state.server != nil {
			state.server.Close()
		}
		return ctx, err
	})

	// Background steps
	ctx.Step(`^a Stripe account with secret key "([^"]*)"$`, state.aStripeAccountWithSecretKey)
	ctx.Step(`^the Stripe API is unreachable$`, state.theStripeAPIIsUnreachable)

	// Authorization steps
	ctx.Step(`^I authorize (\d+) ([A-Z]{3}) on card "([^"]*)"$`, state.iAuthorizeOnCard)
	ctx.Step(`^an authorized payment of (\d+) ([A-Z]{3})$`, state.anAuthorizedPaymentOf)
	ctx.Step(`^the authorization status should be "([^"]*)"$`, state.theAuthorizationStatusShouldBe)
	ctx.Step(`^the authorization should carry a transaction id$`, state.theAuthorizationShouldCarryATransactionID)
	ctx.Step(`^the decline reason should be "([^"]*)"$`, state.theDeclineReasonShouldBe)

	// Capture and cancel steps
	ctx.Step(`^I capture the payment$`, state.iCaptureThePayment)
	ctx.Step(`^I capture transaction "([^"]*)"$`, state.iCaptureTransaction)
	ctx.Step(`^I cancel the payment$`, state.iCancelThePayment)
	ctx.Step(`^the capture status should be "([^"]*)"$`, state.theCaptureStatusShouldBe)
	ctx.Step(`^the cancel status should be "([^"]*)"$`, state.theCancelStatusShouldBe)

	ctx.Step(`^the error message should contain "([^"]*)"$`, state.theErrorMessageShouldContain)
}

func (s *connectorState) aStripeAccountWithSecretKey(key string) error {
	s.server = stripetest.NewServer(key)
	s.connection = stripe.NewConnection(stripe.WithBaseURL(s.server.URL))
	s.credentials = provider.APIKeyCredentials{APIKey: key}
	return nil
}

func (s *connectorState) theStripeAPIIsUnreachable() error {
	if s.server == nil {
		return fmt.Errorf("no Stripe account configured")
	}
	s.server.Close()
	s.server = nil
	return nil
}

func (s *connectorState) iAuthorizeOnCard(amount int, currency, cardNumber string) error {
	s.lastAuth = s.connection.Authorize(s.ctx, provider.AuthorizationRequest[provider.APIKeyCredentials, provider.CardDetails]{
		ProcessorConfig: s.credentials,
		Amount:          int64(amount),
		CurrencyCode:    currency,
		PaymentMethod: provider.CardDetails{
			CardNumber:     cardNumber,
			ExpiryMonth:    4,
			ExpiryYear:     2030,
			CardholderName: "Mr Foo Bar",
			CVV:            "020",
		},
	})
	s.lastError = s.lastAuth.ErrorMessage
	if s.lastAuth.ProcessorTransactionID != "" {
		s.transactions = append(s.transactions, s.lastAuth.ProcessorTransactionID)
	}
	return nil
}

func (s *connectorState) anAuthorizedPaymentOf(amount int, currency string) error {
	if err := s.iAuthorizeOnCard(amount, currency, stripetest.CardValid); err != nil {
		return err
	}
	return s.theAuthorizationStatusShouldBe(string(provider.StatusAuthorized))
}

func (s *connectorState) theAuthorizationStatusShouldBe(status string) error {
	if string(s.lastAuth.TransactionStatus) != status {
		return fmt.Errorf("expected authorization status %s, got %s (%s)", status, s.lastAuth.TransactionStatus, s.lastAuth.ErrorMessage)
	}
	return nil
}

func (s *connectorState) theAuthorizationShouldCarryATransactionID() error {
	if s.lastAuth.ProcessorTransactionID == "" {
		return fmt.Errorf("expected a processor transaction id")
	}
	return nil
}

func (s *connectorState) theDeclineReasonShouldBe(reason string) error {
	if string(s.lastAuth.DeclineReason) != reason {
		return fmt.Errorf("expected decline reason %s, got %s", reason, s.lastAuth.DeclineReason)
	}
	return nil
}

func (s *connectorState) currentTransaction() (string, error) {
	if len(s.transactions) == 0 {
		return "", fmt.Errorf("no authorized payment")
	}
	return s.transactions[len(s.transactions)-1], nil
}

func (s *connectorState) iCaptureThePayment() error {
	id, err := s.currentTransaction()
	if err != nil {
		return err
	}
	return s.iCaptureTransaction(id)
}

func (s *connectorState) iCaptureTransaction(id string) error {
	s.lastCapture = s.connection.Capture(s.ctx, provider.CaptureRequest[provider.APIKeyCredentials]{
		ProcessorConfig:        s.credentials,
		ProcessorTransactionID: id,
	})
	s.lastError = s.lastCapture.ErrorMessage
	return nil
}

func (s *connectorState) iCancelThePayment() error {
	id, err := s.currentTransaction()
	if err != nil {
		return err
	}
	s.lastCancel = s.connection.Cancel(s.ctx, provider.CancelRequest[provider.APIKeyCredentials]{
		ProcessorConfig:        s.credentials,
		ProcessorTransactionID: id,
	})
	s.lastError = s.lastCancel.ErrorMessage
	return nil
}

func (s *connectorState) theCaptureStatusShouldBe(status string) error {
	if string(s.lastCapture.TransactionStatus) != status {
		return fmt.Errorf("expected capture status %s, got %s (%s)", status, s.lastCapture.TransactionStatus, s.lastCapture.ErrorMessage)
	}
	return nil
}

func (s *connectorState) theCancelStatusShouldBe(status string) error {
	if string(s.lastCancel.TransactionStatus) != status {
		return fmt.Errorf("expected cancel status %s, got %s (%s)", status, s.lastCancel.TransactionStatus, s.lastCancel.ErrorMessage)
	}
	return nil
}

func (s *connectorState) theErrorMessageShouldContain(fragment string) error {
	if !strings.Contains(s.lastError, fragment) {
		return fmt.Errorf("expected error message containing %q, got %q", fragment, s.lastError)
	}
	return nil
}
