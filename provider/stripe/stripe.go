package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mstgnz/stripeconn/infra/config"
	"github.com/mstgnz/stripeconn/infra/logger"
	"github.com/mstgnz/stripeconn/provider"
	stripego "github.com/stripe/stripe-go/v82"
)

const (
	connectionName = "STRIPE"
	website        = "stripe.com"

	// API Endpoints
	endpointPaymentIntents       = "/v1/payment_intents"
	endpointPaymentIntentCapture = "/v1/payment_intents/%s/capture" // %s will be replaced with payment intent ID
	endpointPaymentIntentCancel  = "/v1/payment_intents/%s/cancel"  // %s will be replaced with payment intent ID

	// MessageConnectionFailed is reported for every transport-level failure
	MessageConnectionFailed = "Could not connect to Stripe API"
	messageUnexpected       = "Unexpected response from Stripe API (HTTP %d)"

	defaultTimeout = 30 * time.Second
)

// StripeConnection implements provider.ProcessorConnection for Stripe
// PaymentIntents with manual capture.
type StripeConnection struct {
	client *provider.ProviderHTTPClient
}

var _ provider.ProcessorConnection[provider.APIKeyCredentials, provider.CardDetails] = (*StripeConnection)(nil)

type options struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a StripeConnection
type Option func(*options)

// WithBaseURL points the connection at another API host, e.g. stripe-mock
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithTimeout bounds each request. It is the only bound on a hung call.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// NewConnection creates a new Stripe connection
func NewConnection(opts ...Option) *StripeConnection {
	o := options{
		baseURL: stripego.APIURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &StripeConnection{
		client: provider.NewProviderHTTPClient(&provider.HTTPClientConfig{
			BaseURL: o.baseURL,
			Timeout: o.timeout,
			Client:  o.httpClient,
			DefaultHeaders: map[string]string{
				"Accept": "application/json",
			},
		}),
	}
}

// Settings returns the configured endpoint and timeout
func Settings(cfg config.StripeConfig) provider.ConnectionSettings {
	return provider.ConnectionSettings{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}
}

// Credentials returns the API key credentials of the configured account
func Credentials(cfg config.StripeConfig) provider.APIKeyCredentials {
	return provider.APIKeyCredentials{
		AccountID: cfg.AccountID,
		APIKey:    cfg.APIKey,
	}
}

// NewProvider is the registry factory for Stripe connections
func NewProvider(settings provider.ConnectionSettings) provider.ProcessorConnection[provider.APIKeyCredentials, provider.CardDetails] {
	return NewConnection(WithBaseURL(settings.BaseURL), WithTimeout(settings.Timeout))
}

// Name returns the processor's display name
func (c *StripeConnection) Name() string {
	return connectionName
}

// Website returns the processor's public domain
func (c *StripeConnection) Website() string {
	return website
}

// Authorize creates and confirms a PaymentIntent without capturing it
func (c *StripeConnection) Authorize(ctx context.Context, request provider.AuthorizationRequest[provider.APIKeyCredentials, provider.CardDetails]) provider.AuthorizationResult {
	card := request.PaymentMethod

	body := EncodeForm(
		Field("amount", strconv.FormatInt(request.Amount, 10)),
		Field("currency", strings.ToLower(request.CurrencyCode)),
		Field("payment_method_types[]", "card"),
		Field("payment_method_data[type]", "card"),
		Field("payment_method_data[card][exp_year]", strconv.Itoa(card.ExpiryYear)),
		Field("payment_method_data[card][exp_month]", strconv.Itoa(card.ExpiryMonth)),
		Field("payment_method_data[card][number]", card.CardNumber),
		Field("payment_method_data[card][cvc]", card.CVV),
		Field("payment_method_data[billing_details][name]", card.CardholderName),
		// confirm right away so Stripe runs its card checks in this call
		Field("confirm", "true"),
		// funds stay uncaptured until Capture is called
		Field("capture_method", "manual"),
	)

	resp, err := c.send(ctx, request.ProcessorConfig, endpointPaymentIntents, body)
	if err != nil {
		return provider.AuthorizationFailed(MessageConnectionFailed)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var intent paymentIntentResponse
		if err := json.Unmarshal(resp.Body, &intent); err != nil || intent.ID == "" {
			return provider.AuthorizationFailed(unexpectedResponse(resp.StatusCode))
		}
		logger.WithProvider("stripe").
			AddField("transaction_id", intent.ID).
			AddField("intent_status", intent.Status).
			Debug("payment intent created")
		return provider.Authorized(intent.ID)

	case http.StatusPaymentRequired:
		stripeErr, ok := decodeError(resp.Body)
		if !ok {
			return provider.AuthorizationFailed(unexpectedResponse(resp.StatusCode))
		}
		return provider.Declined(mapDeclineCode(stripeErr.DeclineCode))

	default:
		return provider.AuthorizationFailed(errorMessage(resp))
	}
}

// Capture captures the funds of an authorized PaymentIntent
func (c *StripeConnection) Capture(ctx context.Context, request provider.CaptureRequest[provider.APIKeyCredentials]) provider.CaptureResult {
	endpoint := fmt.Sprintf(endpointPaymentIntentCapture, url.PathEscape(request.ProcessorTransactionID))

	resp, err := c.send(ctx, request.ProcessorConfig, endpoint, "")
	if err != nil {
		return provider.CaptureFailed(MessageConnectionFailed)
	}

	if resp.StatusCode == http.StatusOK {
		return provider.Settled()
	}
	return provider.CaptureFailed(errorMessage(resp))
}

// Cancel cancels an authorized PaymentIntent
func (c *StripeConnection) Cancel(ctx context.Context, request provider.CancelRequest[provider.APIKeyCredentials]) provider.CancelResult {
	endpoint := fmt.Sprintf(endpointPaymentIntentCancel, url.PathEscape(request.ProcessorTransactionID))

	resp, err := c.send(ctx, request.ProcessorConfig, endpoint, "")
	if err != nil {
		return provider.CancelFailed(MessageConnectionFailed)
	}

	if resp.StatusCode == http.StatusOK {
		return provider.Cancelled()
	}
	return provider.CancelFailed(errorMessage(resp))
}

// send posts a form body to Stripe. The returned error is only set when no
// response was received.
func (c *StripeConnection) send(ctx context.Context, credentials provider.APIKeyCredentials, endpoint, body string) (*provider.HTTPResponse, error) {
	resp, err := c.client.SendForm(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Headers: map[string]string{
			"Authorization": provider.BearerAuth(credentials.APIKey),
		},
		Body: body,
	})
	if err != nil {
		logger.WithProvider("stripe").AddField("endpoint", endpoint).Warn(fmt.Sprintf("stripe request failed: %v", err))
		return nil, err
	}
	return resp, nil
}

type paymentIntentResponse struct {
	ID     string                       `json:"id"`
	Status stripego.PaymentIntentStatus `json:"status"`
}

type apiError struct {
	Type        stripego.ErrorType   `json:"type"`
	Code        stripego.ErrorCode   `json:"code"`
	DeclineCode stripego.DeclineCode `json:"decline_code"`
	Message     string               `json:"message"`
}

type errorResponse struct {
	Error *apiError `json:"error"`
}

func decodeError(body []byte) (*apiError, bool) {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error == nil {
		return nil, false
	}
	return resp.Error, true
}

// errorMessage extracts error.message, failing closed on anything else
func errorMessage(resp *provider.HTTPResponse) string {
	stripeErr, ok := decodeError(resp.Body)
	if !ok || stripeErr.Message == "" {
		return unexpectedResponse(resp.StatusCode)
	}
	return stripeErr.Message
}

func unexpectedResponse(statusCode int) string {
	return fmt.Sprintf(messageUnexpected, statusCode)
}

func mapDeclineCode(code stripego.DeclineCode) provider.DeclineReason {
	switch code {
	case stripego.DeclineCodeInsufficientFunds:
		return provider.DeclineInsufficientFunds
	case stripego.DeclineCodeDoNotHonor:
		return provider.DeclineDoNotHonor
	default:
		return provider.DeclineUnknown
	}
}
