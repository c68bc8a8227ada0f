package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/mstgnz/stripeconn/infra/config"
	"github.com/mstgnz/stripeconn/provider"
	"github.com/mstgnz/stripeconn/provider/stripe/stripetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "sk_test_fake"

func testCredentials() provider.APIKeyCredentials {
	return provider.APIKeyCredentials{AccountID: "acct_test", APIKey: testAPIKey}
}

func testCard(number string) provider.CardDetails {
	return provider.CardDetails{
		CardNumber:     number,
		ExpiryMonth:    4,
		ExpiryYear:     2030,
		CardholderName: "Mr Foo Bar",
		CVV:            "020",
	}
}

func authorizeRequest(number string, amount int64) provider.AuthorizationRequest[provider.APIKeyCredentials, provider.CardDetails] {
	return provider.AuthorizationRequest[provider.APIKeyCredentials, provider.CardDetails]{
		ProcessorConfig: testCredentials(),
		Amount:          amount,
		CurrencyCode:    "GBP",
		PaymentMethod:   testCard(number),
	}
}

func captureRequest(id string) provider.CaptureRequest[provider.APIKeyCredentials] {
	return provider.CaptureRequest[provider.APIKeyCredentials]{ProcessorConfig: testCredentials(), ProcessorTransactionID: id}
}

func cancelRequest(id string) provider.CancelRequest[provider.APIKeyCredentials] {
	return provider.CancelRequest[provider.APIKeyCredentials]{ProcessorConfig: testCredentials(), ProcessorTransactionID: id}
}

func newTestConnection(t *testing.T) (*StripeConnection, *stripetest.Server) {
	t.Helper()
	srv := stripetest.NewServer(testAPIKey)
	t.Cleanup(srv.Close)
	return NewConnection(WithBaseURL(srv.URL)), srv
}

// cannedServer answers every request with the same status and body
func cannedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStripeConnection_Identity(t *testing.T) {
	conn := NewConnection()
	assert.Equal(t, "STRIPE", conn.Name())
	assert.Equal(t, "stripe.com", conn.Website())
}

func TestSettingsAndCredentials(t *testing.T) {
	cfg := config.StripeConfig{
		AccountID: "acct_test",
		APIKey:    testAPIKey,
		BaseURL:   "http://localhost:12111",
		Timeout:   5 * time.Second,
	}

	assert.Equal(t, provider.ConnectionSettings{BaseURL: "http://localhost:12111", Timeout: 5 * time.Second}, Settings(cfg))
	assert.Equal(t, testCredentials(), Credentials(cfg))
}

func TestStripeConnection_RegistryHonoursSettings(t *testing.T) {
	srv := stripetest.NewServer(testAPIKey)
	t.Cleanup(srv.Close)

	cfg := config.StripeConfig{
		AccountID: "acct_test",
		APIKey:    testAPIKey,
		BaseURL:   srv.URL,
		Timeout:   time.Second,
	}
	conn, err := provider.Create("stripe", Settings(cfg))
	require.NoError(t, err)

	creds := Credentials(cfg)
	result := conn.Authorize(context.Background(), provider.AuthorizationRequest[provider.APIKeyCredentials, provider.CardDetails]{
		ProcessorConfig: creds,
		Amount:          100,
		CurrencyCode:    "GBP",
		PaymentMethod:   testCard(stripetest.CardValid),
	})
	assert.Equal(t, provider.StatusAuthorized, result.TransactionStatus)
	assert.Len(t, srv.Requests(), 1, "the request must reach the configured base URL")
}

func TestStripeConnection_RegistryHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	conn, err := provider.Create("stripe", provider.ConnectionSettings{BaseURL: slow.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	result := conn.Authorize(context.Background(), authorizeRequest(stripetest.CardValid, 100))

	assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
	assert.Equal(t, MessageConnectionFailed, result.ErrorMessage)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStripeConnection_Registered(t *testing.T) {
	conn, err := provider.Create("stripe", provider.ConnectionSettings{})
	require.NoError(t, err)
	assert.Equal(t, "STRIPE", conn.Name())
	assert.Contains(t, provider.DefaultRegistry.Names(), "stripe")
}

func TestStripeConnection_Authorize_Success(t *testing.T) {
	conn, srv := newTestConnection(t)

	result := conn.Authorize(context.Background(), authorizeRequest(stripetest.CardValid, 100))

	assert.Equal(t, provider.StatusAuthorized, result.TransactionStatus)
	assert.Equal(t, "pi_fake_1", result.ProcessorTransactionID)
	assert.Empty(t, result.DeclineReason)
	assert.Empty(t, result.ErrorMessage)

	status, ok := srv.IntentStatus(result.ProcessorTransactionID)
	require.True(t, ok)
	assert.Equal(t, stripetest.StatusRequiresCapture, status)
}

func TestStripeConnection_Authorize_RequestShape(t *testing.T) {
	conn, srv := newTestConnection(t)

	conn.Authorize(context.Background(), authorizeRequest(stripetest.CardValid, 100))

	requests := srv.Requests()
	require.Len(t, requests, 1)
	req := requests[0]

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/payment_intents", req.Path)
	assert.Equal(t, "Bearer "+testAPIKey, req.Authorization)
	assert.Equal(t, "application/x-www-form-urlencoded", req.ContentType)

	assert.Equal(t, []string{
		"amount",
		"currency",
		"payment_method_types[]",
		"payment_method_data[type]",
		"payment_method_data[card][exp_year]",
		"payment_method_data[card][exp_month]",
		"payment_method_data[card][number]",
		"payment_method_data[card][cvc]",
		"payment_method_data[billing_details][name]",
		"confirm",
		"capture_method",
	}, keysInOrder(t, req.Body))

	values, err := url.ParseQuery(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "100", values.Get("amount"))
	assert.Equal(t, "gbp", values.Get("currency"))
	assert.Equal(t, "card", values.Get("payment_method_types[]"))
	assert.Equal(t, "card", values.Get("payment_method_data[type]"))
	assert.Equal(t, "2030", values.Get("payment_method_data[card][exp_year]"))
	assert.Equal(t, "4", values.Get("payment_method_data[card][exp_month]"))
	assert.Equal(t, stripetest.CardValid, values.Get("payment_method_data[card][number]"))
	assert.Equal(t, "020", values.Get("payment_method_data[card][cvc]"))
	assert.Equal(t, "Mr Foo Bar", values.Get("payment_method_data[billing_details][name]"))
	assert.Equal(t, "true", values.Get("confirm"))
	assert.Equal(t, "manual", values.Get("capture_method"))
}

func TestStripeConnection_Authorize_Declines(t *testing.T) {
	tests := []struct {
		name     string
		card     string
		decline  string
		expected provider.DeclineReason
	}{
		{"insufficient funds", stripetest.CardInsufficientFunds, "", provider.DeclineInsufficientFunds},
		{"do not honor", "4000000000000341", "do_not_honor", provider.DeclineDoNotHonor},
		{"incorrect cvc", stripetest.CardIncorrectCVC, "", provider.DeclineUnknown},
		{"generic decline", stripetest.CardGenericDecline, "", provider.DeclineUnknown},
		{"unlisted decline code", "4000000000000069", "expired_card", provider.DeclineUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, srv := newTestConnection(t)
			if tt.decline != "" {
				srv.Decline(tt.card, tt.decline)
			}

			result := conn.Authorize(context.Background(), authorizeRequest(tt.card, 100))

			assert.Equal(t, provider.StatusDeclined, result.TransactionStatus)
			assert.Equal(t, tt.expected, result.DeclineReason)
			assert.Empty(t, result.ProcessorTransactionID)
			assert.Empty(t, result.ErrorMessage)
		})
	}
}

func TestStripeConnection_Authorize_Failures(t *testing.T) {
	t.Run("invalid api key", func(t *testing.T) {
		conn, _ := newTestConnection(t)
		req := authorizeRequest(stripetest.CardValid, 100)
		req.ProcessorConfig.APIKey = "sk_test_wrong"

		result := conn.Authorize(context.Background(), req)

		assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
		assert.Equal(t, "Invalid API Key provided.", result.ErrorMessage)
		assert.Empty(t, result.DeclineReason)
	})

	t.Run("rejected amount", func(t *testing.T) {
		conn, _ := newTestConnection(t)

		result := conn.Authorize(context.Background(), authorizeRequest(stripetest.CardValid, 0))

		assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
		assert.Equal(t, "Invalid integer: 0", result.ErrorMessage)
	})
}

func TestStripeConnection_Authorize_FailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"malformed success body", http.StatusOK, "<html>ok</html>", "Unexpected response from Stripe API (HTTP 200)"},
		{"success without id", http.StatusOK, `{"status":"requires_capture"}`, "Unexpected response from Stripe API (HTTP 200)"},
		{"malformed decline body", http.StatusPaymentRequired, "nope", "Unexpected response from Stripe API (HTTP 402)"},
		{"server error without body", http.StatusInternalServerError, "", "Unexpected response from Stripe API (HTTP 500)"},
		{"error without message", http.StatusBadRequest, `{"error":{"type":"api_error"}}`, "Unexpected response from Stripe API (HTTP 400)"},
		{"error with message", http.StatusTooManyRequests, `{"error":{"type":"invalid_request_error","message":"Too many requests"}}`, "Too many requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := cannedServer(t, tt.status, tt.body)
			conn := NewConnection(WithBaseURL(srv.URL))

			result := conn.Authorize(context.Background(), authorizeRequest(stripetest.CardValid, 100))

			assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
			assert.Equal(t, tt.expected, result.ErrorMessage)
			assert.Empty(t, result.ProcessorTransactionID)
		})
	}
}

func TestStripeConnection_TransportFailures(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	t.Run("unreachable host", func(t *testing.T) {
		conn := NewConnection(WithBaseURL(closedURL))
		ctx := context.Background()

		auth := conn.Authorize(ctx, authorizeRequest(stripetest.CardValid, 100))
		assert.Equal(t, provider.StatusFailed, auth.TransactionStatus)
		assert.Equal(t, MessageConnectionFailed, auth.ErrorMessage)

		capture := conn.Capture(ctx, captureRequest("pi_123"))
		assert.Equal(t, provider.StatusFailed, capture.TransactionStatus)
		assert.Equal(t, MessageConnectionFailed, capture.ErrorMessage)

		cancel := conn.Cancel(ctx, cancelRequest("pi_123"))
		assert.Equal(t, provider.StatusFailed, cancel.TransactionStatus)
		assert.Equal(t, MessageConnectionFailed, cancel.ErrorMessage)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer slow.Close()
		defer close(release)

		conn := NewConnection(WithBaseURL(slow.URL), WithTimeout(50*time.Millisecond))

		result := conn.Authorize(context.Background(), authorizeRequest(stripetest.CardValid, 100))
		assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
		assert.Equal(t, MessageConnectionFailed, result.ErrorMessage)
	})

	t.Run("cancelled context", func(t *testing.T) {
		conn, srv := newTestConnection(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result := conn.Authorize(ctx, authorizeRequest(stripetest.CardValid, 100))
		assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
		assert.Equal(t, MessageConnectionFailed, result.ErrorMessage)
		assert.Empty(t, srv.Requests())
	})
}

func TestStripeConnection_Capture(t *testing.T) {
	conn, srv := newTestConnection(t)
	ctx := context.Background()

	auth := conn.Authorize(ctx, authorizeRequest(stripetest.CardValid, 100))
	require.Equal(t, provider.StatusAuthorized, auth.TransactionStatus)

	result := conn.Capture(ctx, captureRequest(auth.ProcessorTransactionID))

	assert.Equal(t, provider.StatusSettled, result.TransactionStatus)
	assert.Empty(t, result.ErrorMessage)

	requests := srv.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "/v1/payment_intents/"+auth.ProcessorTransactionID+"/capture", requests[1].Path)
	assert.Equal(t, "Bearer "+testAPIKey, requests[1].Authorization)
	assert.Empty(t, requests[1].Body)

	status, _ := srv.IntentStatus(auth.ProcessorTransactionID)
	assert.Equal(t, stripetest.StatusSucceeded, status)
}

func TestStripeConnection_TransactionIDIsPathEscaped(t *testing.T) {
	conn, srv := newTestConnection(t)
	ctx := context.Background()
	id := "pi_1/../../x?y"

	capture := conn.Capture(ctx, captureRequest(id))
	cancel := conn.Cancel(ctx, cancelRequest(id))

	assert.Equal(t, provider.StatusFailed, capture.TransactionStatus)
	assert.Contains(t, capture.ErrorMessage, "No such payment_intent")
	assert.Equal(t, provider.StatusFailed, cancel.TransactionStatus)

	requests := srv.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "/v1/payment_intents/pi_1%2F..%2F..%2Fx%3Fy/capture", requests[0].EscapedPath)
	assert.Equal(t, "/v1/payment_intents/pi_1%2F..%2F..%2Fx%3Fy/cancel", requests[1].EscapedPath)
	for _, req := range requests {
		assert.Empty(t, req.RawQuery)
	}
}

func TestStripeConnection_Cancel(t *testing.T) {
	conn, srv := newTestConnection(t)
	ctx := context.Background()

	auth := conn.Authorize(ctx, authorizeRequest(stripetest.CardValid, 100))
	require.Equal(t, provider.StatusAuthorized, auth.TransactionStatus)

	result := conn.Cancel(ctx, cancelRequest(auth.ProcessorTransactionID))

	assert.Equal(t, provider.StatusCancelled, result.TransactionStatus)
	assert.Empty(t, result.ErrorMessage)

	requests := srv.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "/v1/payment_intents/"+auth.ProcessorTransactionID+"/cancel", requests[1].Path)

	status, _ := srv.IntentStatus(auth.ProcessorTransactionID)
	assert.Equal(t, stripetest.StatusCanceled, status)
}

func TestStripeConnection_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("capture unknown intent", func(t *testing.T) {
		conn, _ := newTestConnection(t)

		result := conn.Capture(ctx, captureRequest("pi_unknown"))
		assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
		assert.Equal(t, "No such payment_intent: 'pi_unknown'", result.ErrorMessage)
	})

	t.Run("cancel unknown intent", func(t *testing.T) {
		conn, _ := newTestConnection(t)

		result := conn.Cancel(ctx, cancelRequest("pi_unknown"))
		assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
		assert.Equal(t, "No such payment_intent: 'pi_unknown'", result.ErrorMessage)
	})

	t.Run("capture twice", func(t *testing.T) {
		conn, _ := newTestConnection(t)
		auth := conn.Authorize(ctx, authorizeRequest(stripetest.CardValid, 100))

		first := conn.Capture(ctx, captureRequest(auth.ProcessorTransactionID))
		second := conn.Capture(ctx, captureRequest(auth.ProcessorTransactionID))

		assert.Equal(t, provider.StatusSettled, first.TransactionStatus)
		assert.Equal(t, provider.StatusFailed, second.TransactionStatus)
		assert.Contains(t, second.ErrorMessage, "status of succeeded")
	})

	t.Run("capture after cancel", func(t *testing.T) {
		conn, _ := newTestConnection(t)
		auth := conn.Authorize(ctx, authorizeRequest(stripetest.CardValid, 100))

		require.Equal(t, provider.StatusCancelled, conn.Cancel(ctx, cancelRequest(auth.ProcessorTransactionID)).TransactionStatus)

		result := conn.Capture(ctx, captureRequest(auth.ProcessorTransactionID))
		assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
		assert.Contains(t, result.ErrorMessage, "status of canceled")
	})

	t.Run("cancel after capture", func(t *testing.T) {
		conn, _ := newTestConnection(t)
		auth := conn.Authorize(ctx, authorizeRequest(stripetest.CardValid, 100))

		require.Equal(t, provider.StatusSettled, conn.Capture(ctx, captureRequest(auth.ProcessorTransactionID)).TransactionStatus)

		result := conn.Cancel(ctx, cancelRequest(auth.ProcessorTransactionID))
		assert.Equal(t, provider.StatusFailed, result.TransactionStatus)
		assert.Contains(t, result.ErrorMessage, "status of succeeded")
	})

	t.Run("malformed error body", func(t *testing.T) {
		srv := cannedServer(t, http.StatusBadGateway, "bad gateway")
		conn := NewConnection(WithBaseURL(srv.URL))

		capture := conn.Capture(ctx, captureRequest("pi_123"))
		assert.Equal(t, "Unexpected response from Stripe API (HTTP 502)", capture.ErrorMessage)

		cancel := conn.Cancel(ctx, cancelRequest("pi_123"))
		assert.Equal(t, "Unexpected response from Stripe API (HTTP 502)", cancel.ErrorMessage)
	})
}

func TestMapDeclineCode(t *testing.T) {
	assert.Equal(t, provider.DeclineInsufficientFunds, mapDeclineCode("insufficient_funds"))
	assert.Equal(t, provider.DeclineDoNotHonor, mapDeclineCode("do_not_honor"))
	assert.Equal(t, provider.DeclineUnknown, mapDeclineCode("lost_card"))
	assert.Equal(t, provider.DeclineUnknown, mapDeclineCode(""))
}
