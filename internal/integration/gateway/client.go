package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/httpclient"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/metrics"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/sentry"
	"github.com/samber/lo"
	"github.com/sony/gobreaker/v2"
)

const (
	breakerName     = "payment_gateway"
	maxPageSize     = 100
	maxPaymentPages = 50
)

// Client is the outbound surface of the payment gateway
type Client interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*DeleteResponse, error)
	ListPayments(ctx context.Context, params ListPaymentsParams) (*PaymentList, error)
	ListAllPayments(ctx context.Context, subscriptionID string) ([]Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

type client struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	httpClient   httpclient.Client
	logger       *logger.Logger
	metrics      *metrics.BillingMetrics
	sentry       *sentry.Service
}

// NewClient creates a gateway client guarded by a rate limiter and a
// circuit breaker
func NewClient(
	cfg *config.Configuration,
	log *logger.Logger,
	m *metrics.BillingMetrics,
	sentrySvc *sentry.Service,
) Client {
	guarded := httpclient.NewGuardedClient(
		httpclient.NewDefaultClient(cfg.Gateway.Timeout),
		httpclient.GuardConfig{
			Name:             breakerName,
			RatePerSecond:    cfg.Gateway.RateLimitPerSecond,
			FailureThreshold: cfg.Gateway.BreakerFailureThreshold,
			OpenTimeout:      cfg.Gateway.BreakerTimeout,
			OnStateChange: func(name string, _, to gobreaker.State) {
				m.BreakerState.WithLabelValues(name).Set(float64(to))
			},
		},
		log,
	)
	return NewClientWithTransport(cfg.Gateway, guarded, log, m, sentrySvc)
}

// NewClientWithTransport creates a gateway client on top of an arbitrary
// transport
func NewClientWithTransport(
	cfg config.GatewayConfig,
	transport httpclient.Client,
	log *logger.Logger,
	m *metrics.BillingMetrics,
	sentrySvc *sentry.Service,
) Client {
	header := cfg.APIKeyHeader
	if header == "" {
		header = "access_token"
	}
	return &client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		apiKeyHeader: header,
		httpClient:   transport,
		logger:       log,
		metrics:      m,
		sentry:       sentrySvc,
	}
}

// makeRequest sends one call to the gateway. Failures come back marked
// ErrGateway and wrapping *Error.
func (c *client) makeRequest(ctx context.Context, operation, method, endpoint string, body interface{}, response interface{}) error {
	fullURL := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	var jsonBody []byte
	if body != nil && method != http.MethodGet {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			c.logger.Errorw("failed to marshal gateway request body", "error", err, "operation", operation)
			return ierr.WithError(err).
				WithHint("Invalid request data").
				Mark(ierr.ErrSystem)
		}
	}

	span, ctx := c.sentry.StartGatewaySpan(ctx, method, endpoint)
	if span != nil {
		defer span.Finish()
	}

	started := time.Now()
	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method: method,
		URL:    fullURL,
		Headers: map[string]string{
			c.apiKeyHeader: c.apiKey,
		},
		Body: jsonBody,
	})
	if err != nil {
		gwErr := c.toGatewayError(operation, err)
		c.metrics.ObserveGatewayCall(operation, statusLabel(gwErr.StatusCode), started)
		c.logger.Errorw("payment gateway request failed",
			"operation", operation,
			"method", method,
			"endpoint", endpoint,
			"status_code", gwErr.StatusCode,
			"gateway_error", gwErr.Message,
		)
		return ierr.WithError(gwErr).
			WithHint(gwErr.Message).
			WithReportableDetails(map[string]interface{}{
				"operation":   operation,
				"endpoint":    endpoint,
				"status_code": gwErr.StatusCode,
				"code":        gwErr.Code,
			}).
			Mark(ierr.ErrGateway)
	}
	c.metrics.ObserveGatewayCall(operation, statusLabel(resp.StatusCode), started)

	if response != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, response); err != nil {
			c.logger.Errorw("failed to unmarshal gateway response",
				"error", err,
				"operation", operation,
				"body", string(resp.Body),
			)
			gwErr := &Error{StatusCode: resp.StatusCode, Message: "invalid response from payment gateway", Operation: operation}
			return ierr.WithError(gwErr).
				WithHint(gwErr.Message).
				Mark(ierr.ErrGateway)
		}
	}

	return nil
}

func (c *client) toGatewayError(operation string, err error) *Error {
	httpErr, ok := httpclient.IsHTTPError(err)
	if !ok {
		msg := "payment gateway is unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "payment gateway timed out"
		}
		return &Error{Message: msg, Operation: operation}
	}

	gwErr := &Error{
		StatusCode: httpErr.StatusCode,
		Message:    defaultErrorMessage,
		Operation:  operation,
	}

	var body errorResponse
	if jsonErr := json.Unmarshal(httpErr.Response, &body); jsonErr != nil {
		return gwErr
	}
	if len(body.Errors) > 0 && body.Errors[0].Description != "" {
		gwErr.Message = body.Errors[0].Description
		gwErr.Code = body.Errors[0].Code
	} else if body.Message != "" {
		gwErr.Message = body.Message
	}
	return gwErr
}

func statusLabel(status int) string {
	switch {
	case status == 0:
		return "unavailable"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}

// AsError extracts the gateway failure from an error chain
func AsError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

func (c *client) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	c.logger.Infow("creating customer in payment gateway",
		"external_reference", req.ExternalReference,
		"has_email", req.Email != "")

	var response Customer
	if err := c.makeRequest(ctx, "create_customer", http.MethodPost, "/customers", req, &response); err != nil {
		return nil, err
	}

	c.logger.Infow("created customer in payment gateway", "customer_id", response.ID)
	return &response, nil
}

func (c *client) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error) {
	c.logger.Infow("creating subscription in payment gateway",
		"customer_id", req.Customer,
		"billing_type", req.BillingType,
		"cycle", req.Cycle,
		"next_due_date", req.NextDueDate)

	var response Subscription
	if err := c.makeRequest(ctx, "create_subscription", http.MethodPost, "/subscriptions", req, &response); err != nil {
		return nil, err
	}

	c.logger.Infow("created subscription in payment gateway", "subscription_id", response.ID)
	return &response, nil
}

func (c *client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var response Subscription
	endpoint := "/subscriptions/" + url.PathEscape(subscriptionID)
	if err := c.makeRequest(ctx, "get_subscription", http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *client) CancelSubscription(ctx context.Context, subscriptionID string) (*DeleteResponse, error) {
	c.logger.Infow("cancelling subscription in payment gateway", "subscription_id", subscriptionID)

	var response DeleteResponse
	endpoint := "/subscriptions/" + url.PathEscape(subscriptionID)
	if err := c.makeRequest(ctx, "cancel_subscription", http.MethodDelete, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *client) ListPayments(ctx context.Context, params ListPaymentsParams) (*PaymentList, error) {
	query := url.Values{}
	if params.Subscription != "" {
		query.Set("subscription", params.Subscription)
	}
	if params.Customer != "" {
		query.Set("customer", params.Customer)
	}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	query.Set("offset", strconv.Itoa(params.Offset))
	query.Set("limit", strconv.Itoa(lo.Clamp(params.Limit, 1, maxPageSize)))

	var response PaymentList
	if err := c.makeRequest(ctx, "list_payments", http.MethodGet, "/payments?"+query.Encode(), nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// ListAllPayments walks every page of a subscription's payments
func (c *client) ListAllPayments(ctx context.Context, subscriptionID string) ([]Payment, error) {
	var all []Payment
	offset := 0
	for page := 0; page < maxPaymentPages; page++ {
		list, err := c.ListPayments(ctx, ListPaymentsParams{
			Subscription: subscriptionID,
			Offset:       offset,
			Limit:        maxPageSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, list.Data...)
		if !list.HasMore || len(list.Data) == 0 {
			return all, nil
		}
		offset += len(list.Data)
	}

	c.logger.Warnw("stopped paging gateway payments",
		"subscription_id", subscriptionID,
		"pages", maxPaymentPages,
		"payments", len(all))
	return all, nil
}

func (c *client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var response Payment
	endpoint := "/payments/" + url.PathEscape(paymentID)
	if err := c.makeRequest(ctx, "get_payment", http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
