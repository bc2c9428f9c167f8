package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/httpclient"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   map[string]interface{}
}

type ClientSuite struct {
	suite.Suite
	server   *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
	client   Client
}

func TestClient(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.requests = nil
	s.handler = nil
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			APIKey: r.Header.Get("access_token"),
		}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
		s.mu.Lock()
		s.requests = append(s.requests, rec)
		s.mu.Unlock()
		s.handler(w, r)
	}))

	s.client = NewClientWithTransport(
		config.GatewayConfig{BaseURL: s.server.URL + "/", APIKey: "test-key"},
		httpclient.NewDefaultClient(time.Second),
		logger.NewNoopLogger(),
		metrics.NewNoopMetrics(),
		nil,
	)
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) respond(status int, body string) {
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (s *ClientSuite) TestCreateCustomer() {
	s.respond(http.StatusOK, `{"id":"cus_1","name":"Acme"}`)

	customer, err := s.client.CreateCustomer(context.Background(), CreateCustomerRequest{
		Name:    "Acme",
		CpfCnpj: "12345678900",
	})
	s.Require().NoError(err)
	s.Equal("cus_1", customer.ID)

	s.Require().Len(s.requests, 1)
	req := s.requests[0]
	s.Equal(http.MethodPost, req.Method)
	s.Equal("/customers", req.Path)
	s.Equal("test-key", req.APIKey)
	s.Equal("Acme", req.Body["name"])
}

func (s *ClientSuite) TestCreateSubscription_OmitsCardForBoleto() {
	s.respond(http.StatusOK, `{"id":"sub_1","status":"ACTIVE","value":99.9}`)

	sub, err := s.client.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		Customer:    "cus_1",
		BillingType: BillingTypeBoleto,
		Value:       99.9,
		NextDueDate: "2024-02-10",
		Cycle:       CycleMonthly,
	})
	s.Require().NoError(err)
	s.Equal("sub_1", sub.ID)
	s.Equal("99.9", sub.Value.String())

	body := s.requests[0].Body
	s.Equal("MONTHLY", body["cycle"])
	s.Equal("2024-02-10", body["nextDueDate"])
	s.NotContains(body, "creditCard")
	s.NotContains(body, "creditCardHolderInfo")
	s.NotContains(body, "remoteIp")
}

func (s *ClientSuite) TestErrorParsing() {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
	}{
		{
			name:        "errors array",
			status:      http.StatusBadRequest,
			body:        `{"errors":[{"code":"invalid_cpfCnpj","description":"CPF inválido"}]}`,
			wantMessage: "CPF inválido",
			wantCode:    "invalid_cpfCnpj",
		},
		{
			name:        "message field",
			status:      http.StatusUnauthorized,
			body:        `{"message":"invalid api key"}`,
			wantMessage: "invalid api key",
		},
		{
			name:        "unparseable body",
			status:      http.StatusInternalServerError,
			body:        `<html>oops</html>`,
			wantMessage: defaultErrorMessage,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.respond(tt.status, tt.body)

			_, err := s.client.GetSubscription(context.Background(), "sub_1")
			s.Require().Error(err)
			s.True(ierr.IsGateway(err))

			gwErr, ok := AsError(err)
			s.Require().True(ok)
			s.Equal(tt.status, gwErr.StatusCode)
			s.Equal(tt.wantMessage, gwErr.Message)
			s.Equal(tt.wantCode, gwErr.Code)
		})
	}
}

func (s *ClientSuite) TestCancelSubscription() {
	s.respond(http.StatusOK, `{"id":"sub_1","deleted":true}`)

	resp, err := s.client.CancelSubscription(context.Background(), "sub_1")
	s.Require().NoError(err)
	s.True(resp.Deleted)
	s.Equal(http.MethodDelete, s.requests[0].Method)
	s.Equal("/subscriptions/sub_1", s.requests[0].Path)
	s.Nil(s.requests[0].Body)
}

func (s *ClientSuite) TestListAllPayments_Pages() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			_, _ = w.Write([]byte(`{"hasMore":true,"data":[{"id":"pay_1"},{"id":"pay_2"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"hasMore":false,"data":[{"id":"pay_3"}]}`))
	}

	payments, err := s.client.ListAllPayments(context.Background(), "sub_1")
	s.Require().NoError(err)
	s.Len(payments, 3)
	s.Require().Len(s.requests, 2)
	s.Contains(s.requests[0].Query, "subscription=sub_1")
	s.Contains(s.requests[1].Query, "offset=2")
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClientWithTransport(
		config.GatewayConfig{BaseURL: url, APIKey: "k"},
		httpclient.NewDefaultClient(time.Second),
		logger.NewNoopLogger(),
		metrics.NewNoopMetrics(),
		nil,
	)

	_, err := c.GetPayment(context.Background(), "pay_1")
	require.Error(t, err)
	assert.True(t, ierr.IsGateway(err))

	gwErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 0, gwErr.StatusCode)
}

func TestWebhookEnvelope_ExternalEventID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"explicit id", `{"id":"evt_1","event":"PAYMENT_CONFIRMED","payment":{"id":"pay_1"}}`, "evt_1"},
		{"payment fallback", `{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_1"}}`, "PAYMENT_CONFIRMED:pay_1"},
		{"subscription fallback", `{"event":"SUBSCRIPTION_DELETED","subscription":{"id":"sub_1"}}`, "SUBSCRIPTION_DELETED:sub_1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseWebhook([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.ExternalEventID())
		})
	}
}

func TestPayment_PaidAt(t *testing.T) {
	fallback := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	p := Payment{PaymentDate: "2024-02-11", ConfirmedDate: "2024-02-10"}
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), p.PaidAt(fallback))

	p = Payment{PaymentDate: "2024-02-11"}
	assert.Equal(t, time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC), p.PaidAt(fallback))

	p = Payment{}
	assert.Equal(t, fallback, p.PaidAt(fallback))
}
