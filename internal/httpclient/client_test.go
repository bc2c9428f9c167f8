package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClient_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("access_token"))
		if r.Method == http.MethodPost {
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"x"}`, string(body))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		}
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"description":"bad"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewDefaultClient(time.Second)

	resp, err := c.Send(context.Background(), &Request{
		Method:  http.MethodPost,
		URL:     server.URL + "/ok",
		Headers: map[string]string{"access_token": "key"},
		Body:    []byte(`{"name":"x"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = c.Send(context.Background(), &Request{
		Method:  http.MethodGet,
		URL:     server.URL + "/fail",
		Headers: map[string]string{"access_token": "key"},
	})
	require.Error(t, err)
	httpErr, ok := IsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, string(httpErr.Response), "bad")
}

type stubClient struct {
	calls  atomic.Int32
	status int
}

func (s *stubClient) Send(ctx context.Context, req *Request) (*Response, error) {
	s.calls.Add(1)
	if s.status >= 300 {
		return nil, NewError(s.status, nil)
	}
	return &Response{StatusCode: s.status}, nil
}

func TestGuardedClient_OpensOnServerErrors(t *testing.T) {
	stub := &stubClient{status: http.StatusBadGateway}
	c := NewGuardedClient(stub, GuardConfig{
		Name:             "gateway",
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}, logger.NewNoopLogger())

	for i := 0; i < 2; i++ {
		_, err := c.Send(context.Background(), &Request{Method: http.MethodGet})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	_, err := c.Send(context.Background(), &Request{Method: http.MethodGet})
	require.Error(t, err)
	assert.True(t, ierr.IsHTTPClient(err))
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestGuardedClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	stub := &stubClient{status: http.StatusBadRequest}
	c := NewGuardedClient(stub, GuardConfig{Name: "gateway", FailureThreshold: 1}, logger.NewNoopLogger())

	for i := 0; i < 3; i++ {
		_, err := c.Send(context.Background(), &Request{Method: http.MethodGet})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
	assert.Equal(t, int32(3), stub.calls.Load())
}
