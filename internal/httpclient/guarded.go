package httpclient

import (
	"context"
	"time"

	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// GuardConfig bounds outbound traffic to a single upstream
type GuardConfig struct {
	Name               string
	RatePerSecond      float64
	Burst              int
	FailureThreshold   uint32
	OpenTimeout        time.Duration
	HalfOpenMaxRequest uint32
	// OnStateChange is notified when the breaker changes state
	OnStateChange func(name string, from, to gobreaker.State)
}

// GuardedClient rate limits requests and fails fast while the upstream is
// unhealthy. It does not retry.
type GuardedClient struct {
	next    Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Response]
	logger  *logger.Logger
}

func NewGuardedClient(next Client, cfg GuardConfig, log *logger.Logger) *GuardedClient {
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RatePerSecond)
			if burst < 1 {
				burst = 1
			}
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	maxRequests := cfg.HalfOpenMaxRequest
	if maxRequests == 0 {
		maxRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: maxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 4xx means the upstream is healthy and rejected our input
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if httpErr, ok := IsHTTPError(err); ok {
				return !httpErr.IsServerError()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	return &GuardedClient{
		next:    next,
		limiter: limiter,
		breaker: gobreaker.NewCircuitBreaker[*Response](settings),
		logger:  log,
	}
}

func (c *GuardedClient) Send(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Request cancelled while waiting for the outbound rate limit").
				Mark(ierr.ErrHTTPClient)
		}
	}

	resp, err := c.breaker.Execute(func() (*Response, error) {
		return c.next.Send(ctx, req)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, ierr.WithError(err).
			WithHint("Remote service is temporarily unavailable").
			WithReportableDetails(map[string]any{"breaker": c.breaker.Name()}).
			Mark(ierr.ErrHTTPClient)
	}
	return resp, err
}

// State exposes the breaker state
func (c *GuardedClient) State() gobreaker.State {
	return c.breaker.State()
}
