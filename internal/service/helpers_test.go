package service

import (
	"encoding/json"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/testutil"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

func init() {
	// compensation retries without sleeping
	compensationBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
}

// newTestParams wires services to the suite's in-memory stores and fake
// gateway. Sentry is left nil; its methods are no-ops then.
func newTestParams(s *testutil.BaseServiceTestSuite, now func() time.Time) ServiceParams {
	stores := s.GetStores()
	params := NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetMetrics(),
		nil,
		stores.ClientRepo,
		stores.SubscriptionRepo,
		stores.SubscriptionPaymentRepo,
		stores.FinanceRecordRepo,
		stores.SubscriptionHistoryRepo,
		stores.WebhookEventRepo,
		s.GetGateway(),
		s.GetPublisher(),
	)
	params.Now = now
	return params
}

func monthlyBoletoRequest(clientID string) dto.CreateSubscriptionRequest {
	return dto.CreateSubscriptionRequest{
		ClientID:      clientID,
		Amount:        decimal.RequireFromString("199.90"),
		Cadence:       types.CadenceMonthly,
		BillingDay:    10,
		PaymentMethod: types.PaymentMethodBoleto,
		StartDate:     "2024-01-15",
	}
}

func webhookBody(event string, eventID string, payment gateway.Payment) []byte {
	body, err := json.Marshal(gateway.WebhookEnvelope{
		ID:      eventID,
		Event:   event,
		Payment: &payment,
	})
	if err != nil {
		panic(err)
	}
	return body
}
