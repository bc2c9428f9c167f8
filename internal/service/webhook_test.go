package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/financerecord"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionhistory"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/idempotency"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/reconcile"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/testutil"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type WebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	service       WebhookService
	subscriptions SubscriptionService
	clock         time.Time

	client       *client.Client
	subID        string
	extSubID     string
	firstPayment gateway.Payment
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.GetConfig().Webhook.Sweep = config.GetDefaultConfig().Webhook.Sweep
	s.clock = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	params := newTestParams(&s.BaseServiceTestSuite, func() time.Time { return s.clock })
	s.service = NewWebhookService(params)
	s.subscriptions = NewSubscriptionService(params)

	s.client = s.SeedClientWithCustomer("cli_acme")
	resp, err := s.subscriptions.Provision(s.GetContext(), monthlyBoletoRequest(s.client.ID))
	s.Require().NoError(err)
	s.subID = resp.SubscriptionID
	s.extSubID = resp.ExternalSubscriptionID

	remote := s.GetGateway().PaymentsOf(s.extSubID)
	s.Require().Len(remote, 1)
	s.firstPayment = remote[0]

	s.GetGateway().ResetCalls()
	s.GetPublisher().Clear()
	s.clock = time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
}

func (s *WebhookServiceSuite) confirmed(p gateway.Payment) gateway.Payment {
	p.Status = gateway.PaymentStatusConfirmed
	p.ConfirmedDate = "2024-02-10"
	return p
}

func (s *WebhookServiceSuite) orphanPayment() gateway.Payment {
	return gateway.Payment{
		ID:           "pay_orphan",
		Subscription: "sub_late",
		Value:        decimal.RequireFromString("89.90"),
		Status:       gateway.PaymentStatusConfirmed,
		DueDate:      "2024-02-10",
	}
}

// seedLateSubscription stores the local subscription the orphan payment
// belongs to, as a delayed provisioning would
func (s *WebhookServiceSuite) seedLateSubscription() {
	s.Require().NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), &subscription.Subscription{
		ID:                     "subs_late",
		ClientID:               s.client.ID,
		ExternalSubscriptionID: lo.ToPtr("sub_late"),
		Cadence:                types.CadenceMonthly,
		BillingCycleMonths:     1,
		Amount:                 decimal.RequireFromString("89.90"),
		BillingDay:             10,
		PaymentMethod:          types.PaymentMethodPix,
		Status:                 types.SubscriptionStatusActive,
		StartDate:              s.clock,
		NextDueDate:            s.clock,
		BaseModel:              types.BaseModel{CreatedAt: s.clock, UpdatedAt: s.clock},
	}))
}

func (s *WebhookServiceSuite) paymentByExternalID(id string) *types.PaymentStatus {
	p, err := s.GetStores().SubscriptionPaymentRepo.GetByExternalID(s.GetContext(), id)
	if ierr.IsNotFound(err) {
		return nil
	}
	s.Require().NoError(err)
	return &p.Status
}

func (s *WebhookServiceSuite) financeRecords(subID string) int {
	records, err := s.GetStores().FinanceRecordRepo.ListBySubscription(s.GetContext(), subID)
	s.Require().NoError(err)
	return len(records)
}

func (s *WebhookServiceSuite) TestIngest_DuplicateConfirmationBooksOnce() {
	body := webhookBody(types.GatewayEventPaymentConfirmed, "evt_confirm_1", s.confirmed(s.firstPayment))

	first, err := s.service.Ingest(s.GetContext(), body)
	s.Require().NoError(err)
	second, err := s.service.Ingest(s.GetContext(), body)
	s.Require().NoError(err)

	s.True(first.Processed)
	s.True(second.Processed)
	s.NotEqual(first.EventID, second.EventID)

	events := s.GetStores().WebhookEventRepo.All(s.GetContext())
	s.Require().Len(events, 2)
	for _, e := range events {
		s.True(e.Processed)
		s.Equal(1, e.Attempts)
	}

	payments, err := s.GetStores().SubscriptionPaymentRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	s.Equal(types.PaymentStatusPaid, payments[0].Status)
	s.Require().NotNil(payments[0].PaidAt)
	s.Equal("2024-02-10", types.FormatDate(*payments[0].PaidAt))

	records, err := s.GetStores().FinanceRecordRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.True(decimal.RequireFromString("199.90").Equal(records[0].Amount))
	s.Equal(types.FinanceRecordTypeIncome, records[0].Type)

	s.Len(s.GetPublisher().Events(types.BillingEventPaymentSucceeded), 1)
}

func (s *WebhookServiceSuite) TestIngest_ConfirmationBeforeCreation() {
	late := gateway.Payment{
		ID:            "pay_900001",
		Customer:      *s.client.ExternalCustomerID,
		Subscription:  s.extSubID,
		Value:         decimal.RequireFromString("199.90"),
		Status:        gateway.PaymentStatusConfirmed,
		BillingType:   "BOLETO",
		DueDate:       "2024-03-10",
		ConfirmedDate: "2024-03-08",
	}
	s.GetGateway().AddPayment(late)

	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_late_confirm", late))
	s.Require().NoError(err)
	s.True(resp.Processed)
	s.Equal(types.PaymentStatusPaid, *s.paymentByExternalID(late.ID))
	s.Equal(1, s.financeRecords(s.subID))

	created := late
	created.Status = gateway.PaymentStatusPending
	created.ConfirmedDate = ""
	resp, err = s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentCreated, "evt_late_create", created))
	s.Require().NoError(err)
	s.True(resp.Processed)

	// the late creation does not move the payment back to pending
	s.Equal(types.PaymentStatusPaid, *s.paymentByExternalID(late.ID))
	s.Equal(1, s.financeRecords(s.subID))

	payments, err := s.GetStores().SubscriptionPaymentRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Len(payments, 2)
}

func (s *WebhookServiceSuite) TestIngest_StatusNeverMovesBackwards() {
	overdue := s.firstPayment
	overdue.Status = gateway.PaymentStatusOverdue

	_, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentOverdue, "evt_overdue", overdue))
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusOverdue, *s.paymentByExternalID(s.firstPayment.ID))

	_, err = s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_paid", s.confirmed(s.firstPayment)))
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusPaid, *s.paymentByExternalID(s.firstPayment.ID))

	refunded := s.firstPayment
	refunded.Status = gateway.PaymentStatusRefunded
	_, err = s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentRefunded, "evt_refund", refunded))
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusRefunded, *s.paymentByExternalID(s.firstPayment.ID))

	// a stale overdue and a redelivered confirmation change nothing
	_, err = s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentOverdue, "evt_overdue", overdue))
	s.Require().NoError(err)
	_, err = s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_paid", s.confirmed(s.firstPayment)))
	s.Require().NoError(err)

	s.Equal(types.PaymentStatusRefunded, *s.paymentByExternalID(s.firstPayment.ID))
	s.Equal(1, s.financeRecords(s.subID))
	s.Len(s.GetPublisher().Events(types.BillingEventPaymentRefunded), 1)
}

func (s *WebhookServiceSuite) TestIngest_UnresolvedEventIsStoredForFollowUp() {
	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_orphan", s.orphanPayment()))
	s.Require().NoError(err)
	s.True(resp.Success)
	s.False(resp.Processed)

	event, err := s.service.GetEvent(s.GetContext(), resp.EventID)
	s.Require().NoError(err)
	s.False(event.Processed)
	s.Equal(1, event.Attempts)
	s.Require().NotNil(event.ErrorMessage)
	s.Contains(*event.ErrorMessage, `no local subscription for gateway subscription "sub_late"`)
	s.Equal("evt_orphan", event.ExternalEventID)

	s.Nil(s.paymentByExternalID("pay_orphan"))
}

func (s *WebhookServiceSuite) TestReprocessPending_ResolvesOnceStateArrives() {
	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_orphan", s.orphanPayment()))
	s.Require().NoError(err)
	s.Require().False(resp.Processed)

	s.seedLateSubscription()
	s.clock = s.clock.Add(3 * time.Minute)

	sweep, err := s.service.ReprocessPending(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, sweep.Scanned)
	s.Equal(1, sweep.Processed)
	s.Equal(0, sweep.Unresolved)

	event, err := s.service.GetEvent(s.GetContext(), resp.EventID)
	s.Require().NoError(err)
	s.True(event.Processed)
	s.Equal(2, event.Attempts)
	s.Nil(event.ErrorMessage)

	s.Equal(types.PaymentStatusPaid, *s.paymentByExternalID("pay_orphan"))
	s.Equal(1, s.financeRecords("subs_late"))
}

func (s *WebhookServiceSuite) TestReprocessPending_WaitsForRetryInterval() {
	_, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_orphan", s.orphanPayment()))
	s.Require().NoError(err)

	sweep, err := s.service.ReprocessPending(s.GetContext())
	s.Require().NoError(err)
	s.Equal(0, sweep.Scanned)
}

func (s *WebhookServiceSuite) TestReprocessPending_GivesUpAtMaxAttempts() {
	s.GetConfig().Webhook.Sweep.MaxAttempts = 2

	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_orphan", s.orphanPayment()))
	s.Require().NoError(err)

	s.clock = s.clock.Add(3 * time.Minute)
	sweep, err := s.service.ReprocessPending(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, sweep.Scanned)
	s.Equal(1, sweep.Unresolved)

	s.clock = s.clock.Add(3 * time.Minute)
	sweep, err = s.service.ReprocessPending(s.GetContext())
	s.Require().NoError(err)
	s.Equal(0, sweep.Scanned)

	event, err := s.service.GetEvent(s.GetContext(), resp.EventID)
	s.Require().NoError(err)
	s.False(event.Processed)
	s.Equal(2, event.Attempts)
}

func (s *WebhookServiceSuite) TestIngest_ThinPayloadIsCompletedFromGateway() {
	s.GetGateway().SetPaymentStatus(s.firstPayment.ID, gateway.PaymentStatusConfirmed)
	thin := gateway.Payment{ID: s.firstPayment.ID, Status: gateway.PaymentStatusConfirmed}

	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_thin", thin))
	s.Require().NoError(err)
	s.True(resp.Processed)

	s.Len(s.GetGateway().Calls(testutil.OpGetPayment), 1)

	records, err := s.GetStores().FinanceRecordRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.True(decimal.RequireFromString("199.90").Equal(records[0].Amount))
}

func (s *WebhookServiceSuite) TestIngest_SubscriptionCancelledAtGateway() {
	body, err := json.Marshal(gateway.WebhookEnvelope{
		ID:           "evt_sub_deleted",
		Event:        types.GatewayEventSubscriptionDeleted,
		Subscription: &gateway.Subscription{ID: s.extSubID, Deleted: true},
	})
	s.Require().NoError(err)

	resp, err := s.service.Ingest(s.GetContext(), body)
	s.Require().NoError(err)
	s.True(resp.Processed)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.True(sub.IsCancelled())
	s.Equal("gateway", *sub.CancelledBy)
	s.Len(s.GetPublisher().Events(types.BillingEventSubscriptionCancelled), 1)
}

func (s *WebhookServiceSuite) TestIngest_UnknownEventIsAcknowledged() {
	resp, err := s.service.Ingest(s.GetContext(), webhookBody("PAYMENT_ANTICIPATED", "evt_new", s.firstPayment))
	s.Require().NoError(err)
	s.True(resp.Processed)
	s.Equal(types.PaymentStatusPending, *s.paymentByExternalID(s.firstPayment.ID))
}

func (s *WebhookServiceSuite) TestIngest_InvalidJSONIsStored() {
	resp, err := s.service.Ingest(s.GetContext(), []byte("{not json"))
	s.Require().NoError(err)
	s.True(resp.Success)

	event, err := s.service.GetEvent(s.GetContext(), resp.EventID)
	s.Require().NoError(err)
	s.Equal(types.WebhookEventUnknown.String(), event.EventType)
	s.Empty(event.ExternalEventID)

	var raw string
	s.Require().NoError(json.Unmarshal(event.Payload, &raw))
	s.Equal("{not json", raw)
}

func (s *WebhookServiceSuite) TestIngest_StoreFailureIsReturned() {
	s.GetStores().WebhookEventRepo.CreateErr = errors.New("disk full")

	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_lost", s.confirmed(s.firstPayment)))
	s.Error(err)
	s.Nil(resp)

	// nothing was reconciled without a stored delivery
	s.Equal(types.PaymentStatusPending, *s.paymentByExternalID(s.firstPayment.ID))
}

func (s *WebhookServiceSuite) TestReplay() {
	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_orphan", s.orphanPayment()))
	s.Require().NoError(err)

	s.seedLateSubscription()
	replayed, err := s.service.Replay(s.GetContext(), resp.EventID)
	s.Require().NoError(err)
	s.True(replayed.Processed)
	s.Equal(2, replayed.Attempts)

	_, err = s.service.Replay(s.GetContext(), resp.EventID)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.Replay(s.GetContext(), "whe_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *WebhookServiceSuite) TestListEvents_FiltersByProcessed() {
	_, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_ok", s.confirmed(s.firstPayment)))
	s.Require().NoError(err)
	_, err = s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_orphan", s.orphanPayment()))
	s.Require().NoError(err)

	filter := types.NewWebhookEventFilter()
	filter.Processed = lo.ToPtr(false)
	resp, err := s.service.ListEvents(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal("evt_orphan", resp.Items[0].ExternalEventID)
	s.Equal(1, resp.Pagination.Total)

	all, err := s.service.ListEvents(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Len(all.Items, 2)

	filter = types.NewWebhookEventFilter()
	filter.Limit = lo.ToPtr(types.FILTER_MAX_LIMIT + 1)
	_, err = s.service.ListEvents(s.GetContext(), filter)
	s.True(ierr.IsValidation(err))
}

func (s *WebhookServiceSuite) TestIngest_ConcurrentConfirmationInsertsOnce() {
	late := gateway.Payment{
		ID:            "pay_900001",
		Customer:      *s.client.ExternalCustomerID,
		Subscription:  s.extSubID,
		Value:         decimal.RequireFromString("199.90"),
		Status:        gateway.PaymentStatusConfirmed,
		BillingType:   gateway.BillingTypeBoleto,
		DueDate:       "2024-03-10",
		ConfirmedDate: "2024-03-08",
	}

	// another delivery of the same charge commits between our read and
	// our insert
	stores := s.GetStores()
	stores.SubscriptionPaymentRepo.BeforeInsert = func(p *subscriptionpayment.SubscriptionPayment) {
		winner := *p
		winner.ID = "spay_winner"
		stores.SubscriptionPaymentRepo.CommitConcurrent(winner.ID, &winner)
		stores.FinanceRecordRepo.CommitConcurrent("fin_winner", &financerecord.FinanceRecord{
			ID:                    "fin_winner",
			ClientID:              s.client.ID,
			SubscriptionID:        lo.ToPtr(s.subID),
			SubscriptionPaymentID: lo.ToPtr(winner.ID),
			Type:                  types.FinanceRecordTypeIncome,
			Category:              types.FinanceCategorySubscription,
			Description:           reconcile.FinanceDescription(late.ID),
			Amount:                late.Value,
			OccurredOn:            *winner.PaidAt,
			ReferenceKey:          idempotency.NewGenerator().FinanceRecordKey(late.ID),
			CreatedAt:             s.clock,
		})
	}

	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_race", late))
	s.Require().NoError(err)
	s.True(resp.Processed)

	payments, err := stores.SubscriptionPaymentRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	matching := lo.Filter(payments, func(p *subscriptionpayment.SubscriptionPayment, _ int) bool {
		return p.ExternalPaymentID == late.ID
	})
	s.Require().Len(matching, 1)
	s.Equal("spay_winner", matching[0].ID)

	records, err := stores.FinanceRecordRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("fin_winner", records[0].ID)

	// the winning delivery announced the payment, not this one
	s.Empty(s.GetPublisher().Events(types.BillingEventPaymentSucceeded))
}

func (s *WebhookServiceSuite) TestIngest_SubscriptionUpdatedAtGateway() {
	body, err := json.Marshal(gateway.WebhookEnvelope{
		ID:    "evt_sub_updated",
		Event: types.GatewayEventSubscriptionUpdated,
		Subscription: &gateway.Subscription{
			ID:          s.extSubID,
			Value:       decimal.RequireFromString("249.90"),
			Cycle:       gateway.CycleQuarterly,
			NextDueDate: "2024-05-10",
		},
	})
	s.Require().NoError(err)

	for range 2 {
		resp, err := s.service.Ingest(s.GetContext(), body)
		s.Require().NoError(err)
		s.True(resp.Processed)
	}

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("249.90").Equal(sub.Amount))
	s.Equal(types.CadenceQuarterly, sub.Cadence)
	s.Equal(3, sub.BillingCycleMonths)
	s.Equal("2024-05-10", types.FormatDate(sub.NextDueDate))

	entries, err := s.GetStores().SubscriptionHistoryRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	planChanges := lo.Filter(entries, func(h *subscriptionhistory.SubscriptionHistory, _ int) bool {
		return h.EventType == types.HistoryEventPlanChanged
	})
	s.Len(planChanges, 1)
	s.Len(s.GetPublisher().Events(types.BillingEventSubscriptionUpdated), 1)
}

func (s *WebhookServiceSuite) TestIngest_ThinPayloadWaitsForGateway() {
	s.GetGateway().SetPaymentStatus(s.firstPayment.ID, gateway.PaymentStatusConfirmed)
	s.GetGateway().FailOn(testutil.OpGetPayment, testutil.GatewayError(http.StatusServiceUnavailable, "try again later"), 1)
	thin := gateway.Payment{ID: s.firstPayment.ID, Status: gateway.PaymentStatusConfirmed}

	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_thin", thin))
	s.Require().NoError(err)
	s.False(resp.Processed)
	s.Equal(0, s.financeRecords(s.subID))
	s.Equal(types.PaymentStatusPending, *s.paymentByExternalID(s.firstPayment.ID))

	event, err := s.service.GetEvent(s.GetContext(), resp.EventID)
	s.Require().NoError(err)
	s.Require().NotNil(event.ErrorMessage)
	s.Contains(*event.ErrorMessage, "payment payload incomplete")

	s.clock = s.clock.Add(3 * time.Minute)
	sweep, err := s.service.ReprocessPending(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, sweep.Processed)

	records, err := s.GetStores().FinanceRecordRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.True(decimal.RequireFromString("199.90").Equal(records[0].Amount))
}

func (s *WebhookServiceSuite) TestReprocessPending_UnrecordedOutcomeCountsAsFailed() {
	resp, err := s.service.Ingest(s.GetContext(), webhookBody(types.GatewayEventPaymentConfirmed, "evt_orphan", s.orphanPayment()))
	s.Require().NoError(err)
	s.Require().False(resp.Processed)

	s.seedLateSubscription()
	s.GetStores().WebhookEventRepo.UpdateOutcomeErr = errors.New("connection reset")
	s.clock = s.clock.Add(3 * time.Minute)

	sweep, err := s.service.ReprocessPending(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, sweep.Scanned)
	s.Equal(1, sweep.Failed)
	s.Equal(0, sweep.Processed)

	_, err = s.service.Replay(s.GetContext(), resp.EventID)
	s.Error(err)

	// once the row can be written the next pass settles it without
	// booking the payment again
	s.GetStores().WebhookEventRepo.UpdateOutcomeErr = nil
	s.clock = s.clock.Add(3 * time.Minute)
	sweep, err = s.service.ReprocessPending(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, sweep.Processed)
	s.Equal(1, s.financeRecords("subs_late"))
}
