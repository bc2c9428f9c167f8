package service

import (
	"testing"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/testutil"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionSyncSuite struct {
	testutil.BaseServiceTestSuite
	service  SubscriptionService
	clock    time.Time
	client   *client.Client
	subID    string
	extSubID string
}

func TestSubscriptionSync(t *testing.T) {
	suite.Run(t, new(SubscriptionSyncSuite))
}

func (s *SubscriptionSyncSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.clock = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	s.service = NewSubscriptionService(newTestParams(&s.BaseServiceTestSuite, func() time.Time { return s.clock }))

	s.client = s.SeedClientWithCustomer("cli_acme")
	resp, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest(s.client.ID))
	s.Require().NoError(err)
	s.subID = resp.SubscriptionID
	s.extSubID = resp.ExternalSubscriptionID

	s.GetGateway().ResetCalls()
	s.GetPublisher().Clear()
	s.clock = time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
}

func (s *SubscriptionSyncSuite) remotePayment(id, status, due string) gateway.Payment {
	return gateway.Payment{
		ID:           id,
		Customer:     *s.client.ExternalCustomerID,
		Subscription: s.extSubID,
		Value:        decimal.RequireFromString("199.90"),
		Status:       status,
		BillingType:  gateway.BillingTypeBoleto,
		DueDate:      due,
	}
}

func (s *SubscriptionSyncSuite) TestSyncPayments_RecoversMissedDeliveries() {
	first := s.GetGateway().PaymentsOf(s.extSubID)[0]
	s.GetGateway().SetPaymentStatus(first.ID, gateway.PaymentStatusConfirmed)

	paid := s.remotePayment("pay_900002", gateway.PaymentStatusReceived, "2024-03-10")
	paid.PaymentDate = "2024-03-09"
	s.GetGateway().AddPayment(paid)
	s.GetGateway().AddPayment(s.remotePayment("pay_900003", gateway.PaymentStatusPending, "2024-04-10"))

	resp, err := s.service.SyncPayments(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Equal(s.subID, resp.SubscriptionID)
	s.Equal(3, resp.Fetched)
	s.Equal(2, resp.Created)
	s.Equal(2, resp.Confirmed)
	s.Equal(0, resp.Updated)
	s.Equal(0, resp.Unresolved)

	payments, err := s.GetStores().SubscriptionPaymentRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Require().Len(payments, 3)
	s.Equal(types.PaymentStatusPaid, payments[0].Status)
	s.Equal(types.PaymentStatusPaid, payments[1].Status)
	s.Equal(types.PaymentStatusPending, payments[2].Status)

	records, err := s.GetStores().FinanceRecordRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Len(records, 2)
	s.Len(s.GetPublisher().Events(types.BillingEventPaymentSucceeded), 2)
}

func (s *SubscriptionSyncSuite) TestSyncPayments_IsRepeatable() {
	first := s.GetGateway().PaymentsOf(s.extSubID)[0]
	s.GetGateway().SetPaymentStatus(first.ID, gateway.PaymentStatusConfirmed)

	_, err := s.service.SyncPayments(s.GetContext(), s.subID)
	s.Require().NoError(err)

	again, err := s.service.SyncPayments(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Equal(1, again.Fetched)
	s.Equal(0, again.Created)
	s.Equal(0, again.Confirmed)

	records, err := s.GetStores().FinanceRecordRepo.ListBySubscription(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *SubscriptionSyncSuite) TestSyncPayments_OverdueCharge() {
	first := s.GetGateway().PaymentsOf(s.extSubID)[0]
	s.GetGateway().SetPaymentStatus(first.ID, gateway.PaymentStatusOverdue)

	resp, err := s.service.SyncPayments(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.Equal(1, resp.Updated)
	s.Len(s.GetPublisher().Events(types.BillingEventPaymentOverdue), 1)
}

func (s *SubscriptionSyncSuite) TestSyncPayments_GatewayFailure() {
	s.GetGateway().FailOn(testutil.OpListPayments, testutil.GatewayError(503, "gateway unavailable"), 1)

	_, err := s.service.SyncPayments(s.GetContext(), s.subID)
	s.Error(err)
	s.True(ierr.IsGateway(err))
}

func (s *SubscriptionSyncSuite) TestSyncPayments_UnlinkedSubscription() {
	local := &subscription.Subscription{
		ID:                 "subs_local_only",
		ClientID:           s.client.ID,
		Cadence:            types.CadenceMonthly,
		BillingCycleMonths: 1,
		Amount:             decimal.RequireFromString("49.90"),
		BillingDay:         5,
		PaymentMethod:      types.PaymentMethodPix,
		Status:             types.SubscriptionStatusActive,
		StartDate:          s.clock,
		NextDueDate:        s.clock,
		BaseModel:          types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), local))

	_, err := s.service.SyncPayments(s.GetContext(), local.ID)
	s.True(ierr.IsInvalidOperation(err))
	s.Empty(s.GetGateway().Calls(testutil.OpListPayments))
}

func (s *SubscriptionSyncSuite) TestSyncPayments_NotOwner() {
	ctx := types.SetUserID(s.GetContext(), "usr_someone_else")
	_, err := s.service.SyncPayments(ctx, s.subID)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *SubscriptionSyncSuite) TestSyncPayments_AppliesRemotePlanChange() {
	s.GetGateway().EditSubscription(s.extSubID, func(sub *gateway.Subscription) {
		sub.Value = decimal.RequireFromString("249.90")
		sub.Cycle = gateway.CycleQuarterly
	})

	resp, err := s.service.SyncPayments(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.True(resp.SubscriptionUpdated)
	s.Len(s.GetGateway().Calls(testutil.OpGetSubscription), 1)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("249.90").Equal(sub.Amount))
	s.Equal(types.CadenceQuarterly, sub.Cadence)
	s.Equal(3, sub.BillingCycleMonths)
	s.Equal(s.clock, *sub.SyncedAt)
	s.Len(s.GetPublisher().Events(types.BillingEventSubscriptionUpdated), 1)

	// a second pull finds nothing new
	resp, err = s.service.SyncPayments(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.False(resp.SubscriptionUpdated)
	s.Len(s.GetPublisher().Events(types.BillingEventSubscriptionUpdated), 1)
}

func (s *SubscriptionSyncSuite) TestSyncPayments_AppliesRemoteCancellation() {
	s.GetGateway().EditSubscription(s.extSubID, func(sub *gateway.Subscription) {
		sub.Deleted = true
	})

	resp, err := s.service.SyncPayments(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.True(resp.SubscriptionUpdated)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), s.subID)
	s.Require().NoError(err)
	s.True(sub.IsCancelled())
	s.Equal("gateway", *sub.CancelledBy)
	s.Len(s.GetPublisher().Events(types.BillingEventSubscriptionCancelled), 1)
}
