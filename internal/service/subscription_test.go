package service

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/testutil"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
	history HistoryService
	clock   time.Time
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.clock = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	params := newTestParams(&s.BaseServiceTestSuite, func() time.Time { return s.clock })
	s.service = NewSubscriptionService(params)
	s.history = NewHistoryService(params)
}

func (s *SubscriptionServiceSuite) TestProvision_CreatesCustomerSubscriptionAndFirstPayment() {
	c := s.SeedClient("cli_acme")

	resp, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest(c.ID))
	s.Require().NoError(err)

	s.Equal(types.SubscriptionStatusActive, resp.Status)
	s.Equal("2024-02-10", resp.NextDueDate)
	s.NotEmpty(resp.ExternalSubscriptionID)

	// customer mapping is stored on the client
	stored, err := s.GetStores().ClientRepo.Get(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.True(stored.HasCustomerMapping())

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), resp.SubscriptionID)
	s.Require().NoError(err)
	s.Equal(resp.ExternalSubscriptionID, sub.GetExternalID())
	s.Equal(1, sub.BillingCycleMonths)
	s.Equal("Fleet tracking subscription (monthly)", sub.Description)

	remote := s.GetGateway().Calls(testutil.OpCreateSubscription)
	s.Require().Len(remote, 1)
	req := remote[0].Args.(gateway.CreateSubscriptionRequest)
	s.Equal(*stored.ExternalCustomerID, req.Customer)
	s.Equal("2024-02-10", req.NextDueDate)
	s.Equal(sub.ID, req.ExternalReference)
	s.Nil(req.CreditCard)

	payments, err := s.GetStores().SubscriptionPaymentRepo.ListBySubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	s.Equal(types.PaymentStatusPending, payments[0].Status)
	s.Equal("2024-02-10", types.FormatDate(payments[0].DueDate))
	s.True(decimal.RequireFromString("199.90").Equal(payments[0].Amount))

	history, err := s.history.ListHistory(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Len(history.Items, 2)

	s.Len(s.GetPublisher().Events(types.BillingEventSubscriptionCreated), 1)
}

func (s *SubscriptionServiceSuite) TestProvision_ReusesExistingCustomer() {
	c := s.SeedClientWithCustomer("cli_acme")

	_, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest(c.ID))
	s.Require().NoError(err)

	s.Empty(s.GetGateway().Calls(testutil.OpCreateCustomer))
	s.Len(s.GetGateway().Calls(testutil.OpCreateSubscription), 1)
}

func (s *SubscriptionServiceSuite) TestProvision_IdempotencyKeyReturnsFirstResult() {
	c := s.SeedClientWithCustomer("cli_acme")
	req := monthlyBoletoRequest(c.ID)
	req.IdempotencyKey = "order-77"

	first, err := s.service.Provision(s.GetContext(), req)
	s.Require().NoError(err)
	second, err := s.service.Provision(s.GetContext(), req)
	s.Require().NoError(err)

	s.Equal(first.SubscriptionID, second.SubscriptionID)
	s.Len(s.GetGateway().Calls(testutil.OpCreateSubscription), 1)

	subs, err := s.GetStores().SubscriptionRepo.ListByClient(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Len(subs, 1)
}

func (s *SubscriptionServiceSuite) TestProvision_ConcurrentRequestWithSameKey() {
	c := s.SeedClientWithCustomer("cli_acme")
	req := monthlyBoletoRequest(c.ID)
	req.IdempotencyKey = "order-78"

	// a parallel request with the same key commits first
	s.GetStores().SubscriptionRepo.BeforeCreate = func(sub *subscription.Subscription) {
		winner := *sub
		winner.ID = "subs_winner"
		winner.ExternalSubscriptionID = lo.ToPtr("sub_winner")
		s.GetStores().SubscriptionRepo.CommitConcurrent(winner.ID, &winner)
	}

	resp, err := s.service.Provision(s.GetContext(), req)
	s.Require().NoError(err)
	s.Equal("subs_winner", resp.SubscriptionID)
	s.Equal("sub_winner", resp.ExternalSubscriptionID)

	// our remote subscription was rolled back
	cancels := s.GetGateway().Calls(testutil.OpCancelSubscription)
	s.Require().Len(cancels, 1)
	s.NotEqual("sub_winner", cancels[0].Args.(string))
	remote, ok := s.GetGateway().Subscription(cancels[0].Args.(string))
	s.Require().True(ok)
	s.True(remote.Deleted)

	subs, err := s.GetStores().SubscriptionRepo.ListByClient(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Require().Len(subs, 1)
	s.Equal("subs_winner", subs[0].ID)
	s.Empty(s.GetPublisher().Events(types.BillingEventSubscriptionCreated))
}

func (s *SubscriptionServiceSuite) TestProvision_CardSendsCardData() {
	c := s.SeedClientWithCustomer("cli_acme")
	req := monthlyBoletoRequest(c.ID)
	req.PaymentMethod = types.PaymentMethodCreditCard
	req.RemoteIP = "10.0.0.1"
	req.CreditCard = &dto.CreditCardRequest{
		HolderName:  "Maria Silva",
		Number:      "4111111111111111",
		ExpiryMonth: "12",
		ExpiryYear:  "2030",
		CCV:         "123",
	}
	req.CreditCardHolderInfo = &dto.CreditCardHolderInfoRequest{
		Name:          "Maria Silva",
		Email:         "maria@example.com",
		Document:      "24971563792",
		PostalCode:    "01310100",
		AddressNumber: "100",
	}

	_, err := s.service.Provision(s.GetContext(), req)
	s.Require().NoError(err)

	calls := s.GetGateway().Calls(testutil.OpCreateSubscription)
	s.Require().Len(calls, 1)
	sent := calls[0].Args.(gateway.CreateSubscriptionRequest)
	s.Require().NotNil(sent.CreditCard)
	s.Equal("4111111111111111", sent.CreditCard.Number)
	s.Equal("24971563792", sent.CreditCardHolderInfo.CpfCnpj)
	s.Equal("10.0.0.1", sent.RemoteIP)
}

func (s *SubscriptionServiceSuite) TestProvision_Validation() {
	c := s.SeedClient("cli_acme")

	req := monthlyBoletoRequest(c.ID)
	req.Amount = decimal.Zero
	_, err := s.service.Provision(s.GetContext(), req)
	s.True(ierr.IsValidation(err))

	req = monthlyBoletoRequest(c.ID)
	req.PaymentMethod = types.PaymentMethodCreditCard
	_, err = s.service.Provision(s.GetContext(), req)
	s.True(ierr.IsValidation(err))

	s.Empty(s.GetGateway().CallLog)
}

func (s *SubscriptionServiceSuite) TestProvision_UnknownClient() {
	_, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest("cli_missing"))
	s.True(ierr.IsNotFound(err))
	s.Empty(s.GetGateway().CallLog)
}

func (s *SubscriptionServiceSuite) TestProvision_ClientOwnedBySomeoneElse() {
	c := s.SeedClient("cli_acme")
	ctx := types.SetUserID(s.GetContext(), "usr_other")

	_, err := s.service.Provision(ctx, monthlyBoletoRequest(c.ID))
	s.True(ierr.IsPermissionDenied(err))
	s.Empty(s.GetGateway().CallLog)
}

func (s *SubscriptionServiceSuite) TestProvision_PersistFailureCancelsRemote() {
	c := s.SeedClientWithCustomer("cli_acme")
	s.GetStores().SubscriptionRepo.CreateErr = errors.New("connection reset")

	_, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest(c.ID))
	s.Require().Error(err)

	created := s.GetGateway().Calls(testutil.OpCreateSubscription)
	s.Require().Len(created, 1)
	cancels := s.GetGateway().Calls(testutil.OpCancelSubscription)
	s.Require().Len(cancels, 1)

	remote, ok := s.GetGateway().Subscription(cancels[0].Args.(string))
	s.Require().True(ok)
	s.True(remote.Deleted)

	subs, err := s.GetStores().SubscriptionRepo.ListByClient(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Empty(subs)
	s.Empty(s.GetPublisher().Events(""))
}

func (s *SubscriptionServiceSuite) TestProvision_RemoteFailureLeavesNothingBehind() {
	c := s.SeedClientWithCustomer("cli_acme")
	s.GetGateway().FailOn(testutil.OpCreateSubscription, testutil.GatewayError(http.StatusBadRequest, "invalid nextDueDate"), 1)

	_, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest(c.ID))
	s.Require().Error(err)
	s.True(ierr.IsGateway(err))

	s.Empty(s.GetGateway().Calls(testutil.OpCancelSubscription))
	subs, err := s.GetStores().SubscriptionRepo.ListByClient(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Empty(subs)
}

func (s *SubscriptionServiceSuite) TestProvision_CompensationFailureIsReported() {
	c := s.SeedClientWithCustomer("cli_acme")
	s.GetStores().SubscriptionRepo.CreateErr = errors.New("connection reset")
	s.GetGateway().FailOn(testutil.OpCancelSubscription, testutil.GatewayError(http.StatusServiceUnavailable, "try again later"), -1)

	_, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest(c.ID))
	s.Require().Error(err)
	s.Contains(err.Error(), "compensation failed")

	// retried before giving up
	cancels := s.GetGateway().Calls(testutil.OpCancelSubscription)
	s.Len(cancels, 3)

	remote, ok := s.GetGateway().Subscription(cancels[0].Args.(string))
	s.Require().True(ok)
	s.False(remote.Deleted)
}

func (s *SubscriptionServiceSuite) TestProvision_CompensationTreatsRemoteNotFoundAsDone() {
	c := s.SeedClientWithCustomer("cli_acme")
	s.GetStores().SubscriptionRepo.CreateErr = errors.New("connection reset")
	s.GetGateway().FailOn(testutil.OpCancelSubscription, testutil.GatewayError(http.StatusNotFound, "subscription not found"), -1)

	_, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest(c.ID))
	s.Require().Error(err)
	s.NotContains(err.Error(), "compensation failed")
	s.Len(s.GetGateway().Calls(testutil.OpCancelSubscription), 1)
}

func (s *SubscriptionServiceSuite) TestGetSubscription() {
	c := s.SeedClientWithCustomer("cli_acme")
	resp, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest(c.ID))
	s.Require().NoError(err)

	got, err := s.service.GetSubscription(s.GetContext(), resp.SubscriptionID)
	s.Require().NoError(err)
	s.Equal(c.ID, got.ClientID)

	_, err = s.service.GetSubscription(types.SetUserID(s.GetContext(), "usr_other"), resp.SubscriptionID)
	s.True(ierr.IsPermissionDenied(err))

	// back-office calls act as the system user
	_, err = s.service.GetSubscription(types.SetUserID(s.GetContext(), types.SystemUserID), resp.SubscriptionID)
	s.NoError(err)

	_, err = s.service.GetSubscription(s.GetContext(), "subs_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestListPayments() {
	c := s.SeedClientWithCustomer("cli_acme")
	resp, err := s.service.Provision(s.GetContext(), monthlyBoletoRequest(c.ID))
	s.Require().NoError(err)

	payments, err := s.service.ListPayments(s.GetContext(), resp.SubscriptionID)
	s.Require().NoError(err)
	s.Require().Len(payments.Items, 1)
	s.Equal(types.PaymentStatusPending, payments.Items[0].Status)
}
