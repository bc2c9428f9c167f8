package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/idempotency"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/reconcile"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/saga"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
)

type SubscriptionService interface {
	Provision(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.ProvisionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelSubscriptionRequest) (*dto.CancelSubscriptionResponse, error)
	ListPayments(ctx context.Context, id string) (*dto.ListSubscriptionPaymentsResponse, error)
	SyncPayments(ctx context.Context, id string) (*dto.SyncPaymentsResponse, error)
}

// Saga step names, also used as metric labels
const (
	stepEnsureCustomer      = "ensure_customer"
	stepCreateRemote        = "create_remote_subscription"
	stepPersistSubscription = "persist_subscription"
)

// compensationBackOff bounds the retries of a remote cancellation run as
// compensation
var compensationBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return backoff.WithMaxRetries(b, 4)
}

var idempotencyKeys = idempotency.NewGenerator()

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) Provision(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.ProvisionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.loadOwnedClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	// a retried request returns the subscription the first attempt created
	var scopedKey string
	if req.IdempotencyKey != "" {
		scopedKey = idempotencyKeys.SubscriptionRequestKey(req.ClientID, req.IdempotencyKey)
		existing, err := s.SubRepo.GetByIdempotencyKey(ctx, scopedKey)
		if err == nil {
			s.Logger.Infow("subscription request replayed",
				"subscription_id", existing.ID,
				"client_id", req.ClientID,
			)
			return toProvisionResponse(existing), nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	now := s.now()
	start := req.GetStartDate(now)
	nextDue, err := types.NextDueDate(start, req.BillingDay)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Billing day must be between 1 and 31").
			Mark(ierr.ErrValidation)
	}

	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ClientID:           c.ID,
		Cadence:            req.Cadence,
		BillingCycleMonths: req.Cadence.Months(),
		Amount:             req.Amount,
		BillingDay:         req.BillingDay,
		PaymentMethod:      req.PaymentMethod,
		Status:             types.SubscriptionStatusActive,
		Description:        lo.Ternary(req.Description != "", req.Description, defaultDescription(req.Cadence)),
		StartDate:          start,
		NextDueDate:        nextDue,
		IdempotencyKey:     lo.EmptyableToPtr(scopedKey),
		BaseModel: types.BaseModel{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	var customerID string
	var remote *gateway.Subscription

	err = saga.New("provision_subscription", s.Logger).
		AddStep(saga.Step{
			Name: stepEnsureCustomer,
			Do: func(ctx context.Context) error {
				var err error
				customerID, err = s.ensureCustomer(ctx, c)
				return err
			},
		}).
		AddStep(saga.Step{
			Name: stepCreateRemote,
			Do: func(ctx context.Context) error {
				var err error
				remote, err = s.Gateway.CreateSubscription(ctx, gatewaySubscriptionRequest(req, sub, customerID))
				if err != nil {
					return err
				}
				sub.ExternalSubscriptionID = lo.ToPtr(remote.ID)
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.cancelRemote(ctx, remote.ID)
			},
		}).
		AddStep(saga.Step{
			Name: stepPersistSubscription,
			Do: func(ctx context.Context) error {
				return s.DB.WithTx(ctx, func(ctx context.Context) error {
					if err := s.SubRepo.Create(ctx, sub); err != nil {
						return err
					}
					entry := NewHistoryEntry(ctx, sub.ID, types.HistoryEventCreated,
						fmt.Sprintf("Subscription created: %s %s via %s, first due %s",
							sub.Cadence, sub.Amount.StringFixed(2), sub.PaymentMethod, types.FormatDate(sub.NextDueDate)),
						now)
					return s.SubHistoryRepo.Create(ctx, entry)
				})
			},
		}).
		Run(ctx)
	if err != nil {
		// a concurrent request with the same key won the insert; ours was
		// compensated, so answer with the winner
		if scopedKey != "" && ierr.IsAlreadyExists(err) {
			if existing, getErr := s.SubRepo.GetByIdempotencyKey(ctx, scopedKey); getErr == nil {
				return toProvisionResponse(existing), nil
			}
		}
		return nil, s.provisioningFailed(sub, err)
	}

	s.Metrics.SubscriptionsProvisioned.WithLabelValues("ok").Inc()
	s.Logger.Infow("subscription provisioned",
		"subscription_id", sub.ID,
		"client_id", sub.ClientID,
		"external_subscription_id", remote.ID,
		"next_due_date", types.FormatDate(sub.NextDueDate),
	)

	s.anticipateFirstPayment(ctx, sub)
	s.publish(ctx, publication(types.BillingEventSubscriptionCreated, sub.ID, sub.Amount))

	return toProvisionResponse(sub), nil
}

func (s *subscriptionService) provisioningFailed(sub *subscription.Subscription, err error) error {
	s.Metrics.SubscriptionsProvisioned.WithLabelValues("failed").Inc()

	var sagaErr *saga.Error
	if !errors.As(err, &sagaErr) {
		return err
	}

	for _, step := range sagaErr.Compensated {
		s.Metrics.Compensations.WithLabelValues(step, "ok").Inc()
	}
	if sagaErr.Compensable() {
		return err
	}

	// the remote subscription outlived the failed provisioning
	details := map[string]any{
		"subscription_id":          sub.ID,
		"client_id":                sub.ClientID,
		"external_subscription_id": sub.GetExternalID(),
		"failed_step":              sagaErr.Step,
		"compensation_failed":      true,
	}
	for _, f := range sagaErr.CompensationFailures {
		s.Metrics.Compensations.WithLabelValues(f.Step, "failed").Inc()
		details["compensation_error_"+f.Step] = f.Err.Error()
	}

	s.Logger.Errorw("provisioning compensation failed, remote subscription left active",
		"error", err,
		"subscription_id", sub.ID,
		"client_id", sub.ClientID,
		"external_subscription_id", sub.GetExternalID(),
	)
	s.Sentry.CaptureExceptionWithTags(err, map[string]string{
		"client_id":                sub.ClientID,
		"external_subscription_id": sub.GetExternalID(),
		"saga_step":                sagaErr.Step,
	})

	return ierr.WithError(err).
		WithHint("The subscription could not be saved and its payment gateway copy could not be cancelled. Contact support before retrying.").
		WithReportableDetails(details).
		Error()
}

// ensureCustomer returns the gateway customer of the client, creating and
// persisting it on first use
func (s *subscriptionService) ensureCustomer(ctx context.Context, c *client.Client) (string, error) {
	if c.HasCustomerMapping() {
		return *c.ExternalCustomerID, nil
	}

	cus, err := s.Gateway.CreateCustomer(ctx, gateway.CreateCustomerRequest{
		Name:              c.Name,
		CpfCnpj:           c.Document,
		Email:             c.Email,
		MobilePhone:       c.Phone,
		ExternalReference: c.ID,
	})
	if err != nil {
		return "", err
	}

	// persisted right away so a later failure does not create a second
	// customer on retry
	if err := s.ClientRepo.SetExternalCustomerID(ctx, c.ID, cus.ID); err != nil {
		return "", err
	}
	c.ExternalCustomerID = lo.ToPtr(cus.ID)

	s.Logger.Infow("gateway customer created",
		"client_id", c.ID,
		"external_customer_id", cus.ID,
	)
	return cus.ID, nil
}

// cancelRemote retries the idempotent remote cancel. A subscription the
// gateway no longer knows counts as cancelled.
func (s *subscriptionService) cancelRemote(ctx context.Context, externalID string) error {
	op := func() error {
		_, err := s.Gateway.CancelSubscription(ctx, externalID)
		if err == nil {
			return nil
		}
		if gwErr, ok := gateway.AsError(err); ok {
			if gwErr.StatusCode == http.StatusNotFound {
				return nil
			}
			if gwErr.StatusCode >= 400 && gwErr.StatusCode < 500 {
				return backoff.Permanent(err)
			}
		}
		return err
	}

	return backoff.RetryNotify(op, backoff.WithContext(compensationBackOff(), ctx), func(err error, wait time.Duration) {
		s.Logger.Warnw("retrying remote subscription cancel",
			"error", err,
			"external_subscription_id", externalID,
			"wait", wait,
		)
	})
}

// anticipateFirstPayment records the charges the gateway issued on
// creation. Failures are logged; webhooks and sync fill any gap later.
func (s *subscriptionService) anticipateFirstPayment(ctx context.Context, sub *subscription.Subscription) {
	page, err := s.Gateway.ListPayments(ctx, gateway.ListPaymentsParams{
		Subscription: sub.GetExternalID(),
		Limit:        10,
	})
	if err != nil {
		s.Logger.Warnw("could not list first payments",
			"error", err,
			"subscription_id", sub.ID,
		)
		return
	}

	for i := range page.Data {
		remote := page.Data[i]
		ev := reconcile.Event{
			Type:         types.WebhookEventPaymentCreated,
			GatewayEvent: types.GatewayEventPaymentCreated,
			Payment:      &remote,
		}
		if _, err := s.reconcileEvent(ctx, ev); err != nil {
			s.Logger.Warnw("could not record first payment",
				"error", err,
				"subscription_id", sub.ID,
				"external_payment_id", remote.ID,
			)
		}
	}
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, _, err := s.loadOwnedSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) ListPayments(ctx context.Context, id string) (*dto.ListSubscriptionPaymentsResponse, error) {
	if _, _, err := s.loadOwnedSubscription(ctx, id); err != nil {
		return nil, err
	}

	payments, err := s.SubPaymentRepo.ListBySubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	items := lo.Map(payments, func(p *subscriptionpayment.SubscriptionPayment, _ int) *dto.SubscriptionPaymentResponse {
		return &dto.SubscriptionPaymentResponse{SubscriptionPayment: p}
	})
	resp := types.NewListResponse(items, len(items), len(items), 0)
	return &resp, nil
}

func gatewaySubscriptionRequest(req dto.CreateSubscriptionRequest, sub *subscription.Subscription, customerID string) gateway.CreateSubscriptionRequest {
	out := gateway.CreateSubscriptionRequest{
		Customer:          customerID,
		BillingType:       gateway.BillingTypeFor(sub.PaymentMethod),
		Value:             sub.Amount.InexactFloat64(),
		NextDueDate:       types.FormatDate(sub.NextDueDate),
		Cycle:             gateway.CycleFor(sub.Cadence),
		Description:       sub.Description,
		ExternalReference: sub.ID,
	}

	if sub.PaymentMethod.IsCard() && req.CreditCard != nil && req.CreditCardHolderInfo != nil {
		out.CreditCard = &gateway.CreditCard{
			HolderName:  req.CreditCard.HolderName,
			Number:      req.CreditCard.Number,
			ExpiryMonth: req.CreditCard.ExpiryMonth,
			ExpiryYear:  req.CreditCard.ExpiryYear,
			CCV:         req.CreditCard.CCV,
		}
		out.CreditCardHolderInfo = &gateway.CreditCardHolderInfo{
			Name:          req.CreditCardHolderInfo.Name,
			Email:         req.CreditCardHolderInfo.Email,
			CpfCnpj:       req.CreditCardHolderInfo.Document,
			PostalCode:    req.CreditCardHolderInfo.PostalCode,
			AddressNumber: req.CreditCardHolderInfo.AddressNumber,
			Phone:         req.CreditCardHolderInfo.Phone,
		}
		out.RemoteIP = req.RemoteIP
	}
	return out
}

func defaultDescription(c types.Cadence) string {
	return fmt.Sprintf("Fleet tracking subscription (%s)", c)
}

func toProvisionResponse(sub *subscription.Subscription) *dto.ProvisionResponse {
	return &dto.ProvisionResponse{
		SubscriptionID:         sub.ID,
		ExternalSubscriptionID: sub.GetExternalID(),
		Status:                 sub.Status,
		NextDueDate:            types.FormatDate(sub.NextDueDate),
	}
}
