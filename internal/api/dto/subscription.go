package dto

import (
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/validator"
	"github.com/shopspring/decimal"
)

// CreditCardRequest carries card data straight to the gateway; it is never
// stored
type CreditCardRequest struct {
	HolderName  string `json:"holder_name" validate:"required"`
	Number      string `json:"number" validate:"required,numeric,min=12,max=19"`
	ExpiryMonth string `json:"expiry_month" validate:"required,len=2,numeric"`
	ExpiryYear  string `json:"expiry_year" validate:"required,len=4,numeric"`
	CCV         string `json:"ccv" validate:"required,numeric,min=3,max=4"`
}

type CreditCardHolderInfoRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Document      string `json:"document" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	AddressNumber string `json:"address_number" validate:"required"`
	Phone         string `json:"phone,omitempty"`
}

type CreateSubscriptionRequest struct {
	ClientID      string              `json:"client_id" validate:"required"`
	Amount        decimal.Decimal     `json:"amount" swaggertype:"string"`
	Cadence       types.Cadence       `json:"cadence" validate:"required"`
	BillingDay    int                 `json:"billing_day" validate:"required,min=1,max=31"`
	PaymentMethod types.PaymentMethod `json:"payment_method" validate:"required"`
	// StartDate defaults to today
	StartDate   string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description string `json:"description,omitempty" validate:"omitempty,max=255"`
	// IdempotencyKey makes retried requests return the first result
	IdempotencyKey       string                       `json:"idempotency_key,omitempty" validate:"omitempty,max=255"`
	CreditCard           *CreditCardRequest           `json:"credit_card,omitempty"`
	CreditCardHolderInfo *CreditCardHolderInfoRequest `json:"credit_card_holder_info,omitempty"`

	// RemoteIP is set by the handler from the caller address
	RemoteIP string `json:"-"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if !r.Amount.IsPositive() {
		return ierr.NewError("amount must be positive").
			WithHint("Amount must be greater than zero").
			WithReportableDetails(map[string]any{"amount": r.Amount.String()}).
			Mark(ierr.ErrValidation)
	}
	if err := r.Cadence.Validate(); err != nil {
		return err
	}
	if err := r.PaymentMethod.Validate(); err != nil {
		return err
	}

	if r.PaymentMethod.IsCard() {
		if r.CreditCard == nil || r.CreditCardHolderInfo == nil {
			return ierr.NewError("credit card data missing").
				WithHint("Credit card and card holder information are required for credit card subscriptions").
				Mark(ierr.ErrValidation)
		}
		if err := validator.ValidateRequest(r.CreditCard); err != nil {
			return err
		}
		if err := validator.ValidateRequest(r.CreditCardHolderInfo); err != nil {
			return err
		}
	}
	return nil
}

// GetStartDate returns the parsed start date, or today's date in UTC
func (r *CreateSubscriptionRequest) GetStartDate(now time.Time) time.Time {
	if r.StartDate != "" {
		if t, err := types.ParseDate(r.StartDate); err == nil {
			return t
		}
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProvisionResponse is returned by subscription creation
type ProvisionResponse struct {
	SubscriptionID         string                   `json:"subscription_id"`
	ExternalSubscriptionID string                   `json:"external_subscription_id"`
	Status                 types.SubscriptionStatus `json:"status"`
	NextDueDate            string                   `json:"next_due_date"`
}

type SubscriptionResponse struct {
	*subscription.Subscription
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

func (r *CancelSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// CancelSubscriptionResponse reports the local cancellation. Warnings list
// remote failures that did not block it.
type CancelSubscriptionResponse struct {
	SubscriptionID string                   `json:"subscription_id"`
	Status         types.SubscriptionStatus `json:"status"`
	CancelledAt    time.Time                `json:"cancelled_at"`
	Warnings       []string                 `json:"warnings,omitempty"`
}

type SubscriptionPaymentResponse struct {
	*subscriptionpayment.SubscriptionPayment
}

type ListSubscriptionPaymentsResponse = types.ListResponse[*SubscriptionPaymentResponse]

// SyncPaymentsResponse summarizes a pull of remote payments
type SyncPaymentsResponse struct {
	SubscriptionID string `json:"subscription_id"`
	Fetched        int    `json:"fetched"`
	Created        int    `json:"created"`
	Updated        int    `json:"updated"`
	Confirmed      int    `json:"confirmed"`
	Unresolved     int    `json:"unresolved"`

	// SubscriptionUpdated is set when the remote plan or cancellation was
	// applied locally
	SubscriptionUpdated bool `json:"subscription_updated"`
}
