package dto

import (
	"testing"
	"time"

	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validRequest() *CreateSubscriptionRequest {
	return &CreateSubscriptionRequest{
		ClientID:      "cli_1",
		Amount:        decimal.RequireFromString("99.90"),
		Cadence:       types.CadenceMonthly,
		BillingDay:    10,
		PaymentMethod: types.PaymentMethodBoleto,
		StartDate:     "2024-01-15",
	}
}

func TestCreateSubscriptionRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CreateSubscriptionRequest)
		wantErr bool
	}{
		{"valid", func(*CreateSubscriptionRequest) {}, false},
		{"missing client", func(r *CreateSubscriptionRequest) { r.ClientID = "" }, true},
		{"zero amount", func(r *CreateSubscriptionRequest) { r.Amount = decimal.Zero }, true},
		{"negative amount", func(r *CreateSubscriptionRequest) { r.Amount = decimal.NewFromInt(-1) }, true},
		{"billing day too large", func(r *CreateSubscriptionRequest) { r.BillingDay = 32 }, true},
		{"unknown cadence", func(r *CreateSubscriptionRequest) { r.Cadence = "weekly" }, true},
		{"unknown method", func(r *CreateSubscriptionRequest) { r.PaymentMethod = "cash" }, true},
		{"bad start date", func(r *CreateSubscriptionRequest) { r.StartDate = "15/01/2024" }, true},
		{"card without card data", func(r *CreateSubscriptionRequest) { r.PaymentMethod = types.PaymentMethodCreditCard }, true},
		{"card with card data", func(r *CreateSubscriptionRequest) {
			r.PaymentMethod = types.PaymentMethodCreditCard
			r.CreditCard = &CreditCardRequest{HolderName: "A B", Number: "4111111111111111", ExpiryMonth: "12", ExpiryYear: "2030", CCV: "123"}
			r.CreditCardHolderInfo = &CreditCardHolderInfoRequest{Name: "A B", Email: "a@b.com", Document: "12345678900", PostalCode: "01001000", AddressNumber: "10"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateSubscriptionRequest_GetStartDate(t *testing.T) {
	now := time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)

	r := validRequest()
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), r.GetStartDate(now))

	r.StartDate = ""
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), r.GetStartDate(now))
}
