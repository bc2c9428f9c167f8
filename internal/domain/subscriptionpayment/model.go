package subscriptionpayment

import (
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/shopspring/decimal"
)

// SubscriptionPayment is one charge of a subscription, keyed by the
// gateway payment id
type SubscriptionPayment struct {
	ID                string              `db:"id" json:"id"`
	SubscriptionID    string              `db:"subscription_id" json:"subscription_id"`
	ExternalPaymentID string              `db:"external_payment_id" json:"external_payment_id"`
	Amount            decimal.Decimal     `db:"amount" json:"amount" swaggertype:"string"`
	DueDate           time.Time           `db:"due_date" json:"due_date"`
	PaidAt            *time.Time          `db:"paid_at" json:"paid_at,omitempty"`
	Status            types.PaymentStatus `db:"status" json:"status"`
	PeriodStart       *time.Time          `db:"period_start" json:"period_start,omitempty"`
	PeriodEnd         *time.Time          `db:"period_end" json:"period_end,omitempty"`
	InvoiceURL        *string             `db:"invoice_url" json:"invoice_url,omitempty"`
	InvoiceNumber     *string             `db:"invoice_number" json:"invoice_number,omitempty"`
	PaymentMethod     types.PaymentMethod `db:"payment_method" json:"payment_method"`

	types.BaseModel
}

func (p *SubscriptionPayment) IsPaid() bool {
	return p.Status == types.PaymentStatusPaid
}
