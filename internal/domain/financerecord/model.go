package financerecord

import (
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/shopspring/decimal"
)

// FinanceRecord is a ledger line in the client's financial history
type FinanceRecord struct {
	ID                    string                  `db:"id" json:"id"`
	ClientID              string                  `db:"client_id" json:"client_id"`
	SubscriptionID        *string                 `db:"subscription_id" json:"subscription_id,omitempty"`
	SubscriptionPaymentID *string                 `db:"subscription_payment_id" json:"subscription_payment_id,omitempty"`
	Type                  types.FinanceRecordType `db:"type" json:"type"`
	Category              string                  `db:"category" json:"category"`
	Description           string                  `db:"description" json:"description"`
	Amount                decimal.Decimal         `db:"amount" json:"amount" swaggertype:"string"`
	OccurredOn            time.Time               `db:"occurred_on" json:"occurred_on"`
	// ReferenceKey is unique per source document, e.g. one per paid charge
	ReferenceKey string    `db:"reference_key" json:"reference_key"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
