package gateway

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// CycleFor translates a local cadence to the gateway cycle name
func CycleFor(c types.Cadence) string {
	switch c {
	case types.CadenceQuarterly:
		return CycleQuarterly
	case types.CadenceAnnual:
		return CycleYearly
	default:
		return CycleMonthly
	}
}

// CadenceFromCycle is the inverse of CycleFor
func CadenceFromCycle(cycle string) types.Cadence {
	switch cycle {
	case CycleQuarterly:
		return types.CadenceQuarterly
	case CycleYearly:
		return types.CadenceAnnual
	default:
		return types.CadenceMonthly
	}
}

// BillingTypeFor translates a local payment method to the gateway billing type
func BillingTypeFor(m types.PaymentMethod) string {
	switch m {
	case types.PaymentMethodBoleto:
		return BillingTypeBoleto
	case types.PaymentMethodPix:
		return BillingTypePix
	case types.PaymentMethodCreditCard:
		return BillingTypeCreditCard
	default:
		return BillingTypeUndefined
	}
}

func PaymentMethodFromBillingType(billingType string) types.PaymentMethod {
	switch billingType {
	case BillingTypeBoleto:
		return types.PaymentMethodBoleto
	case BillingTypePix:
		return types.PaymentMethodPix
	case BillingTypeCreditCard:
		return types.PaymentMethodCreditCard
	default:
		return types.PaymentMethodUndefined
	}
}

// PaymentStatusFromGateway maps a remote payment status to the local one.
// Statuses without a local meaning are treated as pending.
func PaymentStatusFromGateway(status string) types.PaymentStatus {
	switch status {
	case PaymentStatusReceived, PaymentStatusConfirmed, PaymentStatusReceivedInCash:
		return types.PaymentStatusPaid
	case PaymentStatusOverdue:
		return types.PaymentStatusOverdue
	case PaymentStatusRefunded:
		return types.PaymentStatusRefunded
	default:
		return types.PaymentStatusPending
	}
}

// IsPaid reports whether the payment has been settled on the gateway
func (p *Payment) IsPaid() bool {
	return PaymentStatusFromGateway(p.Status) == types.PaymentStatusPaid
}
