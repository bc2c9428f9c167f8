package testutil

import (
	"sort"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/shopspring/decimal"
)

func decimalFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func sortPayments(payments []gateway.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].DueDate == payments[j].DueDate {
			return payments[i].ID < payments[j].ID
		}
		return payments[i].DueDate < payments[j].DueDate
	})
}

func gatewayCustomerRequest(c *client.Client) gateway.CreateCustomerRequest {
	return gateway.CreateCustomerRequest{
		Name:              c.Name,
		CpfCnpj:           c.Document,
		Email:             c.Email,
		MobilePhone:       c.Phone,
		ExternalReference: c.ID,
	}
}
