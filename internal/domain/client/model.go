package client

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// Client is the fleet customer being billed. The billing engine only reads
// it, apart from the gateway customer mapping.
type Client struct {
	ID                 string  `db:"id" json:"id"`
	OwnerID            string  `db:"owner_id" json:"owner_id"`
	Name               string  `db:"name" json:"name"`
	Email              string  `db:"email" json:"email"`
	Document           string  `db:"document" json:"document"`
	Phone              string  `db:"phone" json:"phone"`
	ExternalCustomerID *string `db:"external_customer_id" json:"external_customer_id,omitempty"`

	types.BaseModel
}

// HasCustomerMapping reports whether the gateway customer was already created
func (c *Client) HasCustomerMapping() bool {
	return c.ExternalCustomerID != nil && *c.ExternalCustomerID != ""
}

// OwnedBy reports whether userID may act on this client's billing
func (c *Client) OwnedBy(userID string) bool {
	return c.OwnerID == "" || c.OwnerID == userID
}
