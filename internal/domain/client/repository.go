package client

import "context"

// Repository defines the interface for client persistence
type Repository interface {
	Get(ctx context.Context, id string) (*Client, error)
	// SetExternalCustomerID persists the gateway customer mapping
	SetExternalCustomerID(ctx context.Context, id string, externalCustomerID string) error
}
