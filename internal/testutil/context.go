package testutil

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// DefaultUserID owns the clients created by the fixtures
const DefaultUserID = "usr_test"

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, DefaultUserID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}
