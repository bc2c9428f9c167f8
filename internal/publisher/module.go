package publisher

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/pubsub"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/pubsub/memory"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/pubsub/router"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"go.uber.org/fx"
)

// Module wires the billing event pubsub, publisher and consumers
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			providePubSub,
			NewPublisher,
			NewAuditConsumer,
			router.NewRouter,
		),
		fx.Invoke(
			registerConsumers,
			router.RegisterHooks,
		),
	)
}

func providePubSub(cfg *config.Configuration, log *logger.Logger) pubsub.PubSub {
	switch cfg.Webhook.PubSub {
	case types.MemoryPubSub, "":
		return memory.NewPubSub(log)
	}
	panic("unsupported pubsub type: " + string(cfg.Webhook.PubSub))
}

func registerConsumers(cfg *config.Configuration, r *router.Router, ps pubsub.PubSub, audit *AuditConsumer) {
	r.AddNoPublishHandler("billing_event_audit", cfg.Webhook.Topic, ps, audit.Handle)
}
