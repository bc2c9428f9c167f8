package router

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/pubsub"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/sentry"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/fx"
)

// Router dispatches billing messages to in-process consumers
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
}

func NewRouter(log *logger.Logger, sentrySvc *sentry.Service) (*Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, pubsub.NewLoggerAdapter(log))
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
	)

	return &Router{
		router: router,
		logger: log,
		sentry: sentrySvc,
	}, nil
}

// AddNoPublishHandler registers a consumer. Handler errors are reported and
// the message is nacked.
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
) {
	r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err != nil {
				r.sentry.CaptureException(err)
				r.logger.Errorw("billing event handler failed",
					"handler", handlerName,
					"error", err,
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
				)
			}
			return err
		},
	)
}

// Run blocks until ctx is cancelled or Close is called
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting billing event router")
	return r.router.Run(ctx)
}

func (r *Router) Close() error {
	r.logger.Info("closing billing event router")
	return r.router.Close()
}

// RegisterHooks runs the router for the lifetime of the app
func RegisterHooks(lc fx.Lifecycle, r *Router) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := r.Run(ctx); err != nil {
					r.logger.Errorw("billing event router stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return r.Close()
		},
	})
}
