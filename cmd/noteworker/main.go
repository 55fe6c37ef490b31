package main

import (
	"context"
	"log/slog"
	"os"

	"memorylane/config"
	"memorylane/internal/delivery"
	"memorylane/internal/delivery/worker"
	"memorylane/internal/delivery/worker/handler"
	"memorylane/internal/domain/store"
	fbapp "memorylane/internal/infra/firebase"
	logs "memorylane/internal/infra/log"
	"memorylane/internal/infra/persistence/firestoredb"
	"memorylane/internal/infra/summarize"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		fbapp.NewApp,
		newDocumentStore,
	)
}

// newDocumentStore wires the Firestore-backed store and closes its client
// on shutdown.
func newDocumentStore(lc fx.Lifecycle, ctx context.Context, app *firebase.App, logger *slog.Logger) (store.Store, error) {
	st, err := firestoredb.New(ctx, app, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return st.Close()
		},
	})

	return st, nil
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			summarize.NewExtractiveSummarizer,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewPushHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
