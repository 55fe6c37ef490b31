package main

import (
	"context"
	"log/slog"
	"os"

	"memorylane/config"
	"memorylane/internal/delivery"
	"memorylane/internal/delivery/http"
	"memorylane/internal/delivery/http/middleware"
	"memorylane/internal/delivery/http/router/handler"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"
	"memorylane/internal/infra/auth"
	fbapp "memorylane/internal/infra/firebase"
	"memorylane/internal/infra/imagehost"
	"memorylane/internal/infra/localsession"
	logs "memorylane/internal/infra/log"
	"memorylane/internal/infra/persistence/firestoredb"
	"memorylane/internal/infra/pubsub"
	"memorylane/internal/infra/qrcode"
	"memorylane/internal/infra/summarize"
	"memorylane/internal/usecase"
	"memorylane/internal/usecase/impl"

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
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		pubsub.Module,
		fx.Invoke(
			startSession,
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
			newPasswordHasher,
			auth.NewJWTService,
			auth.NewFirebaseAuthClient,
			newAuthWatcher,
			localsession.NewFilePointerStore,
			newImageHost,
			newQRCodeService,
			summarize.NewExtractiveSummarizer,
		),
	)
}

// newPasswordHasher creates the bcrypt hasher, honoring a configured cost.
func newPasswordHasher(cfg *config.Config) service.PasswordHasher {
	if cfg.Auth != nil && cfg.Auth.BcryptCost > 0 {
		return auth.NewBcryptHasherWithCost(cfg.Auth.BcryptCost)
	}

	return auth.NewBcryptHasher()
}

// newAuthWatcher exposes the auth client under the narrower watcher
// contract the session service depends on.
func newAuthWatcher(client service.AuthClient) service.AuthWatcher {
	return client
}

// newImageHost opens the blob bucket and closes it on shutdown.
func newImageHost(lc fx.Lifecycle, ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.ImageHost, error) {
	host, closer, err := imagehost.NewBlobImageHost(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closer()
		},
	})

	return host, nil
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(256, "M")
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAccountService,
			impl.NewSessionService,
			impl.NewPatientAccessService,
			impl.NewPatientLinkService,
			impl.NewMemoryService,
			impl.NewEventService,
			impl.NewNoteService,
			impl.NewPeopleService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewSessionHandler,
			handler.NewPatientHandler,
			handler.NewMemoryHandler,
			handler.NewEventHandler,
			handler.NewNoteHandler,
			handler.NewPeopleHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// startSession begins session resolution when the app starts and tears it
// down on shutdown.
func startSession(lc fx.Lifecycle, ctx context.Context, session usecase.SessionUsecase) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return session.Start(ctx)
		},
		OnStop: func(context.Context) error {
			session.Stop()

			return nil
		},
	})
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
