package main

import (
	"context"
	"log/slog"
	"os"

	"authbase/config"
	"authbase/internal/delivery"
	"authbase/internal/delivery/http"
	"authbase/internal/delivery/http/middleware"
	"authbase/internal/delivery/http/router/handler"
	"authbase/internal/infra/audit"
	"authbase/internal/infra/auth"
	"authbase/internal/infra/auth/google"
	"authbase/internal/infra/cache"
	logs "authbase/internal/infra/log"
	"authbase/internal/infra/mail"
	"authbase/internal/infra/metrics"
	"authbase/internal/infra/persistence"
	"authbase/internal/infra/pubsub"
	"authbase/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			metrics.New,
			cache.NewRedisClient,
		),
		pubsub.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			persistence.NewRepositories,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			google.NewAuthService,
			mail.NewVerificationNotifier,
			audit.NewRecorder,
			cache.NewResendThrottle,
			metrics.NewAuthMetrics,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewCredentialStore,
			impl.NewEmailVerificationManager,
			impl.NewRefreshTokenManager,
			impl.NewIdentityResolver,
			impl.NewAuthService,
			impl.NewUserAdminService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAccessPolicyMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewUserHandler,
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

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
