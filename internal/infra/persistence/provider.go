// Package persistence selects the repository implementation configured for the process.
package persistence

import (
	"log/slog"

	"authbase/config"
	"authbase/internal/domain/constants"
	"authbase/internal/domain/repository"
	"authbase/internal/infra/persistence/memory"
	"authbase/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// Repositories is the set of repositories exposed to the usecase layer.
type Repositories struct {
	fx.Out

	Users        repository.UserRepository
	LoginHistory repository.LoginHistoryRepository
	TxManager    repository.TransactionManager
}

// NewRepositories builds the repositories for the configured storage driver.
func NewRepositories(params Params) (Repositories, error) {
	switch params.Config.Storage.Driver {
	case constants.StorageDriverMemory:
		params.Logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()

		return Repositories{
			Users:        memory.NewUserRepository(store),
			LoginHistory: memory.NewLoginHistoryRepository(store),
			TxManager:    memory.NewTransactionManager(store),
		}, nil

	case constants.StorageDriverPostgres, "":
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return Repositories{}, err
		}

		return Repositories{
			Users:        postgres.NewUserRepository(db),
			LoginHistory: postgres.NewLoginHistoryRepository(db),
			TxManager:    postgres.NewTransactionManager(db),
		}, nil

	default:
		return Repositories{}, errors.Errorf("unknown storage driver: %s", params.Config.Storage.Driver)
	}
}
