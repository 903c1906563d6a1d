package memory

import (
	"context"

	"authbase/internal/domain/repository"
)

// transactionManager runs fn against the shared store. Each repository call is atomic on its own;
// there is no rollback, so callers must order writes so a failure leaves no partial state behind.
type transactionManager struct {
	factory *repositoryFactory
}

type repositoryFactory struct {
	users   repository.UserRepository
	history repository.LoginHistoryRepository
}

func (f *repositoryFactory) UserRepo() repository.UserRepository { return f.users }

func (f *repositoryFactory) LoginHistoryRepo() repository.LoginHistoryRepository { return f.history }

// NewTransactionManager returns a TransactionManager over the store.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{
		factory: &repositoryFactory{
			users:   NewUserRepository(store),
			history: NewLoginHistoryRepository(store),
		},
	}
}

// Execute runs fn and returns its error.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(tm.factory)
}
