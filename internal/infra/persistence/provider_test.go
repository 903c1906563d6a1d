package persistence

import (
	"io"
	"log/slog"
	"testing"

	"authbase/config"
	"authbase/internal/domain/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestNewRepositories(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Driver: constants.StorageDriverMemory}}
		repos, err := NewRepositories(Params{Lifecycle: fxtest.NewLifecycle(t), Config: cfg, Logger: logger})
		require.NoError(t, err)
		assert.NotNil(t, repos.Users)
		assert.NotNil(t, repos.LoginHistory)
		assert.NotNil(t, repos.TxManager)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}
		_, err := NewRepositories(Params{Lifecycle: fxtest.NewLifecycle(t), Config: cfg, Logger: logger})
		assert.ErrorContains(t, err, "unknown storage driver")
	})
}
