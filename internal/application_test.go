package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionRepository(t *testing.T) {
	t.Run("Memory by default", func(t *testing.T) {
		conf := &config.Config{Storage: config.Storage{Driver: config.StorageMemory}}

		repo, closeStorage, err := newSessionRepository(context.Background(), conf)

		require.NoError(t, err)
		assert.NotNil(t, repo)
		assert.NoError(t, closeStorage())
	})

	t.Run("Redis without host", func(t *testing.T) {
		conf := &config.Config{Storage: config.Storage{Driver: config.StorageRedis}}

		_, _, err := newSessionRepository(context.Background(), conf)

		require.ErrorIs(t, err, ErrAddrNotFound)
	})

	t.Run("Redis unreachable", func(t *testing.T) {
		conf := &config.Config{
			Storage: config.Storage{Driver: config.StorageRedis},
			Redis:   config.Redis{Host: "127.0.0.1", Port: "1"},
		}

		_, _, err := newSessionRepository(context.Background(), conf)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not connect to redis storage")
	})
}

func TestNewGameManager(t *testing.T) {
	conf := &config.Config{Game: config.Game{LoseOdds: 10}}
	repo, _, err := newSessionRepository(context.Background(), conf)
	require.NoError(t, err)

	gm := newGameManager(slog.New(slog.NewTextHandler(io.Discard, nil)), conf, repo)

	assert.NotNil(t, gm)
}
