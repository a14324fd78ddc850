package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-duel/internal/turn"
	"github.com/rocketscienceinc/tictactoe-duel/testing/suite"
)

var _ turn.TurnPublisher = (*Client)(nil)

func TestClient_PublishTurn(t *testing.T) {
	t.Run("Stores the latest turn", func(t *testing.T) {
		ctx, st := suite.New(t)
		client := New(st.Logger, st.Storage)

		require.NoError(t, client.PublishTurn(ctx, "s1", entity.Cross))
		require.NoError(t, client.PublishTurn(ctx, "s1", entity.Circle))

		got, err := client.LastTurn(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, entity.Circle, got)
	})

	t.Run("Reports sessions without a turn", func(t *testing.T) {
		ctx, st := suite.New(t)
		client := New(st.Logger, st.Storage)

		_, err := client.LastTurn(ctx, "unknown")

		require.ErrorIs(t, err, apperror.ErrNoTurn)
	})

	t.Run("Subscribers receive every turn in order", func(t *testing.T) {
		// Given: a subscriber following session s1
		ctx, st := suite.New(t)
		client := New(st.Logger, st.Storage)

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		turns, err := client.SubscribeTurns(subCtx, "s1")
		require.NoError(t, err)

		// When: the authority publishes a turn sequence ending the game
		for _, mark := range []entity.Mark{entity.Cross, entity.Circle, entity.None} {
			require.NoError(t, client.PublishTurn(ctx, "s1", mark))
		}

		// Then: the subscriber sees the same sequence
		var got []entity.Mark
		for len(got) < 3 {
			select {
			case mark := <-turns:
				got = append(got, mark)
			case <-time.After(5 * time.Second):
				t.Fatalf("timed out after %v", got)
			}
		}

		assert.Equal(t, []entity.Mark{entity.Cross, entity.Circle, entity.None}, got)
	})
}
