package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-duel/testing/suite"
)

func finishedSnapshot() *entity.Snapshot {
	snapshot := &entity.Snapshot{
		ID:         "s1",
		Mode:       entity.ModeNetworked,
		Status:     entity.StatusFinished,
		Marks:      5,
		Turn:       entity.None,
		Score:      entity.Score{Cross: 2, Circle: 1},
		Generation: 3,
		Result: entity.WinResult{
			Winner: entity.Cross,
			Line:   entity.LineRow,
			Center: entity.Coord{Col: 1, Row: 0},
		},
	}

	for col := 0; col < entity.BoardSize; col++ {
		snapshot.Board[col][0] = entity.Cross
	}

	snapshot.Board[0][1] = entity.Circle
	snapshot.Board[1][1] = entity.Circle

	return snapshot
}

func TestSessionRepository_Save(t *testing.T) {
	ctx, st := suite.New(t)

	sessionRepo := NewSessionRepository(st.Storage, time.Minute)

	// Given: a finished session
	snapshot := finishedSnapshot()

	// When: it is saved
	require.NoError(t, sessionRepo.Save(ctx, snapshot))

	// Then: it expires after the TTL and reads back unchanged
	ttl, err := st.Storage.TTL(ctx, "session:s1").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
	assert.LessOrEqual(t, ttl, time.Minute)

	retrieved, err := sessionRepo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snapshot, retrieved)
}

func TestSessionRepository_GetByID(t *testing.T) {
	ctx, st := suite.New(t)

	sessionRepo := NewSessionRepository(st.Storage, 0)

	retrieved, err := sessionRepo.GetByID(ctx, "missing")

	require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	assert.Nil(t, retrieved)
}

func TestSessionRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	sessionRepo := NewSessionRepository(st.Storage, time.Minute)
	require.NoError(t, sessionRepo.Save(ctx, finishedSnapshot()))

	require.NoError(t, sessionRepo.DeleteByID(ctx, "s1"))

	_, err := sessionRepo.GetByID(ctx, "s1")
	require.ErrorIs(t, err, apperror.ErrSessionNotFound)
}
