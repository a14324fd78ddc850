package pkg

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIDs(t *testing.T) {
	sessionID := GenerateSessionID()
	playerID := GeneratePlayerID()

	_, err := uuid.Parse(sessionID)
	require.NoError(t, err)

	_, err = uuid.Parse(playerID)
	require.NoError(t, err)

	assert.NotEqual(t, sessionID, playerID)
	assert.NotEqual(t, sessionID, GenerateSessionID())
}
