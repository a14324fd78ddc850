package pkg

import "github.com/google/uuid"

func GenerateSessionID() string {
	return uuid.NewString()
}

// GeneratePlayerID returns the id a client keeps between connections.
func GeneratePlayerID() string {
	return uuid.NewString()
}
