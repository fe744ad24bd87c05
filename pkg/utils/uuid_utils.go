package utils

import "github.com/google/uuid"

// GenerateUUIDv7 returns a time-ordered UUID so primary keys sort by
// creation time. Falls back to v4 if the clock source misbehaves.
func GenerateUUIDv7() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
