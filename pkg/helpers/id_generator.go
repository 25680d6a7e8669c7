package helpers

import (
	"github.com/google/uuid"
)

// GenerateRunID returns a correlation ID for one scheduler invocation.
// Every log line of a run carries it so overlapping runs can be told apart.
func GenerateRunID() string {
	return uuid.New().String()
}
