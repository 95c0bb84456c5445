package domain

import "github.com/google/uuid"

// NewID generates a UUIDv7 string. History rows and ingestion batches use it
// so that IDs sort by creation time.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
