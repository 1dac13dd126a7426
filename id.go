package mongos

import (
	"github.com/google/uuid"
)

// NewID generates a UUIDv7 (time-ordered) identifier.
// Connections and operations carry one so their log lines can be correlated.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fall back to UUIDv4 if NewV7 fails (extremely rare)
		id = uuid.New()
	}
	return id.String()
}

// IsValidID checks if a string is a valid UUID
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
