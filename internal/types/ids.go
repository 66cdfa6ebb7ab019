package types

import (
	"time"

	"github.com/google/uuid"
)

// DatasetID identifies a platform dataset. String alias enables type safety
// while maintaining JSON string serialization. Platform-assigned, opaque.
type DatasetID string

// RunID identifies one categorization job run. UUIDv7 time-ordering keeps
// sequential runs clustered in B-tree indexes.
type RunID string

// RequestID identifies one HTTP request for log correlation.
type RequestID string

// NewRunID generates a UUIDv7 job run identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// NewRequestID generates a UUIDv7 request identifier.
func NewRequestID() RequestID {
	return RequestID(uuid.Must(uuid.NewV7()).String())
}

// ParseRunID validates and converts a string to RunID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseRunID(s string) (RunID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RunID(s), nil
}

// RunIDTime extracts the timestamp embedded in a UUIDv7 run ID.
// Enables time-based queries without database lookup.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func RunIDTime(id RunID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
