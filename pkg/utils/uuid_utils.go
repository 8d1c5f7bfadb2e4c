package utils

import (
	"github.com/google/uuid"
)

// NewRequestID returns a time-ordered id for correlating log lines.
func NewRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
