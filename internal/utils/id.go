package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random UUIDv4 rendered as 32 lowercase hex characters. It is
// used for token ids, device ids and correlation ids.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
