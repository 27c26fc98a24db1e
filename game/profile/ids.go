package profile

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh 24-character hex id in the client's object id format.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
