package types

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for generated entity identifiers.
const (
	UUID_PREFIX_BILL_RUN       = "run"
	UUID_PREFIX_COST_BREAKDOWN = "bill"
)

// GenerateUUID returns a lowercase ULID, sortable by creation time.
func GenerateUUID() string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String())
}

// GenerateUUIDWithPrefix returns a prefixed ULID, e.g. "run_01hx...".
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
