package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex subs_01HZX4Y9K2M7TQ3B5N8R6W0VJC
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_CLIENT               = "cli"
	UUID_PREFIX_SUBSCRIPTION         = "subs"
	UUID_PREFIX_SUBSCRIPTION_PAYMENT = "spay"
	UUID_PREFIX_FINANCE_RECORD       = "fin"
	UUID_PREFIX_SUBSCRIPTION_HISTORY = "shist"
	UUID_PREFIX_WEBHOOK_EVENT        = "whe"
	UUID_PREFIX_BILLING_EVENT        = "bevt"
)
