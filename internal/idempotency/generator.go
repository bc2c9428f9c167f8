package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Scope namespaces keys so equal parameters in different flows never collide
type Scope string

const (
	// ScopeFinanceRecord keys the ledger entry of one paid gateway payment
	ScopeFinanceRecord Scope = "fin"
	// ScopeSubscriptionRequest keys a caller-supplied provisioning request
	ScopeSubscriptionRequest Scope = "subreq"
)

// Generator derives deterministic keys from a scope and parameters
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey hashes the scope and the sorted parameters
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	keys := lo.Keys(params)
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%v", k, params[k])
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s_%s", scope, hex.EncodeToString(hash[:12]))
}

// FinanceRecordKey is the unique reference of the ledger entry for a payment
func (g *Generator) FinanceRecordKey(externalPaymentID string) string {
	return g.GenerateKey(ScopeFinanceRecord, map[string]interface{}{
		"external_payment_id": externalPaymentID,
	})
}

// SubscriptionRequestKey scopes a caller's idempotency key to the client it
// provisions for
func (g *Generator) SubscriptionRequestKey(clientID, key string) string {
	return g.GenerateKey(ScopeSubscriptionRequest, map[string]interface{}{
		"client_id": clientID,
		"key":       key,
	})
}

// ValidateKey reports whether key was derived from scope and params
func (g *Generator) ValidateKey(scope Scope, params map[string]interface{}, key string) bool {
	return g.GenerateKey(scope, params) == key
}
