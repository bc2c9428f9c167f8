package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey_OrderIndependent(t *testing.T) {
	g := NewGenerator()

	a := g.GenerateKey(ScopeFinanceRecord, map[string]interface{}{"a": 1, "b": "x"})
	b := g.GenerateKey(ScopeFinanceRecord, map[string]interface{}{"b": "x", "a": 1})

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "fin_"))
	assert.True(t, g.ValidateKey(ScopeFinanceRecord, map[string]interface{}{"a": 1, "b": "x"}, a))
}

func TestFinanceRecordKey(t *testing.T) {
	g := NewGenerator()

	assert.Equal(t, g.FinanceRecordKey("pay_1"), g.FinanceRecordKey("pay_1"))
	assert.NotEqual(t, g.FinanceRecordKey("pay_1"), g.FinanceRecordKey("pay_2"))
}

func TestSubscriptionRequestKey_ScopedToClient(t *testing.T) {
	g := NewGenerator()

	assert.NotEqual(t,
		g.SubscriptionRequestKey("cli_1", "k"),
		g.SubscriptionRequestKey("cli_2", "k"),
	)
	assert.NotEqual(t,
		g.SubscriptionRequestKey("cli_1", "k"),
		g.GenerateKey(ScopeFinanceRecord, map[string]interface{}{"client_id": "cli_1", "key": "k"}),
	)
}
