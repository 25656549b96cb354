package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsWhitelisted(t *testing.T) {
	checker := NewChecker([]string{" Bank.Example ", "", "bank.example", "shop.example"}, zap.NewNop())

	assert.True(t, checker.IsWhitelisted("alerts@bank.example"))
	assert.True(t, checker.IsWhitelisted("Alerts@BANK.EXAMPLE"))
	assert.True(t, checker.IsWhitelisted("odd@name@shop.example"))

	assert.False(t, checker.IsWhitelisted("alerts@mail.bank.example"))
	assert.False(t, checker.IsWhitelisted("alerts@bank.example.evil"))
	assert.False(t, checker.IsWhitelisted("bank.example"))
	assert.False(t, checker.IsWhitelisted("alerts@"))
}

func TestIsWhitelisted_Empty(t *testing.T) {
	checker := NewChecker(nil, nil)

	assert.False(t, checker.IsWhitelisted("alerts@bank.example"))
}
