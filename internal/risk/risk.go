package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/config"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

// Manager handles pre-trade checks
type Manager struct {
	cfg *config.Config
}

// NewManager creates a new risk manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// CheckResult contains the result of a risk check
type CheckResult struct {
	Passed bool
	Reason string
}

// ValidateOrder performs pre-trade checks on a market order before it is
// submitted. Buys are sized by quote notional, sells by base quantity.
func (m *Manager) ValidateOrder(side models.OrderSide, amount, quantity decimal.Decimal) CheckResult {
	switch side {
	case models.Buy:
		if !amount.IsPositive() {
			return CheckResult{
				Passed: false,
				Reason: fmt.Sprintf("buy notional %s is not positive", amount),
			}
		}
		maxOrder := decimal.NewFromFloat(m.cfg.MaxOrderUSD)
		if maxOrder.IsPositive() && amount.GreaterThan(maxOrder) {
			return CheckResult{
				Passed: false,
				Reason: fmt.Sprintf("buy notional %s exceeds max order size %s", amount, maxOrder),
			}
		}
	case models.Sell:
		if !quantity.IsPositive() {
			return CheckResult{
				Passed: false,
				Reason: fmt.Sprintf("sell quantity %s is not positive", quantity),
			}
		}
	}
	return CheckResult{Passed: true}
}
