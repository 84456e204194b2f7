package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/liangjiangliang/okx-trading1-sub001/internal/config"
	"github.com/liangjiangliang/okx-trading1-sub001/internal/models"
)

func TestValidateBuyRejectsNonPositiveNotional(t *testing.T) {
	m := NewManager(&config.Config{MaxOrderUSD: 1000})

	result := m.ValidateOrder(models.Buy, decimal.Zero, decimal.Zero)
	if result.Passed {
		t.Error("zero buy notional must be rejected")
	}

	result = m.ValidateOrder(models.Buy, decimal.NewFromInt(-50), decimal.Zero)
	if result.Passed {
		t.Error("negative buy notional must be rejected")
	}
}

func TestValidateBuyRejectsOversizedOrder(t *testing.T) {
	m := NewManager(&config.Config{MaxOrderUSD: 1000})

	result := m.ValidateOrder(models.Buy, decimal.NewFromInt(1500), decimal.Zero)
	if result.Passed {
		t.Error("buy above max order size must be rejected")
	}
	if result.Reason == "" {
		t.Error("rejection must carry a reason")
	}

	result = m.ValidateOrder(models.Buy, decimal.NewFromInt(500), decimal.Zero)
	if !result.Passed {
		t.Errorf("buy within limits rejected: %s", result.Reason)
	}
}

func TestValidateSellRequiresQuantity(t *testing.T) {
	m := NewManager(&config.Config{MaxOrderUSD: 1000})

	if m.ValidateOrder(models.Sell, decimal.Zero, decimal.Zero).Passed {
		t.Error("sell without quantity must be rejected")
	}
	if !m.ValidateOrder(models.Sell, decimal.Zero, decimal.NewFromFloat(0.5)).Passed {
		t.Error("sell with positive quantity must pass")
	}
}
