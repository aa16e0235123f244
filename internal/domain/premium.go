package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PremiumPlan struct {
	Days     int
	PriceUSD decimal.Decimal
	Duration time.Duration
}

type PremiumPurchase struct {
	ID               int64
	UserID           int64
	PlanDays         int
	PriceUSD         decimal.Decimal
	Stars            int
	TelegramChargeID string
	PremiumUntil     time.Time
	CreatedAt        time.Time
}
