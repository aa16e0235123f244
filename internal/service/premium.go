package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/mindguide/internal/config"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/repository"
	"github.com/shopspring/decimal"
)

type PremiumService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
	now     func() time.Time
}

func NewPremiumService(db *pgxpool.Pool, queries *repository.Queries) *PremiumService {
	return &PremiumService{db: db, queries: queries, now: time.Now}
}

func GetPremiumPlans() []domain.PremiumPlan {
	return []domain.PremiumPlan{
		{Days: 30, PriceUSD: decimal.RequireFromString(config.PremiumPrice1Month), Duration: config.PremiumDuration1Month},
		{Days: 180, PriceUSD: decimal.RequireFromString(config.PremiumPrice6Month), Duration: config.PremiumDuration6Month},
		{Days: 360, PriceUSD: decimal.RequireFromString(config.PremiumPrice12Month), Duration: config.PremiumDuration12Month},
	}
}

// PlanByIndex returns the plan offered under the given button index.
func PlanByIndex(idx int) (domain.PremiumPlan, error) {
	plans := GetPremiumPlans()
	if idx < 0 || idx >= len(plans) {
		return domain.PremiumPlan{}, domain.ErrUnknownPlan
	}
	return plans[idx], nil
}

// PlanByDays resolves a plan from an invoice payload.
func PlanByDays(days int) (domain.PremiumPlan, error) {
	for _, p := range GetPremiumPlans() {
		if p.Days == days {
			return p, nil
		}
	}
	return domain.PremiumPlan{}, domain.ErrUnknownPlan
}

// CalculateStarAmount converts a USD price to Telegram Stars (XTR), rounding up.
func CalculateStarAmount(usd decimal.Decimal) int {
	stars := usd.Div(decimal.NewFromFloat(config.XTRToDollarRate)).Ceil()
	return int(stars.IntPart())
}

// ExtendUntil returns the new premium end: stacked on an active subscription,
// otherwise counted from now.
func ExtendUntil(current *time.Time, now time.Time, d time.Duration) time.Time {
	if current != nil && current.After(now) {
		return current.Add(d)
	}
	return now.Add(d)
}

// purchaseQueries is the part of the query layer an activation runs on.
type purchaseQueries interface {
	GetUserForUpdate(ctx context.Context, id int64) (repository.User, error)
	CreatePremiumPurchase(ctx context.Context, arg repository.CreatePremiumPurchaseParams) (repository.PremiumPurchase, error)
	SetUserPremiumUntil(ctx context.Context, arg repository.SetUserPremiumUntilParams) error
}

// Activate applies a paid plan to the user and records the purchase. A charge
// id seen before yields domain.ErrPurchaseRecorded and changes nothing.
func (s *PremiumService) Activate(ctx context.Context, userID int64, plan domain.PremiumPlan, chargeID string) (*domain.PremiumPurchase, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	purchase, err := s.activate(ctx, s.queries.WithTx(tx), userID, plan, chargeID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return purchase, nil
}

func (s *PremiumService) activate(ctx context.Context, q purchaseQueries, userID int64, plan domain.PremiumPlan, chargeID string) (*domain.PremiumPurchase, error) {
	user, err := q.GetUserForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}

	until := ExtendUntil(pgTimestamptzToTimePtr(user.PremiumUntil), s.now(), plan.Duration)

	row, err := q.CreatePremiumPurchase(ctx, repository.CreatePremiumPurchaseParams{
		UserID:           userID,
		PlanDays:         int32(plan.Days),
		PriceUsd:         plan.PriceUSD,
		Stars:            int32(CalculateStarAmount(plan.PriceUSD)),
		TelegramChargeID: chargeID,
		PremiumUntil:     timeToPgTimestamptz(until),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPurchaseRecorded
	}
	if err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	if err := q.SetUserPremiumUntil(ctx, repository.SetUserPremiumUntilParams{
		ID:           userID,
		PremiumUntil: timeToPgTimestamptz(until),
	}); err != nil {
		return nil, fmt.Errorf("set premium: %w", err)
	}
	return rowToPurchase(row), nil
}

func rowToPurchase(row repository.PremiumPurchase) *domain.PremiumPurchase {
	return &domain.PremiumPurchase{
		ID:               row.ID,
		UserID:           row.UserID,
		PlanDays:         int(row.PlanDays),
		PriceUSD:         row.PriceUsd,
		Stars:            int(row.Stars),
		TelegramChargeID: row.TelegramChargeID,
		PremiumUntil:     pgTimestamptzToTime(row.PremiumUntil),
		CreatedAt:        pgTimestamptzToTime(row.CreatedAt),
	}
}
