package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCalculateStarAmount(t *testing.T) {
	require.Equal(t, 154, CalculateStarAmount(decimal.RequireFromString("2.00")))
	require.Equal(t, 770, CalculateStarAmount(decimal.RequireFromString("10.00")))
	require.Equal(t, 1154, CalculateStarAmount(decimal.RequireFromString("15.00")))
	require.Equal(t, 100, CalculateStarAmount(decimal.RequireFromString("1.30")))
}

func TestPlanLookup(t *testing.T) {
	plan, err := PlanByIndex(1)
	require.NoError(t, err)
	require.Equal(t, 180, plan.Days)

	_, err = PlanByIndex(3)
	require.ErrorIs(t, err, domain.ErrUnknownPlan)

	plan, err = PlanByDays(360)
	require.NoError(t, err)
	require.True(t, plan.PriceUSD.Equal(decimal.NewFromInt(15)))

	_, err = PlanByDays(7)
	require.ErrorIs(t, err, domain.ErrUnknownPlan)
}

func TestExtendUntil(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	month := 30 * 24 * time.Hour

	require.Equal(t, now.Add(month), ExtendUntil(nil, now, month))

	lapsed := now.Add(-time.Hour)
	require.Equal(t, now.Add(month), ExtendUntil(&lapsed, now, month))

	active := now.Add(10 * 24 * time.Hour)
	require.Equal(t, active.Add(month), ExtendUntil(&active, now, month))
}

type memPurchases struct {
	user    repository.User
	charges map[string]bool
	updates int
	failSet error
}

func newMemPurchases(premiumUntil *time.Time) *memPurchases {
	user := repository.User{ID: 1}
	if premiumUntil != nil {
		user.PremiumUntil = pgtype.Timestamptz{Time: *premiumUntil, Valid: true}
	}
	return &memPurchases{user: user, charges: map[string]bool{}}
}

func (m *memPurchases) GetUserForUpdate(_ context.Context, id int64) (repository.User, error) {
	if id != m.user.ID {
		return repository.User{}, pgx.ErrNoRows
	}
	return m.user, nil
}

func (m *memPurchases) CreatePremiumPurchase(_ context.Context, arg repository.CreatePremiumPurchaseParams) (repository.PremiumPurchase, error) {
	if m.charges[arg.TelegramChargeID] {
		return repository.PremiumPurchase{}, pgx.ErrNoRows
	}
	m.charges[arg.TelegramChargeID] = true
	return repository.PremiumPurchase{
		ID:               int64(len(m.charges)),
		UserID:           arg.UserID,
		PlanDays:         arg.PlanDays,
		PriceUsd:         arg.PriceUsd,
		Stars:            arg.Stars,
		TelegramChargeID: arg.TelegramChargeID,
		PremiumUntil:     arg.PremiumUntil,
	}, nil
}

func (m *memPurchases) SetUserPremiumUntil(_ context.Context, arg repository.SetUserPremiumUntilParams) error {
	if m.failSet != nil {
		return m.failSet
	}
	m.updates++
	m.user.PremiumUntil = arg.PremiumUntil
	return nil
}

func TestActivateStacksOnActivePremium(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	active := now.Add(10 * 24 * time.Hour)
	q := newMemPurchases(&active)
	s := &PremiumService{now: func() time.Time { return now }}
	plan, err := PlanByDays(30)
	require.NoError(t, err)

	p, err := s.activate(context.Background(), q, 1, plan, "charge-1")
	require.NoError(t, err)

	require.Equal(t, active.Add(plan.Duration), p.PremiumUntil)
	require.Equal(t, 30, p.PlanDays)
	require.Equal(t, 154, p.Stars)
	require.Equal(t, "charge-1", p.TelegramChargeID)
	require.Equal(t, p.PremiumUntil, q.user.PremiumUntil.Time)

	p, err = s.activate(context.Background(), q, 1, plan, "charge-2")
	require.NoError(t, err)
	require.Equal(t, active.Add(2*plan.Duration), p.PremiumUntil)
}

func TestActivateIgnoresDuplicateCharge(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	q := newMemPurchases(nil)
	s := &PremiumService{now: func() time.Time { return now }}
	plan, err := PlanByDays(180)
	require.NoError(t, err)

	first, err := s.activate(context.Background(), q, 1, plan, "charge-1")
	require.NoError(t, err)
	require.Equal(t, now.Add(plan.Duration), first.PremiumUntil)

	_, err = s.activate(context.Background(), q, 1, plan, "charge-1")
	require.ErrorIs(t, err, domain.ErrPurchaseRecorded)
	require.Equal(t, 1, q.updates, "a replayed charge does not extend premium")
	require.Equal(t, first.PremiumUntil, q.user.PremiumUntil.Time)
}

func TestActivateErrors(t *testing.T) {
	s := &PremiumService{now: time.Now}
	plan, err := PlanByDays(30)
	require.NoError(t, err)

	_, err = s.activate(context.Background(), newMemPurchases(nil), 2, plan, "c")
	require.ErrorIs(t, err, pgx.ErrNoRows)

	q := newMemPurchases(nil)
	q.failSet = errors.New("db down")
	_, err = s.activate(context.Background(), q, 1, plan, "c")
	require.ErrorContains(t, err, "set premium: db down")
}
