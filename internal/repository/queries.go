package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

type User struct {
	ID              int64
	TelegramID      int64
	FirstName       string
	Username        string
	IsAdmin         bool
	Category        string
	PremiumUntil    pgtype.Timestamptz
	LastInteraction pgtype.Timestamptz
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

const userColumns = `id, telegram_id, first_name, username, is_admin, category,
	premium_until, last_interaction, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.FirstName,
		&u.Username,
		&u.IsAdmin,
		&u.Category,
		&u.PremiumUntil,
		&u.LastInteraction,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const getUserByTelegramID = `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

func (q *Queries) GetUserByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByTelegramID, telegramID))
}

const getUserForUpdate = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

func (q *Queries) GetUserForUpdate(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserForUpdate, id))
}

type CreateUserParams struct {
	TelegramID int64
	FirstName  string
	Username   string
	IsAdmin    bool
}

const createUser = `INSERT INTO users (telegram_id, first_name, username, is_admin)
VALUES ($1, $2, $3, $4)
ON CONFLICT (telegram_id) DO UPDATE SET updated_at = NOW()
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser, arg.TelegramID, arg.FirstName, arg.Username, arg.IsAdmin))
}

type UpdateUserInfoParams struct {
	ID        int64
	FirstName string
	Username  string
}

const updateUserInfo = `UPDATE users SET first_name = $2, username = $3, updated_at = NOW() WHERE id = $1`

func (q *Queries) UpdateUserInfo(ctx context.Context, arg UpdateUserInfoParams) error {
	_, err := q.db.Exec(ctx, updateUserInfo, arg.ID, arg.FirstName, arg.Username)
	return err
}

const updateUserLastInteraction = `UPDATE users SET last_interaction = NOW() WHERE id = $1`

func (q *Queries) UpdateUserLastInteraction(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, updateUserLastInteraction, id)
	return err
}

type SetUserCategoryParams struct {
	ID       int64
	Category string
}

const setUserCategory = `UPDATE users SET category = $2, updated_at = NOW() WHERE id = $1`

func (q *Queries) SetUserCategory(ctx context.Context, arg SetUserCategoryParams) error {
	_, err := q.db.Exec(ctx, setUserCategory, arg.ID, arg.Category)
	return err
}

type SetUserPremiumUntilParams struct {
	ID           int64
	PremiumUntil pgtype.Timestamptz
}

const setUserPremiumUntil = `UPDATE users SET premium_until = $2, updated_at = NOW() WHERE id = $1`

func (q *Queries) SetUserPremiumUntil(ctx context.Context, arg SetUserPremiumUntilParams) error {
	_, err := q.db.Exec(ctx, setUserPremiumUntil, arg.ID, arg.PremiumUntil)
	return err
}

type CreateGuideRequestParams struct {
	ID              uuid.UUID
	UserID          int64
	ChatID          int64
	UserTurnID      string
	AssistantTurnID string
	Category        string
	Outcome         string
	Fragments       int32
	Dropped         int32
	Malformed       int32
	SentinelSeen    bool
	ResponseChars   int32
	DurationMs      int64
	Error           string
}

const createGuideRequest = `INSERT INTO guide_requests (
	id, user_id, chat_id, user_turn_id, assistant_turn_id, category, outcome,
	fragments, dropped, malformed, sentinel_seen, response_chars, duration_ms, error
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func (q *Queries) CreateGuideRequest(ctx context.Context, arg CreateGuideRequestParams) error {
	_, err := q.db.Exec(ctx, createGuideRequest,
		arg.ID,
		arg.UserID,
		arg.ChatID,
		arg.UserTurnID,
		arg.AssistantTurnID,
		arg.Category,
		arg.Outcome,
		arg.Fragments,
		arg.Dropped,
		arg.Malformed,
		arg.SentinelSeen,
		arg.ResponseChars,
		arg.DurationMs,
		arg.Error,
	)
	return err
}

type GuideRequestStatsRow struct {
	Total     int64
	Failed    int64
	Dropped   int64
	Malformed int64
}

const getGuideRequestStats = `SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE outcome = 'failed'),
	COALESCE(SUM(dropped), 0),
	COALESCE(SUM(malformed), 0)
FROM guide_requests WHERE user_id = $1`

func (q *Queries) GetGuideRequestStats(ctx context.Context, userID int64) (GuideRequestStatsRow, error) {
	var r GuideRequestStatsRow
	err := q.db.QueryRow(ctx, getGuideRequestStats, userID).Scan(&r.Total, &r.Failed, &r.Dropped, &r.Malformed)
	return r, err
}

type PremiumPurchase struct {
	ID               int64
	UserID           int64
	PlanDays         int32
	PriceUsd         decimal.Decimal
	Stars            int32
	TelegramChargeID string
	PremiumUntil     pgtype.Timestamptz
	CreatedAt        pgtype.Timestamptz
}

type CreatePremiumPurchaseParams struct {
	UserID           int64
	PlanDays         int32
	PriceUsd         decimal.Decimal
	Stars            int32
	TelegramChargeID string
	PremiumUntil     pgtype.Timestamptz
}

// Returns pgx.ErrNoRows when the charge id was already recorded.
const createPremiumPurchase = `INSERT INTO premium_purchases (
	user_id, plan_days, price_usd, stars, telegram_charge_id, premium_until
) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (telegram_charge_id) DO NOTHING
RETURNING id, user_id, plan_days, price_usd, stars, telegram_charge_id, premium_until, created_at`

func (q *Queries) CreatePremiumPurchase(ctx context.Context, arg CreatePremiumPurchaseParams) (PremiumPurchase, error) {
	var p PremiumPurchase
	err := q.db.QueryRow(ctx, createPremiumPurchase,
		arg.UserID,
		arg.PlanDays,
		arg.PriceUsd,
		arg.Stars,
		arg.TelegramChargeID,
		arg.PremiumUntil,
	).Scan(
		&p.ID,
		&p.UserID,
		&p.PlanDays,
		&p.PriceUsd,
		&p.Stars,
		&p.TelegramChargeID,
		&p.PremiumUntil,
		&p.CreatedAt,
	)
	return p, err
}
