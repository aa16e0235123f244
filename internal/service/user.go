package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/repository"
)

type UserService struct {
	queries *repository.Queries
}

func NewUserService(queries *repository.Queries) *UserService {
	return &UserService{queries: queries}
}

// FindOrCreate loads the user by Telegram id, registering it on first contact.
// The boolean reports whether the user was created.
func (s *UserService) FindOrCreate(ctx context.Context, telegramID int64, firstName, username string, isAdmin bool) (*domain.User, bool, error) {
	row, err := s.queries.GetUserByTelegramID(ctx, telegramID)
	if err == nil {
		return rowToUser(row), false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	row, err = s.queries.CreateUser(ctx, repository.CreateUserParams{
		TelegramID: telegramID,
		FirstName:  firstName,
		Username:   username,
		IsAdmin:    isAdmin,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return rowToUser(row), true, nil
}

// UpdateInfo refreshes the profile fields Telegram may change between updates.
func (s *UserService) UpdateInfo(ctx context.Context, userID int64, firstName, username string) error {
	if err := s.queries.UpdateUserInfo(ctx, repository.UpdateUserInfoParams{
		ID:        userID,
		FirstName: firstName,
		Username:  username,
	}); err != nil {
		return fmt.Errorf("update user info: %w", err)
	}
	return nil
}

func (s *UserService) UpdateLastInteraction(ctx context.Context, userID int64) error {
	return s.queries.UpdateUserLastInteraction(ctx, userID)
}

// SetCategory stores the selected guidance category. Premium categories are
// refused for users without an active subscription.
func (s *UserService) SetCategory(ctx context.Context, user *domain.User, category domain.Category) error {
	if !user.CanUse(category) {
		return domain.ErrPremiumRequired
	}
	if err := s.queries.SetUserCategory(ctx, repository.SetUserCategoryParams{
		ID:       user.ID,
		Category: string(category),
	}); err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	user.Category = category
	return nil
}

func rowToUser(row repository.User) *domain.User {
	return &domain.User{
		ID:              row.ID,
		TelegramID:      row.TelegramID,
		IsAdmin:         row.IsAdmin,
		FirstName:       row.FirstName,
		Username:        row.Username,
		Category:        domain.Category(row.Category),
		PremiumUntil:    pgTimestamptzToTimePtr(row.PremiumUntil),
		LastInteraction: pgTimestamptzToTime(row.LastInteraction),
		CreatedAt:       pgTimestamptzToTime(row.CreatedAt),
		UpdatedAt:       pgTimestamptzToTime(row.UpdatedAt),
	}
}
