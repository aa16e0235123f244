package domain

import (
	"time"
)

type User struct {
	ID              int64
	TelegramID      int64
	IsAdmin         bool
	FirstName       string
	Username        string
	Category        Category
	PremiumUntil    *time.Time
	LastInteraction time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) IsPremium() bool {
	if u.PremiumUntil == nil {
		return false
	}
	return u.PremiumUntil.After(time.Now())
}

// CanUse reports whether the user may browse or chat within c.
func (u *User) CanUse(c Category) bool {
	return !c.Premium() || u.IsPremium()
}
