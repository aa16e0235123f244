package domain

import "errors"

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrPremiumRequired  = errors.New("premium required")
	ErrUnknownPlan      = errors.New("unknown premium plan")
	ErrPurchaseRecorded = errors.New("purchase already recorded")
	ErrBotBlocked       = errors.New("bot blocked by user")
	ErrInvalidAmount    = errors.New("invalid amount")
)
