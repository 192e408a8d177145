package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	OrderApproved       EventType = "order.approved"
	OrderRejected       EventType = "order.rejected"
	WalletTopupApproved EventType = "wallet_topup.approved"
	WalletTopupRejected EventType = "wallet_topup.rejected"
	GameLoadApproved    EventType = "game_load.approved"
	GameLoadRejected    EventType = "game_load.rejected"
	WithdrawalApproved  EventType = "withdrawal.approved"
	WithdrawalRejected  EventType = "withdrawal.rejected"
	WalletLoadApproved  EventType = "wallet_load.approved"
	WalletLoadRejected  EventType = "wallet_load.rejected"
	OrderAmountAdjusted EventType = "order.amount_adjusted"
)

type Event struct {
	ID             string                 `json:"event_id"`
	Type           EventType              `json:"event_type"`
	ReferenceID    string                 `json:"reference_id"`
	ReferenceType  string                 `json:"reference_type"`
	UserID         string                 `json:"user_id"`
	Username       string                 `json:"username,omitempty"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Amount         decimal.Decimal        `json:"amount"`
	Extra          map[string]interface{} `json:"extra_data,omitempty"`
	RequiresAction bool                   `json:"requires_action"`
	CreatedAt      time.Time              `json:"created_at"`
}
