package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	Pending              Status = "pending"
	PendingReview        Status = "pending_review"
	Initiated            Status = "initiated"
	AwaitingPaymentProof Status = "awaiting_payment_proof"
	Approved             Status = "approved"
	Rejected             Status = "rejected"
)

// OpenStatuses lists every status a request may be decided from.
func OpenStatuses() []Status {
	return []Status{Pending, PendingReview, Initiated, AwaitingPaymentProof}
}

func (s Status) IsOpen() bool {
	switch s {
	case Pending, PendingReview, Initiated, AwaitingPaymentProof:
		return true
	}
	return false
}

type Kind string

const (
	Deposit     Kind = "deposit"
	WalletTopup Kind = "wallet_topup"
	GameLoad    Kind = "game_load"
	Withdrawal  Kind = "withdrawal"
	WalletLoad  Kind = "wallet_load"
)

// Kinds lists every request kind the system decides.
func Kinds() []Kind {
	return []Kind{Deposit, WalletTopup, GameLoad, Withdrawal, WalletLoad}
}

// Source is the table a request lives in.
type Source string

const (
	Orders      Source = "orders"
	WalletLoads Source = "wallet_load_requests"
)

type Request struct {
	ID              string           `json:"request_id"`
	Source          Source           `json:"source"`
	UserID          string           `json:"user_id"`
	Username        string           `json:"username,omitempty"`
	Kind            Kind             `json:"kind"`
	Status          Status           `json:"status"`
	Amount          decimal.Decimal  `json:"amount"`
	BonusAmount     decimal.Decimal  `json:"bonus_amount"`
	PaymentMethod   string           `json:"payment_method,omitempty"`
	AmountAdjusted  bool             `json:"amount_adjusted"`
	OriginalAmount  *decimal.Decimal `json:"original_amount,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	ReviewedBy      string           `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Transition is the persisted result of a decision on an open request.
type Transition struct {
	Status          Status
	Amount          decimal.Decimal
	AmountAdjusted  bool
	OriginalAmount  *decimal.Decimal
	RejectionReason string
	ReviewedBy      string
	ReviewedAt      time.Time
}

type Account struct {
	UserID         string
	Username       string
	RealBalance    decimal.Decimal
	BonusBalance   decimal.Decimal
	DepositCount   int
	TotalDeposited decimal.Decimal
	TotalWithdrawn decimal.Decimal
}

type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

type LedgerEntry struct {
	ID            string          `json:"ledger_id"`
	UserID        string          `json:"user_id"`
	Direction     Direction       `json:"transaction_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}
