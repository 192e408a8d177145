package model

import "github.com/shopspring/decimal"

type ActorType string

const (
	AdminActor       ActorType = "admin"
	TelegramBotActor ActorType = "telegram_bot"
	SystemActor      ActorType = "system"
)

// Actor is the principal performing a decision. ID is the admin user id or the bot id.
type Actor struct {
	Type ActorType
	ID   string
}

func Admin(userID string) Actor {
	return Actor{Type: AdminActor, ID: userID}
}

func TelegramBot(botID string) Actor {
	return Actor{Type: TelegramBotActor, ID: botID}
}

func System() Actor {
	return Actor{Type: SystemActor, ID: "system"}
}

// Bot is a Telegram bot registration with its approval capabilities.
type Bot struct {
	ID                    string
	Name                  string
	IsActive              bool
	CanApprovePayments    bool
	CanApproveWalletLoads bool
	CanApproveWithdrawals bool
	SecretHash            string
}

type Action string

const (
	Approve Action = "approve"
	Reject  Action = "reject"
)

func (a Action) Valid() bool {
	return a == Approve || a == Reject
}

type Decision struct {
	Source          Source
	RequestID       string
	Action          Action
	Actor           Actor
	FinalAmount     *decimal.Decimal
	RejectionReason string
}

type Outcome struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	AlreadyProcessed bool             `json:"already_processed,omitempty"`
	RequestID        string           `json:"request_id"`
	Kind             Kind             `json:"kind"`
	Status           Status           `json:"new_status"`
	Amount           decimal.Decimal  `json:"amount"`
	AmountAdjusted   bool             `json:"amount_adjusted"`
	OriginalAmount   *decimal.Decimal `json:"original_amount,omitempty"`
	NewBalance       *decimal.Decimal `json:"new_balance,omitempty"`
	Reason           string           `json:"reason,omitempty"`
}
