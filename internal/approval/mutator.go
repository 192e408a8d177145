package approval

import (
	"context"
	"fmt"

	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/model"
	"github.com/shopspring/decimal"
)

type counter int

const (
	countNone counter = iota
	countDeposit
	countWithdrawal
)

// Mutation describes one change of a user's real balance.
type Mutation struct {
	Direction model.Direction
	Amount    decimal.Decimal
	// Bonus is credited to the bonus balance without any check.
	Bonus   decimal.Decimal
	Counter counter
}

type BalanceMutator struct{}

// Apply locks the account, applies m and stores the result. A debit that would leave
// the real balance negative fails with errs.ErrInsufficientFunds and writes nothing.
func (BalanceMutator) Apply(ctx context.Context, tx Tx, userID string, m Mutation) (before, after decimal.Decimal, err error) {
	if !m.Amount.IsPositive() {
		return before, after, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, m.Amount)
	}

	account, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return before, after, fmt.Errorf("lock account: %w", err)
	}

	before = account.RealBalance
	switch m.Direction {
	case model.Credit:
		after = before.Add(m.Amount)
	case model.Debit:
		after = before.Sub(m.Amount)
		if after.IsNegative() {
			return before, before, fmt.Errorf("debit %s from %s: %w", m.Amount, before, errs.ErrInsufficientFunds)
		}
	default:
		return before, after, fmt.Errorf("unknown direction %q", m.Direction)
	}

	account.RealBalance = after
	if m.Bonus.IsPositive() {
		account.BonusBalance = account.BonusBalance.Add(m.Bonus)
	}
	switch m.Counter {
	case countDeposit:
		account.DepositCount++
		account.TotalDeposited = account.TotalDeposited.Add(m.Amount)
	case countWithdrawal:
		account.TotalWithdrawn = account.TotalWithdrawn.Add(m.Amount)
	}

	if err := tx.SaveAccount(ctx, account); err != nil {
		return before, after, fmt.Errorf("save account: %w", err)
	}
	return before, after, nil
}
