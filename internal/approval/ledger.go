package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/gamewallet/internal/model"
	"github.com/google/uuid"
)

var errUnbalancedEntry = errors.New("ledger entry does not balance")

// LedgerWriter appends wallet_ledger rows. Entries are never updated or removed.
type LedgerWriter struct {
	newID func() string
	now   func() time.Time
}

func NewLedgerWriter(now func() time.Time) *LedgerWriter {
	return &LedgerWriter{newID: uuid.NewString, now: now}
}

func (w *LedgerWriter) Record(ctx context.Context, tx Tx, entry model.LedgerEntry) (model.LedgerEntry, error) {
	expected := entry.BalanceBefore
	switch entry.Direction {
	case model.Credit:
		expected = entry.BalanceBefore.Add(entry.Amount)
	case model.Debit:
		expected = entry.BalanceBefore.Sub(entry.Amount)
	default:
		return entry, fmt.Errorf("unknown direction %q", entry.Direction)
	}
	if !entry.Amount.IsPositive() || !expected.Equal(entry.BalanceAfter) {
		return entry, fmt.Errorf("%s %s: %s -> %s: %w",
			entry.Direction, entry.Amount, entry.BalanceBefore, entry.BalanceAfter, errUnbalancedEntry)
	}

	entry.ID = w.newID()
	entry.CreatedAt = w.now()

	if err := tx.InsertLedgerEntry(ctx, entry); err != nil {
		return entry, fmt.Errorf("insert ledger entry: %w", err)
	}
	return entry, nil
}
