package approval

import (
	"context"
	"fmt"

	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/model"
	"github.com/shopspring/decimal"
)

// settlement is what an approved request did to the user's balance.
// entry is nil when the kind moves no money on approval.
type settlement struct {
	entry *model.LedgerEntry
}

type kindHandler interface {
	settle(ctx context.Context, tx Tx, req model.Request, amount decimal.Decimal) (settlement, error)
	approvedEvent() model.EventType
	rejectedEvent() model.EventType
}

func newHandlers(mutator BalanceMutator, ledger *LedgerWriter) map[model.Kind]kindHandler {
	return map[model.Kind]kindHandler{
		model.Deposit:     creditHandler{mutator, ledger, "order", "Wallet top-up via %s", model.OrderApproved, model.OrderRejected},
		model.WalletTopup: creditHandler{mutator, ledger, "order", "Wallet top-up via %s", model.WalletTopupApproved, model.WalletTopupRejected},
		model.WalletLoad:  creditHandler{mutator, ledger, "wallet_load", "Wallet load via %s", model.WalletLoadApproved, model.WalletLoadRejected},
		model.GameLoad:    gameLoadHandler{},
		model.Withdrawal:  withdrawalHandler{mutator, ledger},
	}
}

func (s *Service) handlerFor(kind model.Kind) (kindHandler, error) {
	h, ok := s.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownKind, kind)
	}
	return h, nil
}

func paymentMethod(req model.Request) string {
	if req.PaymentMethod == "" {
		return "N/A"
	}
	return req.PaymentMethod
}

type creditHandler struct {
	mutator       BalanceMutator
	ledger        *LedgerWriter
	referenceType string
	description   string
	approved      model.EventType
	rejected      model.EventType
}

func (h creditHandler) settle(ctx context.Context, tx Tx, req model.Request, amount decimal.Decimal) (settlement, error) {
	before, after, err := h.mutator.Apply(ctx, tx, req.UserID, Mutation{
		Direction: model.Credit,
		Amount:    amount,
		Bonus:     req.BonusAmount,
		Counter:   countDeposit,
	})
	if err != nil {
		return settlement{}, err
	}

	entry, err := h.ledger.Record(ctx, tx, model.LedgerEntry{
		UserID:        req.UserID,
		Direction:     model.Credit,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceType: h.referenceType,
		ReferenceID:   req.ID,
		Description:   fmt.Sprintf(h.description, paymentMethod(req)),
	})
	if err != nil {
		return settlement{}, err
	}
	return settlement{entry: &entry}, nil
}

func (h creditHandler) approvedEvent() model.EventType { return h.approved }
func (h creditHandler) rejectedEvent() model.EventType { return h.rejected }

// gameLoadHandler only transitions the request; the debit happened when the load was created.
type gameLoadHandler struct{}

func (gameLoadHandler) settle(context.Context, Tx, model.Request, decimal.Decimal) (settlement, error) {
	return settlement{}, nil
}

func (gameLoadHandler) approvedEvent() model.EventType { return model.GameLoadApproved }
func (gameLoadHandler) rejectedEvent() model.EventType { return model.GameLoadRejected }

type withdrawalHandler struct {
	mutator BalanceMutator
	ledger  *LedgerWriter
}

func (h withdrawalHandler) settle(ctx context.Context, tx Tx, req model.Request, amount decimal.Decimal) (settlement, error) {
	before, after, err := h.mutator.Apply(ctx, tx, req.UserID, Mutation{
		Direction: model.Debit,
		Amount:    amount,
		Counter:   countWithdrawal,
	})
	if err != nil {
		return settlement{}, err
	}

	entry, err := h.ledger.Record(ctx, tx, model.LedgerEntry{
		UserID:        req.UserID,
		Direction:     model.Debit,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceType: "withdrawal",
		ReferenceID:   req.ID,
		Description:   fmt.Sprintf("Withdrawal to %s", paymentMethod(req)),
	})
	if err != nil {
		return settlement{}, err
	}
	return settlement{entry: &entry}, nil
}

func (withdrawalHandler) approvedEvent() model.EventType { return model.WithdrawalApproved }
func (withdrawalHandler) rejectedEvent() model.EventType { return model.WithdrawalRejected }
