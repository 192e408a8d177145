package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/model"
)

// Gate decides whether an actor may decide requests of a given kind.
type Gate struct {
	bots BotDirectory
}

func NewGate(bots BotDirectory) *Gate {
	return &Gate{bots: bots}
}

func (g *Gate) Authorize(ctx context.Context, actor model.Actor, kind model.Kind) error {
	switch actor.Type {
	case model.AdminActor, model.SystemActor:
		return nil
	case model.TelegramBotActor:
		return g.authorizeBot(ctx, actor.ID, kind)
	default:
		return fmt.Errorf("unknown actor type %q: %w", actor.Type, errs.ErrPermissionDenied)
	}
}

func (g *Gate) authorizeBot(ctx context.Context, botID string, kind model.Kind) error {
	if g.bots == nil {
		return errs.ErrBotNotFound
	}

	bot, err := g.bots.GetBot(ctx, botID)
	if err != nil {
		if errors.Is(err, errs.ErrBotNotFound) {
			return errs.ErrBotNotFound
		}
		return fmt.Errorf("get bot: %w", err)
	}

	if !bot.IsActive {
		return errs.ErrBotInactive
	}
	if !botCan(bot, kind) {
		return errs.ErrBotLacksPermission
	}
	return nil
}

func botCan(bot model.Bot, kind model.Kind) bool {
	switch kind {
	case model.Deposit, model.WalletTopup, model.GameLoad:
		return bot.CanApprovePayments
	case model.WalletLoad:
		return bot.CanApproveWalletLoads
	case model.Withdrawal:
		return bot.CanApproveWithdrawals
	}
	return false
}
