package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	BotIDHeader    = "X-Bot-Id"
	BotTokenHeader = "X-Bot-Token"
)

type BotDirectory interface {
	GetBot(ctx context.Context, botID string) (model.Bot, error)
}

// BotAuthMiddleware checks the bot API secret against the bcrypt hash stored for the
// bot. Capabilities are not checked here; the approval gate does that per request kind.
func BotAuthMiddleware(bots BotDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			botID := r.Header.Get(BotIDHeader)
			secret := r.Header.Get(BotTokenHeader)
			if botID == "" || secret == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			bot, err := bots.GetBot(r.Context(), botID)
			if err != nil {
				if errors.Is(err, errs.ErrBotNotFound) {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			if bot.SecretHash == "" || bcrypt.CompareHashAndPassword([]byte(bot.SecretHash), []byte(secret)) != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := WithActor(r.Context(), model.TelegramBot(bot.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
