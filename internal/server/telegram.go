package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/model"
	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/crypto/bcrypt"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

var errBadCallbackData = errors.New("bad callback data")

type callbackCommand struct {
	view   bool
	action model.Action
	source model.Source
	id     string
}

// parseCallbackData understands approve:, reject:, view: for orders and the wl_ prefixed
// variants for wallet load requests.
func parseCallbackData(data string) (callbackCommand, error) {
	verb, id, ok := strings.Cut(data, ":")
	if !ok || id == "" {
		return callbackCommand{}, errBadCallbackData
	}

	cmd := callbackCommand{id: id, source: model.Orders}
	if rest, found := strings.CutPrefix(verb, "wl_"); found {
		cmd.source = model.WalletLoads
		verb = rest
	}

	switch verb {
	case "approve":
		cmd.action = model.Approve
	case "reject":
		cmd.action = model.Reject
	case "view":
		cmd.view = true
	default:
		return callbackCommand{}, errBadCallbackData
	}
	return cmd, nil
}

// TelegramCallbackHandler receives inline-button presses for one registered bot. It always
// answers 200 so Telegram does not redeliver; the outcome goes back as callback text.
func (srv *Server) TelegramCallbackHandler(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "botID")

	bot, err := srv.bots.GetBot(r.Context(), botID)
	if err != nil {
		if errors.Is(err, errs.ErrBotNotFound) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		srv.deps.Logger.Errorf("get bot %s: %v", botID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	secret := r.Header.Get(telegramSecretHeader)
	if bot.SecretHash == "" || bcrypt.CompareHashAndPassword([]byte(bot.SecretHash), []byte(secret)) != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if update.CallbackQuery == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	text := srv.handleCallback(r, bot, update.CallbackQuery)
	srv.answer(update.CallbackQuery.ID, text)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "text": text})
}

func (srv *Server) handleCallback(r *http.Request, bot model.Bot, q *tgbotapi.CallbackQuery) string {
	cmd, err := parseCallbackData(q.Data)
	if err != nil {
		return "Unknown action"
	}

	if cmd.view {
		req, err := srv.storage.GetRequest(r.Context(), cmd.source, cmd.id)
		if err != nil {
			return callbackErrorText(err)
		}
		return describeRequest(req)
	}

	reviewer := ""
	if q.From != nil {
		reviewer = q.From.UserName
	}
	srv.deps.Logger.Infow("telegram callback",
		"bot_id", bot.ID, "request_id", cmd.id, "action", cmd.action, "telegram_user", reviewer)

	outcome, err := srv.decider.Decide(r.Context(), model.Decision{
		Source:    cmd.source,
		RequestID: cmd.id,
		Action:    cmd.action,
		Actor:     model.TelegramBot(bot.ID),
	})
	if err != nil {
		return callbackErrorText(err)
	}
	if outcome.AlreadyProcessed {
		return "Already " + string(outcome.Status)
	}
	return outcomeText(cmd.source, outcome.Status)
}

func (srv *Server) answer(callbackID, text string) {
	if srv.answerer == nil {
		return
	}
	if err := srv.answerer.AnswerCallback(callbackID, text); err != nil {
		srv.deps.Logger.Warnf("answer callback %s: %v", callbackID, err)
	}
}

func outcomeText(source model.Source, status model.Status) string {
	noun := "Order"
	if source == model.WalletLoads {
		noun = "Wallet load"
	}
	return fmt.Sprintf("%s %s", noun, status)
}

func callbackErrorText(err error) string {
	switch {
	case errors.Is(err, errs.ErrInsufficientFunds):
		return "Insufficient balance"
	case errors.Is(err, errs.ErrBotInactive):
		return "Bot is not active"
	case errors.Is(err, errs.ErrPermissionDenied):
		return "Not allowed"
	case errors.Is(err, errs.ErrNotFound):
		return "Request not found"
	}
	return "Processing failed"
}

func describeRequest(req model.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", req.Kind, req.ID)
	if req.Username != "" {
		fmt.Fprintf(&b, "User: @%s\n", req.Username)
	}
	fmt.Fprintf(&b, "Amount: %s\n", req.Amount.StringFixed(2))
	if req.BonusAmount.IsPositive() {
		fmt.Fprintf(&b, "Bonus: %s\n", req.BonusAmount.StringFixed(2))
	}
	if req.PaymentMethod != "" {
		fmt.Fprintf(&b, "Method: %s\n", req.PaymentMethod)
	}
	fmt.Fprintf(&b, "Status: %s", req.Status)
	return b.String()
}
