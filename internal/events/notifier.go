package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/gamewallet/internal/model"
)

type ChatSender interface {
	SendMessageToChat(chatID int64, message string) error
}

// TelegramNotifier posts a short summary of each event to the admin chat.
type TelegramNotifier struct {
	sender ChatSender
	chatID int64
}

func NewTelegramNotifier(sender ChatSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID}
}

func (n *TelegramNotifier) Name() string { return "telegram" }

func (n *TelegramNotifier) Publish(_ context.Context, e model.Event) error {
	return n.sender.SendMessageToChat(n.chatID, FormatEvent(e))
}

func FormatEvent(e model.Event) string {
	var b strings.Builder
	title := e.Title
	if title == "" {
		title = string(e.Type)
	}
	b.WriteString(title)
	if e.Message != "" {
		b.WriteString("\n")
		b.WriteString(e.Message)
	}
	fmt.Fprintf(&b, "\nRef: %s %s", e.ReferenceType, e.ReferenceID)
	fmt.Fprintf(&b, "\nAmount: %s", e.Amount.StringFixed(2))
	if reason, ok := e.Extra["reason"].(string); ok && reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", reason)
	}
	return b.String()
}
