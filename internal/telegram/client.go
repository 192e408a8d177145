package telegram

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrEmptyMessage = errors.New("message cannot be empty")
var ErrInvalidChat = errors.New("invalid chat id")

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client sends admin notifications and answers callback queries for one bot token.
type Client struct {
	bot botAPI
}

func NewClient(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Client{bot: bot}, nil
}

func (c *Client) SendMessageToChat(chatID int64, message string) error {
	if message == "" {
		return ErrEmptyMessage
	}
	if chatID == 0 {
		return ErrInvalidChat
	}

	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, message)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// AnswerCallback shows text to the user who pressed an inline button.
func (c *Client) AnswerCallback(callbackID, text string) error {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}
