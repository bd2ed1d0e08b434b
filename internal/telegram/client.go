package telegram

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/officeteam/office-utilities/internal/notification"
)

// TokenSource supplies the bot token at call time. The token is an
// admin setting, so the bot is constructed per call instead of once at
// boot.
type TokenSource interface {
	TelegramBotToken() (string, error)
}

type ClientOption func(*Client)

// WithServerURL points the client at a non-default Bot API server.
func WithServerURL(url string) ClientOption {
	return func(c *Client) {
		c.serverURL = url
	}
}

// Client is the outbound Telegram gateway.
type Client struct {
	tokens    TokenSource
	serverURL string
	logger    *slog.Logger
}

func NewClient(tokens TokenSource, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{tokens: tokens, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) bot() (*bot.Bot, error) {
	token, err := c.tokens.TelegramBotToken()
	if err != nil {
		return nil, err
	}

	opts := []bot.Option{bot.WithSkipGetMe()}
	if c.serverURL != "" {
		opts = append(opts, bot.WithServerURL(c.serverURL))
	}
	return bot.New(token, opts...)
}

// Send delivers a Markdown message, with inline buttons when given.
func (c *Client) Send(ctx context.Context, chatID int64, text string, buttons []notification.Button) error {
	b, err := c.bot()
	if err != nil {
		return err
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	}
	if len(buttons) > 0 {
		row := make([]models.InlineKeyboardButton, 0, len(buttons))
		for _, btn := range buttons {
			row = append(row, models.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.Data,
			})
		}
		params.ReplyMarkup = models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{row},
		}
	}

	_, err = b.SendMessage(ctx, params)
	return err
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	b, err := c.bot()
	if err != nil {
		return err
	}
	_, err = b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	return err
}

// EditMessageText replaces an earlier notification in place, dropping
// its inline keyboard.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error {
	b, err := c.bot()
	if err != nil {
		return err
	}
	_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
	return err
}

// WebhookInfo returns the webhook URL registered with the Bot API.
func (c *Client) WebhookInfo(ctx context.Context) (string, error) {
	b, err := c.bot()
	if err != nil {
		return "", err
	}
	info, err := b.GetWebhookInfo(ctx)
	if err != nil {
		return "", err
	}
	return info.URL, nil
}
