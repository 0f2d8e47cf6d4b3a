package notify

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"3nt3/datamakeover/config"
)

type messageSender interface {
	SendMessage(params *telego.SendMessageParams) (*telego.Message, error)
}

// Telegram posts the upload notification into a chat through a bot.
type Telegram struct {
	bot    messageSender
	chatID int64
}

func NewTelegram(cfg config.Telegram) (*Telegram, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: cfg.ChatID}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Notify(ctx context.Context, u Upload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.SendMessage(tu.Message(tu.ID(t.chatID), body(u))); err != nil {
		return fmt.Errorf("unable to send telegram message: %w", err)
	}
	return nil
}
