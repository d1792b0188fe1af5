package data

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
)

// messageRepo implements the messaging repository on the Telegram Bot API
type messageRepo struct {
	bot *tgbotapi.BotAPI
}

// NewMessageRepo creates a Telegram-backed message repository
func NewMessageRepo(botToken string) (repo.MessageRepo, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &messageRepo{bot: bot}, nil
}

// SendText sends a plain text message to a chat
func (r *messageRepo) SendText(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return &domain.DeliveryError{ChatID: chatID, Cause: fmt.Errorf("invalid chat id: %w", err)}
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.DisableWebPagePreview = true
	if _, err := r.bot.Send(msg); err != nil {
		return &domain.DeliveryError{ChatID: chatID, Cause: err}
	}
	return nil
}

// Updates fetches pending inbound messages starting at offset
func (r *messageRepo) Updates(ctx context.Context, offset int) ([]repo.Update, error) {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = 10

	raw, err := r.bot.GetUpdates(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updates: %w", err)
	}

	var updates []repo.Update
	for _, u := range raw {
		if u.Message == nil || u.Message.Chat == nil {
			continue
		}
		update := repo.Update{
			UpdateID: u.UpdateID,
			ChatID:   strconv.FormatInt(u.Message.Chat.ID, 10),
			Text:     u.Message.Text,
		}
		if u.Message.From != nil {
			update.Username = u.Message.From.UserName
			update.FirstName = u.Message.From.FirstName
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// Me returns the bot's own identity
func (r *messageRepo) Me(ctx context.Context) (*repo.BotIdentity, error) {
	return &repo.BotIdentity{
		ID:       r.bot.Self.ID,
		Username: r.bot.Self.UserName,
	}, nil
}
