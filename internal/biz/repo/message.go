package repo

import "context"

// BotIdentity describes the bot account behind the messaging token
type BotIdentity struct {
	ID       int64
	Username string
}

// Update is one inbound message from the messaging platform
type Update struct {
	UpdateID  int
	ChatID    string
	Username  string
	FirstName string
	Text      string
}

// MessageRepo is the messaging platform repository interface
type MessageRepo interface {
	// SendText sends a plain text message to a chat
	SendText(ctx context.Context, chatID, text string) error

	// Updates fetches pending inbound messages starting at offset
	Updates(ctx context.Context, offset int) ([]Update, error)

	// Me returns the bot's own identity (connectivity check)
	Me(ctx context.Context) (*BotIdentity, error)
}
