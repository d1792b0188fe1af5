package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/replyrota/replyrota/internal/data"
)

// Sends a one-off Telegram message through the bot account. Handy for
// verifying a chat id before adding it to the roster.
func main() {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		fmt.Println("Error: TELEGRAM_BOT_TOKEN must be set")
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		fmt.Println("Usage: send-message <chat_id> <message>")
		os.Exit(1)
	}

	chatID := os.Args[1]
	message := os.Args[2]

	msgs, err := data.NewMessageRepo(token)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := msgs.SendText(context.Background(), chatID, message); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Message sent successfully!")
}
