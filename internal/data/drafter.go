package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
	"github.com/replyrota/replyrota/internal/conf"
)

// draftRepo implements the draft repository on an OpenAI-compatible
// chat completion endpoint
type draftRepo struct {
	client  *openai.Client
	model   string
	prompts *conf.PromptsConfig
}

// NewDraftRepo creates a completion-backed draft repository.
// Returns nil when no API key is configured; drafting then falls back to
// the canned reply.
func NewDraftRepo(cfg conf.OpenAIConfig, prompts *conf.PromptsConfig) repo.DraftRepo {
	if cfg.APIKey == "" {
		return nil
	}
	return &draftRepo{
		client:  openai.NewClient(cfg.APIKey),
		model:   cfg.Model,
		prompts: prompts,
	}
}

// Suggest generates one reply suggestion for the comment
func (r *draftRepo) Suggest(ctx context.Context, post *repo.PostContext, comment domain.Comment, recent []string) (string, error) {
	userPrompt := r.prompts.BuildReplyPrompt(post.Title, post.Body, comment.Author, comment.Body, recent)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: r.prompts.Reply.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.8, // Drafts should vary between comments
		MaxTokens:   200,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
