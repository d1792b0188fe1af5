package repo

import (
	"context"

	"github.com/replyrota/replyrota/internal/biz/domain"
)

// DraftRepo is the completion endpoint repository interface
type DraftRepo interface {
	// Suggest generates one candidate reply to the comment, given the
	// submission context and recent suggestions to avoid repeating
	Suggest(ctx context.Context, post *PostContext, comment domain.Comment, recent []string) (string, error)
}
