package repo

import (
	"context"

	"github.com/replyrota/replyrota/internal/biz/domain"
)

// PostContext is the submission the drafter writes replies against
type PostContext struct {
	ID        string
	Title     string
	Body      string
	Subreddit string
	URL       string
}

// ForumRepo is the Reddit read repository interface.
// Fetches in real time from the public JSON endpoints, no local storage.
type ForumRepo interface {
	// PostContext fetches the submission title/body for a post URL
	PostContext(ctx context.Context, postURL string) (*PostContext, error)

	// FetchComments fetches all visible comments on a post, ordered by
	// creation time ascending
	FetchComments(ctx context.Context, postURL string) ([]domain.Comment, error)

	// IsPostAlive checks whether the post still exists and is visible
	IsPostAlive(ctx context.Context, postURL string) (bool, error)
}
