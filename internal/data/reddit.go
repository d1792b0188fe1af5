package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
	"github.com/replyrota/replyrota/internal/conf"
)

// forumRepo reads posts and comments from Reddit's public JSON endpoints.
// Appending .json to any submission URL returns the post and its full
// comment tree without authentication.
type forumRepo struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewForumRepo creates a Reddit repository on the public JSON API
func NewForumRepo(cfg conf.RedditConfig) repo.ForumRepo {
	return &forumRepo{
		client:    &http.Client{Timeout: 20 * time.Second},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
	}
}

// redditThing is one element of a Reddit listing. The replies field is the
// empty string when a comment has no children, so it stays raw until we
// know it holds an object.
type redditThing struct {
	Kind string `json:"kind"`
	Data struct {
		ID                string          `json:"id"`
		Name              string          `json:"name"`
		Title             string          `json:"title"`
		Selftext          string          `json:"selftext"`
		Subreddit         string          `json:"subreddit"`
		Author            string          `json:"author"`
		Body              string          `json:"body"`
		Permalink         string          `json:"permalink"`
		CreatedUTC        float64         `json:"created_utc"`
		RemovedByCategory string          `json:"removed_by_category"`
		Replies           json.RawMessage `json:"replies"`
	} `json:"data"`
}

// normalizeSubmissionURL rewrites any submission URL to its canonical
// comments path on the configured base, without query or fragment
func (r *forumRepo) normalizeSubmissionURL(postURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(postURL))
	if err != nil {
		return "", fmt.Errorf("invalid post URL %q: %w", postURL, err)
	}
	path := strings.TrimRight(parsed.Path, "/")
	if path == "" || !strings.Contains(path, "/comments/") {
		return "", fmt.Errorf("not a submission URL: %q", postURL)
	}
	return r.baseURL + path, nil
}

// fetchListing fetches and decodes the two-listing response for a post:
// element 0 holds the submission, element 1 the comment tree
func (r *forumRepo) fetchListing(ctx context.Context, postURL string) ([]redditThing, int, error) {
	normalized, err := r.normalizeSubmissionURL(postURL)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized+".json?raw_json=1", nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("reddit returned status %d", resp.StatusCode)
	}

	var listings []struct {
		Kind string `json:"kind"`
		Data struct {
			Children []redditThing `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode reddit response: %w", err)
	}

	var things []redditThing
	for _, listing := range listings {
		things = append(things, listing.Data.Children...)
	}
	return things, resp.StatusCode, nil
}

func (r *forumRepo) submission(things []redditThing) *redditThing {
	for i := range things {
		if things[i].Kind == "t3" {
			return &things[i]
		}
	}
	return nil
}

// PostContext fetches the submission title and body for a post URL
func (r *forumRepo) PostContext(ctx context.Context, postURL string) (*repo.PostContext, error) {
	things, _, err := r.fetchListing(ctx, postURL)
	if err != nil {
		return nil, err
	}
	sub := r.submission(things)
	if sub == nil {
		return nil, fmt.Errorf("no submission in reddit response for %q", postURL)
	}
	return &repo.PostContext{
		ID:        sub.Data.ID,
		Title:     sub.Data.Title,
		Body:      sub.Data.Selftext,
		Subreddit: sub.Data.Subreddit,
		URL:       r.baseURL + sub.Data.Permalink,
	}, nil
}

// FetchComments fetches every visible comment on the post, flattened and
// ordered by creation time ascending
func (r *forumRepo) FetchComments(ctx context.Context, postURL string) ([]domain.Comment, error) {
	things, status, err := r.fetchListing(ctx, postURL)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, &domain.PostDeletedError{PostID: postURL}
		}
		return nil, err
	}
	sub := r.submission(things)
	if sub == nil {
		return nil, &domain.PostDeletedError{PostID: postURL}
	}

	var comments []domain.Comment
	for _, thing := range things {
		comments = r.collect(thing, sub.Data.ID, comments)
	}
	domain.SortComments(comments)
	return comments, nil
}

// collect appends the comment and its nested replies depth-first.
// "more" stubs carry no comment data and are skipped.
func (r *forumRepo) collect(thing redditThing, postID string, acc []domain.Comment) []domain.Comment {
	if thing.Kind != "t1" {
		return acc
	}
	if thing.Data.Author != "[deleted]" && thing.Data.Body != "[removed]" {
		acc = append(acc, domain.Comment{
			ID:      thing.Data.ID,
			PostID:  postID,
			Author:  thing.Data.Author,
			Body:    thing.Data.Body,
			URL:     r.baseURL + thing.Data.Permalink,
			Created: time.Unix(int64(thing.Data.CreatedUTC), 0).UTC(),
		})
	}

	// A leaf comment has "" here instead of a listing object.
	if len(thing.Data.Replies) > 0 && thing.Data.Replies[0] == '{' {
		var replies struct {
			Data struct {
				Children []redditThing `json:"children"`
			} `json:"data"`
		}
		if err := json.Unmarshal(thing.Data.Replies, &replies); err == nil {
			for _, child := range replies.Data.Children {
				acc = r.collect(child, postID, acc)
			}
		}
	}
	return acc
}

// IsPostAlive checks whether the post still exists and is visible.
// A 404, a deleted author, or a removal category all count as gone.
func (r *forumRepo) IsPostAlive(ctx context.Context, postURL string) (bool, error) {
	things, status, err := r.fetchListing(ctx, postURL)
	if err != nil {
		if status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	sub := r.submission(things)
	if sub == nil {
		return false, nil
	}
	if sub.Data.Author == "[deleted]" || sub.Data.RemovedByCategory != "" {
		return false, nil
	}
	return true, nil
}
