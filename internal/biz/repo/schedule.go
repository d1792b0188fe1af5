package repo

import (
	"context"

	"github.com/replyrota/replyrota/internal/biz/domain"
)

// ScheduleRepo is the spreadsheet-backed schedule repository interface.
// Responsible for the roster, the posting plan and the reply task log.
type ScheduleRepo interface {
	// Roster returns all roster rows in sheet order, including inactive
	// and unlinked members
	Roster(ctx context.Context) ([]domain.TeamMember, error)

	// PostingPlan returns all posting plan rows in sheet order
	PostingPlan(ctx context.Context) ([]domain.PostEntry, error)

	// ActivePosts returns the posting plan rows that should be polled
	ActivePosts(ctx context.Context) ([]domain.PostEntry, error)

	// LinkMemberChatID stores a member's Telegram chat id in the roster
	LinkMemberChatID(ctx context.Context, memberName, chatID string) error

	// AppendReplyTask appends a dispatched assignment to the reply queue
	AppendReplyTask(ctx context.Context, task domain.ReplyTask) error

	// RecentSuggestions returns prior reply suggestions grouped by post id,
	// used to steer the drafter away from repeating itself
	RecentSuggestions(ctx context.Context) (map[string][]string, error)

	// MarkPostStatus updates a posting plan row's status column
	MarkPostStatus(ctx context.Context, postID, status string) error

	// MarkPostNotified marks a post reminded and stamps the notify time
	MarkPostNotified(ctx context.Context, postID string) error
}
