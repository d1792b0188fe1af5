package domain

import "time"

// Assignment pairs one new comment with the team member who should reply.
// Produced once per cycle and not persisted beyond the reply task log.
type Assignment struct {
	Comment Comment
	Member  TeamMember
	Draft   string // filled in after the drafter runs, may be the fallback
}

// Reply task statuses as recorded in the reply queue tab.
const (
	TaskStatusSent       = "sent"
	TaskStatusDryRunSent = "dry_run_sent"
	TaskStatusSkipped    = "skipped"
)

// ReplyTask is one row of the reply queue tab: the durable record of a
// dispatched assignment.
type ReplyTask struct {
	TaskID        string
	PostID        string
	CommentID     string
	CommentAuthor string
	CommentURL    string
	MemberName    string
	Suggestion    string
	Status        string
	CreatedAt     time.Time
	SentAt        time.Time
}
