package domain

import "strings"

// Post statuses as recorded in the posting plan tab.
const (
	PostStatusPlanned   = "planned"
	PostStatusReminded  = "reminded"
	PostStatusPosted    = "posted"
	PostStatusDone      = "done"
	PostStatusCancelled = "cancelled"
	PostStatusDeleted   = "deleted"
)

// PostEntry represents one posting plan row (value object)
type PostEntry struct {
	ID            string
	TeamID        string
	Subreddit     string
	URL           string // Reddit post URL, empty until the poster submits it
	PosterName    string
	Content       string
	ScheduledDate string // YYYY-MM-DD in the bot's configured timezone
	ScheduledTime string
	Status        string
}

// IsActive checks whether the post should be polled for comments
func (p *PostEntry) IsActive() bool {
	if strings.TrimSpace(p.URL) == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(p.Status)) {
	case PostStatusDone, PostStatusCancelled, PostStatusDeleted:
		return false
	}
	return true
}

// NeedsReminder checks whether the poster should be reminded today
func (p *PostEntry) NeedsReminder(today string) bool {
	if p.ScheduledDate != today {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(p.Status)) {
	case PostStatusPosted, PostStatusDone, PostStatusCancelled, PostStatusDeleted:
		return false
	}
	return true
}

// RotationKey returns the rotation cursor key for this post's team
func (p *PostEntry) RotationKey() string {
	team := strings.TrimSpace(p.TeamID)
	if team == "" {
		return RotationKeyAll
	}
	return team
}
