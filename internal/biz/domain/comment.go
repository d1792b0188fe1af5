package domain

import (
	"sort"
	"time"
)

// Comment represents a Reddit comment observed on a monitored post
// (value object, immutable once fetched)
type Comment struct {
	ID      string
	PostID  string
	Author  string
	Body    string
	URL     string
	Created time.Time
}

// SortComments orders comments by creation time ascending, ties broken by
// id ascending, so two runs over the same set always see the same order.
func SortComments(comments []Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].Created.Equal(comments[j].Created) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].Created.Before(comments[j].Created)
	})
}
