package usecase

import (
	"time"

	"github.com/replyrota/replyrota/internal/biz/domain"
)

// AssignmentUsecase turns newly observed comments into fair, deduplicated
// round-robin assignments across a team roster. It owns the rotation cursor
// for the duration of one cycle; persistence is the caller's job.
type AssignmentUsecase struct{}

// NewAssignmentUsecase creates a new assignment usecase
func NewAssignmentUsecase() *AssignmentUsecase {
	return &AssignmentUsecase{}
}

// FilterNew returns the comments not yet recorded in the cursor, ordered by
// (created, id) ascending. A comment is excluded when its id is in the
// dedup record, or when it predates the post watermark (which only happens
// for ids already trimmed from the record).
func (uc *AssignmentUsecase) FilterNew(comments []domain.Comment, cursor *domain.RotationCursor) []domain.Comment {
	var fresh []domain.Comment
	for _, c := range comments {
		if c.ID == "" || cursor.HasSeen(c.ID) {
			continue
		}
		if wm := cursor.Watermark(c.PostID); !wm.IsZero() && c.Created.Before(wm) {
			continue
		}
		fresh = append(fresh, c)
	}
	domain.SortComments(fresh)
	return fresh
}

// AssignNext assigns each comment, in order, to the next member of the
// rotation for the given key. The index advances before each assignment, so
// the member who took the previous comment is never assigned twice in a row
// unless the roster has a single member.
//
// The cursor is mutated in memory: the rotation index moves and each
// assigned comment is recorded as seen at seenAt. On an empty roster the
// cursor is left untouched and a ConfigurationError is returned.
//
// Given the same roster order, cursor state and comment order, the output
// is identical across calls, so a crash that lost the persistence step can
// be replayed.
func (uc *AssignmentUsecase) AssignNext(
	key string,
	comments []domain.Comment,
	roster []domain.TeamMember,
	cursor *domain.RotationCursor,
	seenAt time.Time,
) ([]domain.Assignment, error) {
	if len(roster) == 0 {
		return nil, &domain.ConfigurationError{Reason: "no active members for rotation key " + key}
	}

	assignments := make([]domain.Assignment, 0, len(comments))
	for _, c := range comments {
		idx := cursor.Advance(key, len(roster))
		cursor.MarkSeen(c, seenAt)
		assignments = append(assignments, domain.Assignment{
			Comment: c,
			Member:  roster[idx],
		})
	}
	return assignments, nil
}
