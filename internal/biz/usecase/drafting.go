package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
)

// MaxDraftAttempts is how many times an unsafe draft is regenerated before
// the fallback reply is used.
const MaxDraftAttempts = 3

// DraftUsecase wraps the completion endpoint with safety filtering,
// regeneration and the fallback reply. Drafting is best-effort: Suggest
// always returns usable text.
type DraftUsecase struct {
	drafts repo.DraftRepo
}

// NewDraftUsecase creates a new draft usecase
func NewDraftUsecase(drafts repo.DraftRepo) *DraftUsecase {
	return &DraftUsecase{drafts: drafts}
}

// Suggest generates a reply draft for the comment. Unsafe drafts are
// regenerated up to MaxDraftAttempts times; generation failures and
// exhausted attempts fall back to the canned reply. The returned error is
// informational only; the text is always safe to dispatch.
func (uc *DraftUsecase) Suggest(ctx context.Context, post *repo.PostContext, comment domain.Comment, recent []string) (string, error) {
	if uc.drafts == nil || post == nil {
		return FallbackReply, &domain.DraftError{Cause: fmt.Errorf("drafter not configured")}
	}

	var lastErr error
	for attempt := 0; attempt < MaxDraftAttempts; attempt++ {
		reply, err := uc.drafts.Suggest(ctx, post, comment, recent)
		if err != nil {
			lastErr = &domain.DraftError{Cause: err}
			continue
		}

		reply = lowercaseStart(reply)
		if safetyErr := CheckReplySafety(reply); safetyErr != nil {
			lastErr = &domain.DraftError{Cause: safetyErr}
			fmt.Printf("[Draft] Safety rejected attempt %d/%d: %s\n", attempt+1, MaxDraftAttempts, safetyErr.Reason)
			continue
		}
		return reply, nil
	}

	return FallbackReply, lastErr
}

// lowercaseStart enforces the reddit-casual lowercase opening
func lowercaseStart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsUpper(r) {
		return string(unicode.ToLower(r)) + s[size:]
	}
	return s
}
