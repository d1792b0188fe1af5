package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
	"github.com/replyrota/replyrota/internal/biz/usecase"
)

// CycleStats summarizes one polling cycle
type CycleStats struct {
	PostsPolled int
	NewComments int
	Dispatched  int
	Escalated   int
}

// Poller runs the comment polling and reply dispatch cycle: fetch comments
// on every active post, assign new ones round-robin, draft suggestions and
// notify the assigned members.
//
// Exactly one Poller must run against a given state store; the cursor has
// no cross-process locking.
type Poller struct {
	schedule repo.ScheduleRepo
	state    repo.StateRepo
	forum    repo.ForumRepo
	msgs     repo.MessageRepo
	assign   *usecase.AssignmentUsecase
	draft    *usecase.DraftUsecase

	adminMember string
	retention   time.Duration
	dryRun      bool
	now         func() time.Time
}

// NewPoller creates a new poller
func NewPoller(
	schedule repo.ScheduleRepo,
	state repo.StateRepo,
	forum repo.ForumRepo,
	msgs repo.MessageRepo,
	draft *usecase.DraftUsecase,
	adminMember string,
	retention time.Duration,
	dryRun bool,
) *Poller {
	return &Poller{
		schedule:    schedule,
		state:       state,
		forum:       forum,
		msgs:        msgs,
		assign:      usecase.NewAssignmentUsecase(),
		draft:       draft,
		adminMember: adminMember,
		retention:   retention,
		dryRun:      dryRun,
		now:         time.Now,
	}
}

// RunCycle executes one full polling cycle. A roster or cursor load failure
// aborts the whole cycle; per-post failures only skip that post.
func (p *Poller) RunCycle(ctx context.Context) (*CycleStats, error) {
	stats := &CycleStats{}

	roster, err := p.schedule.Roster(ctx)
	if err != nil {
		return stats, &domain.ScheduleUnavailableError{Cause: err}
	}
	posts, err := p.schedule.ActivePosts(ctx)
	if err != nil {
		return stats, &domain.ScheduleUnavailableError{Cause: err}
	}

	cursor, err := p.state.LoadCursor(ctx)
	if err != nil {
		return stats, err
	}
	if trimmed := cursor.Trim(p.now().Add(-p.retention)); trimmed > 0 {
		fmt.Printf("[Poller] Trimmed %d dedup records older than %v\n", trimmed, p.retention)
	}

	recent, err := p.schedule.RecentSuggestions(ctx)
	if err != nil {
		fmt.Printf("[Poller] Could not load recent suggestions: %v\n", err)
		recent = map[string][]string{}
	}

	for _, post := range posts {
		stats.PostsPolled++
		if err := p.processPost(ctx, post, roster, cursor, recent, stats); err != nil {
			var confErr *domain.ConfigurationError
			if errors.As(err, &confErr) {
				return stats, err
			}
			fmt.Printf("[Poller] Post %s: %v\n", post.ID, err)
		}
	}

	return stats, nil
}

// processPost polls one post and dispatches assignments for its new
// comments. The cursor is persisted after each post so a later failure
// cannot lose this post's progress.
func (p *Poller) processPost(
	ctx context.Context,
	post domain.PostEntry,
	roster []domain.TeamMember,
	cursor *domain.RotationCursor,
	recent map[string][]string,
	stats *CycleStats,
) error {
	alive, err := p.forum.IsPostAlive(ctx, post.URL)
	if err != nil {
		// Health check errors are not proof of deletion.
		fmt.Printf("[Poller] Health check failed for post %s: %v\n", post.ID, err)
	} else if !alive {
		return p.markDeleted(ctx, post, roster, stats)
	}

	comments, err := p.forum.FetchComments(ctx, post.URL)
	if err != nil {
		var deleted *domain.PostDeletedError
		if errors.As(err, &deleted) {
			return p.markDeleted(ctx, post, roster, stats)
		}
		return &domain.FetchError{PostID: post.ID, Cause: err}
	}

	// Fetched comments carry the Reddit submission id; the cursor is keyed
	// by the plan's post id.
	for i := range comments {
		comments[i].PostID = post.ID
	}

	fresh := p.assign.FilterNew(comments, cursor)
	if len(fresh) == 0 {
		return nil
	}
	stats.NewComments += len(fresh)
	fmt.Printf("[Poller] Post %s: %d new comments\n", post.ID, len(fresh))

	key := post.RotationKey()
	eligible := domain.FilterRoster(roster, key)

	assignments, err := p.assign.AssignNext(key, fresh, eligible, cursor, p.now())
	if err != nil {
		p.escalate(ctx, roster, "No active team members",
			fmt.Sprintf("Team %q has no active members. Cannot assign replies for post %s.", key, post.ID))
		stats.Escalated++
		return err
	}

	var postCtx *repo.PostContext
	if pc, err := p.forum.PostContext(ctx, post.URL); err != nil {
		fmt.Printf("[Poller] Could not fetch context for post %s: %v\n", post.ID, err)
	} else {
		postCtx = pc
	}

	for _, a := range assignments {
		p.dispatch(ctx, post, postCtx, a, roster, recent, stats)
	}

	if err := p.saveCursor(ctx, cursor); err != nil {
		fmt.Printf("[Poller] %v (assignments for post %s may repeat next cycle)\n", err, post.ID)
	}
	return nil
}

// dispatch drafts a suggestion, notifies the assigned member and logs the
// reply task. Every failure past assignment is non-fatal.
func (p *Poller) dispatch(
	ctx context.Context,
	post domain.PostEntry,
	postCtx *repo.PostContext,
	a domain.Assignment,
	roster []domain.TeamMember,
	recent map[string][]string,
	stats *CycleStats,
) {
	suggestion, draftErr := p.draft.Suggest(ctx, postCtx, a.Comment, recent[post.ID])
	if draftErr != nil {
		fmt.Printf("[Poller] Draft for comment %s fell back: %v\n", a.Comment.ID, draftErr)
	}
	recent[post.ID] = append(recent[post.ID], suggestion)

	now := p.now()
	task := domain.ReplyTask{
		TaskID:        uuid.New().String(),
		PostID:        post.ID,
		CommentID:     a.Comment.ID,
		CommentAuthor: a.Comment.Author,
		CommentURL:    a.Comment.URL,
		MemberName:    a.Member.Name,
		Suggestion:    suggestion,
		Status:        domain.TaskStatusSent,
		CreatedAt:     now,
		SentAt:        now,
	}

	if !a.Member.HasChatID() {
		p.escalate(ctx, roster, "Member has no chat id",
			fmt.Sprintf("Member %q (team %s) was assigned a reply for post %s but has not linked their account. Ask them to /start the bot.\nComment URL: %s",
				a.Member.Name, a.Member.TeamID, post.ID, a.Comment.URL))
		stats.Escalated++
		task.Status = domain.TaskStatusSkipped
		task.SentAt = time.Time{}
		p.appendTask(ctx, task)
		return
	}

	message := fmt.Sprintf(
		"Reply task assigned\n\nPost ID: %s\nAssigned to: %s\nComment by u/%s\nComment URL: %s\n\nSuggested reply:\n%s",
		post.ID, a.Member.Name, a.Comment.Author, a.Comment.URL, suggestion)

	if p.dryRun {
		fmt.Printf("[Poller] DRY-RUN message to %s:\n%s\n", a.Member.Name, message)
		task.Status = domain.TaskStatusDryRunSent
		stats.Dispatched++
		return
	}

	if err := p.msgs.SendText(ctx, a.Member.ChatID, message); err != nil {
		fmt.Printf("[Poller] Delivery to %s failed: %v\n", a.Member.Name, err)
		task.Status = domain.TaskStatusSkipped
		task.SentAt = time.Time{}
		p.appendTask(ctx, task)
		return
	}

	stats.Dispatched++
	p.appendTask(ctx, task)
}

func (p *Poller) appendTask(ctx context.Context, task domain.ReplyTask) {
	if p.dryRun {
		return
	}
	if err := p.schedule.AppendReplyTask(ctx, task); err != nil {
		fmt.Printf("[Poller] Could not log reply task %s: %v\n", task.TaskID, err)
	}
}

// markDeleted marks a post deleted in the plan and alerts the admin
func (p *Poller) markDeleted(ctx context.Context, post domain.PostEntry, roster []domain.TeamMember, stats *CycleStats) error {
	fmt.Printf("[Poller] Post %s appears deleted: %s\n", post.ID, post.URL)
	if !p.dryRun {
		if err := p.schedule.MarkPostStatus(ctx, post.ID, domain.PostStatusDeleted); err != nil {
			fmt.Printf("[Poller] Could not mark post %s deleted: %v\n", post.ID, err)
		}
	}
	p.escalate(ctx, roster, "Reddit post deleted/removed",
		fmt.Sprintf("Post %s (%s) appears to have been deleted or removed. It has been marked as deleted and will no longer be polled.", post.ID, post.URL))
	stats.Escalated++
	return nil
}

// saveCursor persists the cursor, wrapping failures so the caller can log
// the at-least-once consequence
func (p *Poller) saveCursor(ctx context.Context, cursor *domain.RotationCursor) error {
	if p.dryRun {
		return nil
	}
	return p.state.SaveCursor(ctx, cursor)
}

// escalate sends an alert to the admin member, best-effort
func (p *Poller) escalate(ctx context.Context, roster []domain.TeamMember, subject, details string) {
	admin := domain.FindMemberByName(roster, p.adminMember)
	if admin == nil || !admin.HasChatID() {
		fmt.Printf("[Poller] ESCALATION FAILED (admin %q unreachable): %s -- %s\n", p.adminMember, subject, details)
		return
	}
	msg := fmt.Sprintf("[!] ESCALATION ALERT\n\nIssue: %s\n\n%s\n\nPlease take action.", subject, details)
	if p.dryRun {
		fmt.Printf("[Poller] DRY-RUN escalation to %s:\n%s\n", admin.Name, msg)
		return
	}
	if err := p.msgs.SendText(ctx, admin.ChatID, msg); err != nil {
		fmt.Printf("[Poller] Escalation delivery failed: %v\n", err)
	}
}
