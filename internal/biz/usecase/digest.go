package usecase

import (
	"context"
	"fmt"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
)

// DigestUsecase sends the daily posting-plan reminders: each member with a
// post scheduled today that is not yet posted gets a reminder, and schedule
// problems are escalated to the admin member.
type DigestUsecase struct {
	schedule    repo.ScheduleRepo
	msgs        repo.MessageRepo
	adminMember string
	dryRun      bool
}

// NewDigestUsecase creates a new digest usecase
func NewDigestUsecase(schedule repo.ScheduleRepo, msgs repo.MessageRepo, adminMember string, dryRun bool) *DigestUsecase {
	return &DigestUsecase{
		schedule:    schedule,
		msgs:        msgs,
		adminMember: adminMember,
		dryRun:      dryRun,
	}
}

// SendDailyReminders reminds every poster with a pending post scheduled on
// the given date (YYYY-MM-DD). Returns the number of reminders sent.
func (uc *DigestUsecase) SendDailyReminders(ctx context.Context, today string) (int, error) {
	roster, err := uc.schedule.Roster(ctx)
	if err != nil {
		return 0, &domain.ScheduleUnavailableError{Cause: err}
	}
	plan, err := uc.schedule.PostingPlan(ctx)
	if err != nil {
		return 0, &domain.ScheduleUnavailableError{Cause: err}
	}

	count := 0
	for _, post := range plan {
		if !post.NeedsReminder(today) {
			continue
		}

		poster := domain.FindMemberByName(roster, post.PosterName)
		if poster == nil {
			uc.escalate(ctx, roster, "Poster not found",
				fmt.Sprintf("Post %s is scheduled today but poster %q is not in the roster.", post.ID, post.PosterName))
			continue
		}
		if !poster.HasChatID() {
			uc.escalate(ctx, roster, "Poster has no chat id",
				fmt.Sprintf("Post %s is scheduled today but %s has not linked their account. Ask them to /start the bot.", post.ID, poster.Name))
			continue
		}

		scheduledTime := post.ScheduledTime
		if scheduledTime == "" {
			scheduledTime = "today"
		}
		message := fmt.Sprintf(
			"Posting reminder\n\nPost ID: %s\nScheduled: %s %s\n\nPost content:\n%s\n\n---\nAfter you post on Reddit, paste the URL in the sheet and the bot will start monitoring for comments.",
			post.ID, today, scheduledTime, post.Content)

		if uc.dryRun {
			fmt.Printf("[Digest] DRY-RUN reminder to %s:\n%s\n", poster.Name, message)
			count++
			continue
		}

		if err := uc.msgs.SendText(ctx, poster.ChatID, message); err != nil {
			fmt.Printf("[Digest] Reminder to %s failed: %v\n", poster.Name, err)
			continue
		}
		if err := uc.schedule.MarkPostNotified(ctx, post.ID); err != nil {
			fmt.Printf("[Digest] Could not mark post %s notified: %v\n", post.ID, err)
		}
		count++
	}
	return count, nil
}

// escalate sends an alert to the admin member, best-effort
func (uc *DigestUsecase) escalate(ctx context.Context, roster []domain.TeamMember, subject, details string) {
	admin := domain.FindMemberByName(roster, uc.adminMember)
	if admin == nil || !admin.HasChatID() {
		fmt.Printf("[Digest] ESCALATION FAILED (admin %q unreachable): %s -- %s\n", uc.adminMember, subject, details)
		return
	}
	msg := fmt.Sprintf("[!] ESCALATION ALERT\n\nIssue: %s\n\n%s\n\nPlease take action.", subject, details)
	if uc.dryRun {
		fmt.Printf("[Digest] DRY-RUN escalation to %s:\n%s\n", admin.Name, msg)
		return
	}
	if err := uc.msgs.SendText(ctx, admin.ChatID, msg); err != nil {
		fmt.Printf("[Digest] Escalation delivery failed: %v\n", err)
	}
}
