package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
)

// updatesOffsetKey is the state key holding the next Telegram update id to
// fetch, so restarts never reprocess old messages.
const updatesOffsetKey = "telegram_updates_offset"

// Collector processes inbound Telegram messages and links members to their
// chat ids. A member runs /start once; their numeric chat id lands in the
// roster and the bot can notify them from then on.
type Collector struct {
	schedule repo.ScheduleRepo
	state    repo.StateRepo
	msgs     repo.MessageRepo
	dryRun   bool
}

// NewCollector creates a new collector
func NewCollector(schedule repo.ScheduleRepo, state repo.StateRepo, msgs repo.MessageRepo, dryRun bool) *Collector {
	return &Collector{
		schedule: schedule,
		state:    state,
		msgs:     msgs,
		dryRun:   dryRun,
	}
}

// ProcessUpdates drains pending Telegram updates and handles /start
// registrations. Returns the number of members linked.
func (c *Collector) ProcessUpdates(ctx context.Context) (int, error) {
	offsetRaw, err := c.state.Get(ctx, updatesOffsetKey)
	if err != nil {
		return 0, err
	}
	offset, _ := strconv.Atoi(offsetRaw)

	updates, err := c.msgs.Updates(ctx, offset)
	if err != nil {
		return 0, err
	}
	if len(updates) == 0 {
		return 0, nil
	}

	roster, err := c.schedule.Roster(ctx)
	if err != nil {
		return 0, &domain.ScheduleUnavailableError{Cause: err}
	}

	linked := 0
	maxUpdateID := offset
	for _, u := range updates {
		if u.UpdateID >= maxUpdateID {
			maxUpdateID = u.UpdateID + 1
		}
		if u.ChatID == "" || u.Text == "" {
			continue
		}

		if strings.HasPrefix(u.Text, "/start") {
			if c.handleStart(ctx, roster, u) {
				linked++
			}
			continue
		}

		c.send(ctx, u.ChatID,
			"I didn't understand that. Send /start to link your account so the bot can reach you.")
	}

	if !c.dryRun {
		if err := c.state.Set(ctx, updatesOffsetKey, strconv.Itoa(maxUpdateID)); err != nil {
			fmt.Printf("[Collector] Could not persist updates offset: %v\n", err)
		}
	}
	return linked, nil
}

// handleStart links the sender's chat id to their roster row, matched by
// Telegram username first, then by first name
func (c *Collector) handleStart(ctx context.Context, roster []domain.TeamMember, u repo.Update) bool {
	fmt.Printf("[Collector] /start from username=@%s first_name=%s chat_id=%s\n",
		u.Username, u.FirstName, u.ChatID)

	member := matchMember(roster, u)
	if member == nil {
		username := u.Username
		if username == "" {
			username = "(none)"
		}
		c.send(ctx, u.ChatID, fmt.Sprintf(
			"You are not mapped yet in the team sheet. Your Telegram username is @%s. Please share your @username with the admin.",
			username))
		return false
	}

	if !c.dryRun {
		if err := c.schedule.LinkMemberChatID(ctx, member.Name, u.ChatID); err != nil {
			fmt.Printf("[Collector] Could not link %s: %v\n", member.Name, err)
			return false
		}
	}
	c.send(ctx, u.ChatID, fmt.Sprintf(
		"Hi %s, your Telegram account is linked successfully!\n\nThe bot will now send your posting reminders and reply tasks here.",
		member.Name))
	return true
}

// matchMember finds the roster row for an inbound update. The sheet holds
// either a username or a plain name in member_name before linking.
func matchMember(roster []domain.TeamMember, u repo.Update) *domain.TeamMember {
	username := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(u.Username), "@"))
	firstName := strings.ToLower(strings.TrimSpace(u.FirstName))

	for i := range roster {
		name := strings.ToLower(strings.TrimPrefix(roster[i].Name, "@"))
		if username != "" && name == username {
			return &roster[i]
		}
	}
	if firstName != "" {
		for i := range roster {
			if strings.ToLower(roster[i].Name) == firstName {
				return &roster[i]
			}
		}
	}
	return nil
}

func (c *Collector) send(ctx context.Context, chatID, text string) {
	if c.dryRun {
		fmt.Printf("[Collector] DRY-RUN message to %s:\n%s\n", chatID, text)
		return
	}
	if err := c.msgs.SendText(ctx, chatID, text); err != nil {
		fmt.Printf("[Collector] Delivery to %s failed: %v\n", chatID, err)
	}
}
