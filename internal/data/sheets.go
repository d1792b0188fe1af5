package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
	"github.com/replyrota/replyrota/internal/conf"
)

// Tab schemas. The first row of every tab is its header; tabs are created
// and headers rewritten on startup when they drift.
var (
	teamsHeaders = []string{"team_id", "member_name", "telegram_chat_id", "is_active"}
	postsHeaders = []string{
		"post_id", "team_id", "subreddit", "scheduled_date", "scheduled_time",
		"poster_member_name", "post_content", "reddit_post_url", "status", "last_notified_at",
	}
	replyQueueHeaders = []string{
		"reply_task_id", "post_id", "reddit_comment_id", "comment_author", "comment_url",
		"assigned_member_name", "reply_suggestion", "status", "created_at", "sent_at",
	}
	stateHeaders = []string{"state_key", "state_value", "updated_at"}
)

// SheetsClient wraps the Google Sheets API for one spreadsheet. It backs
// both the schedule repository and the sheet state repository.
type SheetsClient struct {
	svc           *sheets.Service
	spreadsheetID string
	cfg           conf.SheetsConfig
}

// NewSheetsClient creates a Sheets client from service account credentials
func NewSheetsClient(ctx context.Context, cfg conf.SheetsConfig) (*SheetsClient, error) {
	var svc *sheets.Service
	var err error

	if cfg.ServiceAccountJSON != "" {
		jwt, jwtErr := google.JWTConfigFromJSON([]byte(cfg.ServiceAccountJSON), sheets.SpreadsheetsScope)
		if jwtErr != nil {
			return nil, fmt.Errorf("failed to parse service account JSON: %w", jwtErr)
		}
		svc, err = sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	} else {
		svc, err = sheets.NewService(ctx,
			option.WithCredentialsFile(cfg.ServiceAccountPath),
			option.WithScopes(sheets.SpreadsheetsScope))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsClient{svc: svc, spreadsheetID: cfg.SpreadsheetID, cfg: cfg}, nil
}

// EnsureSchema creates missing tabs and rewrites drifted header rows
func (c *SheetsClient) EnsureSchema(ctx context.Context) error {
	mapping := map[string][]string{
		c.cfg.TeamsTab:      teamsHeaders,
		c.cfg.PostsTab:      postsHeaders,
		c.cfg.ReplyQueueTab: replyQueueHeaders,
		c.cfg.StateTab:      stateHeaders,
	}

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	existing := make(map[string]bool)
	for _, s := range meta.Sheets {
		existing[s.Properties.Title] = true
	}

	var requests []*sheets.Request
	for tab := range mapping {
		if !existing[tab] {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: tab},
				},
			})
		}
	}
	if len(requests) > 0 {
		_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to create tabs: %w", err)
		}
	}

	for tab, headers := range mapping {
		current, err := c.readAll(ctx, tab)
		if err != nil {
			return err
		}
		if len(current) > 0 && equalHeaders(current[0], headers) {
			continue
		}
		row := make([]interface{}, len(headers))
		for i, h := range headers {
			row[i] = h
		}
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, tab+"!A1", &sheets.ValueRange{
			Values: [][]interface{}{row},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write headers for %s: %w", tab, err)
		}
	}
	return nil
}

// readAll returns every cell of a tab as strings
func (c *SheetsClient) readAll(ctx context.Context, tab string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read tab %s: %w", tab, err)
	}
	var rows [][]string
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.TrimSpace(fmt.Sprint(cell))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// readRows returns a tab's data rows as header-keyed maps
func (c *SheetsClient) readRows(ctx context.Context, tab string) ([]map[string]string, error) {
	all, err := c.readAll(ctx, tab)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	headers := all[0]
	var rows []map[string]string
	for _, raw := range all[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(raw) {
				row[h] = raw[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// appendRow appends one row keyed by the tab's header order
func (c *SheetsClient) appendRow(ctx context.Context, tab string, headers []string, row map[string]string) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = row[h]
	}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, tab, &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", tab, err)
	}
	return nil
}

// updateRowsByID writes the given columns on every row whose idColumn
// matches idValue, returning the number of rows touched
func (c *SheetsClient) updateRowsByID(ctx context.Context, tab, idColumn, idValue string, updates map[string]string) (int, error) {
	all, err := c.readAll(ctx, tab)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}
	headers := all[0]

	idIdx := indexOf(headers, idColumn)
	if idIdx < 0 {
		return 0, fmt.Errorf("tab %s has no column %s", tab, idColumn)
	}

	var data []*sheets.ValueRange
	count := 0
	for rowNum, raw := range all[1:] {
		if idIdx >= len(raw) || raw[idIdx] != idValue {
			continue
		}
		count++
		for field, val := range updates {
			colIdx := indexOf(headers, field)
			if colIdx < 0 {
				continue
			}
			data = append(data, &sheets.ValueRange{
				Range:  fmt.Sprintf("%s!%s%d", tab, columnLetter(colIdx), rowNum+2),
				Values: [][]interface{}{{val}},
			})
		}
	}
	if len(data) == 0 {
		return count, nil
	}
	_, err = c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", tab, err)
	}
	return count, nil
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

// columnLetter converts a zero-based column index to A1 notation
func columnLetter(idx int) string {
	letter := ""
	idx++
	for idx > 0 {
		idx--
		letter = string(rune('A'+idx%26)) + letter
		idx /= 26
	}
	return letter
}

func equalHeaders(row []string, headers []string) bool {
	if len(row) < len(headers) {
		return false
	}
	for i, h := range headers {
		if row[i] != h {
			return false
		}
	}
	return true
}

func nowUTCISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// scheduleRepo implements the schedule repository on the spreadsheet
type scheduleRepo struct {
	client *SheetsClient
}

// NewScheduleRepo creates a spreadsheet-backed schedule repository
func NewScheduleRepo(client *SheetsClient) repo.ScheduleRepo {
	return &scheduleRepo{client: client}
}

// Roster returns all roster rows in sheet order
func (r *scheduleRepo) Roster(ctx context.Context) ([]domain.TeamMember, error) {
	rows, err := r.client.readRows(ctx, r.client.cfg.TeamsTab)
	if err != nil {
		return nil, err
	}
	var members []domain.TeamMember
	for _, row := range rows {
		name := row["member_name"]
		if name == "" {
			continue
		}
		members = append(members, domain.TeamMember{
			TeamID: row["team_id"],
			Name:   name,
			ChatID: row["telegram_chat_id"],
			Active: parseActive(row["is_active"]),
		})
	}
	return members, nil
}

// PostingPlan returns all posting plan rows in sheet order
func (r *scheduleRepo) PostingPlan(ctx context.Context) ([]domain.PostEntry, error) {
	rows, err := r.client.readRows(ctx, r.client.cfg.PostsTab)
	if err != nil {
		return nil, err
	}
	var posts []domain.PostEntry
	for _, row := range rows {
		if row["post_id"] == "" {
			continue
		}
		posts = append(posts, domain.PostEntry{
			ID:            row["post_id"],
			TeamID:        row["team_id"],
			Subreddit:     row["subreddit"],
			URL:           row["reddit_post_url"],
			PosterName:    row["poster_member_name"],
			Content:       row["post_content"],
			ScheduledDate: row["scheduled_date"],
			ScheduledTime: row["scheduled_time"],
			Status:        row["status"],
		})
	}
	return posts, nil
}

// ActivePosts returns the posting plan rows that should be polled
func (r *scheduleRepo) ActivePosts(ctx context.Context) ([]domain.PostEntry, error) {
	plan, err := r.PostingPlan(ctx)
	if err != nil {
		return nil, err
	}
	var active []domain.PostEntry
	for _, p := range plan {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active, nil
}

// LinkMemberChatID stores a member's Telegram chat id in the roster
func (r *scheduleRepo) LinkMemberChatID(ctx context.Context, memberName, chatID string) error {
	count, err := r.client.updateRowsByID(ctx, r.client.cfg.TeamsTab, "member_name", memberName,
		map[string]string{"telegram_chat_id": chatID})
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("member %q not found in roster", memberName)
	}
	return nil
}

// AppendReplyTask appends a dispatched assignment to the reply queue
func (r *scheduleRepo) AppendReplyTask(ctx context.Context, task domain.ReplyTask) error {
	sentAt := ""
	if !task.SentAt.IsZero() {
		sentAt = task.SentAt.UTC().Format(time.RFC3339)
	}
	return r.client.appendRow(ctx, r.client.cfg.ReplyQueueTab, replyQueueHeaders, map[string]string{
		"reply_task_id":        task.TaskID,
		"post_id":              task.PostID,
		"reddit_comment_id":    task.CommentID,
		"comment_author":       task.CommentAuthor,
		"comment_url":          task.CommentURL,
		"assigned_member_name": task.MemberName,
		"reply_suggestion":     task.Suggestion,
		"status":               task.Status,
		"created_at":           task.CreatedAt.UTC().Format(time.RFC3339),
		"sent_at":              sentAt,
	})
}

// RecentSuggestions returns prior reply suggestions grouped by post id
func (r *scheduleRepo) RecentSuggestions(ctx context.Context) (map[string][]string, error) {
	rows, err := r.client.readRows(ctx, r.client.cfg.ReplyQueueTab)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]string)
	for _, row := range rows {
		postID := row["post_id"]
		suggestion := row["reply_suggestion"]
		if postID != "" && suggestion != "" {
			result[postID] = append(result[postID], suggestion)
		}
	}
	return result, nil
}

// MarkPostStatus updates a posting plan row's status column
func (r *scheduleRepo) MarkPostStatus(ctx context.Context, postID, status string) error {
	_, err := r.client.updateRowsByID(ctx, r.client.cfg.PostsTab, "post_id", postID,
		map[string]string{"status": status})
	return err
}

// MarkPostNotified marks a post reminded and stamps the notify time
func (r *scheduleRepo) MarkPostNotified(ctx context.Context, postID string) error {
	_, err := r.client.updateRowsByID(ctx, r.client.cfg.PostsTab, "post_id", postID,
		map[string]string{
			"status":           domain.PostStatusReminded,
			"last_notified_at": nowUTCISO(),
		})
	return err
}

func parseActive(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "1", "true", "yes", "y", "active":
		return true
	}
	return false
}
