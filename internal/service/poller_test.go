package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
	"github.com/replyrota/replyrota/internal/biz/usecase"
)

// Mock implementations

type mockScheduleRepo struct {
	roster []domain.TeamMember
	plan   []domain.PostEntry

	tasks    []domain.ReplyTask
	statuses map[string]string
	linked   map[string]string
}

func (m *mockScheduleRepo) Roster(ctx context.Context) ([]domain.TeamMember, error) {
	return m.roster, nil
}

func (m *mockScheduleRepo) PostingPlan(ctx context.Context) ([]domain.PostEntry, error) {
	return m.plan, nil
}

func (m *mockScheduleRepo) ActivePosts(ctx context.Context) ([]domain.PostEntry, error) {
	var active []domain.PostEntry
	for _, p := range m.plan {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active, nil
}

func (m *mockScheduleRepo) LinkMemberChatID(ctx context.Context, memberName, chatID string) error {
	if m.linked == nil {
		m.linked = map[string]string{}
	}
	m.linked[memberName] = chatID
	return nil
}

func (m *mockScheduleRepo) AppendReplyTask(ctx context.Context, task domain.ReplyTask) error {
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockScheduleRepo) RecentSuggestions(ctx context.Context) (map[string][]string, error) {
	return map[string][]string{}, nil
}

func (m *mockScheduleRepo) MarkPostStatus(ctx context.Context, postID, status string) error {
	if m.statuses == nil {
		m.statuses = map[string]string{}
	}
	m.statuses[postID] = status
	return nil
}

func (m *mockScheduleRepo) MarkPostNotified(ctx context.Context, postID string) error {
	return nil
}

type mockStateRepo struct {
	cursor  *domain.RotationCursor
	values  map[string]string
	saveErr error
	saves   int
}

func (m *mockStateRepo) LoadCursor(ctx context.Context) (*domain.RotationCursor, error) {
	if m.cursor == nil {
		m.cursor = domain.NewRotationCursor()
	}
	return m.cursor, nil
}

func (m *mockStateRepo) SaveCursor(ctx context.Context, cursor *domain.RotationCursor) error {
	if m.saveErr != nil {
		return &domain.StatePersistError{Cause: m.saveErr}
	}
	m.saves++
	m.cursor = cursor.Clone()
	return nil
}

func (m *mockStateRepo) Get(ctx context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *mockStateRepo) Set(ctx context.Context, key, value string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *mockStateRepo) Close() error { return nil }

type mockForumRepo struct {
	comments map[string][]domain.Comment
	dead     map[string]bool
	fetchErr map[string]error
}

func (m *mockForumRepo) PostContext(ctx context.Context, postURL string) (*repo.PostContext, error) {
	return &repo.PostContext{ID: postURL, Title: "a title", Body: "a body"}, nil
}

func (m *mockForumRepo) FetchComments(ctx context.Context, postURL string) ([]domain.Comment, error) {
	if err := m.fetchErr[postURL]; err != nil {
		return nil, err
	}
	return m.comments[postURL], nil
}

func (m *mockForumRepo) IsPostAlive(ctx context.Context, postURL string) (bool, error) {
	return !m.dead[postURL], nil
}

type sentMessage struct {
	ChatID string
	Text   string
}

type mockMessageRepo struct {
	sent    []sentMessage
	failFor map[string]bool
	updates []repo.Update
}

func (m *mockMessageRepo) SendText(ctx context.Context, chatID, text string) error {
	if m.failFor[chatID] {
		return &domain.DeliveryError{ChatID: chatID, Cause: errors.New("blocked")}
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *mockMessageRepo) Updates(ctx context.Context, offset int) ([]repo.Update, error) {
	var pending []repo.Update
	for _, u := range m.updates {
		if u.UpdateID >= offset {
			pending = append(pending, u)
		}
	}
	return pending, nil
}

func (m *mockMessageRepo) Me(ctx context.Context) (*repo.BotIdentity, error) {
	return &repo.BotIdentity{ID: 1, Username: "testbot"}, nil
}

type fixedDraftRepo struct {
	reply string
	err   error
}

func (m *fixedDraftRepo) Suggest(ctx context.Context, post *repo.PostContext, comment domain.Comment, recent []string) (string, error) {
	return m.reply, m.err
}

// Helpers

func testComment(id string, offset time.Duration) domain.Comment {
	return domain.Comment{
		ID:      id,
		Author:  "commenter_" + id,
		URL:     "https://reddit.example/c/" + id,
		Created: time.Unix(1700000000, 0).Add(offset),
	}
}

func newTestPoller(schedule *mockScheduleRepo, state *mockStateRepo, forum *mockForumRepo, msgs *mockMessageRepo, draft repo.DraftRepo) *Poller {
	return NewPoller(schedule, state, forum, msgs,
		usecase.NewDraftUsecase(draft), "Alpha", 14*24*time.Hour, false)
}

func TestRunCycleDispatchesRoundRobin(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{
			{TeamID: "t1", Name: "Alice", ChatID: "100", Active: true},
			{TeamID: "t1", Name: "Bob", ChatID: "200", Active: true},
		},
		plan: []domain.PostEntry{
			{ID: "p1", TeamID: "t1", URL: "https://reddit.example/p1", Status: domain.PostStatusPosted},
		},
	}
	state := &mockStateRepo{}
	forum := &mockForumRepo{comments: map[string][]domain.Comment{
		"https://reddit.example/p1": {testComment("c1", 0), testComment("c2", time.Minute), testComment("c3", 2*time.Minute)},
	}}
	msgs := &mockMessageRepo{}
	p := newTestPoller(schedule, state, forum, msgs, &fixedDraftRepo{reply: "yeah that's a reasonable take on it"})

	stats, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if stats.Dispatched != 3 {
		t.Errorf("dispatched = %d, want 3", stats.Dispatched)
	}

	var chats []string
	for _, s := range msgs.sent {
		chats = append(chats, s.ChatID)
	}
	want := []string{"100", "200", "100"}
	if len(chats) != len(want) {
		t.Fatalf("sent %d messages, want %d", len(chats), len(want))
	}
	for i := range want {
		if chats[i] != want[i] {
			t.Errorf("message %d went to %s, want %s", i, chats[i], want[i])
		}
	}
	if len(schedule.tasks) != 3 {
		t.Errorf("logged %d tasks, want 3", len(schedule.tasks))
	}
	if state.saves == 0 {
		t.Error("cursor never persisted")
	}
}

func TestRunCycleSecondRunIsIdempotent(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{TeamID: "t1", Name: "Alice", ChatID: "100", Active: true}},
		plan: []domain.PostEntry{
			{ID: "p1", TeamID: "t1", URL: "https://reddit.example/p1", Status: domain.PostStatusPosted},
		},
	}
	state := &mockStateRepo{}
	forum := &mockForumRepo{comments: map[string][]domain.Comment{
		"https://reddit.example/p1": {testComment("c1", 0)},
	}}
	msgs := &mockMessageRepo{}
	p := newTestPoller(schedule, state, forum, msgs, &fixedDraftRepo{reply: "interesting, i had the opposite experience"})

	if _, err := p.RunCycle(context.Background()); err != nil {
		t.Fatalf("first RunCycle: %v", err)
	}
	stats, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second RunCycle: %v", err)
	}
	if stats.Dispatched != 0 {
		t.Errorf("second run dispatched %d, want 0", stats.Dispatched)
	}
	if len(msgs.sent) != 1 {
		t.Errorf("total messages = %d, want 1", len(msgs.sent))
	}
}

func TestRunCyclePerPostFailureIsolation(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{TeamID: "t1", Name: "Alice", ChatID: "100", Active: true}},
		plan: []domain.PostEntry{
			{ID: "p1", TeamID: "t1", URL: "https://reddit.example/p1", Status: domain.PostStatusPosted},
			{ID: "p2", TeamID: "t1", URL: "https://reddit.example/p2", Status: domain.PostStatusPosted},
		},
	}
	state := &mockStateRepo{}
	forum := &mockForumRepo{
		comments: map[string][]domain.Comment{
			"https://reddit.example/p2": {testComment("c1", 0)},
		},
		fetchErr: map[string]error{
			"https://reddit.example/p1": errors.New("rate limited"),
		},
	}
	msgs := &mockMessageRepo{}
	p := newTestPoller(schedule, state, forum, msgs, &fixedDraftRepo{reply: "good question, depends a lot on the workload"})

	stats, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if stats.Dispatched != 1 {
		t.Errorf("dispatched = %d, want 1 (p2 should survive p1's failure)", stats.Dispatched)
	}
}

func TestRunCycleMarksDeletedPost(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{
			{TeamID: "t1", Name: "Alice", ChatID: "100", Active: true},
			{TeamID: "t1", Name: "Alpha", ChatID: "900", Active: true},
		},
		plan: []domain.PostEntry{
			{ID: "p1", TeamID: "t1", URL: "https://reddit.example/p1", Status: domain.PostStatusPosted},
		},
	}
	state := &mockStateRepo{}
	forum := &mockForumRepo{dead: map[string]bool{"https://reddit.example/p1": true}}
	msgs := &mockMessageRepo{}
	p := newTestPoller(schedule, state, forum, msgs, &fixedDraftRepo{reply: "n/a"})

	if _, err := p.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if schedule.statuses["p1"] != domain.PostStatusDeleted {
		t.Errorf("post status = %q, want deleted", schedule.statuses["p1"])
	}
	if len(msgs.sent) != 1 || msgs.sent[0].ChatID != "900" {
		t.Fatalf("sent = %v, want escalation to Alpha", msgs.sent)
	}
	if !strings.Contains(msgs.sent[0].Text, "deleted") {
		t.Errorf("escalation text: %q", msgs.sent[0].Text)
	}
}

func TestRunCycleEmptyRosterAbortsWithoutMutation(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{TeamID: "t2", Name: "Dana", ChatID: "400", Active: true}},
		plan: []domain.PostEntry{
			{ID: "p1", TeamID: "t1", URL: "https://reddit.example/p1", Status: domain.PostStatusPosted},
		},
	}
	state := &mockStateRepo{}
	forum := &mockForumRepo{comments: map[string][]domain.Comment{
		"https://reddit.example/p1": {testComment("c1", 0)},
	}}
	msgs := &mockMessageRepo{}
	p := newTestPoller(schedule, state, forum, msgs, &fixedDraftRepo{reply: "n/a"})

	_, err := p.RunCycle(context.Background())
	var confErr *domain.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
	if state.cursor.HasSeen("c1") {
		t.Error("cursor mutated despite empty eligible roster")
	}
	if state.saves != 0 {
		t.Error("cursor persisted despite aborted cycle")
	}
}

func TestRunCycleUnlinkedMemberEscalatesButRecordsSeen(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{
			{TeamID: "t1", Name: "Alice", ChatID: "", Active: true},
			{TeamID: "t1", Name: "Alpha", ChatID: "900", Active: true},
		},
		plan: []domain.PostEntry{
			{ID: "p1", TeamID: "t1", URL: "https://reddit.example/p1", Status: domain.PostStatusPosted},
		},
	}
	state := &mockStateRepo{}
	forum := &mockForumRepo{comments: map[string][]domain.Comment{
		"https://reddit.example/p1": {testComment("c1", 0)},
	}}
	msgs := &mockMessageRepo{}
	p := newTestPoller(schedule, state, forum, msgs, &fixedDraftRepo{reply: "fair enough, that tracks with what i saw"})

	stats, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if stats.Escalated == 0 {
		t.Error("expected an escalation for the unlinked member")
	}
	if !state.cursor.HasSeen("c1") {
		t.Error("comment should stay recorded so it is not silently retried")
	}
	if len(schedule.tasks) != 1 || schedule.tasks[0].Status != domain.TaskStatusSkipped {
		t.Errorf("tasks = %v, want one skipped task", schedule.tasks)
	}
}

func TestRunCyclePersistFailureIsNonFatal(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{TeamID: "t1", Name: "Alice", ChatID: "100", Active: true}},
		plan: []domain.PostEntry{
			{ID: "p1", TeamID: "t1", URL: "https://reddit.example/p1", Status: domain.PostStatusPosted},
		},
	}
	state := &mockStateRepo{saveErr: errors.New("quota exceeded")}
	forum := &mockForumRepo{comments: map[string][]domain.Comment{
		"https://reddit.example/p1": {testComment("c1", 0)},
	}}
	msgs := &mockMessageRepo{}
	p := newTestPoller(schedule, state, forum, msgs, &fixedDraftRepo{reply: "makes sense when you put it that way"})

	stats, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle should not fail on persist error, got %v", err)
	}
	if stats.Dispatched != 1 {
		t.Errorf("dispatched = %d, want 1", stats.Dispatched)
	}
}

func TestRunCycleDraftFailureStillNotifies(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{TeamID: "t1", Name: "Alice", ChatID: "100", Active: true}},
		plan: []domain.PostEntry{
			{ID: "p1", TeamID: "t1", URL: "https://reddit.example/p1", Status: domain.PostStatusPosted},
		},
	}
	state := &mockStateRepo{}
	forum := &mockForumRepo{comments: map[string][]domain.Comment{
		"https://reddit.example/p1": {testComment("c1", 0)},
	}}
	msgs := &mockMessageRepo{}
	p := newTestPoller(schedule, state, forum, msgs, &fixedDraftRepo{err: errors.New("model unavailable")})

	stats, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if stats.Dispatched != 1 {
		t.Errorf("dispatched = %d, want 1", stats.Dispatched)
	}
	if len(msgs.sent) != 1 || !strings.Contains(msgs.sent[0].Text, usecase.FallbackReply) {
		t.Errorf("member should receive the fallback reply, got %v", msgs.sent)
	}
}

func TestRunCycleDryRunWritesNothing(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{TeamID: "t1", Name: "Alice", ChatID: "100", Active: true}},
		plan: []domain.PostEntry{
			{ID: "p1", TeamID: "t1", URL: "https://reddit.example/p1", Status: domain.PostStatusPosted},
		},
	}
	state := &mockStateRepo{}
	forum := &mockForumRepo{comments: map[string][]domain.Comment{
		"https://reddit.example/p1": {testComment("c1", 0)},
	}}
	msgs := &mockMessageRepo{}
	p := NewPoller(schedule, state, forum, msgs,
		usecase.NewDraftUsecase(&fixedDraftRepo{reply: "that's fair, i'd probably do the same"}),
		"Alpha", 14*24*time.Hour, true)

	stats, err := p.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if stats.Dispatched != 1 {
		t.Errorf("dispatched = %d, want 1", stats.Dispatched)
	}
	if len(msgs.sent) != 0 {
		t.Errorf("dry run sent messages: %v", msgs.sent)
	}
	if len(schedule.tasks) != 0 {
		t.Errorf("dry run logged tasks: %v", schedule.tasks)
	}
	if state.saves != 0 {
		t.Error("dry run persisted the cursor")
	}
}
