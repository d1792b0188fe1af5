package service

import (
	"context"
	"strings"
	"testing"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
)

func TestProcessUpdatesLinksByUsername(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{TeamID: "t1", Name: "alice_dev", Active: true}},
	}
	state := &mockStateRepo{}
	msgs := &mockMessageRepo{updates: []repo.Update{
		{UpdateID: 10, ChatID: "100", Username: "alice_dev", FirstName: "Alice", Text: "/start"},
	}}
	c := NewCollector(schedule, state, msgs, false)

	linked, err := c.ProcessUpdates(context.Background())
	if err != nil {
		t.Fatalf("ProcessUpdates: %v", err)
	}
	if linked != 1 {
		t.Errorf("linked = %d, want 1", linked)
	}
	if schedule.linked["alice_dev"] != "100" {
		t.Errorf("linked map = %v", schedule.linked)
	}
	if len(msgs.sent) != 1 || !strings.Contains(msgs.sent[0].Text, "linked successfully") {
		t.Errorf("sent = %v", msgs.sent)
	}
	if state.values[updatesOffsetKey] != "11" {
		t.Errorf("offset = %q, want 11", state.values[updatesOffsetKey])
	}
}

func TestProcessUpdatesFallsBackToFirstName(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{TeamID: "t1", Name: "Bob", Active: true}},
	}
	state := &mockStateRepo{}
	msgs := &mockMessageRepo{updates: []repo.Update{
		{UpdateID: 5, ChatID: "200", Username: "some_handle", FirstName: "Bob", Text: "/start"},
	}}
	c := NewCollector(schedule, state, msgs, false)

	linked, err := c.ProcessUpdates(context.Background())
	if err != nil {
		t.Fatalf("ProcessUpdates: %v", err)
	}
	if linked != 1 || schedule.linked["Bob"] != "200" {
		t.Errorf("linked = %d, map = %v", linked, schedule.linked)
	}
}

func TestProcessUpdatesUnknownSenderGetsGuidance(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{TeamID: "t1", Name: "Alice", Active: true}},
	}
	state := &mockStateRepo{}
	msgs := &mockMessageRepo{updates: []repo.Update{
		{UpdateID: 1, ChatID: "300", Username: "stranger", FirstName: "Sam", Text: "/start"},
	}}
	c := NewCollector(schedule, state, msgs, false)

	linked, err := c.ProcessUpdates(context.Background())
	if err != nil {
		t.Fatalf("ProcessUpdates: %v", err)
	}
	if linked != 0 {
		t.Errorf("linked = %d, want 0", linked)
	}
	if len(msgs.sent) != 1 || !strings.Contains(msgs.sent[0].Text, "not mapped yet") {
		t.Errorf("sent = %v", msgs.sent)
	}
}

func TestProcessUpdatesAdvancesPastNonCommands(t *testing.T) {
	schedule := &mockScheduleRepo{roster: []domain.TeamMember{{Name: "Alice", Active: true}}}
	state := &mockStateRepo{}
	msgs := &mockMessageRepo{updates: []repo.Update{
		{UpdateID: 7, ChatID: "100", Username: "x", Text: "hello there"},
	}}
	c := NewCollector(schedule, state, msgs, false)

	if _, err := c.ProcessUpdates(context.Background()); err != nil {
		t.Fatalf("ProcessUpdates: %v", err)
	}
	if state.values[updatesOffsetKey] != "8" {
		t.Errorf("offset = %q, want 8", state.values[updatesOffsetKey])
	}
	if len(msgs.sent) != 1 || !strings.Contains(msgs.sent[0].Text, "/start") {
		t.Errorf("sent = %v, want guidance mentioning /start", msgs.sent)
	}
}

func TestProcessUpdatesDryRunSkipsWrites(t *testing.T) {
	schedule := &mockScheduleRepo{
		roster: []domain.TeamMember{{Name: "alice_dev", Active: true}},
	}
	state := &mockStateRepo{}
	msgs := &mockMessageRepo{updates: []repo.Update{
		{UpdateID: 3, ChatID: "100", Username: "alice_dev", Text: "/start"},
	}}
	c := NewCollector(schedule, state, msgs, true)

	linked, err := c.ProcessUpdates(context.Background())
	if err != nil {
		t.Fatalf("ProcessUpdates: %v", err)
	}
	if linked != 1 {
		t.Errorf("linked = %d, want 1", linked)
	}
	if len(schedule.linked) != 0 {
		t.Errorf("dry run wrote to roster: %v", schedule.linked)
	}
	if _, ok := state.values[updatesOffsetKey]; ok {
		t.Error("dry run persisted the offset")
	}
}
