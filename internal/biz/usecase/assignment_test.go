package usecase

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/replyrota/replyrota/internal/biz/domain"
)

func testRoster(names ...string) []domain.TeamMember {
	var roster []domain.TeamMember
	for _, n := range names {
		roster = append(roster, domain.TeamMember{TeamID: "team-a", Name: n, Active: true})
	}
	return roster
}

func testComments(ids ...string) []domain.Comment {
	base := time.Unix(1700000000, 0)
	var comments []domain.Comment
	for i, id := range ids {
		comments = append(comments, domain.Comment{
			ID:      id,
			PostID:  "p1",
			Author:  "user_" + id,
			Created: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return comments
}

func TestAssignNextRoundRobin(t *testing.T) {
	uc := NewAssignmentUsecase()
	cursor := domain.NewRotationCursor()
	roster := testRoster("Alice", "Bob", "Carol")

	assignments, err := uc.AssignNext("team-a", testComments("c1", "c2", "c3", "c4"), roster, cursor, time.Now())
	if err != nil {
		t.Fatalf("AssignNext: %v", err)
	}

	var got []string
	for _, a := range assignments {
		got = append(got, a.Member.Name)
	}
	want := []string{"Alice", "Bob", "Carol", "Alice"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("assignment order = %v, want %v", got, want)
	}
	if cursor.Index("team-a") != 0 {
		t.Errorf("final index = %d, want 0", cursor.Index("team-a"))
	}
}

func TestAssignNextCyclesFairly(t *testing.T) {
	uc := NewAssignmentUsecase()
	cursor := domain.NewRotationCursor()
	roster := testRoster("Alice", "Bob", "Carol")

	var ids []string
	for i := 0; i < 9; i++ {
		ids = append(ids, string(rune('a'+i)))
	}
	assignments, err := uc.AssignNext("team-a", testComments(ids...), roster, cursor, time.Now())
	if err != nil {
		t.Fatalf("AssignNext: %v", err)
	}

	counts := map[string]int{}
	for _, a := range assignments {
		counts[a.Member.Name]++
	}
	for name, c := range counts {
		if c != 3 {
			t.Errorf("%s got %d assignments, want 3", name, c)
		}
	}
}

func TestAssignNextEmptyRosterLeavesCursorUntouched(t *testing.T) {
	uc := NewAssignmentUsecase()
	cursor := domain.NewRotationCursor()

	_, err := uc.AssignNext("team-a", testComments("c1"), nil, cursor, time.Now())
	var confErr *domain.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
	if cursor.Index("team-a") != -1 {
		t.Error("index mutated despite empty roster")
	}
	if cursor.HasSeen("c1") {
		t.Error("comment marked seen despite empty roster")
	}
}

func TestAssignNextMarksCommentsSeen(t *testing.T) {
	uc := NewAssignmentUsecase()
	cursor := domain.NewRotationCursor()
	seenAt := time.Unix(1700001000, 0)

	if _, err := uc.AssignNext("team-a", testComments("c1", "c2"), testRoster("Alice"), cursor, seenAt); err != nil {
		t.Fatalf("AssignNext: %v", err)
	}
	if !cursor.HasSeen("c1") || !cursor.HasSeen("c2") {
		t.Error("assigned comments should be recorded as seen")
	}
}

func TestAssignNextDeterministicReplay(t *testing.T) {
	uc := NewAssignmentUsecase()
	roster := testRoster("Alice", "Bob")
	comments := testComments("c1", "c2", "c3")
	seenAt := time.Unix(1700001000, 0)

	first := domain.NewRotationCursor()
	second := domain.NewRotationCursor()

	a1, err := uc.AssignNext("team-a", comments, roster, first, seenAt)
	if err != nil {
		t.Fatalf("AssignNext: %v", err)
	}
	a2, err := uc.AssignNext("team-a", comments, roster, second, seenAt)
	if err != nil {
		t.Fatalf("AssignNext: %v", err)
	}
	if !reflect.DeepEqual(a1, a2) {
		t.Error("same inputs should produce identical assignments")
	}
}

func TestFilterNewSkipsSeenComments(t *testing.T) {
	uc := NewAssignmentUsecase()
	cursor := domain.NewRotationCursor()
	now := time.Now()

	all := testComments("c1", "c2", "c3")
	cursor.MarkSeen(all[0], now)
	cursor.MarkSeen(all[1], now)

	fresh := uc.FilterNew(all, cursor)
	if len(fresh) != 1 || fresh[0].ID != "c3" {
		t.Errorf("FilterNew = %v, want [c3]", fresh)
	}
}

func TestFilterNewIsIdempotentAfterAssignment(t *testing.T) {
	uc := NewAssignmentUsecase()
	cursor := domain.NewRotationCursor()
	comments := testComments("c1", "c2")

	fresh := uc.FilterNew(comments, cursor)
	if _, err := uc.AssignNext("team-a", fresh, testRoster("Alice"), cursor, time.Now()); err != nil {
		t.Fatalf("AssignNext: %v", err)
	}

	if again := uc.FilterNew(comments, cursor); len(again) != 0 {
		t.Errorf("second FilterNew returned %d comments, want 0", len(again))
	}
}

func TestFilterNewExcludesPreWatermarkUnknowns(t *testing.T) {
	uc := NewAssignmentUsecase()
	cursor := domain.NewRotationCursor()
	base := time.Unix(1700000000, 0)

	// A trimmed id: gone from the dedup record but below the watermark.
	cursor.Watermarks["p1"] = base.Add(time.Hour).Unix()

	comments := []domain.Comment{
		{ID: "trimmed", PostID: "p1", Created: base},
		{ID: "at-watermark", PostID: "p1", Created: base.Add(time.Hour)},
		{ID: "after", PostID: "p1", Created: base.Add(2 * time.Hour)},
	}

	fresh := uc.FilterNew(comments, cursor)
	var ids []string
	for _, c := range fresh {
		ids = append(ids, c.ID)
	}
	want := []string{"at-watermark", "after"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("FilterNew = %v, want %v", ids, want)
	}
}

func TestFilterNewSortsByCreatedThenID(t *testing.T) {
	uc := NewAssignmentUsecase()
	cursor := domain.NewRotationCursor()
	base := time.Unix(1700000000, 0)

	comments := []domain.Comment{
		{ID: "z", PostID: "p1", Created: base},
		{ID: "a", PostID: "p1", Created: base},
		{ID: "m", PostID: "p1", Created: base.Add(-time.Minute)},
	}

	fresh := uc.FilterNew(comments, cursor)
	var ids []string
	for _, c := range fresh {
		ids = append(ids, c.ID)
	}
	want := []string{"m", "a", "z"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
}

func TestFilterNewDropsEmptyIDs(t *testing.T) {
	uc := NewAssignmentUsecase()
	cursor := domain.NewRotationCursor()

	comments := []domain.Comment{{ID: "", PostID: "p1", Created: time.Now()}}
	if fresh := uc.FilterNew(comments, cursor); len(fresh) != 0 {
		t.Errorf("FilterNew kept empty-id comment")
	}
}
