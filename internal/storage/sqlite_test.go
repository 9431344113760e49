package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/learnnova/coursematch/internal/catalog"
	"github.com/learnnova/coursematch/internal/source"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) == 0 || len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestParseMigrationVersion(t *testing.T) {
	if v, err := parseMigrationVersion("012_add_index.sql"); err != nil || v != 12 {
		t.Errorf("parseMigrationVersion = %d, %v; want 12, nil", v, err)
	}
	if _, err := parseMigrationVersion("init.sql"); err == nil {
		t.Error("expected error for unversioned file name")
	}
}

func TestUpsertAndGetCourse(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertCourse(ctx, Course{ID: "c1", Title: "Intro to Python", Tags: []string{"python"}}); err != nil {
		t.Fatalf("UpsertCourse: %v", err)
	}
	if err := s.UpsertCourse(ctx, Course{ID: "c2", Title: "Cooking"}); err != nil {
		t.Fatalf("UpsertCourse: %v", err)
	}
	if err := s.UpsertCourse(ctx, Course{ID: "c1", Title: "Python I", Tags: []string{"python", "basics"}}); err != nil {
		t.Fatalf("UpsertCourse (replace): %v", err)
	}

	got, err := s.GetCourse(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if got.Title != "Python I" || !reflect.DeepEqual(got.Tags, []string{"python", "basics"}) {
		t.Errorf("GetCourse = %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}

	items, err := s.FetchItems(ctx)
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	want := []catalog.Item{
		{ID: "c1", Title: "Python I", Tags: []string{"python", "basics"}},
		{ID: "c2", Title: "Cooking", Tags: []string{}},
	}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("FetchItems = %+v, want %+v", items, want)
	}
}

func TestUpsertCourseRequiresID(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertCourse(context.Background(), Course{Title: "x"}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestGetAndDeleteCourseNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetCourse(ctx, "missing"); err != ErrNotFound {
		t.Errorf("GetCourse error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCourse(ctx, "missing"); err != ErrNotFound {
		t.Errorf("DeleteCourse error = %v, want ErrNotFound", err)
	}
}

func TestFetchItemsMalformedTags(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, tags := range []string{`"python"`, `not json`, `[1, "go", null]`} {
		if _, err := s.db.Exec(`INSERT INTO courses (id, title, tags, updated_at) VALUES (?, 't', ?, '2025-01-01T00:00:00Z')`, tags, tags); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	items, err := s.FetchItems(ctx)
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	if len(items[0].Tags) != 0 || len(items[1].Tags) != 0 {
		t.Errorf("non-list tags decoded as %v / %v", items[0].Tags, items[1].Tags)
	}
	if !reflect.DeepEqual(items[2].Tags, []string{"go"}) {
		t.Errorf("mixed tags = %v, want [go]", items[2].Tags)
	}
}

func TestUsersAndFeedback(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "alice"} {
		if err := s.SaveUser(ctx, name); err != nil {
			t.Fatalf("SaveUser(%s): %v", name, err)
		}
	}
	if err := s.SetFeedback(ctx, "alice", source.Feedback{ItemID: "c1", Liked: false}); err != nil {
		t.Fatalf("SetFeedback: %v", err)
	}
	if err := s.SetFeedback(ctx, "alice", source.Feedback{ItemID: "c2", Liked: true}); err != nil {
		t.Fatalf("SetFeedback: %v", err)
	}
	if err := s.SetFeedback(ctx, "alice", source.Feedback{ItemID: "c1", Liked: true}); err != nil {
		t.Fatalf("SetFeedback (revote): %v", err)
	}

	users, err := s.FetchUsers(ctx)
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	want := []source.User{
		{Username: "alice", Feedback: []source.Feedback{{ItemID: "c1", Liked: true}, {ItemID: "c2", Liked: true}}},
		{Username: "bob"},
	}
	if !reflect.DeepEqual(users, want) {
		t.Errorf("FetchUsers = %+v, want %+v", users, want)
	}
}

func TestSetFeedbackUnknownUser(t *testing.T) {
	s := openTestStore(t)
	err := s.SetFeedback(context.Background(), "ghost", source.Feedback{ItemID: "c1", Liked: true})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestImportAndCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := source.Snapshot{
		Items: []catalog.Item{
			{ID: "1", Title: "Intro to Python", Tags: []string{"python", "programming"}},
			{Title: "Untitled import"},
		},
		Users: []source.User{
			{Username: "alice", Feedback: []source.Feedback{{ItemID: "1", Liked: true}, {ItemID: ""}}},
			{Username: ""},
		},
	}
	res, err := s.Import(ctx, snap)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res != (ImportResult{Courses: 2, GeneratedIDs: 1, Users: 1, Feedback: 1}) {
		t.Errorf("ImportResult = %+v", res)
	}

	items, err := s.FetchItems(ctx)
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if items[1].ID == "" {
		t.Error("generated id is empty")
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts != (Counts{Courses: 2, Users: 1, Feedback: 1}) {
		t.Errorf("Counts = %+v", counts)
	}
}

func TestFetchAfterCloseIsUnavailable(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	if _, err := s.FetchItems(context.Background()); !errors.Is(err, source.ErrUnavailable) {
		t.Errorf("FetchItems error = %v, want ErrUnavailable", err)
	}
	if _, err := s.FetchUsers(context.Background()); !errors.Is(err, source.ErrUnavailable) {
		t.Errorf("FetchUsers error = %v, want ErrUnavailable", err)
	}
}
