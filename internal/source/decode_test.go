package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDecodeTags(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"list of strings", []any{"python", "web"}, []string{"python", "web"}},
		{"single string", "python", nil},
		{"null", nil, nil},
		{"number", 3.0, nil},
		{"mixed list", []any{"go", 7.0, nil, "cli"}, []string{"go", "cli"}},
		{"object", map[string]any{"a": "b"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeTags(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeTags(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeSnapshot_JSONToleratesMalformedFields(t *testing.T) {
	data := []byte(`{
		"items": [
			{"_id": "1", "title": "Intro to Python", "tags": ["python", "programming"]},
			{"_id": "2", "title": null, "tags": "cooking"},
			{"id": 3, "tags": null}
		],
		"users": [
			{"username": "alice", "feedback": [{"courseId": "1", "liked": true}, {"courseId": "2"}]},
			{"username": "bob"}
		]
	}`)

	snap, err := DecodeSnapshot(data, "json")
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if len(snap.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(snap.Items))
	}
	if snap.Items[1].Title != "" || len(snap.Items[1].Tags) != 0 {
		t.Errorf("item 2 = %+v, want empty title and tags", snap.Items[1])
	}
	if snap.Items[2].ID != "3" {
		t.Errorf("item 3 id = %q, want %q", snap.Items[2].ID, "3")
	}

	alice := snap.Users[0]
	if len(alice.Feedback) != 2 || !alice.Feedback[0].Liked || alice.Feedback[1].Liked {
		t.Errorf("alice feedback = %+v", alice.Feedback)
	}
	if len(snap.Users[1].Feedback) != 0 {
		t.Errorf("bob feedback = %+v, want none", snap.Users[1].Feedback)
	}
}

func TestDecodeSnapshot_YAML(t *testing.T) {
	data := []byte(`
items:
  - id: "10"
    title: Go Basics
    tags: [golang, backend]
  - id: "11"
    title: Baking
    tags: bread
users:
  - username: carol
    feedback:
      - itemId: "10"
        liked: true
`)
	snap, err := DecodeSnapshot(data, "yaml")
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if got := snap.Items[0].Tags; !reflect.DeepEqual(got, []string{"golang", "backend"}) {
		t.Errorf("tags = %v", got)
	}
	if len(snap.Items[1].Tags) != 0 {
		t.Errorf("scalar tags decoded as %v, want none", snap.Items[1].Tags)
	}
	if fb := snap.Users[0].Feedback[0]; fb.ItemID != "10" || !fb.Liked {
		t.Errorf("feedback = %+v", fb)
	}
}

func TestDecodeSnapshot_ExtendedJSONObjectIDs(t *testing.T) {
	data := []byte(`{
		"items": [
			{"_id": {"$oid": "64b7f0c2e1a4b5c6d7e8f718"}, "title": "Intro to Python", "tags": ["python"]}
		],
		"users": [
			{"username": "alice", "feedback": [{"courseId": {"$oid": "64b7f0c2e1a4b5c6d7e8f718"}, "liked": true}]}
		]
	}`)

	snap, err := DecodeSnapshot(data, "json")
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	const want = "64b7f0c2e1a4b5c6d7e8f718"
	if got := snap.Items[0].ID; got != want {
		t.Errorf("item id = %q, want %q", got, want)
	}
	if got := snap.Users[0].Feedback[0].ItemID; got != want {
		t.Errorf("feedback course id = %q, want %q", got, want)
	}
}

func TestDecodeString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "abc", "abc"},
		{"integral float", 42.0, "42"},
		{"fractional float", 1.5, "1.5"},
		{"int", 7, "7"},
		{"object id", map[string]any{"$oid": "64b7"}, "64b7"},
		{"other object", map[string]any{"id": "x"}, ""},
		{"null", nil, ""},
		{"bool", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeString(tt.in); got != tt.want {
				t.Errorf("DecodeString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeBool(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"true", true, true},
		{"false", false, false},
		{"null", nil, false},
		{"one", 1.0, true},
		{"zero", 0.0, false},
		{"yaml int", 1, true},
		{"string", "true", true},
		{"empty string", "", false},
		{"empty list", []any{}, false},
		{"object", map[string]any{"v": 1.0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeBool(tt.in); got != tt.want {
				t.Errorf("DecodeBool(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeSnapshot_UnsupportedFormat(t *testing.T) {
	if _, err := DecodeSnapshot([]byte("x"), "toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFile_MissingFileIsUnavailable(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing.json"))
	_, err := f.FetchItems(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFile_ReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.yaml")
	content := "items:\n  - id: a\n    title: Rust\nusers:\n  - username: dan\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFile(path)
	items, err := f.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	users, err := f.FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Rust" {
		t.Errorf("items = %+v", items)
	}
	if len(users) != 1 || users[0].Username != "dan" {
		t.Errorf("users = %+v", users)
	}
}

func TestMemory_Err(t *testing.T) {
	m := NewMemory(nil, nil)
	m.Err = errors.New("connection refused")
	if _, err := m.FetchUsers(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
