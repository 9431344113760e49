package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/learnnova/coursematch/internal/catalog"
)

// Snapshot is the on-disk shape of a catalog and user export. Item and
// feedback records use the field names of the original course database
// ("_id", "courseId") and accept "id" / "itemId" as well.
type Snapshot struct {
	Items []catalog.Item
	Users []User
}

type rawItem struct {
	ID    any `json:"id" yaml:"id"`
	OID   any `json:"_id" yaml:"_id"`
	Title any `json:"title" yaml:"title"`
	Tags  any `json:"tags" yaml:"tags"`
}

type rawFeedback struct {
	CourseID any `json:"courseId" yaml:"courseId"`
	ItemID   any `json:"itemId" yaml:"itemId"`
	Liked    any `json:"liked" yaml:"liked"`
}

type rawUser struct {
	Username any           `json:"username" yaml:"username"`
	Feedback []rawFeedback `json:"feedback" yaml:"feedback"`
}

type rawSnapshot struct {
	Items []rawItem `json:"items" yaml:"items"`
	Users []rawUser `json:"users" yaml:"users"`
}

// DecodeSnapshot parses a JSON or YAML snapshot. format is "json" or "yaml".
func DecodeSnapshot(data []byte, format string) (Snapshot, error) {
	var raw rawSnapshot
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return Snapshot{}, fmt.Errorf("decoding json snapshot: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Snapshot{}, fmt.Errorf("decoding yaml snapshot: %w", err)
		}
	default:
		return Snapshot{}, fmt.Errorf("unsupported snapshot format %q", format)
	}

	snap := Snapshot{
		Items: make([]catalog.Item, 0, len(raw.Items)),
		Users: make([]User, 0, len(raw.Users)),
	}
	for _, ri := range raw.Items {
		id := DecodeString(ri.ID)
		if id == "" {
			id = DecodeString(ri.OID)
		}
		snap.Items = append(snap.Items, catalog.Item{
			ID:    id,
			Title: DecodeString(ri.Title),
			Tags:  DecodeTags(ri.Tags),
		})
	}
	for _, ru := range raw.Users {
		u := User{Username: DecodeString(ru.Username)}
		for _, rf := range ru.Feedback {
			id := DecodeString(rf.CourseID)
			if id == "" {
				id = DecodeString(rf.ItemID)
			}
			u.Feedback = append(u.Feedback, Feedback{ItemID: id, Liked: DecodeBool(rf.Liked)})
		}
		snap.Users = append(snap.Users, u)
	}
	return snap, nil
}

// DecodeTags turns a loosely typed tags value into a tag list. Anything other
// than a list yields nil; non-string list elements are skipped.
func DecodeTags(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(list))
	for _, el := range list {
		if s, ok := el.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

// DecodeString returns v as a string. nil yields "", numbers are formatted,
// an extended-JSON ObjectID ({"$oid": "..."}) yields its hex string, other
// values yield "".
func DecodeString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case map[string]any:
		if oid, ok := s["$oid"].(string); ok {
			return oid
		}
	case int:
		return fmt.Sprintf("%d", s)
	case int64:
		return fmt.Sprintf("%d", s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	}
	return ""
}

// DecodeBool reports whether v is truthy: true, a non-zero number, or a
// non-empty string, list or object.
func DecodeBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	case string:
		return b != ""
	case []any:
		return len(b) > 0
	case map[string]any:
		return len(b) > 0
	}
	return false
}
