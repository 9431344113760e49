// Package source defines the read-only data source the recommender consumes
// and the in-memory and snapshot-file implementations of it.
package source

import (
	"context"
	"errors"

	"github.com/learnnova/coursematch/internal/catalog"
)

// ErrUnavailable marks a failure to reach or read the data source.
// Adapters wrap their underlying errors with it.
var ErrUnavailable = errors.New("data source unavailable")

// Feedback is a single liked / not-liked vote on a catalog item.
type Feedback struct {
	ItemID string `json:"courseId" yaml:"courseId"`
	Liked  bool   `json:"liked" yaml:"liked"`
}

// User is a user with the feedback they have given.
type User struct {
	Username string     `json:"username" yaml:"username"`
	Feedback []Feedback `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// DataSource returns snapshots of the catalog and the users.
type DataSource interface {
	FetchItems(ctx context.Context) ([]catalog.Item, error)
	FetchUsers(ctx context.Context) ([]User, error)
}

// Memory is a DataSource over fixed in-memory snapshots.
type Memory struct {
	Items []catalog.Item
	Users []User

	// Err, when set, is returned (wrapped in ErrUnavailable) by both fetches.
	Err error
}

// NewMemory returns a Memory source over the given snapshots.
func NewMemory(items []catalog.Item, users []User) *Memory {
	return &Memory{Items: items, Users: users}
}

func (m *Memory) FetchItems(ctx context.Context) ([]catalog.Item, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	return append([]catalog.Item(nil), m.Items...), nil
}

func (m *Memory) FetchUsers(ctx context.Context) ([]User, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	return append([]User(nil), m.Users...), nil
}

func (m *Memory) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	if m.Err != nil {
		return errors.Join(ErrUnavailable, m.Err)
	}
	return nil
}
