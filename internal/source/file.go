package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/learnnova/coursematch/internal/catalog"
)

// File is a DataSource reading a JSON or YAML snapshot from disk. The file is
// re-read on every fetch, so each run sees the current contents.
type File struct {
	path string
}

// NewFile returns a File source for path. The format is taken from the
// extension: .yaml/.yml for YAML, anything else is read as JSON.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) FetchItems(ctx context.Context) ([]catalog.Item, error) {
	snap, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

func (f *File) FetchUsers(ctx context.Context) ([]User, error) {
	snap, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Users, nil
}

func (f *File) load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, errors.Join(ErrUnavailable, err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: reading snapshot: %w", ErrUnavailable, err)
	}
	snap, err := DecodeSnapshot(data, FormatOf(f.path))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return snap, nil
}

// FormatOf returns the snapshot format implied by a file name.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}
