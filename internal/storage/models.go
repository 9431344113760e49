package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Course is a catalog row. Tags are kept as a JSON array in the database.
type Course struct {
	ID        string
	Title     string
	Tags      []string
	UpdatedAt time.Time
}

// Counts summarizes the stored rows.
type Counts struct {
	Courses  int `json:"courses"`
	Users    int `json:"users"`
	Feedback int `json:"feedback"`
}

// ImportResult reports what an import wrote.
type ImportResult struct {
	Courses      int
	GeneratedIDs int
	Users        int
	Feedback     int
}
