package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/learnnova/coursematch/internal/catalog"
	"github.com/learnnova/coursematch/internal/source"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding courses, users, and their feedback.
// It implements source.DataSource.
type Store struct {
	db *sql.DB
}

var _ source.DataSource = (*Store)(nil)

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "coursematch.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: ":memory:" databases are per-connection, and it avoids
	// "database is locked" on file databases.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies embedded SQL migrations that have not been recorded in
// schema_version yet, in ascending version order.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if err := s.inTx(context.Background(), func(tx *sql.Tx) error {
			if _, err := tx.Exec(string(content)); err != nil {
				return fmt.Errorf("applying migration %d: %w", version, err)
			}
			if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
				return fmt.Errorf("recording migration %d: %w", version, err)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// --- Courses ---

// UpsertCourse inserts a course or replaces the title and tags of an existing
// one. A replaced course keeps its catalog position.
func (s *Store) UpsertCourse(ctx context.Context, c Course) error {
	return upsertCourse(ctx, s.db, c)
}

func upsertCourse(ctx context.Context, ex execer, c Course) error {
	if c.ID == "" {
		return errors.New("course id is required")
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO courses (id, title, tags, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, tags = excluded.tags, updated_at = excluded.updated_at`,
		c.ID, c.Title, string(tagsJSON), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetCourse returns the course with the given id.
func (s *Store) GetCourse(ctx context.Context, id string) (Course, error) {
	var c Course
	var tags, updatedAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, title, tags, updated_at FROM courses WHERE id = ?`, id).
		Scan(&c.ID, &c.Title, &tags, &updatedAt)
	if err == sql.ErrNoRows {
		return Course{}, ErrNotFound
	}
	if err != nil {
		return Course{}, err
	}
	c.Tags = decodeTagsColumn(tags)
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Course{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return c, nil
}

// DeleteCourse removes a course. Feedback referencing it is left in place and
// simply stops resolving.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FetchItems returns every course in insertion order.
func (s *Store) FetchItems(ctx context.Context) ([]catalog.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, tags FROM courses ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying courses: %w", source.ErrUnavailable, err)
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		var it catalog.Item
		var tags string
		if err := rows.Scan(&it.ID, &it.Title, &tags); err != nil {
			return nil, fmt.Errorf("%w: scanning course: %w", source.ErrUnavailable, err)
		}
		it.Tags = decodeTagsColumn(tags)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrUnavailable, err)
	}
	return items, nil
}

// decodeTagsColumn reads the tags column leniently: anything that is not a
// JSON array of strings contributes no tags.
func decodeTagsColumn(s string) []string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return source.DecodeTags(v)
}

// --- Users and feedback ---

// SaveUser creates a user if it does not exist yet.
func (s *Store) SaveUser(ctx context.Context, username string) error {
	return saveUser(ctx, s.db, username)
}

func saveUser(ctx context.Context, ex execer, username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO users (username, created_at) VALUES (?, ?) ON CONFLICT(username) DO NOTHING`,
		username, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// SetFeedback records a user's vote on a course, replacing any earlier vote
// on the same course. The user must exist.
func (s *Store) SetFeedback(ctx context.Context, username string, fb source.Feedback) error {
	return setFeedback(ctx, s.db, username, fb)
}

func setFeedback(ctx context.Context, ex execer, username string, fb source.Feedback) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO feedback (username, course_id, liked, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(username, course_id) DO UPDATE SET liked = excluded.liked`,
		username, fb.ItemID, fb.Liked, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY") {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return err
}

// FetchUsers returns every user with their feedback, both in insertion order.
func (s *Store) FetchUsers(ctx context.Context) ([]source.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM users ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying users: %w", source.ErrUnavailable, err)
	}
	var users []source.User
	pos := make(map[string]int)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scanning user: %w", source.ErrUnavailable, err)
		}
		pos[name] = len(users)
		users = append(users, source.User{Username: name})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrUnavailable, err)
	}

	fbRows, err := s.db.QueryContext(ctx, `SELECT username, course_id, liked FROM feedback ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying feedback: %w", source.ErrUnavailable, err)
	}
	defer fbRows.Close()
	for fbRows.Next() {
		var name string
		var fb source.Feedback
		if err := fbRows.Scan(&name, &fb.ItemID, &fb.Liked); err != nil {
			return nil, fmt.Errorf("%w: scanning feedback: %w", source.ErrUnavailable, err)
		}
		if i, ok := pos[name]; ok {
			users[i].Feedback = append(users[i].Feedback, fb)
		}
	}
	if err := fbRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrUnavailable, err)
	}
	return users, nil
}

// --- Import and status ---

// Import writes a snapshot in one transaction. Items without an id get a
// generated one. Users are created as needed and their feedback upserted.
func (s *Store) Import(ctx context.Context, snap source.Snapshot) (ImportResult, error) {
	var res ImportResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, it := range snap.Items {
			c := Course{ID: it.ID, Title: it.Title, Tags: it.Tags}
			if c.ID == "" {
				c.ID = uuid.New().String()
				res.GeneratedIDs++
			}
			if err := upsertCourse(ctx, tx, c); err != nil {
				return fmt.Errorf("importing course %q: %w", c.ID, err)
			}
			res.Courses++
		}
		for _, u := range snap.Users {
			if u.Username == "" {
				continue
			}
			if err := saveUser(ctx, tx, u.Username); err != nil {
				return fmt.Errorf("importing user %q: %w", u.Username, err)
			}
			res.Users++
			for _, fb := range u.Feedback {
				if fb.ItemID == "" {
					continue
				}
				if err := setFeedback(ctx, tx, u.Username, fb); err != nil {
					return fmt.Errorf("importing feedback for %q: %w", u.Username, err)
				}
				res.Feedback++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// Counts returns the number of stored courses, users, and feedback rows.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM courses),
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM feedback)`).Scan(&c.Courses, &c.Users, &c.Feedback)
	return c, err
}
