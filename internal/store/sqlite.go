package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/prgate/prgate/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
// Records persist as one row per task with the full ledger body as JSON.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewID generates a new ULID string for first-time record creation.
func NewID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetState returns the ledger for a task, or nil when absent. A body that no
// longer parses as a state record is also treated as absent rather than
// surfaced, so the next pipeline run starts a fresh ledger.
func (s *SQLiteStore) GetState(ctx context.Context, task string) (*models.StateRecord, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM state_records WHERE task = ?", task,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	var rec models.StateRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, nil
	}
	if rec.ID == "" || rec.Task == "" {
		return nil, nil
	}
	return &rec, nil
}

// PutState upserts the full ledger body for a task.
func (s *SQLiteStore) PutState(ctx context.Context, rec *models.StateRecord, prNumber int) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO state_records (id, task, pr_number, status, iteration, body, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task) DO UPDATE SET
			pr_number = excluded.pr_number,
			status = excluded.status,
			iteration = excluded.iteration,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Task, prNumber, string(rec.Status), rec.Iteration, string(body), rec.StartedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	return nil
}

// ListStates returns summary rows for all persisted ledgers, most recently
// updated first.
func (s *SQLiteStore) ListStates(ctx context.Context) ([]StateSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task, pr_number, status, iteration, body, updated_at
		FROM state_records ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	var out []StateSummary
	for rows.Next() {
		var sum StateSummary
		var status, body string
		if err := rows.Scan(&sum.ID, &sum.Task, &sum.PRNumber, &status, &sum.Iteration, &body, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan state row: %w", err)
		}
		sum.Status = models.GateStatus(status)

		var rec models.StateRecord
		if err := json.Unmarshal([]byte(body), &rec); err == nil {
			sum.TotalUSD = rec.Cost.Total
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
