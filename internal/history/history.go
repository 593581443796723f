// Package history keeps a local log of the async jobs the CLI submits, so
// their results can be fetched after the command that started them exits.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pressly/goose/v3"

	"github.com/kittycad/kittycad-go/internal/pubsub"
	"github.com/kittycad/kittycad-go/shared"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var ErrNotFound = errors.New("job not found")

const defaultListLimit = 50

// Job is one submitted async operation. ID is the API operation id.
type Job struct {
	ID        string
	Kind      string
	Status    shared.ApiCallStatus
	Input     string
	Output    string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Service interface {
	pubsub.Subscriber[Job]

	Record(ctx context.Context, job Job) (Job, error)
	UpdateStatus(ctx context.Context, id string, status shared.ApiCallStatus, output, errMsg string) (Job, error)
	Get(ctx context.Context, id string) (Job, error)
	List(ctx context.Context, limit int) ([]Job, error)
	Close() error
}

type service struct {
	db     *sql.DB
	owned  bool
	broker *pubsub.Broker[Job]
	mu     sync.RWMutex
	now    func() time.Time
}

// Open opens, creating if needed, the database at path and migrates it.
func Open(ctx context.Context, path string) (Service, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	s, err := newService(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New migrates an already open database. Close leaves db open.
func New(ctx context.Context, db *sql.DB) (Service, error) {
	return newService(ctx, db)
}

func newService(ctx context.Context, db *sql.DB) (*service, error) {
	if err := migrate(ctx, db); err != nil {
		return nil, err
	}
	return &service{
		db:     db,
		broker: pubsub.NewBroker[Job](),
		now:    time.Now,
	}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose.NewProvider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}
	return nil
}

// Record inserts job, or replaces the stored copy when the id was seen
// before. CreatedAt is kept from the first record.
func (s *service) Record(ctx context.Context, job Job) (Job, error) {
	if job.ID == "" {
		return Job{}, errors.New("job id is required")
	}
	now := s.now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	s.mu.Lock()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO jobs (id, kind, status, input, output, error, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    kind = excluded.kind,
    status = excluded.status,
    input = excluded.input,
    output = excluded.output,
    error = excluded.error,
    updated_at = excluded.updated_at`,
		job.ID, job.Kind, string(job.Status), job.Input, job.Output, job.Error,
		job.CreatedAt.UnixMilli(), job.UpdatedAt.UnixMilli())
	s.mu.Unlock()
	if err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}

	stored, err := s.Get(ctx, job.ID)
	if err != nil {
		return Job{}, err
	}
	s.broker.Publish(pubsub.JobRecorded, stored)
	return stored, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status shared.ApiCallStatus, output, errMsg string) (Job, error) {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, output = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), output, errMsg, s.now().UTC().UnixMilli(), id)
	s.mu.Unlock()
	if err != nil {
		return Job{}, fmt.Errorf("update job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}
	event := pubsub.JobUpdated
	if job.Status.IsTerminal() {
		event = pubsub.JobFinished
	}
	s.broker.Publish(event, job)
	return job, nil
}

const selectJob = `SELECT id, kind, status, input, output, error, created_at, updated_at FROM jobs`

func (s *service) Get(ctx context.Context, id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, selectJob+` WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns the newest jobs first. A limit of zero or less uses 50.
func (s *service) List(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, selectJob+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *service) Subscribe(ctx context.Context) <-chan pubsub.Event[Job] {
	return s.broker.Subscribe(ctx)
}

func (s *service) Close() error {
	s.broker.Shutdown()
	if s.owned {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (Job, error) {
	var (
		job                  Job
		status               string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&job.ID, &job.Kind, &status, &job.Input, &job.Output, &job.Error, &createdAt, &updatedAt); err != nil {
		return Job{}, err
	}
	job.Status = shared.ApiCallStatus(status)
	job.CreatedAt = time.UnixMilli(createdAt).UTC()
	job.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return job, nil
}
