package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remindbot/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the durable Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.Database) (*PostgresStore, error) {
	pc, err := pgxpool.ParseConfig(fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode,
	))
	if err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// Configure connection pool and statement cache
	pc.MaxConns = 10
	pc.MinConns = 2
	pc.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Create(ctx context.Context, text string, dueAt *time.Time, dueDisplay string, priority Priority) (int64, error) {
	query := `
		INSERT INTO tasks (text, due_display, due_at, priority)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query, text, dueDisplay, dueAt, string(priority)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error creating task: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Task, error) {
	query := `
		SELECT id, text, due_display, due_at, priority, completed, created_at, completed_at
		FROM tasks
		WHERE id = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting task %d: %w", id, err)
	}
	return t, nil
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]Task, error) {
	query := `
		SELECT id, text, due_display, due_at, priority, completed, created_at, completed_at
		FROM tasks
		WHERE NOT completed
		ORDER BY
			CASE priority
				WHEN 'high' THEN 1
				WHEN 'medium' THEN 2
				WHEN 'low' THEN 3
			END,
			due_at ASC NULLS LAST,
			id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing pending tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *PostgresStore) ListOverdue(ctx context.Context, asOf time.Time) ([]Task, error) {
	query := `
		SELECT id, text, due_display, due_at, priority, completed, created_at, completed_at
		FROM tasks
		WHERE NOT completed
		AND due_at IS NOT NULL
		AND due_at < $1
		ORDER BY due_at ASC`

	rows, err := s.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("error listing overdue tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// Complete relies on the conditional WHERE to make the pending->completed
// transition atomic under concurrent callers.
func (s *PostgresStore) Complete(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE tasks
		SET completed = TRUE, completed_at = now()
		WHERE id = $1 AND NOT completed`

	ct, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("error completing task %d: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) (bool, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("error deleting task %d: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

func scanTask(row pgx.Row) (*Task, error) {
	t := &Task{}
	var priority string
	err := row.Scan(
		&t.ID,
		&t.Text,
		&t.DueDisplay,
		&t.DueAt,
		&priority,
		&t.Completed,
		&t.CreatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = ParsePriority(priority)
	return t, nil
}

func collectTasks(rows pgx.Rows) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
