package internal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/tavsec/gin-healthcheck/checks"

	"github.com/rm-hull/api-pgd-client/internal/models"
)

//go:embed sql/enqueue.sql
var enqueueSQL string

//go:embed sql/pending.sql
var pendingSQL string

//go:embed sql/mark_sent.sql
var markSentSQL string

//go:embed sql/mark_failed.sql
var markFailedSQL string

//go:embed sql/summary.sql
var summarySQL string

// MAX_ATTEMPTS is the number of failed uploads after which an entry stops
// being retried.
const MAX_ATTEMPTS = 5

type OutboxRepository interface {
	Enqueue(batch []models.OutboxEntry) (int, error)
	Pending(limit int) ([]models.OutboxEntry, error)
	MarkSent(id int64, response string) error
	MarkFailed(id int64, errMsg string) error
	Summary() ([]models.OutboxCount, error)
	Check() checks.Check
	Close() error
}

type sqliteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &sqliteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (repo *sqliteRepository) Enqueue(batch []models.OutboxEntry) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := repo.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("error rolling back transaction: %v", rbErr)
			}
		}
	}()

	stmt, err := tx.Prepare(enqueueSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Printf("failed to close statement: %v", err)
		}
	}()

	now := repo.now()
	for _, entry := range batch {
		_, err = stmt.Exec(entry.ToTuple(now)...)
		if err != nil {
			return 0, fmt.Errorf("failed to enqueue %s %s: %w", entry.Kind, entry.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(batch), nil
}

func (repo *sqliteRepository) Pending(limit int) ([]models.OutboxEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := repo.db.Query(pendingSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute pending query: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var results []models.OutboxEntry
	for rows.Next() {
		var entry models.OutboxEntry
		if err := rows.Scan(
			&entry.ID, &entry.Kind, &entry.Key, &entry.Payload, &entry.Status, &entry.Attempts,
			&entry.LastError, &entry.Response, &entry.CreatedAt, &entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return results, nil
}

func (repo *sqliteRepository) MarkSent(id int64, response string) error {
	return repo.update("mark entry sent", markSentSQL, response, repo.now(), id)
}

func (repo *sqliteRepository) MarkFailed(id int64, errMsg string) error {
	return repo.update("mark entry failed", markFailedSQL, MAX_ATTEMPTS, errMsg, repo.now(), id)
}

func (repo *sqliteRepository) update(action, query string, args ...any) error {
	result, err := repo.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s: no entry with id %v", action, args[len(args)-1])
	}
	return nil
}

func (repo *sqliteRepository) Summary() ([]models.OutboxCount, error) {
	rows, err := repo.db.Query(summarySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to execute summary query: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	counts := make([]models.OutboxCount, 0)
	for rows.Next() {
		var count models.OutboxCount
		if err := rows.Scan(&count.Kind, &count.Status, &count.Attempts, &count.Count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		counts = append(counts, count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return counts, nil
}

func (repo *sqliteRepository) Check() checks.Check {
	return &dbCheck{db: repo.db}
}

func (repo *sqliteRepository) Close() error {
	return repo.db.Close()
}

type dbCheck struct {
	db *sql.DB
}

func (c *dbCheck) Pass() bool {
	return c.db.Ping() == nil
}

func (c *dbCheck) Name() string {
	return "outbox-db"
}
