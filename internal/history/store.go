package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"creativelab/internal/domain"
	"creativelab/internal/infra"
	"creativelab/internal/sqlinline"
)

// Store is the append-only, per-user creative library. Entries are created
// exactly once per successful generation and never mutated or deleted.
// The storage medium is swappable behind this interface.
type Store interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	ListByUser(ctx context.Context, email string, limit, offset int) ([]domain.HistoryEntry, error)
	GetByID(ctx context.Context, id, email string) (*domain.HistoryEntry, error)
	StatsByUser(ctx context.Context, email string) (*domain.HistoryStats, error)
}

// PostgresStore persists history entries via the shared SQL runner.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

func (s *PostgresStore) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	copyJSON, err := json.Marshal(entry.Copy)
	if err != nil {
		return fmt.Errorf("history: marshal copy: %w", err)
	}
	_, err = s.sql.Exec(ctx, sqlinline.QInsertHistoryEntry,
		entry.ID,
		entry.UserEmail,
		string(entry.Format),
		entry.ProductText,
		entry.Occasion,
		copyJSON,
		entry.VisualURL,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, email string, limit, offset int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sql.Query(ctx, sqlinline.QListHistoryByUser, email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id, email string) (*domain.HistoryEntry, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectHistoryEntry, id, email)
	entry, err := scanEntry(row.Scan)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *PostgresStore) StatsByUser(ctx context.Context, email string) (*domain.HistoryStats, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QCountHistoryByUser, email)
	var stats domain.HistoryStats
	if err := row.Scan(&stats.CreatedToday, &stats.CreatedThisWeek, &stats.Total); err != nil {
		return nil, fmt.Errorf("history: stats: %w", err)
	}
	return &stats, nil
}

func scanEntry(scan func(dest ...any) error) (*domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	var format string
	var copyJSON []byte
	var createdAt time.Time
	if err := scan(&entry.ID, &entry.UserEmail, &format, &entry.ProductText, &entry.Occasion, &copyJSON, &entry.VisualURL, &createdAt); err != nil {
		return nil, err
	}
	entry.Format = domain.CreativeFormat(format)
	entry.CreatedAt = createdAt
	if err := json.Unmarshal(copyJSON, &entry.Copy); err != nil {
		return nil, fmt.Errorf("history: unmarshal copy: %w", err)
	}
	return &entry, nil
}

var _ Store = (*PostgresStore)(nil)
