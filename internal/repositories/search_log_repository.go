package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jinnarSearch/internal/models"
)

const (
	DriverMySQL = "mysql"
	DriverPgx   = "pgx"
)

// SearchLogRepository appends committed searches and aggregates them.
// Queries are written with "?" placeholders and rebound for Postgres.
type SearchLogRepository struct {
	DB     *sql.DB
	Driver string
}

func (r *SearchLogRepository) bind(query string) string {
	if r.Driver == DriverPgx {
		return Rebind(query)
	}
	return query
}

// Rebind converts "?" placeholders into "$1", "$2", ...
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// schemaDDL returns the search_log table definition for driver. Encoded
// queries have no upper bound, so the query column is TEXT on both engines.
func schemaDDL(driver string) string {
	switch driver {
	case DriverPgx:
		return `
		CREATE TABLE IF NOT EXISTS search_log (
			id BIGSERIAL PRIMARY KEY,
			viewer_id VARCHAR(64) NOT NULL DEFAULT '',
			session_id VARCHAR(64) NOT NULL DEFAULT '',
			query TEXT NOT NULL,
			result_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`
	default:
		return `
		CREATE TABLE IF NOT EXISTS search_log (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			viewer_id VARCHAR(64) NOT NULL DEFAULT '',
			session_id VARCHAR(64) NOT NULL DEFAULT '',
			query TEXT NOT NULL,
			result_count INT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			INDEX idx_search_log_created_at (created_at)
		)`
	}
}

func (r *SearchLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schemaDDL(r.Driver)); err != nil {
		return fmt.Errorf("search log schema: %w", err)
	}
	if r.Driver == DriverPgx {
		if _, err := r.DB.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_search_log_created_at ON search_log (created_at)`); err != nil {
			return fmt.Errorf("search log index: %w", err)
		}
	}
	return nil
}

func (r *SearchLogRepository) Insert(ctx context.Context, entry models.SearchLogEntry) (models.SearchLogEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO search_log (viewer_id, session_id, query, result_count, created_at)
		VALUES (?, ?, ?, ?, ?)`
	args := []any{entry.ViewerID, entry.SessionID, entry.Query, entry.ResultCount, entry.CreatedAt}

	if r.Driver == DriverPgx {
		err := r.DB.QueryRowContext(ctx, r.bind(query+` RETURNING id`), args...).Scan(&entry.ID)
		if err != nil {
			return models.SearchLogEntry{}, err
		}
		return entry, nil
	}

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return models.SearchLogEntry{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.SearchLogEntry{}, err
	}
	entry.ID = id
	return entry, nil
}

// Popular returns the most frequent queries committed since the given time.
func (r *SearchLogRepository) Popular(ctx context.Context, since time.Time, limit int) ([]models.PopularSearch, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT query, COUNT(*) AS hits, MAX(created_at) AS last_seen
		FROM search_log
		WHERE created_at >= ?
		GROUP BY query
		ORDER BY hits DESC, last_seen DESC
		LIMIT ?`

	rows, err := r.DB.QueryContext(ctx, r.bind(query), since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.PopularSearch, 0, limit)
	for rows.Next() {
		var p models.PopularSearch
		if err := rows.Scan(&p.Query, &p.Count, &p.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBefore removes entries created before cutoff and returns how many
// rows were dropped.
func (r *SearchLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.DB.ExecContext(ctx, r.bind(`DELETE FROM search_log WHERE created_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
