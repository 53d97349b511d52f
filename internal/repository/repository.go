// Package repository implements short link storage on top of database/sql.
// PostgreSQL, local SQLite files and remote libsql databases share the same
// queries; only placeholders, schema and error codes differ.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/atinyakov/go-shortlinks/internal/storage"
)

// InitDB opens the database behind dsn, checks the connection and
// makes sure the shortlinks table exists.
func InitDB(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, Dialect, error) {
	d := DialectFor(dsn)

	db, err := sql.Open(d.Driver, strings.TrimPrefix(dsn, "sqlite:"))
	if err != nil {
		return nil, d, fmt.Errorf("open %s: %w", d.Name, err)
	}

	if d == SQLite {
		// sqlite allows a single writer; serialise through one connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, d, fmt.Errorf("ping %s: %w", d.Name, err)
	}

	if err := Migrate(ctx, db, d); err != nil {
		db.Close()
		return nil, d, err
	}

	logger.Info("Database connected and table ready", zap.String("dialect", d.Name))
	return db, d, nil
}

// Migrate creates the shortlinks table if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		return fmt.Errorf("migrate %s: %w", d.Name, err)
	}
	return nil
}

// orderColumns maps whitelisted sort columns onto SQL identifiers.
// Only values from this map are ever interpolated into a query.
var orderColumns = map[storage.SortColumn]string{
	storage.SortShortCode:   "short_code",
	storage.SortOriginalURL: "original_url",
	storage.SortClickCount:  "click_count",
	storage.SortCreatedAt:   "created_at",
}

type LinkRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

func CreateLinkRepository(db *sql.DB, d Dialect, logger *zap.Logger) *LinkRepository {
	return &LinkRepository{
		db:      db,
		dialect: d,
		logger:  logger,
	}
}

func (r *LinkRepository) Insert(ctx context.Context, link storage.ShortLink) (*storage.ShortLink, error) {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	row := r.db.QueryRowContext(ctx,
		r.dialect.bind("INSERT INTO shortlinks (short_code, original_url, click_count, created_at) VALUES (?, ?, 0, ?) RETURNING id;"),
		link.ShortCode, link.OriginalURL, link.CreatedAt,
	)

	if err := row.Scan(&link.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrCodeTaken
		}
		r.logger.Error("Insert failed", zap.String("code", link.ShortCode), zap.Error(err))
		return nil, err
	}

	link.ClickCount = 0
	return &link, nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*storage.ShortLink, error) {
	row := r.db.QueryRowContext(ctx,
		r.dialect.bind("SELECT id, short_code, original_url, click_count, created_at FROM shortlinks WHERE short_code = ?;"),
		code,
	)

	var link storage.ShortLink
	err := row.Scan(&link.ID, &link.ShortCode, &link.OriginalURL, &link.ClickCount, timestamp{&link.CreatedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &link, nil
}

// IncrementClicks bumps the counter in a single UPDATE so concurrent
// resolutions never lose an increment.
func (r *LinkRepository) IncrementClicks(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx,
		r.dialect.bind("UPDATE shortlinks SET click_count = click_count + 1 WHERE short_code = ?;"),
		code,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (r *LinkRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	res, err := r.db.ExecContext(ctx,
		r.dialect.bind("DELETE FROM shortlinks WHERE id IN ("+placeholders+");"),
		args...,
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	r.logger.Info("Deleted shortlinks", zap.Int64s("ids", ids), zap.Int64("deleted", n))
	return n, nil
}

func (r *LinkRepository) List(ctx context.Context, q storage.ListQuery) ([]storage.ShortLink, int, error) {
	q = q.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM shortlinks;").Scan(&total); err != nil {
		return nil, 0, err
	}

	links := make([]storage.ShortLink, 0, q.Limit)
	if total == 0 {
		return links, 0, nil
	}

	column, ok := orderColumns[q.OrderBy]
	if !ok {
		column = orderColumns[storage.SortCreatedAt]
	}
	direction := "DESC"
	if q.Direction == storage.Asc {
		direction = "ASC"
	}

	query := fmt.Sprintf(
		"SELECT id, short_code, original_url, click_count, created_at FROM shortlinks ORDER BY %s %s, id %s LIMIT ? OFFSET ?;",
		column, direction, direction,
	)

	rows, err := r.db.QueryContext(ctx, r.dialect.bind(query), q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var l storage.ShortLink
		if err := rows.Scan(&l.ID, &l.ShortCode, &l.OriginalURL, &l.ClickCount, timestamp{&l.CreatedAt}); err != nil {
			return nil, 0, err
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return links, total, nil
}

func (r *LinkRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
