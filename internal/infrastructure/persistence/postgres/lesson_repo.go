package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
)

// LessonRepository implements lesson.Store for PostgreSQL.
type LessonRepository struct {
	conn *Connection
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

// Name implements lesson.Sink.
func (r *LessonRepository) Name() string {
	return "postgres"
}

// Replace swaps the published catalog for snapshot in a single transaction.
// Readers keep seeing the previous catalog until commit.
func (r *LessonRepository) Replace(ctx context.Context, snapshot lesson.Snapshot) error {
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM lessons`); err != nil {
			return fmt.Errorf("clear lessons: %w", err)
		}

		rows := make([][]any, 0, len(snapshot.Records))
		for i, rec := range snapshot.Records {
			var number any
			if n, ok := rec.Number(); ok {
				number = n
			}
			rows = append(rows, []any{rec.File, rec.Title, i + 1, number, snapshot.Version, snapshot.PublishedAt})
		}

		copied, err := tx.CopyFrom(ctx,
			pgx.Identifier{"lessons"},
			[]string{"file", "title", "position", "number", "published_version", "published_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy lessons: %w", err)
		}
		if int(copied) != len(rows) {
			return fmt.Errorf("copy lessons: wrote %d of %d rows", copied, len(rows))
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO lesson_catalog_versions (version, lesson_count, published_at)
			VALUES ($1, $2, $3)
		`, snapshot.Version, len(snapshot.Records), snapshot.PublishedAt)
		if err != nil {
			return fmt.Errorf("record version: %w", err)
		}
		return nil
	})
	return r.wrap("Replace", err)
}

// CurrentVersion implements lesson.VersionReader.
func (r *LessonRepository) CurrentVersion(ctx context.Context) (string, error) {
	var version string
	err := r.conn.QueryRow(ctx, `
		SELECT version FROM lesson_catalog_versions
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&version)
	if IsNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", r.wrap("CurrentVersion", err)
	}
	return strings.TrimSpace(version), nil
}

// List returns the published lessons in navigation order.
func (r *LessonRepository) List(ctx context.Context) ([]lesson.Record, error) {
	rows, err := r.conn.Query(ctx, `SELECT file, title FROM lessons ORDER BY position`)
	if err != nil {
		return nil, r.wrap("List", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (lesson.Record, error) {
		var rec lesson.Record
		err := row.Scan(&rec.File, &rec.Title)
		return rec, err
	})
	if err != nil {
		return nil, r.wrap("List", err)
	}
	return records, nil
}

// GetByFile returns one published lesson.
// Returns shared.ErrLessonNotFound if the file is not published.
func (r *LessonRepository) GetByFile(ctx context.Context, file string) (lesson.Record, error) {
	var rec lesson.Record
	err := r.conn.QueryRow(ctx, `SELECT file, title FROM lessons WHERE file = $1`, file).
		Scan(&rec.File, &rec.Title)
	if IsNoRows(err) {
		return lesson.Record{}, fmt.Errorf("%w: %s", shared.ErrLessonNotFound, file)
	}
	if err != nil {
		return lesson.Record{}, r.wrap("GetByFile", err)
	}
	return rec, nil
}

// wrap marks connection-level failures as retryable service errors.
func (r *LessonRepository) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsConnectionError(err) {
		return shared.WrapError("postgres", op, shared.ErrSinkUnavailable, "database unavailable", err)
	}
	return shared.WrapError("postgres", op, shared.ErrExternalService, "query failed", err)
}
