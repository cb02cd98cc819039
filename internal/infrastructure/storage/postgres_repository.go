package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

// PgxIface is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// upsertSuffix merges a re-seen item: the higher score wins, existing visuals
// are kept, text is refreshed and pending items are promoted once they qualify.
const upsertSuffix = `ON CONFLICT (natural_key) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	language = EXCLUDED.language,
	source_name = EXCLUDED.source_name,
	score = GREATEST(t.score, EXCLUDED.score),
	image_url = COALESCE(t.image_url, EXCLUDED.image_url),
	thumbnail_url = COALESCE(t.thumbnail_url, EXCLUDED.thumbnail_url),
	embed_url = COALESCE(t.embed_url, EXCLUDED.embed_url),
	media_type = COALESCE(t.media_type, EXCLUDED.media_type),
	width = COALESCE(t.width, EXCLUDED.width),
	height = COALESCE(t.height, EXCLUDED.height),
	updated_at = EXCLUDED.updated_at,
	status = CASE
		WHEN t.status = 'pending' AND GREATEST(t.score, EXCLUDED.score) >= ? THEN 'approved'
		ELSE t.status
	END
RETURNING (xmax = 0) AS inserted`

var itemColumns = []string{
	"id", "natural_key", "title", "description", "language", "source_name",
	"score", "status", "media_type", "image_url", "thumbnail_url", "embed_url",
	"width", "height", "published_at", "created_at", "updated_at",
}

// PostgresRepository persists curated items, settings and run logs into Postgres.
type PostgresRepository struct {
	pool PgxIface
	psql sq.StatementBuilderType
}

var (
	_ ports.ContentStore  = (*PostgresRepository)(nil)
	_ ports.SettingsStore = (*PostgresRepository)(nil)
	_ ports.RunLog        = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a pgx pool implementation.
func NewPostgresRepository(pool PgxIface) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OpenPool connects and pings Postgres.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Upsert inserts or merges one item in a single statement.
func (r *PostgresRepository) Upsert(ctx context.Context, item domain.ContentItem, publishThreshold int) (domain.UpsertOutcome, error) {
	table, err := tableFor(item.Kind)
	if err != nil {
		return domain.OutcomeRejected, err
	}

	query, args, err := r.psql.Insert(table+" AS t").
		Columns(itemColumns...).
		Values(
			item.ID, item.NaturalKey, item.Title, item.Description, item.Language, item.SourceName,
			item.Score, string(item.Status), nullString(string(item.MediaType)),
			nullString(item.ImageURL), nullString(item.ThumbnailURL), nullString(item.EmbedURL),
			nullInt(item.Width), nullInt(item.Height),
			item.PublishedAt, item.CreatedAt, item.UpdatedAt,
		).
		Suffix(upsertSuffix, publishThreshold).
		ToSql()
	if err != nil {
		return domain.OutcomeRejected, fmt.Errorf("build upsert: %w", err)
	}

	var inserted bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&inserted); err != nil {
		return domain.OutcomeRejected, fmt.Errorf("upsert %s: %w", table, err)
	}
	if inserted {
		return domain.OutcomeCreated, nil
	}
	return domain.OutcomeUpdated, nil
}

// Sweep deletes aged, low-scoring, non-featured rows.
func (r *PostgresRepository) Sweep(ctx context.Context, kind domain.Kind, cutoff time.Time, minScore int) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	query, args, err := r.psql.Delete(table).
		Where(sq.Lt{"published_at": cutoff}).
		Where(sq.Lt{"score": minScore}).
		Where(sq.NotEq{"status": string(domain.StatusFeatured)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sweep: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// Reset removes every row of the kind.
func (r *PostgresRepository) Reset(ctx context.Context, kind domain.Kind) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("reset %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// ListPublished returns approved and featured items, featured first.
func (r *PostgresRepository) ListPublished(ctx context.Context, kind domain.Kind, limit int) ([]domain.ContentItem, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	query, args, err := r.psql.Select(itemColumns...).
		From(table).
		Where(sq.Eq{"status": []string{string(domain.StatusApproved), string(domain.StatusFeatured)}}).
		OrderBy("CASE WHEN status = 'featured' THEN 0 ELSE 1 END", "score DESC", "published_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		item.Kind = kind
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

// LoadSettings reads the whole key/value table.
func (r *PostgresRepository) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// StartRun records the beginning of a run.
func (r *PostgresRepository) StartRun(ctx context.Context, run domain.CurationRun) error {
	query, args, err := r.psql.Insert("curation_logs").
		Columns("id", "kind", "source_label", "started_at").
		Values(run.RunID, string(run.Kind), run.SourceLabel, run.StartedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run start: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert curation log: %w", err)
	}
	return nil
}

// FinishRun stores the final counters and error list.
func (r *PostgresRepository) FinishRun(ctx context.Context, run domain.CurationRun) error {
	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	payload, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshal run errors: %w", err)
	}

	query, args, err := r.psql.Update("curation_logs").
		Set("source_label", run.SourceLabel).
		Set("fetched", run.Fetched).
		Set("added", run.Added).
		Set("updated", run.Updated).
		Set("skipped", run.Skipped).
		Set("deleted", run.Deleted).
		Set("ai_calls", run.AICalls).
		Set("errors", string(payload)).
		Set("completed_at", run.CompletedAt).
		Where(sq.Eq{"id": run.RunID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run finish: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update curation log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("curation log %s not found", run.RunID)
	}
	return nil
}

func scanItem(row pgx.Row) (domain.ContentItem, error) {
	var (
		item                                       domain.ContentItem
		status                                     string
		mediaType, imageURL, thumbnailURL, embedURL *string
		width, height                              *int
	)
	err := row.Scan(
		&item.ID, &item.NaturalKey, &item.Title, &item.Description, &item.Language, &item.SourceName,
		&item.Score, &status, &mediaType, &imageURL, &thumbnailURL, &embedURL,
		&width, &height, &item.PublishedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return domain.ContentItem{}, err
	}
	item.Status = domain.Status(status)
	item.MediaType = domain.MediaType(deref(mediaType))
	item.ImageURL = deref(imageURL)
	item.ThumbnailURL = deref(thumbnailURL)
	item.EmbedURL = deref(embedURL)
	if width != nil {
		item.Width = *width
	}
	if height != nil {
		item.Height = *height
	}
	return item, nil
}

var errUnknownTable = errors.New("no table for kind")

func tableFor(kind domain.Kind) (string, error) {
	table := kind.Table()
	if table == "" {
		return "", fmt.Errorf("%w: %q", errUnknownTable, kind)
	}
	return table, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
