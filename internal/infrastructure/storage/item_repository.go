package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"EngagementSync/internal/domain"
	"EngagementSync/internal/ports"
)

var itemColumns = []string{
	"id", "title", "status", "links", "views", "likes", "comments",
	"publish_date", "created_at", "updated_at",
}

// ItemRepository persists items in the items table.
type ItemRepository struct {
	db  *sql.DB
	sb  squirrel.StatementBuilderType
	now func() time.Time
}

var _ ports.ItemStore = (*ItemRepository)(nil)

// NewItemRepository wires a sql.DB opened with driver.
func NewItemRepository(db *sql.DB, driver string) *ItemRepository {
	return &ItemRepository{db: db, sb: builder(driver), now: time.Now}
}

// List returns every item, oldest first.
func (r *ItemRepository) List(ctx context.Context) ([]domain.Item, error) {
	return r.query(ctx, r.sb.Select(itemColumns...).From("items").OrderBy("created_at ASC", "id ASC"))
}

// ListByStatus returns items with status, newest publish date first.
func (r *ItemRepository) ListByStatus(ctx context.Context, status domain.ItemStatus) ([]domain.Item, error) {
	return r.query(ctx, r.sb.Select(itemColumns...).From("items").
		Where(squirrel.Eq{"status": string(status)}).
		OrderBy("publish_date IS NULL", "publish_date DESC", "id ASC"))
}

// Get loads one item.
func (r *ItemRepository) Get(ctx context.Context, id string) (domain.Item, error) {
	return r.get(ctx, r.db, id)
}

// Update writes the non-nil fields of patch and returns the stored record.
func (r *ItemRepository) Update(ctx context.Context, id string, patch domain.ItemPatch) (domain.Item, error) {
	set := map[string]any{"updated_at": r.now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Links != nil {
		raw, err := json.Marshal(patch.Links)
		if err != nil {
			return domain.Item{}, errors.Wrap(err, "marshal links")
		}
		set["links"] = string(raw)
	}
	if patch.Stats != nil {
		set["views"] = patch.Stats.Views
		set["likes"] = patch.Stats.Likes
		set["comments"] = patch.Stats.Comments
	}
	if patch.PublishDate != nil {
		set["publish_date"] = nullTime(*patch.PublishDate)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Item{}, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.sb.Update("items").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Item{}, errors.Wrap(err, "build update")
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Item{}, errors.Wrapf(err, "update item %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Item{}, errors.Wrapf(domain.ErrItemNotFound, "item %s", id)
	}

	item, err := r.get(ctx, tx, id)
	if err != nil {
		return domain.Item{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Item{}, errors.Wrap(err, "commit update")
	}
	return item, nil
}

// Create inserts item, assigning an ID and draft status when missing.
func (r *ItemRepository) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = domain.StatusDraft
	}
	if item.Links == nil {
		item.Links = domain.Links{}
	}
	now := r.now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now

	links, err := json.Marshal(item.Links)
	if err != nil {
		return domain.Item{}, errors.Wrap(err, "marshal links")
	}

	query, args, err := r.sb.Insert("items").Columns(itemColumns...).Values(
		item.ID, item.Title, string(item.Status), string(links),
		item.Stats.Views, item.Stats.Likes, item.Stats.Comments,
		nullTime(item.PublishDate), item.CreatedAt, item.UpdatedAt,
	).ToSql()
	if err != nil {
		return domain.Item{}, errors.Wrap(err, "build insert")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Item{}, errors.Wrapf(err, "insert item %s", item.ID)
	}
	return item, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *ItemRepository) get(ctx context.Context, q queryer, id string) (domain.Item, error) {
	query, args, err := r.sb.Select(itemColumns...).From("items").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Item{}, errors.Wrap(err, "build select")
	}
	items, err := collect(ctx, q, query, args)
	if err != nil {
		return domain.Item{}, err
	}
	if len(items) == 0 {
		return domain.Item{}, errors.Wrapf(domain.ErrItemNotFound, "item %s", id)
	}
	return items[0], nil
}

func (r *ItemRepository) query(ctx context.Context, b squirrel.SelectBuilder) ([]domain.Item, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build select")
	}
	return collect(ctx, r.db, query, args)
}

func collect(ctx context.Context, q queryer, query string, args []any) ([]domain.Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query items")
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		var (
			item    domain.Item
			status  string
			links   string
			publish sql.NullTime
		)
		if err := rows.Scan(
			&item.ID, &item.Title, &status, &links,
			&item.Stats.Views, &item.Stats.Likes, &item.Stats.Comments,
			&publish, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan item")
		}
		item.Status = domain.ItemStatus(status)
		if publish.Valid {
			item.PublishDate = publish.Time
		}
		item.Links = domain.Links{}
		if links != "" {
			if err := json.Unmarshal([]byte(links), &item.Links); err != nil {
				return nil, errors.Wrapf(err, "decode links of item %s", item.ID)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows iteration")
	}
	return items, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
