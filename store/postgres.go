package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/chaos-io/closet/model"
)

// Postgres 基于 PostgreSQL 的持久化实现
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// OpenPostgres 建连并确保表结构存在
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Postgres{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS clothing_items (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL,
	subcategory TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	image       BYTEA NOT NULL,
	thumb       BYTEA,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS outfits (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	image      BYTEA NOT NULL,
	item_ids   JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS outfits_name_lower_idx ON outfits (lower(name));
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// --- ClothingItem -----------------------------------------------------------

func (s *Postgres) CreateItem(ctx context.Context, item *model.ClothingItem) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clothing_items (id, title, category, subcategory, color, image, thumb, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.ID, item.Title, item.Category, item.Subcategory, item.Color, item.ImageBytes, item.ThumbBytes, item.CreatedAt)
	return err
}

func (s *Postgres) GetItem(ctx context.Context, id string) (*model.ClothingItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, category, subcategory, color, image, thumb, created_at
		FROM clothing_items
		WHERE id = $1
	`, id)

	var item model.ClothingItem
	err := row.Scan(&item.ID, &item.Title, &item.Category, &item.Subcategory,
		&item.Color, &item.ImageBytes, &item.ThumbBytes, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Postgres) ListItems(ctx context.Context) ([]*model.ClothingItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, category, subcategory, color, thumb, created_at
		FROM clothing_items
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []*model.ClothingItem
	for rows.Next() {
		var item model.ClothingItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Category, &item.Subcategory,
			&item.Color, &item.ThumbBytes, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (s *Postgres) UpdateItem(ctx context.Context, item *model.ClothingItem) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE clothing_items
		SET title = $2, category = $3, subcategory = $4, color = $5
		WHERE id = $1
	`, item.ID, item.Title, item.Category, item.Subcategory, item.Color)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clothing_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Outfit -----------------------------------------------------------------

func (s *Postgres) CreateOutfit(ctx context.Context, outfit *model.Outfit) error {
	if outfit.CreatedAt.IsZero() {
		outfit.CreatedAt = time.Now().UTC()
	}
	itemIDs, err := json.Marshal(outfit.ItemIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outfits (id, name, image, item_ids, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, outfit.ID, outfit.Name, outfit.ImageBytes, itemIDs, outfit.CreatedAt)
	return err
}

func (s *Postgres) GetOutfit(ctx context.Context, id string) (*model.Outfit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, image, item_ids, created_at
		FROM outfits
		WHERE id = $1
	`, id)

	var (
		outfit  model.Outfit
		itemIDs []byte
	)
	err := row.Scan(&outfit.ID, &outfit.Name, &outfit.ImageBytes, &itemIDs, &outfit.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(itemIDs) > 0 {
		_ = json.Unmarshal(itemIDs, &outfit.ItemIDs)
	}
	return &outfit, nil
}

func (s *Postgres) ListOutfits(ctx context.Context) ([]*model.Outfit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, item_ids, created_at
		FROM outfits
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var outfits []*model.Outfit
	for rows.Next() {
		var (
			outfit  model.Outfit
			itemIDs []byte
		)
		if err := rows.Scan(&outfit.ID, &outfit.Name, &itemIDs, &outfit.CreatedAt); err != nil {
			return nil, err
		}
		if len(itemIDs) > 0 {
			_ = json.Unmarshal(itemIDs, &outfit.ItemIDs)
		}
		outfits = append(outfits, &outfit)
	}
	return outfits, rows.Err()
}

func (s *Postgres) DeleteOutfit(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM outfits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) OutfitNameTaken(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM outfits WHERE lower(name) = lower($1))
	`, name).Scan(&exists)
	return exists, err
}
