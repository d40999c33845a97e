package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/dayboard/internal/model"
)

// PostgresMenuRepo はPostgreSQLを使用したメニュー項目リポジトリ。
type PostgresMenuRepo struct {
	db *sql.DB
}

// NewPostgresMenuRepo はPostgresMenuRepoを生成する。
func NewPostgresMenuRepo(db *sql.DB) *PostgresMenuRepo {
	return &PostgresMenuRepo{db: db}
}

// ListByOwner は指定ユーザーのメニュー項目をposition昇順で返す。0件の場合は空スライスを返す。
func (r *PostgresMenuRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, label, url, position, favicon_data, favicon_mime, created_at, updated_at
		 FROM menu_items WHERE user_id = $1 ORDER BY position ASC, created_at ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("メニュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	items := make([]*model.MenuItem, 0)
	for rows.Next() {
		item := &model.MenuItem{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.Label, &item.URL, &item.Position, &item.FaviconData, &item.FaviconMime, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("メニュー行の読み取りに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メニュー一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// Insert はメニュー項目を作成する。
func (r *PostgresMenuRepo) Insert(ctx context.Context, item *model.MenuItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_items (id, user_id, label, url, position, favicon_data, favicon_mime, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, item.UserID, item.Label, item.URL, item.Position, item.FaviconData, item.FaviconMime, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("メニュー項目の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は指定ユーザーが所有するメニュー項目を更新する。
func (r *PostgresMenuRepo) Update(ctx context.Context, ownerID, id string, fields MenuFields) (*model.MenuItem, error) {
	item := &model.MenuItem{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE menu_items
		 SET label = $3, url = $4, position = $5, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, label, url, position, favicon_data, favicon_mime, created_at, updated_at`,
		id, ownerID, fields.Label, fields.URL, fields.Position,
	).Scan(&item.ID, &item.UserID, &item.Label, &item.URL, &item.Position, &item.FaviconData, &item.FaviconMime, &item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("メニュー項目の更新に失敗しました: %w", err)
	}

	return item, nil
}

// UpdateFavicon はメニュー項目のfaviconデータを更新する。
func (r *PostgresMenuRepo) UpdateFavicon(ctx context.Context, ownerID, id string, data []byte, mime string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE menu_items SET favicon_data = $3, favicon_mime = $4, updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		id, ownerID, data, mime,
	)
	if err != nil {
		return fmt.Errorf("faviconの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定ユーザーが所有するメニュー項目を削除する。
func (r *PostgresMenuRepo) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM menu_items WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("メニュー項目の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// DeleteByOwner は指定ユーザーの全メニュー項目を削除する。
func (r *PostgresMenuRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM menu_items WHERE user_id = $1`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの全メニュー項目の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ MenuRepository = (*PostgresMenuRepo)(nil)
