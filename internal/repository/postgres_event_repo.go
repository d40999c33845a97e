package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/dayboard/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したD-Dayイベントリポジトリ。
// 全ステートメントがuser_idを条件に含むため、他ユーザーの行は読み書きとも到達不能。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// ListByOwner は指定ユーザーのイベントを日付昇順で返す。0件の場合は空スライスを返す。
func (r *PostgresEventRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, date, icon, color, is_annual, created_at, updated_at
		 FROM dday_events WHERE user_id = $1 ORDER BY date ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		ev := &model.Event{}
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Title, &ev.Date, &ev.Icon, &ev.Color, &ev.IsAnnual, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, fmt.Errorf("イベント行の読み取りに失敗しました: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}
	return events, nil
}

// Insert はイベントを作成する。IDは呼び出し側が採番済みであること。
func (r *PostgresEventRepo) Insert(ctx context.Context, ev *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dday_events (id, user_id, title, date, icon, color, is_annual, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.UserID, ev.Title, ev.Date, ev.Icon, ev.Color, ev.IsAnnual, ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}
	return nil
}

// Update は指定ユーザーが所有するイベントの可変フィールドを全置換する。
func (r *PostgresEventRepo) Update(ctx context.Context, ownerID, id string, fields EventFields) (*model.Event, error) {
	ev := &model.Event{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE dday_events
		 SET title = $3, date = $4, icon = $5, color = $6, is_annual = $7, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, date, icon, color, is_annual, created_at, updated_at`,
		id, ownerID, fields.Title, fields.Date, fields.Icon, fields.Color, fields.IsAnnual,
	).Scan(&ev.ID, &ev.UserID, &ev.Title, &ev.Date, &ev.Icon, &ev.Color, &ev.IsAnnual, &ev.CreatedAt, &ev.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}

	return ev, nil
}

// Delete は指定ユーザーが所有するイベントを削除する。
func (r *PostgresEventRepo) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM dday_events WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteByOwner は指定ユーザーの全イベントを削除する。
func (r *PostgresEventRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM dday_events WHERE user_id = $1`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの全イベントの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
