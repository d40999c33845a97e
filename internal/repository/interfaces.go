// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/dayboard/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// UpdateProfile はユーザーの表示名とアバターURLを更新する。
	// IdPから取得したプロフィールをログインのたびに追従させる。
	UpdateProfile(ctx context.Context, id, name, avatarURL string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessions、dday_events、menu_itemsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// EventFields はイベント更新時に全置換される可変フィールドの組。
// 部分更新（パッチ）は提供しない。
type EventFields struct {
	Title    string
	Date     time.Time
	Icon     model.EventIcon
	Color    string
	IsAnnual bool
}

// EventRepository はD-Dayイベントの永続化インターフェース（イベントストアゲートウェイ）。
// 全クエリがuser_idで絞り込まれ、他ユーザーの行には到達できない。
type EventRepository interface {
	// ListByOwner は指定ユーザーのイベントを日付昇順で返す。
	// 0件の場合は空スライスを返す（nilを返さない）。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Event, error)

	// Insert はイベントを作成する。IDは呼び出し側が採番済みであること。
	Insert(ctx context.Context, event *model.Event) error

	// Update は指定ユーザーが所有するイベントの可変フィールドを全置換する。
	// 該当行がない場合はErrEventNotFoundを返す。
	Update(ctx context.Context, ownerID, id string, fields EventFields) (*model.Event, error)

	// Delete は指定ユーザーが所有するイベントを削除する。
	// 該当行がない場合はErrEventNotFoundを返す。
	Delete(ctx context.Context, ownerID, id string) error

	// DeleteByOwner は指定ユーザーの全イベントを削除する。退会処理で使用する。
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// MenuFields はメニュー項目更新時に置換される可変フィールドの組。
type MenuFields struct {
	Label    string
	URL      string
	Position int
}

// MenuRepository はメニューグリッド項目の永続化インターフェース。
// EventRepositoryと同様に全クエリがuser_idで絞り込まれる。
type MenuRepository interface {
	// ListByOwner は指定ユーザーのメニュー項目をposition昇順で返す。
	// 0件の場合は空スライスを返す（nilを返さない）。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.MenuItem, error)

	// Insert はメニュー項目を作成する。
	Insert(ctx context.Context, item *model.MenuItem) error

	// Update は指定ユーザーが所有するメニュー項目を更新する。
	// 該当行がない場合はErrMenuItemNotFoundを返す。
	Update(ctx context.Context, ownerID, id string, fields MenuFields) (*model.MenuItem, error)

	// UpdateFavicon はメニュー項目のfaviconデータを更新する。
	UpdateFavicon(ctx context.Context, ownerID, id string, data []byte, mime string) error

	// Delete は指定ユーザーが所有するメニュー項目を削除する。
	// 該当行がない場合はErrMenuItemNotFoundを返す。
	Delete(ctx context.Context, ownerID, id string) error

	// DeleteByOwner は指定ユーザーの全メニュー項目を削除する。退会処理で使用する。
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
