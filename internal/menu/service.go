package menu

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/dayboard/internal/model"
	"github.com/hitoshi/dayboard/internal/repository"
)

// LabelSanitizer はメニューラベルをプレーンテキストに無害化するインターフェース。
// security.ContentSanitizerServiceの部分集合として定義する。
type LabelSanitizer interface {
	Sanitize(raw string) string
}

// ItemInput はメニュー項目の作成・更新で受け取る可変フィールドの組。
// 更新は常に全フィールドを同時に置換する（部分更新なし）。
type ItemInput struct {
	Label    string
	URL      string
	Position int
}

// Service はメニューグリッド項目の作成・更新・削除と一覧再読込を編成する。
// faviconの取得はベストエフォートで、失敗しても項目の保存は成功する。
type Service struct {
	repo      repository.MenuRepository
	sanitizer LabelSanitizer
	ssrfGuard SSRFValidator
	favicons  FaviconFetcherService
}

// NewService はServiceを生成する。
func NewService(
	repo repository.MenuRepository,
	sanitizer LabelSanitizer,
	ssrfGuard SSRFValidator,
	favicons FaviconFetcherService,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		ssrfGuard: ssrfGuard,
		favicons:  favicons,
	}
}

// ListItems は指定ユーザーのメニュー項目をposition昇順で返す。
// 0件の場合は空スライスを返す（nilを返さない）。
func (s *Service) ListItems(ctx context.Context, ownerID string) ([]*model.MenuItem, error) {
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, model.NewStorageError("メニュー一覧の取得", err)
	}
	return items, nil
}

// AddItem はメニュー項目を作成し、再読込した一覧とともに返す。
// ラベルとURLは必須で、URLはSSRF検証を通過する必要がある。
// faviconはベストエフォートで取得し、失敗時はnullのまま保存する。
func (s *Service) AddItem(ctx context.Context, ownerID string, input ItemInput) (*model.MenuItem, []*model.MenuItem, error) {
	fields, err := s.buildFields(input)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	item := &model.MenuItem{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		Label:     fields.Label,
		URL:       fields.URL,
		Position:  fields.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, item); err != nil {
		return nil, nil, model.NewStorageError("メニュー項目の作成", err)
	}

	s.attachFavicon(ctx, item)
	slog.Info("menu item added",
		slog.String("user_id", ownerID),
		slog.String("item_id", item.ID),
	)

	items, err := s.ListItems(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	return item, items, nil
}

// UpdateItem は既存メニュー項目の可変フィールドを全置換し、再読込した一覧とともに返す。
// URLが変わる可能性があるためfaviconは再取得する。
func (s *Service) UpdateItem(ctx context.Context, ownerID, id string, input ItemInput) (*model.MenuItem, []*model.MenuItem, error) {
	fields, err := s.buildFields(input)
	if err != nil {
		return nil, nil, err
	}

	item, err := s.repo.Update(ctx, ownerID, id, fields)
	if errors.Is(err, repository.ErrMenuItemNotFound) {
		return nil, nil, model.NewMenuItemNotFoundError(id)
	}
	if err != nil {
		return nil, nil, model.NewStorageError("メニュー項目の更新", err)
	}

	s.attachFavicon(ctx, item)
	slog.Info("menu item updated",
		slog.String("user_id", ownerID),
		slog.String("item_id", id),
	)

	items, err := s.ListItems(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	return item, items, nil
}

// DeleteItem はメニュー項目を削除し、再読込した一覧を返す。
func (s *Service) DeleteItem(ctx context.Context, ownerID, id string) ([]*model.MenuItem, error) {
	err := s.repo.Delete(ctx, ownerID, id)
	if errors.Is(err, repository.ErrMenuItemNotFound) {
		return nil, model.NewMenuItemNotFoundError(id)
	}
	if err != nil {
		return nil, model.NewStorageError("メニュー項目の削除", err)
	}

	slog.Info("menu item deleted",
		slog.String("user_id", ownerID),
		slog.String("item_id", id),
	)

	return s.ListItems(ctx, ownerID)
}

// buildFields は入力を検証・正規化してストアに渡す可変フィールドを組み立てる。
func (s *Service) buildFields(input ItemInput) (repository.MenuFields, error) {
	label := input.Label
	if s.sanitizer != nil {
		label = s.sanitizer.Sanitize(label)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return repository.MenuFields{}, model.NewValidationError("label", "必須項目です")
	}

	rawURL := strings.TrimSpace(input.URL)
	if rawURL == "" {
		return repository.MenuFields{}, model.NewValidationError("url", "必須項目です")
	}
	if err := s.ssrfGuard.ValidateURL(rawURL); err != nil {
		return repository.MenuFields{}, model.NewInvalidURLError(err.Error())
	}

	return repository.MenuFields{
		Label:    label,
		URL:      rawURL,
		Position: input.Position,
	}, nil
}

// attachFavicon はfaviconをベストエフォートで取得して項目に保存する。
// 取得できなかった場合は何もしない（faviconはnullのまま）。
func (s *Service) attachFavicon(ctx context.Context, item *model.MenuItem) {
	if s.favicons == nil {
		return
	}

	data, mime := s.favicons.FetchForSite(ctx, item.URL)
	if data == nil {
		return
	}

	if err := s.repo.UpdateFavicon(ctx, item.UserID, item.ID, data, mime); err != nil {
		slog.Warn("faviconの保存に失敗しました",
			slog.String("item_id", item.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	item.FaviconData = data
	item.FaviconMime = mime
}
