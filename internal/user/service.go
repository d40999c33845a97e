// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/dayboard/internal/model"
	"github.com/hitoshi/dayboard/internal/repository"
)

// EventDeleter はイベントの一括削除インターフェース。
type EventDeleter interface {
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// MenuDeleter はメニュー項目の一括削除インターフェース。
type MenuDeleter interface {
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	events      EventDeleter
	menus       MenuDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	events EventDeleter,
	menus MenuDeleter,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		events:      events,
		menus:       menus,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: dday_events → menu_items → sessions → user（+ CASCADE: identities）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. D-Dayイベントを削除
	if s.events != nil {
		if err := s.events.DeleteByOwner(ctx, userID); err != nil {
			return fmt.Errorf("イベントの削除に失敗しました: %w", err)
		}
	}

	// 2. メニュー項目を削除
	if s.menus != nil {
		if err := s.menus.DeleteByOwner(ctx, userID); err != nil {
			return fmt.Errorf("メニュー項目の削除に失敗しました: %w", err)
		}
	}

	// 3. セッションを削除（全デバイス分）
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 4. ユーザーを削除（identitiesはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)
	return nil
}
