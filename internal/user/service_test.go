package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/dayboard/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	deleteByIDFn func(ctx context.Context, id string) error
	deleteCalls  int
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id, name, avatarURL string) error {
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	m.deleteCalls++
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
	deleteCalls      int
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error { return nil }

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error { return nil }

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	m.deleteCalls++
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

type mockDeleter struct {
	calls  int
	userID string
	err    error
}

func (m *mockDeleter) DeleteByOwner(ctx context.Context, ownerID string) error {
	m.calls++
	m.userID = ownerID
	return m.err
}

// --- Withdraw テスト ---

// 退会処理がイベント・メニュー・セッション・ユーザーをすべて削除することを確認する。
func TestWithdraw_DeletesAllUserData(t *testing.T) {
	userRepo := &mockUserRepo{}
	sessionRepo := &mockSessionRepo{}
	events := &mockDeleter{}
	menus := &mockDeleter{}

	svc := NewService(userRepo, sessionRepo, events, menus)

	if err := svc.Withdraw(context.Background(), "user-123"); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}

	if events.calls != 1 {
		t.Errorf("event DeleteByOwner calls = %d, want 1", events.calls)
	}
	if events.userID != "user-123" {
		t.Errorf("event delete userID = %q, want %q", events.userID, "user-123")
	}
	if menus.calls != 1 {
		t.Errorf("menu DeleteByOwner calls = %d, want 1", menus.calls)
	}
	if sessionRepo.deleteCalls != 1 {
		t.Errorf("session DeleteByUserID calls = %d, want 1", sessionRepo.deleteCalls)
	}
	if userRepo.deleteCalls != 1 {
		t.Errorf("user DeleteByID calls = %d, want 1", userRepo.deleteCalls)
	}
}

// 存在しないユーザーの退会はUserNotFoundエラーを返し、削除は実行されない。
func TestWithdraw_UserNotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	events := &mockDeleter{}
	menus := &mockDeleter{}

	svc := NewService(userRepo, &mockSessionRepo{}, events, menus)

	err := svc.Withdraw(context.Background(), "unknown-user")
	if err == nil {
		t.Fatal("Withdraw() error = nil, want UserNotFoundError")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeUserNotFound)
	}

	if events.calls != 0 || menus.calls != 0 || userRepo.deleteCalls != 0 {
		t.Error("expected no deletions for unknown user")
	}
}

// イベント削除に失敗した場合、後続の削除は実行されない。
func TestWithdraw_EventDeleteFailure_StopsProcessing(t *testing.T) {
	userRepo := &mockUserRepo{}
	sessionRepo := &mockSessionRepo{}
	events := &mockDeleter{err: errors.New("db down")}
	menus := &mockDeleter{}

	svc := NewService(userRepo, sessionRepo, events, menus)

	if err := svc.Withdraw(context.Background(), "user-123"); err == nil {
		t.Fatal("Withdraw() error = nil, want error")
	}

	if menus.calls != 0 {
		t.Errorf("menu DeleteByOwner calls = %d, want 0", menus.calls)
	}
	if sessionRepo.deleteCalls != 0 {
		t.Errorf("session DeleteByUserID calls = %d, want 0", sessionRepo.deleteCalls)
	}
	if userRepo.deleteCalls != 0 {
		t.Errorf("user DeleteByID calls = %d, want 0", userRepo.deleteCalls)
	}
}

// ユーザー削除に失敗した場合はエラーを返す。
func TestWithdraw_UserDeleteFailure(t *testing.T) {
	userRepo := &mockUserRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			return errors.New("constraint violation")
		},
	}

	svc := NewService(userRepo, &mockSessionRepo{}, &mockDeleter{}, &mockDeleter{})

	if err := svc.Withdraw(context.Background(), "user-123"); err == nil {
		t.Fatal("Withdraw() error = nil, want error")
	}
}
