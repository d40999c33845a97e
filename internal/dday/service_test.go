package dday

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/hitoshi/dayboard/internal/model"
	"github.com/hitoshi/dayboard/internal/repository"
)

// --- Service テスト用モック ---

// mockEventRepo はテスト用のEventRepositoryモック。
type mockEventRepo struct {
	events      map[string]*model.Event
	insertCalls int
	updateCalls int
	deleteCalls int
	listCalls   int
	failWith    error // 非nilの場合、全操作がこのエラーで失敗する
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event)}
}

func (m *mockEventRepo) ListByOwner(_ context.Context, ownerID string) ([]*model.Event, error) {
	m.listCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	result := make([]*model.Event, 0)
	for _, ev := range m.events {
		if ev.UserID == ownerID {
			result = append(result, ev)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockEventRepo) Insert(_ context.Context, ev *model.Event) error {
	m.insertCalls++
	if m.failWith != nil {
		return m.failWith
	}
	m.events[ev.ID] = ev
	return nil
}

func (m *mockEventRepo) Update(_ context.Context, ownerID, id string, fields repository.EventFields) (*model.Event, error) {
	m.updateCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	ev, ok := m.events[id]
	if !ok || ev.UserID != ownerID {
		return nil, repository.ErrEventNotFound
	}
	ev.Title = fields.Title
	ev.Date = fields.Date
	ev.Icon = fields.Icon
	ev.Color = fields.Color
	ev.IsAnnual = fields.IsAnnual
	return ev, nil
}

func (m *mockEventRepo) Delete(_ context.Context, ownerID, id string) error {
	m.deleteCalls++
	if m.failWith != nil {
		return m.failWith
	}
	ev, ok := m.events[id]
	if !ok || ev.UserID != ownerID {
		return repository.ErrEventNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *mockEventRepo) DeleteByOwner(_ context.Context, ownerID string) error {
	for id, ev := range m.events {
		if ev.UserID == ownerID {
			delete(m.events, id)
		}
	}
	return nil
}

var _ repository.EventRepository = (*mockEventRepo)(nil)

// passthroughSanitizer はテスト用の素通しサニタイザー。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string { return raw }

func newTestService(repo *mockEventRepo) *Service {
	return NewService(repo, passthroughSanitizer{}, nil)
}

// --- Service テスト ---

// TestService_AddEvent_Success はイベント作成と一覧再読込が行われることをテストする。
func TestService_AddEvent_Success(t *testing.T) {
	repo := newMockEventRepo()
	svc := newTestService(repo)

	ev, events, err := svc.AddEvent(context.Background(), "user-1", EventInput{
		Title: "생일",
		Date:  "2024-05-01",
	})
	if err != nil {
		t.Fatalf("AddEvent returned error: %v", err)
	}
	if ev.ID == "" {
		t.Error("expected assigned event ID")
	}
	if ev.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", ev.UserID, "user-1")
	}
	if ev.Icon != model.IconEvent {
		t.Errorf("Icon = %q, want default %q", ev.Icon, model.IconEvent)
	}
	if ev.Color != model.DefaultEventColor {
		t.Errorf("Color = %q, want default %q", ev.Color, model.DefaultEventColor)
	}
	if len(events) != 1 {
		t.Errorf("reloaded list length = %d, want 1", len(events))
	}
	if repo.insertCalls != 1 {
		t.Errorf("Insert should be called once, got %d", repo.insertCalls)
	}
	if repo.listCalls != 1 {
		t.Errorf("list should be reloaded after mutation, got %d calls", repo.listCalls)
	}
}

// TestService_AddEvent_ValidationBeforeStore は必須項目の欠落がストア呼び出し前に
// ValidationErrorとして検出されることをテストする。
func TestService_AddEvent_ValidationBeforeStore(t *testing.T) {
	tests := []struct {
		name  string
		input EventInput
	}{
		{"空タイトル", EventInput{Title: "", Date: "2024-05-01"}},
		{"空白のみのタイトル", EventInput{Title: "   ", Date: "2024-05-01"}},
		{"空日付", EventInput{Title: "여행", Date: ""}},
		{"不正な日付形式", EventInput{Title: "여행", Date: "05/01/2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockEventRepo()
			svc := newTestService(repo)

			_, _, err := svc.AddEvent(context.Background(), "user-1", tt.input)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Category != "validation" {
				t.Errorf("Category = %q, want %q", apiErr.Category, "validation")
			}
			if repo.insertCalls != 0 {
				t.Errorf("store must not be called on validation failure, got %d calls", repo.insertCalls)
			}
		})
	}
}

// TestService_AddEvent_IconNormalized は閉集合外のアイコンがデフォルトに正規化されることをテストする。
func TestService_AddEvent_IconNormalized(t *testing.T) {
	repo := newMockEventRepo()
	svc := newTestService(repo)

	ev, _, err := svc.AddEvent(context.Background(), "user-1", EventInput{
		Title: "출장",
		Date:  "2024-06-01",
		Icon:  "rocket",
	})
	if err != nil {
		t.Fatalf("AddEvent returned error: %v", err)
	}
	if ev.Icon != model.IconEvent {
		t.Errorf("Icon = %q, want normalized %q", ev.Icon, model.IconEvent)
	}

	ev2, _, err := svc.AddEvent(context.Background(), "user-1", EventInput{
		Title: "결혼기념일",
		Date:  "2024-07-01",
		Icon:  "love",
	})
	if err != nil {
		t.Fatalf("AddEvent returned error: %v", err)
	}
	if ev2.Icon != model.IconLove {
		t.Errorf("Icon = %q, want %q", ev2.Icon, model.IconLove)
	}
}

// TestService_AddEvent_StorageErrorSurfaced はストア障害がStorageErrorとして表出し、
// リトライされないことをテストする。
func TestService_AddEvent_StorageErrorSurfaced(t *testing.T) {
	repo := newMockEventRepo()
	repo.failWith = fmt.Errorf("connection refused")
	svc := newTestService(repo)

	_, _, err := svc.AddEvent(context.Background(), "user-1", EventInput{
		Title: "생일",
		Date:  "2024-05-01",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Category != "storage" {
		t.Errorf("Category = %q, want %q", apiErr.Category, "storage")
	}
	if repo.insertCalls != 1 {
		t.Errorf("failed mutation must not be retried, got %d calls", repo.insertCalls)
	}
}

// TestService_UpdateEvent_FullReplace は更新が可変フィールドの全置換であることをテストする。
func TestService_UpdateEvent_FullReplace(t *testing.T) {
	repo := newMockEventRepo()
	repo.events["ev-1"] = &model.Event{
		ID: "ev-1", UserID: "user-1", Title: "생일",
		Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local),
		Icon: model.IconCake, Color: "#d32f2f", IsAnnual: true,
	}
	svc := newTestService(repo)

	ev, events, err := svc.UpdateEvent(context.Background(), "user-1", "ev-1", EventInput{
		Title:    "여행",
		Date:     "2024-08-15",
		Icon:     "flight",
		Color:    "#2e7d32",
		IsAnnual: false,
	})
	if err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if ev.Title != "여행" || ev.Icon != model.IconFlight || ev.Color != "#2e7d32" || ev.IsAnnual {
		t.Errorf("all mutable fields should be replaced, got %+v", ev)
	}
	if len(events) != 1 {
		t.Errorf("reloaded list length = %d, want 1", len(events))
	}
}

// TestService_UpdateEvent_NotFound は他ユーザー所有または存在しないIDの更新が
// 未検出エラーになることをテストする。
func TestService_UpdateEvent_NotFound(t *testing.T) {
	repo := newMockEventRepo()
	repo.events["ev-1"] = &model.Event{ID: "ev-1", UserID: "user-2", Title: "남의 일정"}
	svc := newTestService(repo)

	_, _, err := svc.UpdateEvent(context.Background(), "user-1", "ev-1", EventInput{
		Title: "탈취 시도",
		Date:  "2024-08-15",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeEventNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeEventNotFound)
	}
}

// TestService_DeleteEvent_RequiresConfirmation は確認なしの削除要求でストアが
// 一切呼び出されず、一覧が変化しないことをテストする。
func TestService_DeleteEvent_RequiresConfirmation(t *testing.T) {
	repo := newMockEventRepo()
	repo.events["ev-1"] = &model.Event{ID: "ev-1", UserID: "user-1", Title: "생일"}
	svc := newTestService(repo)

	_, err := svc.DeleteEvent(context.Background(), "user-1", "ev-1", false)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeConfirmationRequired {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeConfirmationRequired)
	}
	if repo.deleteCalls != 0 {
		t.Errorf("store must not be called without confirmation, got %d calls", repo.deleteCalls)
	}
	if len(repo.events) != 1 {
		t.Errorf("event list must be unchanged, got %d events", len(repo.events))
	}
}

// TestService_DeleteEvent_Confirmed は確認済みの削除が実行され、一覧が再読込されることをテストする。
func TestService_DeleteEvent_Confirmed(t *testing.T) {
	repo := newMockEventRepo()
	repo.events["ev-1"] = &model.Event{ID: "ev-1", UserID: "user-1", Title: "생일"}
	svc := newTestService(repo)

	events, err := svc.DeleteEvent(context.Background(), "user-1", "ev-1", true)
	if err != nil {
		t.Fatalf("DeleteEvent returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("reloaded list length = %d, want 0", len(events))
	}
	if events == nil {
		t.Error("empty list must be non-nil")
	}
	if repo.deleteCalls != 1 {
		t.Errorf("Delete should be called once, got %d", repo.deleteCalls)
	}
}

// TestService_ListEvents_EmptyNonNil は0件のアカウントで空の（nilでない）
// 順序付き一覧が返ることをテストする。
func TestService_ListEvents_EmptyNonNil(t *testing.T) {
	svc := newTestService(newMockEventRepo())

	events, err := svc.ListEvents(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if events == nil {
		t.Fatal("empty list must be non-nil")
	}
	if len(events) != 0 {
		t.Errorf("list length = %d, want 0", len(events))
	}
}

// TestService_ListEvents_OrderedByDate は一覧が日付昇順であることをテストする。
func TestService_ListEvents_OrderedByDate(t *testing.T) {
	repo := newMockEventRepo()
	repo.events["a"] = &model.Event{ID: "a", UserID: "user-1", Date: time.Date(2024, 8, 1, 0, 0, 0, 0, time.Local)}
	repo.events["b"] = &model.Event{ID: "b", UserID: "user-1", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)}
	repo.events["c"] = &model.Event{ID: "c", UserID: "user-1", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)}
	svc := newTestService(repo)

	events, err := svc.ListEvents(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("list length = %d, want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Date.Before(events[i-1].Date) {
			t.Errorf("list not ordered by date ascending at index %d", i)
		}
	}
}

// TestService_ListEvents_IconFilter はアイコンによる絞り込みをテストする。
func TestService_ListEvents_IconFilter(t *testing.T) {
	repo := newMockEventRepo()
	repo.events["a"] = &model.Event{ID: "a", UserID: "user-1", Icon: model.IconCake}
	repo.events["b"] = &model.Event{ID: "b", UserID: "user-1", Icon: model.IconWork}
	svc := newTestService(repo)

	events, err := svc.ListEvents(context.Background(), "user-1", "cake")
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 1 || events[0].ID != "a" {
		t.Errorf("icon filter should keep only cake events, got %d", len(events))
	}
}

// TestService_ListEvents_UnknownIconFilter は閉集合にないフィルター値が
// デフォルトに正規化されず、ValidationErrorになることをテストする。
func TestService_ListEvents_UnknownIconFilter(t *testing.T) {
	repo := newMockEventRepo()
	repo.events["a"] = &model.Event{ID: "a", UserID: "user-1", Icon: model.IconEvent}
	svc := newTestService(repo)

	_, err := svc.ListEvents(context.Background(), "user-1", "rocket")
	if err == nil {
		t.Fatal("unknown icon filter should return an error")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeValidation {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidation)
	}
}

// TestService_OwnershipScoping は一覧が呼び出しユーザーの行のみを含むことをテストする。
func TestService_OwnershipScoping(t *testing.T) {
	repo := newMockEventRepo()
	repo.events["mine"] = &model.Event{ID: "mine", UserID: "user-1"}
	repo.events["theirs"] = &model.Event{ID: "theirs", UserID: "user-2"}
	svc := newTestService(repo)

	events, err := svc.ListEvents(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 1 || events[0].ID != "mine" {
		t.Errorf("list must contain only the caller's events, got %d", len(events))
	}
}
