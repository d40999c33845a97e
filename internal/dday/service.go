package dday

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

// TitleSanitizer はイベントタイトルをプレーンテキストに無害化するインターフェース。
// security.ContentSanitizerServiceの部分集合として定義する。
type TitleSanitizer interface {
	Sanitize(raw string) string
}

// MutationRecorder はイベント変更操作のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type MutationRecorder interface {
	RecordEventMutation(op string)
}

// EventInput はイベントの作成・更新で受け取る可変フィールドの組。
// 更新は常に全フィールドを同時に置換する（部分更新なし）。
type EventInput struct {
	Title    string
	Date     string // "2006-01-02" 形式の暦日
	Icon     string
	Color    string
	IsAnnual bool
}

// Service はD-Dayイベントの作成・更新・削除と一覧再読込を編成する。
// いずれの変更操作もストア障害時はリトライせず、読み込み済みの状態を変更しない。
type Service struct {
	repo      repository.EventRepository
	sanitizer TitleSanitizer
	recorder  MutationRecorder
}

// NewService はServiceを生成する。recorderはnil可（記録なし）。
func NewService(repo repository.EventRepository, sanitizer TitleSanitizer, recorder MutationRecorder) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// ListEvents は指定ユーザーのイベントを日付昇順で返す。
// iconFilterが非空の場合、そのアイコンのイベントのみ返す。
// 閉集合にないフィルター値はValidationErrorを返す（格納時と違い、デフォルトへの正規化はしない）。
// 0件の場合は空スライスを返す（nilを返さない）。
func (s *Service) ListEvents(ctx context.Context, ownerID, iconFilter string) ([]*model.Event, error) {
	if iconFilter != "" && !model.IsValidIcon(iconFilter) {
		return nil, model.NewValidationError("icon", "未知のアイコンです")
	}

	events, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, model.NewStorageError("イベント一覧の取得", err)
	}

	if iconFilter == "" {
		return events, nil
	}

	icon := model.EventIcon(iconFilter)
	filtered := make([]*model.Event, 0, len(events))
	for _, ev := range events {
		if ev.Icon == icon {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// AddEvent はイベントを作成し、再読込した一覧とともに返す。
// タイトルまたは日付が空の場合はストアを呼び出さずValidationErrorを返す。
// user_idは呼び出し側のセッションから刻印され、リクエストボディからは受け取らない。
func (s *Service) AddEvent(ctx context.Context, ownerID string, input EventInput) (*model.Event, []*model.Event, error) {
	ev, err := s.buildEvent(ownerID, input)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Insert(ctx, ev); err != nil {
		return nil, nil, model.NewStorageError("イベントの作成", err)
	}

	s.recordMutation("add")
	slog.Info("dday event added",
		slog.String("user_id", ownerID),
		slog.String("event_id", ev.ID),
	)

	events, err := s.ListEvents(ctx, ownerID, "")
	if err != nil {
		return nil, nil, err
	}
	return ev, events, nil
}

// UpdateEvent は既存イベントの可変フィールドを全置換し、再読込した一覧とともに返す。
// idは事前の一覧取得で得たものであること。
func (s *Service) UpdateEvent(ctx context.Context, ownerID, id string, input EventInput) (*model.Event, []*model.Event, error) {
	fields, err := s.buildFields(input)
	if err != nil {
		return nil, nil, err
	}

	ev, err := s.repo.Update(ctx, ownerID, id, fields)
	if errors.Is(err, repository.ErrEventNotFound) {
		return nil, nil, model.NewEventNotFoundError(id)
	}
	if err != nil {
		return nil, nil, model.NewStorageError("イベントの更新", err)
	}

	s.recordMutation("update")
	slog.Info("dday event updated",
		slog.String("user_id", ownerID),
		slog.String("event_id", id),
	)

	events, err := s.ListEvents(ctx, ownerID, "")
	if err != nil {
		return nil, nil, err
	}
	return ev, events, nil
}

// DeleteEvent はイベントを削除し、再読込した一覧を返す。
// confirmedがfalseの場合はストアを一切呼び出さず、確認要求エラーを返す。
func (s *Service) DeleteEvent(ctx context.Context, ownerID, id string, confirmed bool) ([]*model.Event, error) {
	if !confirmed {
		return nil, model.NewConfirmationRequiredError()
	}

	err := s.repo.Delete(ctx, ownerID, id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return nil, model.NewEventNotFoundError(id)
	}
	if err != nil {
		return nil, model.NewStorageError("イベントの削除", err)
	}

	s.recordMutation("delete")
	slog.Info("dday event deleted",
		slog.String("user_id", ownerID),
		slog.String("event_id", id),
	)

	return s.ListEvents(ctx, ownerID, "")
}

// buildEvent は入力を検証・正規化して新規イベントを組み立てる。
func (s *Service) buildEvent(ownerID string, input EventInput) (*model.Event, error) {
	fields, err := s.buildFields(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &model.Event{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		Title:     fields.Title,
		Date:      fields.Date,
		Icon:      fields.Icon,
		Color:     fields.Color,
		IsAnnual:  fields.IsAnnual,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// buildFields は入力を検証・正規化してストアに渡す可変フィールドを組み立てる。
// タイトルはプレーンテキストに無害化し、アイコンは閉集合に正規化、色は未指定時にデフォルトを補う。
func (s *Service) buildFields(input EventInput) (repository.EventFields, error) {
	title := input.Title
	if s.sanitizer != nil {
		title = s.sanitizer.Sanitize(title)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return repository.EventFields{}, model.NewValidationError("title", "必須項目です")
	}

	if strings.TrimSpace(input.Date) == "" {
		return repository.EventFields{}, model.NewValidationError("date", "必須項目です")
	}
	date, err := time.ParseInLocation("2006-01-02", input.Date, time.Local)
	if err != nil {
		return repository.EventFields{}, model.NewValidationError("date", "YYYY-MM-DD形式で指定してください")
	}

	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = model.DefaultEventColor
	}

	return repository.EventFields{
		Title:    title,
		Date:     date,
		Icon:     model.NormalizeIcon(input.Icon),
		Color:    color,
		IsAnnual: input.IsAnnual,
	}, nil
}

// recordMutation は変更操作をメトリクスに記録する。
func (s *Service) recordMutation(op string) {
	if s.recorder != nil {
		s.recorder.RecordEventMutation(op)
	}
}
