// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dayboard/internal/dday"
	"github.com/hitoshi/dayboard/internal/middleware"
	"github.com/hitoshi/dayboard/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	// ListEvents は指定ユーザーのイベントを日付昇順で返す。
	ListEvents(ctx context.Context, ownerID, iconFilter string) ([]*model.Event, error)
	// AddEvent はイベントを作成し、再読込した一覧とともに返す。
	AddEvent(ctx context.Context, ownerID string, input dday.EventInput) (*model.Event, []*model.Event, error)
	// UpdateEvent は既存イベントの可変フィールドを全置換する。
	UpdateEvent(ctx context.Context, ownerID, id string, input dday.EventInput) (*model.Event, []*model.Event, error)
	// DeleteEvent はイベントを削除し、再読込した一覧を返す。
	DeleteEvent(ctx context.Context, ownerID, id string, confirmed bool) ([]*model.Event, error)
}

// EventHandler はD-DayイベントのHTTPハンドラー。
// レスポンスには保存済みフィールドに加え、リクエスト時点で計算した
// カウントダウンとグリッド列数ヒントを含める。
type EventHandler struct {
	service EventServiceInterface
	nowFunc func() time.Time // テストで固定時刻に差し替える
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{
		service: service,
		nowFunc: time.Now,
	}
}

// eventRequest はイベント作成・更新リクエストのボディ。
type eventRequest struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
	IsAnnual bool   `json:"is_annual"`
}

// countdownResponse はD-Day計算結果のAPIレスポンス。
type countdownResponse struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Days  int    `json:"days"`
}

// eventResponse はイベント1件のAPIレスポンス。
type eventResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Date      string            `json:"date"`
	Icon      string            `json:"icon"`
	Color     string            `json:"color"`
	IsAnnual  bool              `json:"is_annual"`
	Countdown countdownResponse `json:"countdown"`
}

// eventListResponse はイベント一覧のAPIレスポンス。
type eventListResponse struct {
	Events      []eventResponse `json:"events"`
	GridColumns int             `json:"grid_columns"`
}

// eventMutationResponse は変更操作のAPIレスポンス。
// 操作対象のイベントと再読込した一覧を併せて返す。
type eventMutationResponse struct {
	Event       eventResponse   `json:"event"`
	Events      []eventResponse `json:"events"`
	GridColumns int             `json:"grid_columns"`
}

// ListEvents はイベント一覧を返す。
// GET /api/events?icon=xxx
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	iconFilter := r.URL.Query().Get("icon")

	events, err := h.service.ListEvents(r.Context(), userID, iconFilter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toEventListResponse(events))
}

// AddEvent はイベントを作成する。
// POST /api/events
func (h *EventHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	ev, events, err := h.service.AddEvent(r.Context(), userID, toEventInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toEventMutationResponse(ev, events))
}

// UpdateEvent はイベントの可変フィールドを全置換する。
// PUT /api/events/:id
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	eventID := chi.URLParam(r, "id")

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	ev, events, err := h.service.UpdateEvent(r.Context(), userID, eventID, toEventInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toEventMutationResponse(ev, events))
}

// DeleteEvent はイベントを削除する。
// DELETE /api/events/:id?confirm=true
// confirm=trueが指定されていない場合、サービス層が確認要求エラーを返す。
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	eventID := chi.URLParam(r, "id")
	confirmed := r.URL.Query().Get("confirm") == "true"

	events, err := h.service.DeleteEvent(r.Context(), userID, eventID, confirmed)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toEventListResponse(events))
}

// --- 変換ヘルパー ---

// toEventInput はリクエストボディからサービス層の入力型に変換する。
func toEventInput(req eventRequest) dday.EventInput {
	return dday.EventInput{
		Title:    req.Title,
		Date:     req.Date,
		Icon:     req.Icon,
		Color:    req.Color,
		IsAnnual: req.IsAnnual,
	}
}

// toEventResponse はmodel.EventからAPIレスポンスに変換する。
// カウントダウンはレスポンス生成時点の今日を基準に計算する。
func (h *EventHandler) toEventResponse(ev *model.Event) eventResponse {
	cd := dday.Compute(ev.Date, ev.IsAnnual, h.nowFunc())
	return eventResponse{
		ID:       ev.ID,
		Title:    ev.Title,
		Date:     ev.Date.Format("2006-01-02"),
		Icon:     string(ev.Icon),
		Color:    ev.Color,
		IsAnnual: ev.IsAnnual,
		Countdown: countdownResponse{
			Label: cd.Label,
			Kind:  string(cd.Kind),
			Days:  cd.Days,
		},
	}
}

func (h *EventHandler) toEventResponses(events []*model.Event) []eventResponse {
	results := make([]eventResponse, len(events))
	for i, ev := range events {
		results[i] = h.toEventResponse(ev)
	}
	return results
}

func (h *EventHandler) toEventListResponse(events []*model.Event) eventListResponse {
	return eventListResponse{
		Events:      h.toEventResponses(events),
		GridColumns: dday.GridColumns(len(events)),
	}
}

func (h *EventHandler) toEventMutationResponse(ev *model.Event, events []*model.Event) eventMutationResponse {
	return eventMutationResponse{
		Event:       h.toEventResponse(ev),
		Events:      h.toEventResponses(events),
		GridColumns: dday.GridColumns(len(events)),
	}
}

// --- 共通レスポンスヘルパー ---

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequestBody はリクエストボディ解析失敗のエラーレスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeValidation,
		model.ErrCodeConfirmationRequired,
		model.ErrCodeInvalidURL,
		model.ErrCodeInvalidCoordinates:
		return http.StatusBadRequest
	case model.ErrCodeEventNotFound,
		model.ErrCodeMenuItemNotFound,
		model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeWeatherUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
