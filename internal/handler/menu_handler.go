package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dayboard/internal/dday"
	"github.com/hitoshi/dayboard/internal/menu"
	"github.com/hitoshi/dayboard/internal/middleware"
	"github.com/hitoshi/dayboard/internal/model"
)

// MenuServiceInterface はメニューハンドラーが必要とするサービスインターフェース。
type MenuServiceInterface interface {
	// ListItems は指定ユーザーのメニュー項目をposition昇順で返す。
	ListItems(ctx context.Context, ownerID string) ([]*model.MenuItem, error)
	// AddItem はメニュー項目を作成し、再読込した一覧とともに返す。
	AddItem(ctx context.Context, ownerID string, input menu.ItemInput) (*model.MenuItem, []*model.MenuItem, error)
	// UpdateItem は既存メニュー項目の可変フィールドを全置換する。
	UpdateItem(ctx context.Context, ownerID, id string, input menu.ItemInput) (*model.MenuItem, []*model.MenuItem, error)
	// DeleteItem はメニュー項目を削除し、再読込した一覧を返す。
	DeleteItem(ctx context.Context, ownerID, id string) ([]*model.MenuItem, error)
}

// MenuHandler はメニューグリッドのHTTPハンドラー。
type MenuHandler struct {
	service MenuServiceInterface
}

// NewMenuHandler はMenuHandlerを生成する。
func NewMenuHandler(service MenuServiceInterface) *MenuHandler {
	return &MenuHandler{service: service}
}

// menuItemRequest はメニュー項目作成・更新リクエストのボディ。
type menuItemRequest struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// faviconResponse はメニュー項目のfaviconデータ。
// []byteはJSONエンコードでbase64文字列になる。
type faviconResponse struct {
	Mime string `json:"mime"`
	Data []byte `json:"data"`
}

// menuItemResponse はメニュー項目1件のAPIレスポンス。
// faviconは取得できなかった場合nullになる。
type menuItemResponse struct {
	ID       string           `json:"id"`
	Label    string           `json:"label"`
	URL      string           `json:"url"`
	Position int              `json:"position"`
	Favicon  *faviconResponse `json:"favicon"`
}

// menuListResponse はメニュー一覧のAPIレスポンス。
type menuListResponse struct {
	Items       []menuItemResponse `json:"items"`
	GridColumns int                `json:"grid_columns"`
}

// menuMutationResponse は変更操作のAPIレスポンス。
type menuMutationResponse struct {
	Item        menuItemResponse   `json:"item"`
	Items       []menuItemResponse `json:"items"`
	GridColumns int                `json:"grid_columns"`
}

// ListItems はメニュー一覧を返す。
// GET /api/menu
func (h *MenuHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	items, err := h.service.ListItems(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMenuListResponse(items))
}

// AddItem はメニュー項目を作成する。
// POST /api/menu
func (h *MenuHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	item, items, err := h.service.AddItem(r.Context(), userID, toItemInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMenuMutationResponse(item, items))
}

// UpdateItem はメニュー項目の可変フィールドを全置換する。
// PUT /api/menu/:id
func (h *MenuHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	itemID := chi.URLParam(r, "id")

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	item, items, err := h.service.UpdateItem(r.Context(), userID, itemID, toItemInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMenuMutationResponse(item, items))
}

// DeleteItem はメニュー項目を削除する。
// DELETE /api/menu/:id
func (h *MenuHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	itemID := chi.URLParam(r, "id")

	items, err := h.service.DeleteItem(r.Context(), userID, itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMenuListResponse(items))
}

// --- 変換ヘルパー ---

func toItemInput(req menuItemRequest) menu.ItemInput {
	return menu.ItemInput{
		Label:    req.Label,
		URL:      req.URL,
		Position: req.Position,
	}
}

func toMenuItemResponse(item *model.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:       item.ID,
		Label:    item.Label,
		URL:      item.URL,
		Position: item.Position,
	}
	if len(item.FaviconData) > 0 {
		resp.Favicon = &faviconResponse{
			Mime: item.FaviconMime,
			Data: item.FaviconData,
		}
	}
	return resp
}

func toMenuItemResponses(items []*model.MenuItem) []menuItemResponse {
	results := make([]menuItemResponse, len(items))
	for i, item := range items {
		results[i] = toMenuItemResponse(item)
	}
	return results
}

func toMenuListResponse(items []*model.MenuItem) menuListResponse {
	return menuListResponse{
		Items:       toMenuItemResponses(items),
		GridColumns: dday.GridColumns(len(items)),
	}
}

func toMenuMutationResponse(item *model.MenuItem, items []*model.MenuItem) menuMutationResponse {
	return menuMutationResponse{
		Item:        toMenuItemResponse(item),
		Items:       toMenuItemResponses(items),
		GridColumns: dday.GridColumns(len(items)),
	}
}
