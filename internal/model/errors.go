// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, storage, weather, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeValidation           = "VALIDATION_FAILED"
	ErrCodeStorage              = "STORAGE_FAILED"
	ErrCodeEventNotFound        = "EVENT_NOT_FOUND"
	ErrCodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	ErrCodeMenuItemNotFound     = "MENU_ITEM_NOT_FOUND"
	ErrCodeInvalidURL           = "INVALID_URL"
	ErrCodeWeatherUnavailable   = "WEATHER_UNAVAILABLE"
	ErrCodeInvalidCoordinates   = "INVALID_COORDINATES"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewValidationError は必須フィールド欠落などの入力エラーを生成する。
// ストアへのアクセス前に検出される。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s（%s）", field, reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewStorageError はストア（ゲートウェイ）障害を人間可読な原因付きで生成する。
// 操作は中断され、リトライは行わない。直前に読み込み済みの状態は変更されない。
func NewStorageError(op string, cause error) *APIError {
	return &APIError{
		Code:     ErrCodeStorage,
		Message:  fmt.Sprintf("%sに失敗しました: %v", op, cause),
		Category: "storage",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewEventNotFoundError はイベント未検出エラーを生成する。
func NewEventNotFoundError(eventID string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %s", eventID),
		Category: "storage",
		Action:   "一覧を再読み込みしてから操作してください。",
	}
}

// NewConfirmationRequiredError は削除確認が未了の場合のエラーを生成する。
// 確認なしの削除要求ではストアへの呼び出しは一切行われない。
func NewConfirmationRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeConfirmationRequired,
		Message:  "削除には確認が必要です。",
		Category: "validation",
		Action:   "確認のうえ、confirm=true を指定して再度お試しください。",
	}
}

// NewMenuItemNotFoundError はメニュー項目未検出エラーを生成する。
func NewMenuItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeMenuItemNotFound,
		Message:  fmt.Sprintf("指定されたメニュー項目が見つかりません: %s", itemID),
		Category: "storage",
		Action:   "一覧を再読み込みしてから操作してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewWeatherUnavailableError は天気プロバイダー障害エラーを生成する。
func NewWeatherUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeWeatherUnavailable,
		Message:  fmt.Sprintf("天気情報の取得に失敗しました: %s", reason),
		Category: "weather",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidCoordinatesError は緯度経度が不正な場合のエラーを生成する。
func NewInvalidCoordinatesError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCoordinates,
		Message:  "緯度・経度の指定が不正です。",
		Category: "validation",
		Action:   "lat と lon を数値で指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
