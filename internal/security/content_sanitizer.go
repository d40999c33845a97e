// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はユーザー入力のテキスト（イベントタイトルや
// メニュー項目のラベル）をプレーンテキストに無害化し、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリの全タグ除去ポリシーを使用する。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はテキストの無害化機能のインターフェースを定義する。
// イベントタイトルとメニューラベルの保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力から全てのHTMLタグを除去したプレーンテキストを返す。
	// タグ除去後のエンティティ参照は元の文字に戻す（表示値として保存するため）。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフに無害化処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// インターフェース実装の確認
var _ ContentSanitizerService = (*contentSanitizer)(nil)

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たず、全てのタグとon*イベント属性を除去する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力から全てのHTMLタグを除去したプレーンテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	// StrictPolicyは残存テキストのエンティティをエスケープするため、
	// プレーンテキストとして保存できるよう元の文字に戻す
	return html.UnescapeString(s.policy.Sanitize(raw))
}
