// Package model はドメインモデルを定義する。
package model

import "time"

// MenuItem はダッシュボードのメニューグリッドに表示するショートカットを表す。
// faviconはサーバー側でベストエフォート取得され、失敗時はnullのまま保存される。
type MenuItem struct {
	ID          string
	UserID      string
	Label       string
	URL         string
	Position    int
	FaviconData []byte
	FaviconMime string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
