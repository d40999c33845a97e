// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultEventColor はイベントの表示色が未指定の場合のデフォルト値。
const DefaultEventColor = "#1976d2"

// EventIcon はD-Dayイベントのカテゴリアイコンを表す。
// 固定の閉集合であり、未知の値はNormalizeIconでデフォルトに正規化される。
type EventIcon string

const (
	// IconEvent は汎用イベントアイコン（デフォルト）。
	IconEvent EventIcon = "event"
	// IconCake は誕生日・記念日アイコン。
	IconCake EventIcon = "cake"
	// IconLove は恋愛・記念日アイコン。
	IconLove EventIcon = "love"
	// IconFlight は旅行アイコン。
	IconFlight EventIcon = "flight"
	// IconStar はお気に入りアイコン。
	IconStar EventIcon = "star"
	// IconWork は仕事アイコン。
	IconWork EventIcon = "work"
)

// eventIcons はアイコン閉集合の照合テーブル。
var eventIcons = map[EventIcon]bool{
	IconEvent:  true,
	IconCake:   true,
	IconLove:   true,
	IconFlight: true,
	IconStar:   true,
	IconWork:   true,
}

// NormalizeIcon は入力値をアイコン閉集合のいずれかに正規化する。
// 空文字列または未知の値はIconEventを返す。
func NormalizeIcon(v string) EventIcon {
	icon := EventIcon(v)
	if eventIcons[icon] {
		return icon
	}
	return IconEvent
}

// IsValidIcon は値がアイコン閉集合に含まれるかを返す。
func IsValidIcon(v string) bool {
	return eventIcons[EventIcon(v)]
}

// Event はD-Dayカウントダウンの対象イベントを表す。
// user_idは作成時にセッションから刻印され、以後不変。
// 日付は暦日のみが意味を持ち、時刻成分は持たない。
type Event struct {
	ID        string
	UserID    string
	Title     string
	Date      time.Time // 暦日（時刻成分なし）
	Icon      EventIcon
	Color     string
	IsAnnual  bool // trueの場合、毎年同じ月日に繰り返す
	CreatedAt time.Time
	UpdatedAt time.Time
}
