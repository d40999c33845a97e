// Package dday はD-Dayカウントダウンの計算とイベント管理を提供する。
package dday

import (
	"fmt"
	"math"
	"time"
)

// Kind はカウントダウン結果の種別を表す。
type Kind string

const (
	// KindToday は対象日が今日であることを示す。
	KindToday Kind = "today"
	// KindUpcoming は対象日が未来であることを示す。
	KindUpcoming Kind = "upcoming"
	// KindPast は対象日が過去であることを示す。毎年繰り返しのイベントでは到達しない。
	KindPast Kind = "past"
)

// Countdown はD-Day計算の結果を表す。
type Countdown struct {
	Label string // "D-Day" / "D-N" / "D+N"
	Kind  Kind
	Days  int // 今日から対象日までの暦日差。過去は負。
}

// Compute は対象日・毎年繰り返しフラグ・今日の3入力からカウントダウンを計算する純粋関数。
// 両日付を今日のタイムゾーンの0時に正規化してから比較するため、結果は暦日差のみに依存し、
// 入力のタイムゾーン差やDST境界が日数に影響しない。
//
// isAnnualがtrueの場合、対象日の年を今日の年に置き換え、その日付が今日より前なら
// 1年進める。これにより今日以降で最も近い同月同日が対象になるため、
// 毎年繰り返しのイベントで日数差が負になることはない。
func Compute(target time.Time, isAnnual bool, today time.Time) Countdown {
	today = normalizeDate(today)

	// ストアから来る日付はロケーションが異なり得るため、年月日成分だけを取り出して
	// 今日と同じロケーションの0時に再構築する。これで差分は常に暦日差になる。
	target = time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, today.Location())

	if isAnnual {
		target = time.Date(today.Year(), target.Month(), target.Day(), 0, 0, 0, 0, today.Location())
		if target.Before(today) {
			target = target.AddDate(1, 0, 0)
		}
	}

	// DST境界の日は24時間ちょうどにならないため、切り上げではなく四捨五入で暦日差に丸める
	diffDays := int(math.Round(target.Sub(today).Hours() / 24))

	switch {
	case diffDays == 0:
		return Countdown{Label: "D-Day", Kind: KindToday, Days: 0}
	case diffDays > 0:
		return Countdown{Label: fmt.Sprintf("D-%d", diffDays), Kind: KindUpcoming, Days: diffDays}
	default:
		return Countdown{Label: fmt.Sprintf("D+%d", -diffDays), Kind: KindPast, Days: diffDays}
	}
}

// GridColumns は表示ウィジェットのグリッド列数をアイテム数から決定する。
// 4件以下は1列、5〜8件は2列、9件以上は3列。
func GridColumns(count int) int {
	switch {
	case count >= 9:
		return 3
	case count >= 5:
		return 2
	default:
		return 1
	}
}

// normalizeDate は時刻成分を落としてローカルの0時に正規化する。
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
