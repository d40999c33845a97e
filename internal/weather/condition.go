// Package weather はOpenWeatherMapからの天気取得とレポート生成を提供する。
// 取得結果はRedisにキャッシュし、キャッシュ障害時は直接取得にフォールバックする。
package weather

import (
	"time"

	"github.com/hitoshi/dayboard/internal/model"
)

// ConditionFromCode はOpenWeatherMapの天気コードを表示用の状態タグに変換する。
// コードは百番台でグループ化されている（2xx:雷雨、3xx:霧雨、5xx:雨、
// 6xx:雪、7xx:大気現象、800:快晴、801以上:曇り）。
// 未知のコードは快晴として扱う。
func ConditionFromCode(code int) model.WeatherCondition {
	switch {
	case code >= 200 && code <= 299:
		return model.ConditionThunder
	case code >= 300 && code <= 399:
		return model.ConditionDrizzle
	case code >= 500 && code <= 599:
		return model.ConditionRain
	case code >= 600 && code <= 699:
		return model.ConditionSnow
	case code >= 700 && code <= 799:
		return model.ConditionOvercast
	case code > 800:
		return model.ConditionClouds
	default:
		return model.ConditionClear
	}
}

// weekdayLabels は日曜始まりの韓国語曜日ラベル。time.Weekdayと同じ並び。
var weekdayLabels = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// WeekdayLabel は日付に対応する韓国語の曜日ラベルを返す。
func WeekdayLabel(t time.Time) string {
	return weekdayLabels[int(t.Weekday())]
}
