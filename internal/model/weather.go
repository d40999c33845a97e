// Package model はドメインモデルを定義する。
package model

// WeatherCondition は天気の状態を表す閉集合のタグ。
// ダッシュボードのフロントエンドが表示する韓国語ラベルをそのまま値とする。
type WeatherCondition string

const (
	// ConditionClear は快晴（天気コード800）。
	ConditionClear WeatherCondition = "맑음"
	// ConditionClouds は曇りがち（天気コード800超）。
	ConditionClouds WeatherCondition = "구름"
	// ConditionOvercast は霧・もや等（天気コード700番台）。
	ConditionOvercast WeatherCondition = "흐림"
	// ConditionRain は雨（天気コード500番台）。
	ConditionRain WeatherCondition = "비"
	// ConditionDrizzle は霧雨（天気コード300番台）。
	ConditionDrizzle WeatherCondition = "이슬비"
	// ConditionSnow は雪（天気コード600番台）。
	ConditionSnow WeatherCondition = "눈"
	// ConditionThunder は雷雨（天気コード200番台）。
	ConditionThunder WeatherCondition = "뇌우"
)

// CurrentWeather は現在の天気を表す。
type CurrentWeather struct {
	Temp       int
	Condition  WeatherCondition
	Location   string
	Humidity   int
	WindSpeed  float64
	FeelsLike  int
	RainChance int // 降水確率（%）。直近の予報スロットのpopから算出する。
}

// ForecastEntry は先行き予報の1日分を表す。
type ForecastEntry struct {
	Day       string // 韓国語の曜日ラベル（일〜토）
	Temp      int
	Condition WeatherCondition
}

// WeatherReport は現在の天気と最大4日分の予報をまとめたレポート。
type WeatherReport struct {
	Current  CurrentWeather
	Forecast []ForecastEntry
}
