package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hitoshi/dayboard/internal/model"
)

// maxForecastDays はレポートに含める予報の最大日数。
const maxForecastDays = 4

// Fetcher は天気プロバイダーの取得インターフェース。
type Fetcher interface {
	FetchCurrent(ctx context.Context, lat, lon float64) (*currentResponse, error)
	FetchForecast(ctx context.Context, lat, lon float64) (*forecastResponse, error)
}

// FetchRecorder は天気取得とキャッシュのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type FetchRecorder interface {
	RecordWeatherFetch(success bool)
	RecordWeatherCache(hit bool)
	RecordWeatherLatency(duration time.Duration)
}

// Service は天気レポートの取得とキャッシュを編成する。
// キャッシュ障害は直接取得へのフォールバックとして扱い、エラーにしない。
type Service struct {
	fetcher  Fetcher
	cache    Cache
	ttl      time.Duration
	recorder FetchRecorder
	nowFunc  func() time.Time
}

// NewService はService の新しいインスタンスを生成する。recorderはnil可（記録なし）。
func NewService(fetcher Fetcher, cache Cache, ttl time.Duration, recorder FetchRecorder) *Service {
	return &Service{
		fetcher:  fetcher,
		cache:    cache,
		ttl:      ttl,
		recorder: recorder,
		nowFunc:  time.Now,
	}
}

// GetReport は指定座標の天気レポートを返す。
// キャッシュにあればそれを返し、なければプロバイダーから取得してキャッシュする。
func (s *Service) GetReport(ctx context.Context, lat, lon float64) (*model.WeatherReport, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, model.NewInvalidCoordinatesError()
	}

	// 近傍の座標が同じキャッシュエントリを共有するよう小数第2位で丸める
	key := fmt.Sprintf("weather:%.2f:%.2f", lat, lon)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		s.recordCache(true)
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("天気キャッシュの取得に失敗しました。プロバイダーから直接取得します",
			slog.String("error", err.Error()),
			slog.String("key", key),
		)
	}
	s.recordCache(false)

	fetchStart := s.nowFunc()
	current, err := s.fetcher.FetchCurrent(ctx, lat, lon)
	if err != nil {
		s.recordFetch(false)
		return nil, model.NewWeatherUnavailableError(err.Error())
	}
	forecast, err := s.fetcher.FetchForecast(ctx, lat, lon)
	if err != nil {
		s.recordFetch(false)
		return nil, model.NewWeatherUnavailableError(err.Error())
	}
	s.recordFetch(true)
	s.recordLatency(time.Since(fetchStart))

	report := buildReport(current, forecast, s.nowFunc())

	if err := s.cache.Set(ctx, key, report, s.ttl); err != nil {
		slog.Warn("天気キャッシュの保存に失敗しました",
			slog.String("error", err.Error()),
			slog.String("key", key),
		)
	}

	return report, nil
}

// buildReport は現在天気と予報のレスポンスから表示用レポートを組み立てる。
func buildReport(current *currentResponse, forecast *forecastResponse, now time.Time) *model.WeatherReport {
	code := 800
	if len(current.Weather) > 0 {
		code = current.Weather[0].ID
	}

	report := &model.WeatherReport{
		Current: model.CurrentWeather{
			Temp:       int(math.Round(current.Main.Temp)),
			Condition:  ConditionFromCode(code),
			Location:   current.Name,
			Humidity:   current.Main.Humidity,
			WindSpeed:  current.Wind.Speed,
			FeelsLike:  int(math.Round(current.Main.FeelsLike)),
			RainChance: nearestRainChance(forecast.List, now),
		},
		Forecast: dailyEntries(forecast.List, now),
	}
	return report
}

// nearestRainChance は直近の予報コマの降水確率をパーセントで返す。
// 未来のコマがない場合は先頭のコマを使う。コマが1つもなければ0を返す。
func nearestRainChance(slots []forecastSlot, now time.Time) int {
	if len(slots) == 0 {
		return 0
	}
	pick := slots[0]
	for _, slot := range slots {
		if slot.Dt >= now.Unix() {
			pick = slot
			break
		}
	}
	return int(math.Round(pick.Pop * 100))
}

// dailyEntries は3時間ごとの予報コマを暦日単位にまとめる。
// 今日のコマはスキップし、各日について正午に最も近いコマを代表として
// 最大4日分のエントリを返す。
func dailyEntries(slots []forecastSlot, now time.Time) []model.ForecastEntry {
	type pick struct {
		slot forecastSlot
		t    time.Time
	}

	today := now.Format("2006-01-02")
	order := make([]string, 0, maxForecastDays)
	picks := make(map[string]pick)

	for _, slot := range slots {
		t := time.Unix(slot.Dt, 0).In(now.Location())
		day := t.Format("2006-01-02")
		if day == today {
			continue
		}

		existing, ok := picks[day]
		if !ok {
			if len(order) >= maxForecastDays {
				break
			}
			order = append(order, day)
			picks[day] = pick{slot: slot, t: t}
			continue
		}
		if hourDistanceFromNoon(t) < hourDistanceFromNoon(existing.t) {
			picks[day] = pick{slot: slot, t: t}
		}
	}

	entries := make([]model.ForecastEntry, 0, len(order))
	for _, day := range order {
		p := picks[day]
		code := 800
		if len(p.slot.Weather) > 0 {
			code = p.slot.Weather[0].ID
		}
		entries = append(entries, model.ForecastEntry{
			Day:       WeekdayLabel(p.t),
			Temp:      int(math.Round(p.slot.Main.Temp)),
			Condition: ConditionFromCode(code),
		})
	}
	return entries
}

// hourDistanceFromNoon は時刻の正午からの距離（時間）を返す。
func hourDistanceFromNoon(t time.Time) int {
	d := t.Hour() - 12
	if d < 0 {
		return -d
	}
	return d
}

// recordFetch はプロバイダー取得の成否をメトリクスに記録する。
func (s *Service) recordFetch(success bool) {
	if s.recorder != nil {
		s.recorder.RecordWeatherFetch(success)
	}
}

// recordCache はキャッシュのヒット・ミスをメトリクスに記録する。
func (s *Service) recordCache(hit bool) {
	if s.recorder != nil {
		s.recorder.RecordWeatherCache(hit)
	}
}

// recordLatency はプロバイダー取得の所要時間をメトリクスに記録する。
func (s *Service) recordLatency(duration time.Duration) {
	if s.recorder != nil {
		s.recorder.RecordWeatherLatency(duration)
	}
}
