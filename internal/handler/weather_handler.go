package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/dayboard/internal/middleware"
	"github.com/hitoshi/dayboard/internal/model"
)

// WeatherServiceInterface は天気ハンドラーが必要とするサービスインターフェース。
type WeatherServiceInterface interface {
	// GetReport は指定座標の天気レポートを返す。キャッシュがあればそれを使う。
	GetReport(ctx context.Context, lat, lon float64) (*model.WeatherReport, error)
}

// WeatherHandler は天気ウィジェットのHTTPハンドラー。
type WeatherHandler struct {
	service WeatherServiceInterface
}

// NewWeatherHandler はWeatherHandlerを生成する。
func NewWeatherHandler(service WeatherServiceInterface) *WeatherHandler {
	return &WeatherHandler{service: service}
}

// currentWeatherResponse は現在の天気のAPIレスポンス。
type currentWeatherResponse struct {
	Temp       int     `json:"temp"`
	Condition  string  `json:"condition"`
	Location   string  `json:"location"`
	Humidity   int     `json:"humidity"`
	WindSpeed  float64 `json:"wind_speed"`
	FeelsLike  int     `json:"feels_like"`
	RainChance int     `json:"rain_chance"`
}

// forecastEntryResponse は先行き予報1日分のAPIレスポンス。
type forecastEntryResponse struct {
	Day       string `json:"day"`
	Temp      int    `json:"temp"`
	Condition string `json:"condition"`
}

// weatherReportResponse は天気レポートのAPIレスポンス。
type weatherReportResponse struct {
	Current  currentWeatherResponse  `json:"current"`
	Forecast []forecastEntryResponse `json:"forecast"`
}

// GetWeather は指定座標の天気レポートを返す。
// GET /api/weather?lat=37.5665&lon=126.9780
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCoordinatesError())
		return
	}

	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCoordinatesError())
		return
	}

	report, err := h.service.GetReport(r.Context(), lat, lon)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWeatherReportResponse(report))
}

// toWeatherReportResponse はmodel.WeatherReportからAPIレスポンスに変換する。
func toWeatherReportResponse(report *model.WeatherReport) weatherReportResponse {
	forecast := make([]forecastEntryResponse, len(report.Forecast))
	for i, entry := range report.Forecast {
		forecast[i] = forecastEntryResponse{
			Day:       entry.Day,
			Temp:      entry.Temp,
			Condition: string(entry.Condition),
		}
	}

	return weatherReportResponse{
		Current: currentWeatherResponse{
			Temp:       report.Current.Temp,
			Condition:  string(report.Current.Condition),
			Location:   report.Current.Location,
			Humidity:   report.Current.Humidity,
			WindSpeed:  report.Current.WindSpeed,
			FeelsLike:  report.Current.FeelsLike,
			RainChance: report.Current.RainChance,
		},
		Forecast: forecast,
	}
}
