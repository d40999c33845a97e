package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

const (
	// defaultBaseURL はOpenWeatherMap APIのベースURL。
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// currentResponse は現在天気エンドポイントのレスポンス。
type currentResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Name string `json:"name"`
}

// forecastResponse は5日/3時間予報エンドポイントのレスポンス。
type forecastResponse struct {
	List []forecastSlot `json:"list"`
}

// forecastSlot は3時間ごとの予報1コマ。
type forecastSlot struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		ID int `json:"id"`
	} `json:"weather"`
	Pop float64 `json:"pop"` // 降水確率（0.0〜1.0）
}

// Client はOpenWeatherMap APIのクライアント。
// 現在天気と5日/3時間予報の2エンドポイントを使用する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClient の新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
	}
}

// FetchCurrent は指定座標の現在天気を取得する。
func (c *Client) FetchCurrent(ctx context.Context, lat, lon float64) (*currentResponse, error) {
	var result currentResponse
	if err := c.fetch(ctx, "/weather", lat, lon, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchForecast は指定座標の5日/3時間予報を取得する。
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64) (*forecastResponse, error) {
	var result forecastResponse
	if err := c.fetch(ctx, "/forecast", lat, lon, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// fetch は指定パスのエンドポイントを呼び出してレスポンスJSONをデコードする。
// 単位はメートル法、天気の説明文は韓国語で取得する。
func (c *Client) fetch(ctx context.Context, path string, lat, lon float64, out any) error {
	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", "metric")
	q.Set("lang", "kr")
	q.Set("appid", c.apiKey)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Dayboard/1.0 Dashboard")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("天気APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("path", path),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("天気APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("path", path),
		)
		return fmt.Errorf("天気APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("天気APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
			slog.String("path", path),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return nil
}
