// Package menu はダッシュボードのメニューグリッド（ショートカット集）の
// ドメインロジックを提供する。
package menu

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxFaviconSize はfaviconの最大サイズ（2MB）。
const maxFaviconSize = 2 * 1024 * 1024

// maxDiscoveryHTMLSize はfaviconリンク探索で読み込むHTMLの最大サイズ（1MB）。
const maxDiscoveryHTMLSize = 1 * 1024 * 1024

// faviconTimeout はfavicon取得のタイムアウト。
const faviconTimeout = 5 * time.Second

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// FaviconFetcherService はfavicon取得のインターフェース。
// メニュー項目の登録・更新時にベストエフォートで呼び出される。
type FaviconFetcherService interface {
	// FetchForSite はサイトURLからfaviconを探索して取得する。
	// サイトHTMLのlink要素を優先し、見つからなければ /favicon.ico を試行する。
	// 取得失敗時はnilデータと空MIMEを返す（エラーは返さない）。
	FetchForSite(ctx context.Context, siteURL string) (data []byte, mimeType string)
}

// FaviconFetcher はfavicon取得機能の実装。
// ユーザーが登録した任意のURLにサーバー側からアクセスするため、
// 全てのリクエストはSSRF防止クライアントを経由する。
type FaviconFetcher struct {
	ssrfGuard SSRFValidator
}

// インターフェース実装の確認
var _ FaviconFetcherService = (*FaviconFetcher)(nil)

// NewFaviconFetcher はFaviconFetcherの新しいインスタンスを生成する。
func NewFaviconFetcher(ssrfGuard SSRFValidator) *FaviconFetcher {
	return &FaviconFetcher{
		ssrfGuard: ssrfGuard,
	}
}

// FetchForSite はサイトURLからfaviconを探索して取得する。
// 探索順: サイトHTMLのlink要素 → /favicon.ico。
func (f *FaviconFetcher) FetchForSite(ctx context.Context, siteURL string) ([]byte, string) {
	if siteURL == "" {
		return nil, ""
	}

	if linkURL := f.discoverFaviconURL(ctx, siteURL); linkURL != "" {
		if data, mime := f.fetch(ctx, linkURL); data != nil {
			return data, mime
		}
	}

	return f.fetch(ctx, guessDefaultFaviconURL(siteURL))
}

// discoverFaviconURL はサイトのHTMLを取得し、head内のlink要素から
// favicon URLを探索する。見つからない場合は空文字列を返す。
func (f *FaviconFetcher) discoverFaviconURL(ctx context.Context, siteURL string) string {
	if err := f.ssrfGuard.ValidateURL(siteURL); err != nil {
		slog.Warn("favicon探索: SSRFブロック", "url", siteURL, "error", err)
		return ""
	}

	client := f.getHTTPClient()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Dayboard/1.0 Dashboard")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("favicon探索: HTTPリクエスト失敗", "url", siteURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDiscoveryHTMLSize))
	if err != nil {
		return ""
	}

	return parseFaviconLinkFromHTML(body, siteURL)
}

// parseFaviconLinkFromHTML はHTMLのheadタグからfaviconリンクを解析・検出する。
// rel="icon" / "shortcut icon" / "apple-touch-icon" のlink要素を対象とし、
// 相対URLはbaseURLを基準に絶対URLに解決される。
func parseFaviconLinkFromHTML(htmlBody []byte, baseURL string) string {
	baseU, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "head" {
				inHead = true
				continue
			}

			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return ""
			}

			if !inHead || tagName != "link" || !hasAttr {
				continue
			}

			// link要素の属性を解析
			var rel, href string
			for {
				key, val, more := tokenizer.TagAttr()
				k := strings.ToLower(string(key))
				v := string(val)
				switch k {
				case "rel":
					rel = strings.ToLower(v)
				case "href":
					href = v
				}
				if !more {
					break
				}
			}

			if href == "" || !isFaviconRel(rel) {
				continue
			}

			// 相対URLを絶対URLに解決
			ref, err := url.Parse(href)
			if err != nil {
				continue
			}
			return baseU.ResolveReference(ref).String()

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return ""
			}
		}
	}
}

// isFaviconRel はlink要素のrel属性がfaviconを指すかを判定する。
func isFaviconRel(rel string) bool {
	switch rel {
	case "icon", "shortcut icon", "apple-touch-icon":
		return true
	}
	return false
}

// fetch は指定URLからfavicon画像を取得する。
// 取得失敗時はnilデータと空MIMEを返す（失敗時はnullとして保存するため）。
func (f *FaviconFetcher) fetch(ctx context.Context, faviconURL string) ([]byte, string) {
	if faviconURL == "" {
		return nil, ""
	}

	if err := f.ssrfGuard.ValidateURL(faviconURL); err != nil {
		slog.Warn("favicon取得: SSRFブロック", "url", faviconURL, "error", err)
		return nil, ""
	}

	client := f.getHTTPClient()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, faviconURL, nil)
	if err != nil {
		return nil, ""
	}
	req.Header.Set("User-Agent", "Dayboard/1.0 Dashboard")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("favicon取得: HTTPリクエスト失敗", "url", faviconURL, "error", err)
		return nil, ""
	}
	defer resp.Body.Close()

	// 2xx以外はfavicon取得失敗として扱う
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("favicon取得: HTTPステータス異常", "url", faviconURL, "status", resp.StatusCode)
		return nil, ""
	}

	// レスポンスボディを読み込み（最大2MB）
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFaviconSize+1))
	if err != nil {
		slog.Warn("favicon取得: レスポンス読み取り失敗", "url", faviconURL, "error", err)
		return nil, ""
	}

	// サイズ超過チェック
	if int64(len(body)) > maxFaviconSize {
		slog.Warn("favicon取得: サイズ超過", "url", faviconURL, "size", len(body))
		return nil, ""
	}

	mimeType := extractMimeType(resp.Header.Get("Content-Type"))
	if !isImageMime(mimeType) {
		slog.Warn("favicon取得: 画像以外のContent-Type", "url", faviconURL, "contentType", mimeType)
		return nil, ""
	}

	return body, mimeType
}

// getHTTPClient はSSRF防止機能付きのHTTPクライアントを取得する。
func (f *FaviconFetcher) getHTTPClient() *http.Client {
	return f.ssrfGuard.NewSafeClient(faviconTimeout, maxFaviconSize)
}

// guessDefaultFaviconURL はサイトURLからデフォルトのfavicon URLを推測する。
func guessDefaultFaviconURL(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}

	u.Path = "/favicon.ico"
	u.RawQuery = ""
	u.Fragment = ""

	return u.String()
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	// セミコロンの前の部分（charset等を除去）
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// isImageMime はMIMEタイプが画像かどうかを判定する。
func isImageMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
