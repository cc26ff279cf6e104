// Package chat はチャット生成APIの呼び出しとフィットネスアシスタントの応答生成を提供する。
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseSize はレスポンスボディの最大サイズ（1MB）。
const maxResponseSize = 1 << 20

// ErrNotConfigured はAPIキーが設定されていない場合のエラー。
var ErrNotConfigured = errors.New("chat: API key not configured")

// ErrEmptyResponse は候補が1件も返らなかった場合のエラー。
var ErrEmptyResponse = errors.New("chat: empty response")

// Client はGemini generateContent APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	model      string
	endpoint   string
}

// ClientConfig はClientの接続設定。
type ClientConfig struct {
	APIKey   string
	Model    string
	Endpoint string // 例: https://generativelanguage.googleapis.com/v1beta
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientにはsecurity.OutboundGuardが生成したクライアントを渡す。
func NewClient(httpClient *http.Client, logger *slog.Logger, cfg ClientConfig) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
	}
}

// Configured はAPIキーが設定されているかを返す。
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate はプロンプトを送信し、先頭候補のテキストを連結して返す。
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	reqURL, err := url.Parse(fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, url.PathEscape(c.model)))
	if err != nil {
		return "", fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	q := reqURL.Query()
	q.Set("key", c.apiKey)
	reqURL.RawQuery = q.Encode()

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Gymdesk/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// URLにAPIキーが含まれるため、エラー文字列はそのまま記録しない
		c.logger.Error("チャットAPIの呼び出しに失敗しました",
			slog.String("model", c.model),
			slog.String("error", redact(err.Error(), c.apiKey)),
		)
		return "", fmt.Errorf("チャットAPIの呼び出しに失敗しました: %s", redact(err.Error(), c.apiKey))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("チャットAPIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("model", c.model),
		)
		return "", fmt.Errorf("チャットAPIがステータス %d を返しました", resp.StatusCode)
	}

	var result generateResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Error("チャットAPIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if len(result.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "REDACTED")
}
