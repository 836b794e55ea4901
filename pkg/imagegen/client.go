package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/httpkit"
	"golang.org/x/time/rate"

	"github.com/shouni/go-storyboard-kit/pkg/extract"
)

const (
	chatCompletionsPath = "/chat/completions"
	defaultTimeout      = 180 * time.Second
	maxErrorBodyLen     = 512
)

// Config は Client の接続設定です。
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	// Timeout は1リクエストあたりの上限です。0 なら defaultTimeout を使います。
	Timeout time.Duration
	// RateInterval が正のとき、リクエスト間隔をこの値以上に保ちます。
	RateInterval time.Duration
	// HTTPClient は送信に使う Doer の差し替え口です。nil なら httpkit のクライアントを作ります。
	HTTPClient httpkit.Doer
}

// Client は OpenAI 互換エンドポイントに画像生成を1件ずつ依頼します。
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient httpkit.Doer
	limiter    *rate.Limiter
}

// New は設定を検証して Client を生成します。
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	base = strings.TrimSuffix(base, chatCompletionsPath)
	if base == "" || strings.TrimSpace(cfg.Model) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingEndpoint
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}

	var limiter *rate.Limiter
	if cfg.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateInterval), 1)
	}

	return &Client{
		endpoint:   base + chatCompletionsPath,
		model:      strings.TrimSpace(cfg.Model),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
		limiter:    limiter,
	}, nil
}

// NewHTTPClient は画像生成とテキスト生成で共有する httpkit のクライアントを生成します。
// 再試行は呼び出し側で制御するため、httpkit 側のリトライは無効にします。
// 接続先は設定で指定されたエンドポイントに限られ、ローカルのゲートウェイも許可するのでネットワーク検証は行いません。
func NewHTTPClient(timeout time.Duration) *httpkit.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return httpkit.New(timeout,
		httpkit.WithMaxRetries(0),
		httpkit.WithSkipNetworkValidation(true),
	)
}

// Generate は画像を1枚生成します。
// 応答から画像が取り出せない場合に限り、より厳しい指示で1回だけ再試行し、
// それでも得られなければプレースホルダー画像で代替します。
// 失敗は error ではなく Outcome で返し、ctx のキャンセルは OutcomeAborted になります。
func (c *Client) Generate(ctx context.Context, req Request) Outcome {
	ref, fail := c.attempt(ctx, req, req.System)
	if fail != nil {
		fail.Attempts = 1
		return *fail
	}
	if ref != "" {
		return succeeded(ref, 1)
	}

	slog.WarnContext(ctx, "応答から画像を取り出せなかったため、画像のみを要求して再試行します", "model", c.model)
	ref, fail = c.attempt(ctx, req, strictSystem(req.System))
	if fail != nil {
		fail.Attempts = 2
		return *fail
	}
	if ref != "" {
		return succeeded(ref, 2)
	}

	slog.WarnContext(ctx, "再試行でも画像が得られなかったため、プレースホルダーで代替します", "model", c.model)
	return Outcome{
		Kind:     OutcomePlaceholder,
		ImageURI: PlaceholderImage(req.PlaceholderText),
		Message:  "応答に画像が含まれていなかったため、プレースホルダーで代替しました",
		Attempts: 2,
	}
}

// attempt は1回分の送受信を行います。
// 画像が見つからなかった場合は ("", nil) を返します。
func (c *Client) attempt(ctx context.Context, req Request, system string) (string, *Outcome) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", c.transportFailure(ctx, err)
		}
	}

	payload, err := json.Marshal(buildBody(c.model, req, system))
	if err != nil {
		o := failed(ErrorKindRequest, "リクエストの組み立てに失敗しました", fmt.Errorf("リクエストのエンコードに失敗: %w", err))
		return "", &o
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		o := failed(ErrorKindRequest, "リクエストの組み立てに失敗しました", fmt.Errorf("HTTP リクエストの作成に失敗: %w", err))
		return "", &o
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", c.transportFailure(ctx, err)
	}

	body, err := httpkit.HandleResponse(resp)
	slog.DebugContext(ctx, "画像生成 API 応答", "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))
	if err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			// ボディの読み込み失敗やサイズ超過
			return "", c.transportFailure(ctx, err)
		}
		kind, msg := classifyStatus(resp.StatusCode)
		o := failed(kind, msg, newHTTPError(resp.StatusCode, err))
		return "", &o
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		o := failed(ErrorKindDecode, "応答の JSON を解析できませんでした", fmt.Errorf("応答のデコードに失敗: %w", err))
		return "", &o
	}

	ref, _ := extract.FromPayload(decoded)
	return ref, nil
}

// transportFailure は送受信中のエラーを中断または通信失敗に振り分けます。
func (c *Client) transportFailure(ctx context.Context, err error) *Outcome {
	if errors.Is(ctx.Err(), context.Canceled) {
		o := aborted(err)
		return &o
	}
	o := failed(ErrorKindNetwork, "通信に失敗しました", fmt.Errorf("画像生成 API への接続に失敗: %w", err))
	return &o
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
