package workflow

import (
	"fmt"

	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/imagegen"
	"github.com/shouni/go-storyboard-kit/pkg/runner"
)

// initializeImageClient は画像生成エンドポイントのクライアントを初期化します。
func initializeImageClient(cfg config.Config, httpClient httpkit.Doer) (*imagegen.Client, error) {
	ep := cfg.ImageEndpoint()
	client, err := imagegen.New(imagegen.Config{
		BaseURL:      ep.BaseURL,
		Model:        ep.Model,
		APIKey:       ep.APIKey,
		Timeout:      cfg.RequestTimeout,
		RateInterval: cfg.RateInterval,
		HTTPClient:   httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("画像生成クライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// initializeChatClient はテキスト生成エンドポイントのクライアントを初期化します。
func initializeChatClient(cfg config.Config, httpClient httpkit.Doer) (runner.ChatCompleter, error) {
	ep := cfg.TextEndpoint()
	if ep.APIKey == "" || ep.Model == "" {
		return nil, fmt.Errorf("テキスト生成の API キーまたはモデルが設定されていません (%s)", config.EnvAPIKey)
	}
	return runner.NewChatClient(ep, httpClient), nil
}
