package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義
const (
	DefaultBaseURL        = "https://openrouter.ai/api/v1"
	DefaultTextModel      = "google/gemini-2.5-flash"
	DefaultImageModel     = "google/gemini-2.5-flash-image-preview"
	DefaultRequestTimeout = 180 * time.Second
	DefaultBatchInterval  = 1 * time.Second
	DefaultStyle          = "写实"
	DefaultAspectRatio    = "16:9"
	DefaultCacheDB        = ".storyboard/images.db"
)

// 環境変数名
const (
	EnvBaseURL        = "STORYBOARD_BASE_URL"
	EnvModel          = "STORYBOARD_MODEL"
	EnvAPIKey         = "STORYBOARD_API_KEY"
	EnvImageBaseURL   = "STORYBOARD_IMAGE_BASE_URL"
	EnvImageModel     = "STORYBOARD_IMAGE_MODEL"
	EnvImageAPIKey    = "STORYBOARD_IMAGE_API_KEY"
	EnvRequestTimeout = "STORYBOARD_REQUEST_TIMEOUT"
	EnvBatchInterval  = "STORYBOARD_BATCH_INTERVAL"
	EnvRateInterval   = "STORYBOARD_RATE_INTERVAL"
	EnvStyle          = "STORYBOARD_STYLE"
	EnvAspectRatio    = "STORYBOARD_ASPECT_RATIO"
	EnvCacheDB        = "STORYBOARD_CACHE_DB"
)

// Endpoint は OpenAI 互換エンドポイントの接続先です。
type Endpoint struct {
	BaseURL string
	Model   string
	APIKey  string
}

// Config は Go Storyboard Kit の各 Runner を動作させるための基本設定です。
type Config struct {
	// --- テキスト生成（台本解析） ---
	TextBaseURL string
	TextModel   string
	TextAPIKey  string

	// --- 画像生成 ---
	// 空の項目はテキスト側の値を引き継ぎます。
	// モデルはテキスト側も既定値のままなら DefaultImageModel を使います。
	ImageBaseURL string
	ImageModel   string
	ImageAPIKey  string

	// --- Generation Settings ---
	Style       string
	AspectRatio string

	// BatchInterval は一括生成で単位間に挟む待機時間です。
	BatchInterval time.Duration
	// RateInterval はクライアント側でリクエストの間に空ける最小間隔です。0 で無効。
	RateInterval time.Duration

	// --- Timeout ---
	RequestTimeout time.Duration

	// CacheDB は画像キャッシュの SQLite ファイルパスです。
	CacheDB string
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		TextBaseURL:    DefaultBaseURL,
		TextModel:      DefaultTextModel,
		Style:          DefaultStyle,
		AspectRatio:    DefaultAspectRatio,
		BatchInterval:  DefaultBatchInterval,
		RequestTimeout: DefaultRequestTimeout,
		CacheDB:        DefaultCacheDB,
	}
}

// LoadFromEnv は環境変数から設定を読み込みます。未設定の項目はデフォルト値になります。
func LoadFromEnv() Config {
	def := DefaultConfig()
	return Config{
		TextBaseURL:    envString(EnvBaseURL, def.TextBaseURL),
		TextModel:      envString(EnvModel, def.TextModel),
		TextAPIKey:     envutil.GetEnv(EnvAPIKey, ""),
		ImageBaseURL:   envutil.GetEnv(EnvImageBaseURL, ""),
		ImageModel:     envString(EnvImageModel, ""),
		ImageAPIKey:    envutil.GetEnv(EnvImageAPIKey, ""),
		Style:          envString(EnvStyle, def.Style),
		AspectRatio:    envString(EnvAspectRatio, def.AspectRatio),
		BatchInterval:  envDuration(EnvBatchInterval, def.BatchInterval),
		RateInterval:   envDuration(EnvRateInterval, 0),
		RequestTimeout: envDuration(EnvRequestTimeout, def.RequestTimeout),
		CacheDB:        envString(EnvCacheDB, def.CacheDB),
	}
}

// TextEndpoint はテキスト生成の接続先を返します。
func (c Config) TextEndpoint() Endpoint {
	return Endpoint{BaseURL: c.TextBaseURL, Model: c.TextModel, APIKey: c.TextAPIKey}
}

// ImageEndpoint は画像生成の接続先を返します。未設定の項目はテキスト側の値で補います。
func (c Config) ImageEndpoint() Endpoint {
	return Endpoint{
		BaseURL: firstNonEmpty(c.ImageBaseURL, c.TextBaseURL),
		Model:   c.imageModel(),
		APIKey:  firstNonEmpty(c.ImageAPIKey, c.TextAPIKey),
	}
}

// imageModel は画像生成に使うモデルを決めます。
// 既定のテキストモデルは画像を返さないため、引き継ぐのは明示的に指定されたテキストモデルだけです。
func (c Config) imageModel() string {
	if m := strings.TrimSpace(c.ImageModel); m != "" {
		return m
	}
	if m := strings.TrimSpace(c.TextModel); m != "" && m != DefaultTextModel {
		return m
	}
	return DefaultImageModel
}

// envString は空文字の環境変数も未設定として扱います。
func envString(key, fallback string) string {
	if v := strings.TrimSpace(envutil.GetEnv(key, "")); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(envutil.GetEnv(key, ""))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		slog.Warn("時間指定を解釈できないためデフォルト値を使用します", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
