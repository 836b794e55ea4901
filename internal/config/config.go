package config

import (
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/config"
)

// デフォルト値の定義なのだ
const (
	DefaultProjectFile = "storyboard.json" // 台本・キャスト・分鏡をまとめて保存する先なのだ
)

// Config は環境変数の設定と CLI フラグをまとめて持つ構造体なのだ。
type Config struct {
	config.Config

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、フラグで上書きした Config を返すのだ！
// フラグは明示的に指定されたものだけが環境変数より優先されるのだよ。
func LoadConfig(opts GenerateOptions) *Config {
	cfg := &Config{Config: config.LoadFromEnv(), Options: opts}

	if opts.TextModel != "" {
		cfg.TextModel = opts.TextModel
	}
	if opts.ImageModel != "" {
		cfg.ImageModel = opts.ImageModel
	}
	if opts.Style != "" {
		cfg.Style = opts.Style
	}
	if opts.AspectRatio != "" {
		cfg.AspectRatio = opts.AspectRatio
	}
	if opts.CacheDB != "" {
		cfg.CacheDB = opts.CacheDB
	}
	if opts.Interval > 0 {
		cfg.BatchInterval = opts.Interval
	}
	if opts.HTTPTimeout > 0 {
		cfg.RequestTimeout = opts.HTTPTimeout
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入出力関連
	ProjectFile string // --project
	ScriptFile  string // --script-file（'-' で標準入力）
	CacheDB     string // --cache-db

	// 生成の見た目
	Style       string // --style: "写实" や "anime" などの画風ラベル
	AspectRatio string // --aspect-ratio: "16:9" などの画幅比

	// AI挙動設定
	TextModel  string // --model: 台本解析用のモデル
	ImageModel string // --image-model: 画像生成用のモデル

	// 実行制御
	Interval    time.Duration // --interval: 一括生成の単位間の待ち時間
	HTTPTimeout time.Duration // --http-timeout
}
