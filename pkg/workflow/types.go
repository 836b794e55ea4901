package workflow

import (
	"time"

	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/batch"
	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/runner"
)

const (
	defaultResolveTTL = 10 * time.Minute
)

// ImageCache は生成画像の保存先です。internal/store.ImageCache が実装します。
type ImageCache interface {
	asset.Store
	runner.ImageSaver
}

// ManagerArgs は Manager の初期化に必要な依存関係です。
type ManagerArgs struct {
	Config  config.Config
	Project *domain.Project

	// BaseDir は相対パスのローカル参照画像を探す起点です。通常はプロジェクトファイルのディレクトリです。
	BaseDir string

	// 以下は任意項目です。nil の場合は Config から生成するか、機能を無効にします。
	ScriptPrompt prompts.PromptBuilder
	ChatClient   runner.ChatCompleter
	ImageClient  batch.Generator
	Cache        ImageCache
	Observer     batch.Observer
	HTTPClient   httpkit.Doer
}
