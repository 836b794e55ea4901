package builder

import (
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/store"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各パイプライン関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config   *config.Config         // Configは、環境変数とフラグを合成した設定です。
	Options  config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Parser   *parser.ProjectParser  // Parserは、プロジェクトファイルの読み書きに使います。
	Cache    *store.ImageCache      // Cacheは、生成画像を保存するローカルの SQLite です。
	Project  *domain.Project        // Projectは、読み込んだ作業中のプロジェクトです。
	Workflow *workflow.Manager      // Workflowは、各工程の Runner を構築する Manager です。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	p *parser.ProjectParser,
	cache *store.ImageCache,
	project *domain.Project,
	manager *workflow.Manager,
) *AppContext {
	return &AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		Parser:   p,
		Cache:    cache,
		Project:  project,
		Workflow: manager,
	}
}

// Close は保持しているリソースを解放します。
func (a *AppContext) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
