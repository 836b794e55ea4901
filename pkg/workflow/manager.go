package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-storyboard-kit/internal/prompt"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/batch"
	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/imagegen"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/runner"
)

// Manager は、ワークフローの各工程を担う Runner 群を構築・管理します。
// 画像生成系の Runner は1つの batch.Runner を共有するため、同時に走る一括生成は常に1つです。
type Manager struct {
	cfg          config.Config
	project      *domain.Project
	style        prompts.StyleID
	scriptPrompt prompts.PromptBuilder
	chatClient   runner.ChatCompleter
	imageClient  batch.Generator
	httpClient   httpkit.Doer
	resolver     *asset.Resolver
	applier      *runner.ProjectApplier
	batch        *batch.Runner
}

var _ Workflow = (*Manager)(nil)

// New は、設定とプロジェクトを基に新しい Manager を初期化します。
func New(args ManagerArgs) (*Manager, error) {
	if args.Project == nil {
		return nil, errors.New("Project は必須です")
	}

	sPrompt, err := initializeScriptPrompt(args.ScriptPrompt)
	if err != nil {
		return nil, err
	}

	style := resolveStyle(args.Project.Style, args.Config.Style)

	m := &Manager{
		cfg:          args.Config,
		project:      args.Project,
		style:        style,
		scriptPrompt: sPrompt,
		chatClient:   args.ChatClient,
		imageClient:  args.ImageClient,
		httpClient:   args.HTTPClient,
	}
	if m.httpClient == nil {
		m.httpClient = imagegen.NewHTTPClient(args.Config.RequestTimeout)
	}

	var store asset.Store
	var saver runner.ImageSaver
	if args.Cache != nil {
		store, saver = args.Cache, args.Cache
	}
	m.resolver = asset.NewResolver(store, args.BaseDir, defaultResolveTTL)
	m.applier = runner.NewProjectApplier(args.Project, saver, m.resolver)

	if m.imageClient == nil {
		// 画像生成を使わない工程（台本解析のみ）でも Manager を作れるよう、ここでは失敗させない
		client, err := initializeImageClient(args.Config, m.httpClient)
		if err != nil {
			slog.Debug("画像生成クライアントを初期化しませんでした", "error", err)
		} else {
			m.imageClient = client
		}
	}
	if m.imageClient != nil {
		m.batch = batch.NewRunner(m.imageClient, m.applier, args.Observer, args.Config.BatchInterval)
	}

	return m, nil
}

// Style は使用する画風です。
func (m *Manager) Style() prompts.StyleID {
	return m.style
}

// Project は管理対象のプロジェクトを返します。
func (m *Manager) Project() *domain.Project {
	return m.project
}

// Stop は実行中の一括生成に停止を要求します。
func (m *Manager) Stop() bool {
	if m.batch == nil {
		return false
	}
	return m.batch.Stop()
}

// initializeScriptPrompt は台本解析用の PromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は埋め込みテンプレートから新規作成します。
func initializeScriptPrompt(scriptPrompt prompts.PromptBuilder) (prompts.PromptBuilder, error) {
	if scriptPrompt != nil {
		return scriptPrompt, nil
	}

	pb, err := prompts.NewTextPromptBuilder(prompt.Templates())
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}
	return pb, nil
}

// resolveStyle はプロジェクトの指定を優先して画風ラベルを StyleID に変換します。
func resolveStyle(labels ...string) prompts.StyleID {
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			continue
		}
		id, ok := prompts.ParseStyle(label)
		if !ok {
			slog.Warn("未知の画風のため既定の画風を使用します", "style", label, "fallback", id.String())
		}
		return id
	}
	return prompts.DefaultStyle
}
