package workflow

import (
	"context"

	"github.com/shouni/go-storyboard-kit/pkg/batch"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

// Workflow は、分鏡制作の各工程を担当する Runner を構築するためのインターフェースを定義します。
type Workflow interface {
	BuildScriptRunner() (ScriptRunner, error)
	BuildDesignRunner() (DesignRunner, error)
	BuildFrameRunner() (FrameRunner, error)
	BuildPublishRunner(writer publisher.OutputWriter) PublishRunner
	Stop() bool
}

// ScriptRunner は、台本から角色を抽出し、分鏡に分割する責務を持ちます。
type ScriptRunner interface {
	ExtractRoles(ctx context.Context, script string) (domain.Cast, error)
	SplitStoryboard(ctx context.Context, script, ratio, style string, cast domain.Cast) ([]domain.StoryboardFrame, error)
}

// DesignRunner は、キャラクターの参照画像を生成する責務を持ちます。
type DesignRunner interface {
	Run(ctx context.Context, ids []string) (batch.Summary, error)
}

// FrameRunner は、分鏡フレームのプレビュー画像を一括生成する責務を持ちます。
type FrameRunner interface {
	Run(ctx context.Context, ids []string) (batch.Summary, error)
}

// PublishRunner は、分鏡を Markdown と画像ファイルに書き出す責務を持ちます。
type PublishRunner interface {
	Run(ctx context.Context, title, outputDir string) (publisher.PublishResult, error)
	BuildMarkdown(title string) string
}
