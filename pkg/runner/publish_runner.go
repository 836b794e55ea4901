package runner

import (
	"context"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

// PublishRunner は pkg/publisher を利用してプロジェクトを Markdown と画像ファイルに書き出すのだ。
type PublishRunner struct {
	applier   *ProjectApplier
	publisher *publisher.StoryboardPublisher
}

func NewPublishRunner(applier *ProjectApplier, pub *publisher.StoryboardPublisher) *PublishRunner {
	return &PublishRunner{
		applier:   applier,
		publisher: pub,
	}
}

// Run はプロジェクトの写しを作ってから書き出すのだ。書き出し中に一括生成が進んでも影響を受けないのだよ。
func (pr *PublishRunner) Run(ctx context.Context, title, outputDir string) (publisher.PublishResult, error) {
	snapshot := pr.snapshot()
	return pr.publisher.Publish(ctx, &snapshot, publisher.Options{
		OutputDir: outputDir,
		Title:     title,
	})
}

// BuildMarkdown は保存処理を行わず、Markdown 文字列のみを生成して返却します。
// 画像欄にはフレームが持つ参照（cache: や URL）がそのまま入ります。
func (pr *PublishRunner) BuildMarkdown(title string) string {
	snapshot := pr.snapshot()
	return publisher.NewMarkdownPublisher().BuildMarkdown(title, &snapshot, nil)
}

func (pr *PublishRunner) snapshot() domain.Project {
	var p domain.Project
	pr.applier.View(func(project *domain.Project) {
		p = *project
		p.Characters = append(domain.Cast(nil), project.Characters...)
		p.Frames = append([]domain.StoryboardFrame(nil), project.Frames...)
	})
	return p
}
