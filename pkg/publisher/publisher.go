package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	Title     string
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string   // 生成された storyboard.md のパス
	ImagePaths   []string // 保存された全画像のパスリスト
	Skipped      []string // 画像を書き出せなかったフレームのラベル
}

const (
	defaultMarkdownName = "storyboard.md"
	defaultImageDirName = "images"
)

// Resolver はフレームの画像参照を data URI か URL に解決します。asset.Resolver が実装します。
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// StoryboardPublisher は分鏡の画像とMarkdownを書き出します。
type StoryboardPublisher struct {
	writer   OutputWriter
	resolver Resolver
	markdown *MarkdownPublisher
}

// NewStoryboardPublisher は StoryboardPublisher を作成します。
func NewStoryboardPublisher(writer OutputWriter, resolver Resolver) *StoryboardPublisher {
	return &StoryboardPublisher{
		writer:   writer,
		resolver: resolver,
		markdown: NewMarkdownPublisher(),
	}
}

// Publish は画像の保存とMarkdownの構築を一括して実行し、生成されたファイル情報を返却します。
// 画像を解決できないフレームは画像なしで書き出し、Skipped に記録します。
func (p *StoryboardPublisher) Publish(ctx context.Context, project *domain.Project, opts Options) (PublishResult, error) {
	markdownPath, err := ResolveOutputPath(opts.OutputDir, defaultMarkdownName)
	if err != nil {
		return PublishResult{}, fmt.Errorf("Markdownの出力先を解決できません: %w", err)
	}
	imageDir, err := ResolveOutputPath(opts.OutputDir, defaultImageDirName)
	if err != nil {
		return PublishResult{}, fmt.Errorf("画像の出力先を解決できません: %w", err)
	}
	result := PublishResult{MarkdownPath: markdownPath}
	assets := NewAssetManager(p.writer, imageDir)

	// 1. 画像の保存
	imagePaths := make(map[string]string, len(project.Frames))
	for i, f := range project.Frames {
		if !f.HasImage() {
			continue
		}
		ref, err := p.saveFrameImage(ctx, assets, i, f)
		if err != nil {
			slog.WarnContext(ctx, "画像を書き出せませんでした", "frame", f.ID, "error", err)
			result.Skipped = append(result.Skipped, fmt.Sprintf("场景 %s · %s", f.Scene, f.Shot))
			imagePaths[f.ID] = ""
			continue
		}
		if !isRemote(ref) {
			result.ImagePaths = append(result.ImagePaths, ref)
			ref = relativeTo(opts.OutputDir, ref)
		}
		imagePaths[f.ID] = ref
	}

	// 2. Markdownの書き出し
	content := p.markdown.BuildMarkdown(opts.Title, project, imagePaths)
	if err := p.writer.Write(ctx, result.MarkdownPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "分鏡を書き出しました", "markdown", result.MarkdownPath,
		"images", len(result.ImagePaths), "skipped", len(result.Skipped))
	return result, nil
}

// saveFrameImage はフレームの画像を保存し、保存先のパスを返します。URL の画像はダウンロードせずそのまま返します。
func (p *StoryboardPublisher) saveFrameImage(ctx context.Context, assets *AssetManager, index int, f domain.StoryboardFrame) (string, error) {
	uri, err := p.resolver.Resolve(ctx, f.ImageURL)
	if err != nil {
		return "", err
	}
	if isRemote(uri) {
		return uri, nil
	}
	return assets.SaveDataURI(ctx, fmt.Sprintf("frame_%03d", index+1), uri)
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
