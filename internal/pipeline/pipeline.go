package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/shouni/go-utils/iohandler"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/store"
	"github.com/shouni/go-storyboard-kit/pkg/batch"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// ErrAllFailed は一括生成で1件も成功しなかったことを示すのだ。
var ErrAllFailed = errors.New("すべての生成に失敗したのだ")

// ExecuteRoles は台本から角色を抽出して、プロジェクトのキャストを更新するのだ。
func ExecuteRoles(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	script, err := loadScript(cfg.Options.ScriptFile, appCtx.Project)
	if err != nil {
		return err
	}

	sr, err := appCtx.Workflow.BuildScriptRunner()
	if err != nil {
		return fmt.Errorf("ScriptRunnerの構築に失敗したのだ: %w", err)
	}

	slog.InfoContext(ctx, "角色の抽出を開始するのだ...", "model", cfg.TextModel)
	cast, err := sr.ExtractRoles(ctx, script)
	if err != nil {
		return fmt.Errorf("角色の抽出に失敗したのだ: %w", err)
	}

	appCtx.Project.Script = script
	appCtx.Project.Characters = MergeCast(appCtx.Project.Characters, cast)
	slog.InfoContext(ctx, "角色を抽出したのだ！", "count", len(cast), "names", strings.Join(cast.Names(), ","))

	return appCtx.Parser.Save(ctx, cfg.Options.ProjectFile, appCtx.Project)
}

// ExecuteSplit は台本を分鏡フレームに分割して、プロジェクトのフレームを置き換えるのだ。
func ExecuteSplit(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	script, err := loadScript(cfg.Options.ScriptFile, appCtx.Project)
	if err != nil {
		return err
	}

	sr, err := appCtx.Workflow.BuildScriptRunner()
	if err != nil {
		return fmt.Errorf("ScriptRunnerの構築に失敗したのだ: %w", err)
	}

	project := appCtx.Project
	style := appCtx.Workflow.Style().String()
	slog.InfoContext(ctx, "分鏡の分割を開始するのだ...",
		"model", cfg.TextModel, "ratio", project.Ratio(), "style", style, "cast", len(project.Characters))

	frames, err := sr.SplitStoryboard(ctx, script, project.Ratio(), style, project.Characters)
	if err != nil {
		return fmt.Errorf("分鏡の分割に失敗したのだ: %w", err)
	}

	project.Script = script
	project.Frames = frames
	slog.InfoContext(ctx, "分鏡に分割したのだ！", "frames", len(frames))

	return appCtx.Parser.Save(ctx, cfg.Options.ProjectFile, project)
}

// ExecuteCharacter はキャラクターの参照画像を生成するのだ。
// ids が空なら参照画像を持たない全員が対象なのだ。
func ExecuteCharacter(ctx context.Context, cfg *config.Config, ids []string) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	dr, err := appCtx.Workflow.BuildDesignRunner()
	if err != nil {
		return err
	}

	return runBatch(ctx, appCtx, func(ctx context.Context) (batch.Summary, error) {
		return dr.Run(ctx, ids)
	})
}

// ExecuteFrames は分鏡フレームのプレビュー画像を一括生成するのだ。
// Ctrl-C を押すと生成中のリクエストを取り消して止まり、それまでの結果は保存されるのだよ。
func ExecuteFrames(ctx context.Context, cfg *config.Config, ids []string) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	fr, err := appCtx.Workflow.BuildFrameRunner()
	if err != nil {
		return err
	}

	return runBatch(ctx, appCtx, func(ctx context.Context) (batch.Summary, error) {
		return fr.Run(ctx, ids)
	})
}

// ExecuteImport は Markdown 形式の分鏡台本を読み込んで、プロジェクトのフレームを置き換えるのだ。
func ExecuteImport(ctx context.Context, cfg *config.Config, markdownPath string) error {
	content, err := readInput(markdownPath)
	if err != nil {
		return err
	}

	sb, err := parser.NewMarkdownParser().Parse(markdownPath, content)
	if err != nil {
		return fmt.Errorf("Markdownの解析に失敗したのだ: %w", err)
	}

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	project := appCtx.Project
	if len(project.Characters) > 0 {
		domain.ReconcileFrameCast(sb.Frames, project.Characters)
	}
	project.Frames = sb.Frames
	slog.InfoContext(ctx, "Markdownから分鏡を取り込んだのだ！", "title", sb.Title, "frames", len(sb.Frames))

	return appCtx.Parser.Save(ctx, cfg.Options.ProjectFile, project)
}

// ExecuteExport はプロジェクトを Markdown と画像ファイルに書き出すのだ。
// title が空ならプロジェクトファイル名を使うのだよ。
func ExecuteExport(ctx context.Context, cfg *config.Config, outputDir, title string) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if title == "" {
		base := filepath.Base(cfg.Options.ProjectFile)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	result, err := appCtx.Workflow.BuildPublishRunner(nil).Run(ctx, title, outputDir)
	if err != nil {
		return fmt.Errorf("分鏡の書き出しに失敗したのだ: %w", err)
	}
	if len(result.Skipped) > 0 {
		slog.WarnContext(ctx, "画像を書き出せなかったフレームがあるのだ", "frames", strings.Join(result.Skipped, ", "))
	}
	slog.InfoContext(ctx, "分鏡を書き出したのだ！", "markdown", result.MarkdownPath, "images", len(result.ImagePaths))
	return nil
}

// ExecuteCacheClear は画像キャッシュを空にするのだ。
func ExecuteCacheClear(ctx context.Context, cfg *config.Config) error {
	cache, err := store.Open(cfg.CacheDB, slog.Default())
	if err != nil {
		return fmt.Errorf("画像キャッシュを開けなかったのだ: %w", err)
	}
	defer cache.Close()

	n, err := cache.Clear(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "画像キャッシュを空にしたのだ！", "path", cfg.CacheDB, "removed", n)
	return nil
}

// ExecuteCacheStats は画像キャッシュの件数と容量を表示するのだ。
func ExecuteCacheStats(ctx context.Context, cfg *config.Config) error {
	cache, err := store.Open(cfg.CacheDB, slog.Default())
	if err != nil {
		return fmt.Errorf("画像キャッシュを開けなかったのだ: %w", err)
	}
	defer cache.Close()

	count, size, err := cache.Stats(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "画像キャッシュの状況なのだ", "path", cfg.CacheDB, "images", count, "size", humanize.Bytes(uint64(size)))
	return nil
}

// runBatch は一括生成を実行し、結果に関わらずプロジェクトを保存してから結果を報告するのだ。
func runBatch(ctx context.Context, appCtx *builder.AppContext, run func(context.Context) (batch.Summary, error)) error {
	ctx, cancel := withInterrupt(ctx, appCtx.Workflow)
	defer cancel()

	summary, runErr := run(ctx)

	// 途中で止まっても、反映済みの画像は保存しておくのだ
	if err := appCtx.Parser.Save(context.WithoutCancel(ctx), appCtx.Options.ProjectFile, appCtx.Project); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return fmt.Errorf("一括生成を開始できなかったのだ: %w", runErr)
	}

	if summary.Total == 0 {
		slog.InfoContext(ctx, "生成が必要な対象は無かったのだ")
		return nil
	}
	slog.InfoContext(ctx, summary.Report())
	if summary.Failed > 0 {
		slog.WarnContext(ctx, "失敗の内訳なのだ\n"+summary.FailureDetails())
		if summary.Succeeded == 0 && !summary.Stopped {
			return ErrAllFailed
		}
	}
	return nil
}

// withInterrupt は割り込みシグナルを一括生成の停止要求に変換するのだ。
// 1回目は wf.Stop() で生成中のリクエストを取り消して次の単位を始めないようにし、
// 2回目は context ごとキャンセルするのだ。
func withInterrupt(ctx context.Context, wf workflow.Workflow) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		if wf.Stop() {
			slog.Warn("停止を要求したのだ。生成中のリクエストを取り消して、ここまでの結果を保存するのだ")
		}
		select {
		case <-sigCh:
			slog.Warn("生成を中断するのだ")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// MergeCast は新しく抽出したキャストに、同名の既存キャラクターの ID と参照画像を引き継ぐのだ。
func MergeCast(existing, extracted domain.Cast) domain.Cast {
	merged := make(domain.Cast, len(extracted))
	for i, c := range extracted {
		if old, ok := existing.Find(c.Name); ok && old.Name == c.Name {
			c.ID = old.ID
			if c.ImageURL == "" {
				c.ImageURL = old.ImageURL
			}
			if len(c.ReferenceImages) == 0 {
				c.ReferenceImages = old.ReferenceImages
			}
		}
		merged[i] = c
	}
	return merged
}

// loadScript は台本を読み込むのだ。指定が無くて標準入力も無ければ、プロジェクトに保存済みの台本を使うのだよ。
func loadScript(path string, project *domain.Project) (string, error) {
	if path == "" && !isStdin() {
		if strings.TrimSpace(project.Script) == "" {
			return "", fmt.Errorf("台本（--script-file）を指定してほしいのだ")
		}
		return project.Script, nil
	}
	if path == "" {
		path = "-"
	}
	return readInput(path)
}

// readInput はファイルか標準入力（'-'）から全文を読み込むのだ。
// iohandler は空のファイル名を標準入力として扱うので、'-' をそれに読み替えるのだよ。
func readInput(path string) (string, error) {
	name := path
	if name == "-" {
		name = ""
	}
	content, err := iohandler.ReadInputString(name)
	if err != nil {
		return "", fmt.Errorf("入力 '%s' の読み込みに失敗したのだ: %w", path, err)
	}
	return content, nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
