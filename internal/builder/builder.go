package builder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/store"
	"github.com/shouni/go-storyboard-kit/pkg/batch"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// BuildAppContext は画像キャッシュを開き、プロジェクトを読み込んで Manager を構築するのだ。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	cache, err := store.Open(cfg.CacheDB, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("画像キャッシュを開けなかったのだ: %w", err)
	}

	p := parser.NewProjectParser()
	project, err := p.ParseFromPath(ctx, cfg.Options.ProjectFile)
	if err != nil {
		cache.Close()
		return nil, err
	}
	ApplyOptions(project, cfg)

	manager, err := workflow.New(workflow.ManagerArgs{
		Config:   cfg.Config,
		Project:  project,
		BaseDir:  filepath.Dir(cfg.Options.ProjectFile),
		Cache:    cache,
		Observer: NewProgressObserver(project),
	})
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("Managerの初期化に失敗したのだ: %w", err)
	}

	return NewAppContext(cfg, p, cache, project, manager), nil
}

// ApplyOptions はフラグで明示された画風と画幅比をプロジェクトへ反映するのだ。
// 指定が無く、プロジェクトにも値が無いときは設定の既定値を使うのだよ。
func ApplyOptions(project *domain.Project, cfg *config.Config) {
	switch {
	case cfg.Options.AspectRatio != "":
		project.AspectRatio = cfg.Options.AspectRatio
	case project.AspectRatio == "":
		project.AspectRatio = cfg.AspectRatio
	}
	if cfg.Options.Style != "" {
		project.Style = cfg.Options.Style
	}
}

// ProgressObserver は一括生成の進捗をログに出すのだ。
type ProgressObserver struct {
	project *domain.Project
}

var _ batch.Observer = (*ProgressObserver)(nil)

// NewProgressObserver は ProgressObserver を作るのだ。
func NewProgressObserver(project *domain.Project) *ProgressObserver {
	return &ProgressObserver{project: project}
}

// MarkInFlight は生成開始をログに出すのだ。
func (o *ProgressObserver) MarkInFlight(id string) {
	slog.Info("生成中なのだ...", "id", id, "target", o.label(id))
}

// ClearInFlight は生成終了をデバッグログに出すのだ。
func (o *ProgressObserver) ClearInFlight(id string) {
	slog.Debug("生成が終わったのだ", "id", id)
}

// label は ID を人が読める名前にするのだ。生成中に書き換わるのは画像の参照だけなのだ。
func (o *ProgressObserver) label(id string) string {
	if i := o.project.FrameIndex(id); i >= 0 {
		f := o.project.Frames[i]
		return fmt.Sprintf("场景 %s · %s", f.Scene, f.Shot)
	}
	if i := o.project.CharacterIndex(id); i >= 0 {
		return o.project.Characters[i].Name
	}
	return id
}
