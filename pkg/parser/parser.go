package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// Parser はプロジェクトファイルを読み込むためのインターフェースを定義します。
type Parser interface {
	ParseFromPath(ctx context.Context, fullPath string) (*domain.Project, error)
}

// ProjectParser は JSON 形式のプロジェクトファイルを読み書きする構造体です。
type ProjectParser struct{}

// NewProjectParser は新しい ProjectParser インスタンスを生成します。
func NewProjectParser() *ProjectParser {
	return &ProjectParser{}
}

// ParseFromPath はローカルファイルからプロジェクトを読み込みます。
// ファイルが存在しない場合は空のプロジェクトを返します。
func (p *ProjectParser) ParseFromPath(ctx context.Context, projectFile string) (*domain.Project, error) {
	slog.DebugContext(ctx, "プロジェクトファイルを読み込んでいます", "path", projectFile)
	f, err := os.Open(projectFile)
	if errors.Is(err, os.ErrNotExist) {
		slog.InfoContext(ctx, "プロジェクトファイルが無いため新規に作成します", "path", projectFile)
		return &domain.Project{AspectRatio: domain.DefaultAspectRatio}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトファイルのオープンに失敗しました (%s): %w", projectFile, err)
	}
	defer f.Close()

	project := &domain.Project{}
	if err := json.NewDecoder(f).Decode(project); err != nil {
		return nil, fmt.Errorf("プロジェクトJSONのパースに失敗しました: %w", err)
	}
	for i := range project.Characters {
		project.Characters[i].EnsureName(i)
	}
	return project, nil
}

// Save はプロジェクトを JSON で書き出します。一時ファイルに書いてから置き換えます。
func (p *ProjectParser) Save(ctx context.Context, projectFile string, project *domain.Project) error {
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("プロジェクトのエンコードに失敗しました: %w", err)
	}

	dir := filepath.Dir(projectFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("保存先ディレクトリの作成に失敗しました (%s): %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".project-*.json")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("プロジェクトの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("プロジェクトの書き込みに失敗しました: %w", err)
	}
	if err := os.Rename(tmp.Name(), projectFile); err != nil {
		return fmt.Errorf("プロジェクトファイルの置き換えに失敗しました (%s): %w", projectFile, err)
	}

	slog.InfoContext(ctx, "プロジェクトを保存しました", "path", projectFile,
		"characters", len(project.Characters), "frames", len(project.Frames))
	return nil
}
