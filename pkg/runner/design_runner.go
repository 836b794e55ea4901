package runner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/batch"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/imagegen"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

const (
	// CharacterSystemPrompt はキャラクター参照画像生成のシステムメッセージです。
	CharacterSystemPrompt = "你是专业的角色设计师,擅长创作一致的角色形象。"
	// CharacterAspectRatio は肖像向けの画幅比です。
	CharacterAspectRatio = "3:4"
)

// DesignRunner はキャラクター参照画像の生成を担います。
type DesignRunner struct {
	applier  *ProjectApplier
	batch    *batch.Runner
	resolver *asset.Resolver
	style    prompts.StyleID
}

// NewDesignRunner は依存関係を注入して初期化します。
func NewDesignRunner(applier *ProjectApplier, b *batch.Runner, resolver *asset.Resolver, style prompts.StyleID) *DesignRunner {
	return &DesignRunner{
		applier:  applier,
		batch:    b,
		resolver: resolver,
		style:    style,
	}
}

// Run は指定した ID のキャラクターの参照画像を生成します。
// ids が空の場合は参照画像を持たない全キャラクターが対象です。
func (dr *DesignRunner) Run(ctx context.Context, ids []string) (batch.Summary, error) {
	units := dr.Units(ctx, ids)
	if len(units) == 0 {
		slog.InfoContext(ctx, "参照画像を生成するキャラクターがありません")
		return batch.Summary{}, nil
	}
	slog.InfoContext(ctx, "キャラクター参照画像の生成を開始します", "count", len(units), "style", dr.style.String())
	return dr.batch.Run(ctx, units)
}

// Units は対象キャラクターの生成単位を作ります。存在しない ID は警告して読み飛ばします。
func (dr *DesignRunner) Units(ctx context.Context, ids []string) []batch.Unit {
	var targets []domain.Character
	dr.applier.View(func(p *domain.Project) {
		if len(ids) == 0 {
			for i, c := range p.Characters {
				if !c.HasReference() {
					c.EnsureName(i)
					targets = append(targets, c)
				}
			}
			return
		}
		for _, id := range ids {
			i := p.CharacterIndex(id)
			if i < 0 {
				if c, ok := p.Characters.Find(id); ok {
					i = p.CharacterIndex(c.ID)
				}
			}
			if i < 0 {
				slog.WarnContext(ctx, "キャラクターが見つからないためスキップします", "id", id)
				continue
			}
			c := p.Characters[i]
			c.EnsureName(i)
			targets = append(targets, c)
		}
	})

	units := make([]batch.Unit, 0, len(targets))
	for _, c := range targets {
		units = append(units, batch.Job{
			JobID: c.ID,
			Name:  c.String(),
			Build: func() imagegen.Request { return dr.request(ctx, c) },
		})
	}
	return units
}

func (dr *DesignRunner) request(ctx context.Context, c domain.Character) imagegen.Request {
	prompt := prompts.ComposeCharacterPrompt(c, dr.style)
	system := CharacterSystemPrompt
	if prompt.StyleBlock != "" {
		system += "\n\n" + prompt.StyleBlock
	}

	var images []string
	if dr.resolver != nil && len(c.ReferenceImages) > 0 {
		images = dr.resolver.ResolveAll(ctx, c.ReferenceImages)
	}
	return imagegen.Request{
		System:          system,
		Texts:           []string{prompt.Text},
		Images:          images,
		AspectRatio:     CharacterAspectRatio,
		PlaceholderText: strings.TrimSpace(c.Name),
	}
}
