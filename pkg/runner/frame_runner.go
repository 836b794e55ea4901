package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/batch"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/imagegen"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

// FrameSystemPrompt は分鏡画像生成のシステムメッセージです。
const FrameSystemPrompt = "你是专业的分镜画师。请严格保持角色外观与参考图一致，并遵守给定的景别与机位。"

// FrameRunner は分鏡フレームのプレビュー画像を1件ずつ生成します。
type FrameRunner struct {
	applier  *ProjectApplier
	batch    *batch.Runner
	resolver *asset.Resolver
	style    prompts.StyleID
}

// NewFrameRunner は依存関係を注入して初期化します。
func NewFrameRunner(applier *ProjectApplier, b *batch.Runner, resolver *asset.Resolver, style prompts.StyleID) *FrameRunner {
	return &FrameRunner{
		applier:  applier,
		batch:    b,
		resolver: resolver,
		style:    style,
	}
}

// Run は指定したフレームの画像を生成します。ids が空の場合は画像のない全フレームが対象です。
func (fr *FrameRunner) Run(ctx context.Context, ids []string) (batch.Summary, error) {
	units := fr.Units(ctx, ids)
	if len(units) == 0 {
		slog.InfoContext(ctx, "画像を生成するフレームがありません")
		return batch.Summary{}, nil
	}

	if missing := fr.MissingReferences(ids); len(missing) > 0 {
		slog.WarnContext(ctx, "参照画像のないキャラクターがいます。外観が安定しない可能性があります", "characters", strings.Join(missing, ", "))
	}

	slog.InfoContext(ctx, "分鏡画像の一括生成を開始します", "count", len(units), "style", fr.style.String())
	return fr.batch.Run(ctx, units)
}

// Units は対象フレームの生成単位を作ります。
// リクエストは各単位の実行直前に組み立てるため、直前フレームの生成結果を環境参照に使えます。
func (fr *FrameRunner) Units(ctx context.Context, ids []string) []batch.Unit {
	var targets []domain.StoryboardFrame
	fr.applier.View(func(p *domain.Project) {
		if len(ids) == 0 {
			targets = p.PendingFrames()
			return
		}
		for _, id := range ids {
			if i := p.FrameIndex(id); i >= 0 {
				targets = append(targets, p.Frames[i])
				continue
			}
			slog.WarnContext(ctx, "フレームが見つからないためスキップします", "id", id)
		}
	})

	units := make([]batch.Unit, 0, len(targets))
	for _, f := range targets {
		id := f.ID
		units = append(units, batch.Job{
			JobID: id,
			Name:  frameLabel(f),
			Build: func() imagegen.Request {
				req, err := fr.Request(ctx, id)
				if err != nil {
					slog.WarnContext(ctx, "リクエストの組み立てに失敗しました", "id", id, "error", err)
				}
				return req
			},
		})
	}
	return units
}

// Request はフレーム1件分の生成リクエストを現在のプロジェクト状態から組み立てます。
func (fr *FrameRunner) Request(ctx context.Context, frameID string) (imagegen.Request, error) {
	var (
		frame    domain.StoryboardFrame
		previous *domain.StoryboardFrame
		cast     domain.Cast
		ratio    string
		found    bool
	)
	fr.applier.View(func(p *domain.Project) {
		i := p.FrameIndex(frameID)
		if i < 0 {
			return
		}
		found = true
		frame = p.Frames[i]
		if prev, ok := p.PreviousFrame(i); ok {
			previous = &prev
		}
		cast = append(domain.Cast(nil), p.Characters...)
		ratio = p.Ratio()
	})
	if !found {
		return imagegen.Request{PlaceholderText: "场景"}, fmt.Errorf("フレームが見つかりません (id=%s)", frameID)
	}

	prompt := prompts.ComposeFramePrompt(frame, fr.style, cast)
	att := prompts.FrameAttachments(frame, fr.resolveCast(ctx, frame, cast), fr.resolvePrevious(ctx, previous))

	system := FrameSystemPrompt
	if prompt.StyleBlock != "" {
		system += "\n\n" + prompt.StyleBlock
	}
	return imagegen.Request{
		System:          system,
		Texts:           append([]string{prompt.Text}, att.TextParts()...),
		Images:          att.Images,
		AspectRatio:     ratio,
		PlaceholderText: frameLabel(frame),
	}, nil
}

// MissingReferences は対象フレームに登場するのに参照画像を持たないキャラクター名を返します。
func (fr *FrameRunner) MissingReferences(ids []string) []string {
	var names []string
	fr.applier.View(func(p *domain.Project) {
		frames := p.PendingFrames()
		if len(ids) > 0 {
			frames = frames[:0:0]
			for _, id := range ids {
				if i := p.FrameIndex(id); i >= 0 {
					frames = append(frames, p.Frames[i])
				}
			}
		}

		seen := make(map[string]struct{})
		for _, f := range frames {
			for _, name := range f.CharacterNames() {
				c, ok := p.Characters.Find(name)
				if !ok || c.HasReference() {
					continue
				}
				if _, dup := seen[c.Name]; dup {
					continue
				}
				seen[c.Name] = struct{}{}
				names = append(names, c.Name)
			}
		}
	})
	return names
}

// resolveCast はフレームに登場するキャラクターの参照画像をプロバイダに渡せる URI に置き換えます。
// 解決できない参照は取り除くため、添付画像の番号付けと実際の画像が一致します。
// cast は呼び出し側の複製であり、その場で書き換えます。
func (fr *FrameRunner) resolveCast(ctx context.Context, frame domain.StoryboardFrame, cast domain.Cast) domain.Cast {
	if fr.resolver == nil {
		return cast
	}
	for _, name := range frame.CharacterNames() {
		c, ok := cast.Find(name)
		if !ok {
			continue
		}
		if c.ImageURL != "" {
			uri, err := fr.resolver.Resolve(ctx, c.ImageURL)
			if err != nil {
				slog.WarnContext(ctx, "キャラクター参照画像を解決できませんでした", "character", c.Name, "error", err)
			}
			c.ImageURL = uri
		}
		c.ReferenceImages = fr.resolver.ResolveAll(ctx, c.ReferenceImages)
	}
	return cast
}

func (fr *FrameRunner) resolvePrevious(ctx context.Context, previous *domain.StoryboardFrame) *domain.StoryboardFrame {
	if previous == nil || fr.resolver == nil || !previous.HasImage() {
		return previous
	}
	prev := *previous
	uri, err := fr.resolver.Resolve(ctx, prev.ImageURL)
	if err != nil {
		slog.WarnContext(ctx, "直前フレームの画像を解決できませんでした", "frame", prev.ID, "error", err)
	}
	prev.ImageURL = uri
	return &prev
}

func frameLabel(f domain.StoryboardFrame) string {
	label := "场景"
	if s := strings.TrimSpace(f.Scene); s != "" {
		label += " " + s
	}
	if shot := strings.TrimSpace(f.Shot); shot != "" {
		label += " · " + shot
	}
	return label
}
