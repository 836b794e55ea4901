package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ImageSaver は生成画像を保存し、保存キーを返します。internal/store.ImageCache が実装します。
type ImageSaver interface {
	Put(ctx context.Context, owner, dataURI string) (string, error)
}

// ProjectApplier は生成された画像をプロジェクトのフレームまたはキャラクターへ反映します。
// saver が設定されていれば data URI はキャッシュへ移し、プロジェクトには "cache:<key>" を残します。
type ProjectApplier struct {
	mu       sync.Mutex
	project  *domain.Project
	saver    ImageSaver
	resolver *asset.Resolver
}

// NewProjectApplier は ProjectApplier を初期化します。saver と resolver は nil でも構いません。
func NewProjectApplier(project *domain.Project, saver ImageSaver, resolver *asset.Resolver) *ProjectApplier {
	return &ProjectApplier{project: project, saver: saver, resolver: resolver}
}

// ApplyImage は ID に一致するフレーム、なければキャラクターの画像を差し替えます。
func (a *ProjectApplier) ApplyImage(ctx context.Context, id, uri string) error {
	ref, err := a.persist(ctx, id, uri)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if i := a.project.FrameIndex(id); i >= 0 {
		a.forget(a.project.Frames[i].ImageURL)
		a.project.Frames[i].ImageURL = ref
		return nil
	}
	if i := a.project.CharacterIndex(id); i >= 0 {
		a.forget(a.project.Characters[i].ImageURL)
		a.project.Characters[i].ImageURL = ref
		return nil
	}
	return fmt.Errorf("反映先が見つかりません (id=%s)", id)
}

// View はロックを取った状態でプロジェクトを参照します。
func (a *ProjectApplier) View(fn func(p *domain.Project)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.project)
}

func (a *ProjectApplier) persist(ctx context.Context, owner, uri string) (string, error) {
	if a.saver == nil || !strings.HasPrefix(uri, "data:") {
		return uri, nil
	}
	key, err := a.saver.Put(ctx, owner, uri)
	if err != nil {
		return "", fmt.Errorf("生成画像のキャッシュ保存に失敗しました: %w", err)
	}
	slog.DebugContext(ctx, "生成画像をキャッシュに保存しました", "owner", owner, "key", key, "bytes", len(uri))
	return asset.CacheRef(key), nil
}

// forget は差し替え前の参照の解決結果を破棄します。
func (a *ProjectApplier) forget(ref string) {
	if a.resolver != nil && ref != "" {
		a.resolver.Forget(ref)
	}
}
