package asset

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// CacheScheme は画像キャッシュに保存された画像への参照の接頭辞です。
	CacheScheme = "cache:"

	defaultCacheExpiration = 5 * time.Minute
	cacheCleanupInterval   = 15 * time.Minute
	// maxLocalImageBytes はローカル画像を data URI にする際の上限です。
	maxLocalImageBytes = 20 << 20
	prepareConcurrency = 4
)

// ErrNotFound は参照先の画像が見つからない場合に返されます。
var ErrNotFound = errors.New("参照画像が見つかりません")

// Store はキャッシュ参照を data URI に解決する保存先です。
type Store interface {
	Get(ctx context.Context, key string) (string, error)
}

// CacheRef はキーから "cache:<key>" 形式の参照を作ります。
func CacheRef(key string) string {
	return CacheScheme + key
}

// CacheKey は参照がキャッシュ参照であればキーを返します。
func CacheKey(ref string) (string, bool) {
	if !strings.HasPrefix(ref, CacheScheme) {
		return "", false
	}
	key := strings.TrimPrefix(ref, CacheScheme)
	return key, key != ""
}

// Resolver は参照画像をプロバイダに渡せる URI（data URI または http(s) URL）へ解決します。
// 解決結果はメモリ上にキャッシュし、同じ参照への同時解決は1回にまとめます。
type Resolver struct {
	store   Store
	baseDir string
	cache   *cache.Cache
	group   singleflight.Group

	mu       sync.RWMutex
	resolved map[string]string
}

// NewResolver は Resolver を初期化します。store が nil の場合、キャッシュ参照は解決できません。
// baseDir は相対パスのローカル画像を探す起点です。
func NewResolver(store Store, baseDir string, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = defaultCacheExpiration
	}
	return &Resolver{
		store:    store,
		baseDir:  baseDir,
		cache:    cache.New(ttl, cacheCleanupInterval),
		resolved: make(map[string]string),
	}
}

// Resolve は1件の参照を解決します。
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNotFound
	}
	if isInline(ref) {
		return ref, nil
	}

	if v, ok := r.cache.Get(ref); ok {
		if uri, isStr := v.(string); isStr {
			return uri, nil
		}
	}

	val, err, _ := r.group.Do(ref, func() (interface{}, error) {
		// 待機中に他のゴルーチンが解決済みの可能性があるため再確認
		if v, ok := r.cache.Get(ref); ok {
			return v, nil
		}
		uri, loadErr := r.load(ctx, ref)
		if loadErr != nil {
			return nil, loadErr
		}
		r.cache.SetDefault(ref, uri)
		return uri, nil
	})
	if err != nil {
		return "", err
	}

	uri, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return uri, nil
}

// Prepare は複数の参照を並列に解決し、結果を保持します。
// 1件でも失敗した場合は最初のエラーを返しますが、成功した分は保持されます。
func (r *Resolver) Prepare(ctx context.Context, refs []string) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(prepareConcurrency)

	for _, ref := range uniqueRefs(refs) {
		eg.Go(func() error {
			uri, err := r.Resolve(egCtx, ref)
			if err != nil {
				return fmt.Errorf("参照画像 %s の解決に失敗しました: %w", shorten(ref), err)
			}
			r.mu.Lock()
			r.resolved[ref] = uri
			r.mu.Unlock()
			return nil
		})
	}
	return eg.Wait()
}

// ResolveAll は参照を順序を保って解決します。解決できない参照は警告を出して読み飛ばします。
func (r *Resolver) ResolveAll(ctx context.Context, refs []string) []string {
	if err := r.Prepare(ctx, refs); err != nil {
		slog.WarnContext(ctx, "一部の参照画像を解決できませんでした", "error", err)
	}

	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if isInline(ref) {
			out = append(out, ref)
			continue
		}
		r.mu.RLock()
		uri, ok := r.resolved[ref]
		r.mu.RUnlock()
		if ok {
			out = append(out, uri)
		}
	}
	return out
}

// Forget は保持している解決結果を破棄します。キャッシュの削除後に呼びます。
func (r *Resolver) Forget(ref string) {
	r.cache.Delete(ref)
	r.mu.Lock()
	delete(r.resolved, ref)
	r.mu.Unlock()
}

func (r *Resolver) load(ctx context.Context, ref string) (string, error) {
	if key, ok := CacheKey(ref); ok {
		if r.store == nil {
			return "", fmt.Errorf("キャッシュ参照 %s を解決する保存先がありません: %w", ref, ErrNotFound)
		}
		return r.store.Get(ctx, key)
	}
	return r.loadFile(ref)
}

// loadFile はローカル画像を data URI に変換します。
func (r *Resolver) loadFile(ref string) (string, error) {
	path := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("画像ファイルの確認に失敗しました: %w", err)
	}
	if info.Size() > maxLocalImageBytes {
		return "", fmt.Errorf("画像ファイル %s が大きすぎます (%d bytes)", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("画像ファイルの読み込みに失敗しました: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(data), nil
	}
	return DataURI(data), nil
}

// DataURI は画像データを MIME タイプ付きの data URI にします。
func DataURI(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI は base64 形式の data URI をデータと MIME タイプに戻します。
func DecodeDataURI(uri string) ([]byte, string, error) {
	head, payload, found := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !strings.HasPrefix(uri, "data:") || !found {
		return nil, "", fmt.Errorf("data URI ではありません: %s", shorten(uri))
	}
	mime, params, _ := strings.Cut(head, ";")
	if params != "base64" {
		return nil, "", fmt.Errorf("base64 以外の data URI には対応していません: %s", shorten(uri))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("data URI のデコードに失敗しました: %w", err)
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}

func isInline(ref string) bool {
	return strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func uniqueRefs(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	var out []string
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" || isInline(ref) {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

func shorten(s string) string {
	if len(s) <= 64 {
		return s
	}
	return s[:64] + "..."
}
