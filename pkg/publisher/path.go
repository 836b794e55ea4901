package publisher

import (
	"path/filepath"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

var mimeExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から最終的な出力パスを生成します。
// gs:// や s3:// のベースは URL として結合されます。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// relativeTo は Markdown から参照するための、スラッシュ区切りの相対パスを返します。
func relativeTo(baseDir, target string) string {
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

func extensionOf(mime string) string {
	if ext, ok := mimeExtensions[strings.ToLower(mime)]; ok {
		return ext
	}
	return ".bin"
}
