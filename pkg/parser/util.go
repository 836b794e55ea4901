package parser

import (
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
)

// resolveBaseURL はスクリプトの場所からアセット参照用のベースを導き出します。
// http(s) ならディレクトリまでの URL、ローカルパスならディレクトリ（末尾にセパレータ付き）を返します。
func resolveBaseURL(scriptURL string) string {
	if scriptURL == "" {
		return ""
	}

	u, err := url.Parse(scriptURL)
	if err != nil {
		slog.Warn("scriptURLの解析に失敗しました",
			"url", scriptURL,
			"error", err,
		)
		return ""
	}

	switch u.Scheme {
	case "http", "https":
		dir := path.Dir(u.Path)
		if dir == "." || dir == "/" {
			dir = ""
		}
		u.Path = dir + "/"
		u.RawQuery = ""
		u.Fragment = ""
		return u.String()

	case "", "file":
		p := scriptURL
		if u.Scheme == "file" {
			p = u.Path
		}
		dir := filepath.Dir(p)
		if dir == "." {
			return ""
		}
		return dir + string(filepath.Separator)

	default:
		slog.Debug("未対応のURLスキームです。ベースURLの解決をスキップします", "scheme", u.Scheme)
		return ""
	}
}
