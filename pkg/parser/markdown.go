package parser

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// fieldAliases は Markdown のフィールド名を分鏡レコードのキーへ寄せる表です。
// 英字キーは小文字化してから引きます。
var fieldAliases = map[string]string{
	"scene":     "scene",
	"场景":        "scene",
	"shot":      "shot",
	"景别":        "shot",
	"character": "character",
	"角色":        "character",
	"angle":     "cameraAngle",
	"机位":        "cameraAngle",
	"movement":  "cameraMovement",
	"运镜":        "cameraMovement",
	"content":   "content",
	"画面":        "content",
	"dialogue":  "dialogue",
	"台词":        "dialogue",
	"duration":  "duration",
	"时长":        "duration",
	"image":     "imageUrl",
	"图片":        "imageUrl",
}

// Storyboard は Markdown から取り込んだ分鏡です。
type Storyboard struct {
	Title  string
	Frames []domain.StoryboardFrame
}

// MarkdownParser は手書きの分鏡表（Markdown）を解析し、分鏡データに変換する構造体です。
type MarkdownParser struct{}

// NewMarkdownParser は MarkdownParser を初期化します。
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse は Markdown テキストを解析して Storyboard に変換します。
// scriptURL は画像フィールドの相対パスを解決する起点で、空でも構いません。
func (p *MarkdownParser) Parse(scriptURL string, input string) (*Storyboard, error) {
	baseURL := resolveBaseURL(scriptURL)

	board := &Storyboard{}
	var (
		records []domain.RawRecord
		current domain.RawRecord
	)

	addPrevious := func() {
		if len(current) > 0 {
			records = append(records, current)
		}
	}

	for _, line := range strings.Split(input, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" {
			continue
		}

		if m := SceneRegex.FindStringSubmatch(trimmedLine); m != nil {
			addPrevious()
			current = domain.RawRecord{}
			if scene := strings.TrimSpace(m[1]); scene != "" {
				current["scene"] = scene
			}
			continue
		}

		if m := TitleRegex.FindStringSubmatch(trimmedLine); m != nil {
			board.Title = strings.TrimSpace(m[1])
			continue
		}

		if current == nil {
			continue
		}
		if m := FieldRegex.FindStringSubmatch(trimmedLine); m != nil {
			key, val := strings.ToLower(m[1]), strings.TrimSpace(m[2])
			field, ok := fieldAliases[key]
			if !ok {
				slog.Debug("Markdown内に未知のフィールドキーが見つかりました", "key", key)
				continue
			}
			switch field {
			case "imageUrl":
				val = resolveFullPath(baseURL, val)
			case "character":
				val = strings.Join(domain.SplitNames(val), ",")
			}
			current[field] = val
		}
	}
	addPrevious()

	if len(records) == 0 {
		return nil, fmt.Errorf("有効な分鏡情報が見つかりませんでした")
	}
	board.Frames = domain.NormalizeFrames(records)
	return board, nil
}

// resolveFullPath はベースと相対パスから参照先を構築します。
func resolveFullPath(baseURL string, refPath string) string {
	if refPath == "" || baseURL == "" {
		return refPath
	}
	if strings.HasPrefix(refPath, "data:") || strings.HasPrefix(refPath, "cache:") {
		return refPath
	}

	// URLをパースし、SchemeとHostが存在すれば絶対URLとみなす
	u, err := url.Parse(refPath)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return refPath
	}
	if filepath.IsAbs(refPath) {
		return refPath
	}
	return baseURL + refPath
}
