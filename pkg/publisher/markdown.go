package publisher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// MarkdownPublisher は、分鏡を parser.MarkdownParser が読み戻せる Markdown 形式で出力する役割を担います。
type MarkdownPublisher struct{}

func NewMarkdownPublisher() *MarkdownPublisher {
	return &MarkdownPublisher{}
}

// BuildMarkdown は、タイトル、キャスト、フレームを統合して Markdown 文字列を生成します。
// imagePaths はフレーム ID ごとの画像パスで、nil の場合はフレームが持つ参照をそのまま使います。
func (mp *MarkdownPublisher) BuildMarkdown(title string, project *domain.Project, imagePaths map[string]string) string {
	var sb strings.Builder

	// 1. タイトルと概要
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "> 比例 %s", project.Ratio())
	if project.Style != "" {
		fmt.Fprintf(&sb, " · 风格 %s", project.Style)
	}
	sb.WriteString("\n")
	if names := project.Characters.Names(); len(names) > 0 {
		fmt.Fprintf(&sb, "> 角色表: %s\n", strings.Join(names, ", "))
	}
	sb.WriteString("\n")

	// 2. フレームごとのフィールド
	for i, f := range project.Frames {
		scene := f.Scene
		if scene == "" {
			scene = strconv.Itoa(i + 1)
		}
		fmt.Fprintf(&sb, "## 场景 %s\n", scene)
		writeField(&sb, "景别", f.Shot)
		writeField(&sb, "角色", strings.Join(f.CharacterNames(), ", "))
		writeField(&sb, "机位", f.CameraAngle)
		writeField(&sb, "运镜", f.CameraMovement)
		writeField(&sb, "画面", f.Content)
		writeField(&sb, "台词", f.Dialogue)
		if f.Duration > 0 {
			writeField(&sb, "时长", strconv.FormatFloat(f.Duration, 'f', -1, 64))
		}
		writeField(&sb, "图片", mp.imageFor(f, imagePaths))
		sb.WriteString("\n")
	}
	return sb.String()
}

// imageFor はフレームの画像欄に書く参照を返します。data URI は Markdown に埋め込みません。
func (mp *MarkdownPublisher) imageFor(f domain.StoryboardFrame, imagePaths map[string]string) string {
	if imagePaths != nil {
		if p, ok := imagePaths[f.ID]; ok {
			return p
		}
	}
	if strings.HasPrefix(f.ImageURL, "data:") {
		return ""
	}
	return f.ImageURL
}

// writeField は "- key: value" 行を書き出します。値が空なら何も書きません。
func writeField(sb *strings.Builder, key, value string) {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "- %s: %s\n", key, value)
}
