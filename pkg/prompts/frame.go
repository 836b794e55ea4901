package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// FrameTaskLine はフレームプロンプト冒頭のタスク説明です。
	FrameTaskLine = "你是专业的分镜画师。请根据以下信息生成一张分镜画面。"

	// CameraConsistency はフレーム間で画面の連続性を保つための固定ブロックです。
	CameraConsistency = `【镜头一致性】
- 角色外观必须与参考图保持一致（脸型、发型、服装）
- 同一场景内保持光线、色调与环境布局连贯
- 严格遵循给定景别与画面描述，不要添加额外角色
- 画面中不要出现文字、字幕或水印`
)

// ComposeFramePrompt は分鏡1コマ分のプロンプトを組み立てます。
// cast に存在しない角色名は見出しには残し、外見行は出力しません。
func ComposeFramePrompt(f domain.StoryboardFrame, style StyleID, cast domain.Cast) Prompt {
	styleBlock := StyleBlock(style)

	sections := []string{FrameTaskLine, styleBlock, sceneBlock(f, cast)}
	if content := strings.TrimSpace(f.Content); content != "" {
		sections = append(sections, content)
	}
	sections = append(sections, CameraConsistency)

	return Prompt{
		Text:       strings.Join(sections, "\n\n"),
		StyleBlock: styleBlock,
	}
}

// sceneBlock は場景見出し・登場人物・景別をまとめます。
func sceneBlock(f domain.StoryboardFrame, cast domain.Cast) string {
	var sb strings.Builder
	if scene := strings.TrimSpace(f.Scene); scene != "" {
		fmt.Fprintf(&sb, "【场景 %s】", scene)
	} else {
		sb.WriteString("【场景】")
	}

	if names := f.CharacterNames(); len(names) > 0 {
		fmt.Fprintf(&sb, "\n角色: %s", strings.Join(names, "，"))
		for _, name := range names {
			if c, ok := cast.Find(name); ok {
				sb.WriteString("\n" + castLine(*c))
			}
		}
	}

	if shot := strings.TrimSpace(f.Shot); shot != "" {
		fmt.Fprintf(&sb, "\n景别: %s", shot)
	}
	return sb.String()
}
