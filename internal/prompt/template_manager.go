package prompt

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

//go:embed roles.md
var RolesPrompt string

//go:embed frames.md
var FramesPrompt string

// modeTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var modeTemplates = map[string]string{
	prompts.ModeRoles:  RolesPrompt,
	prompts.ModeFrames: FramesPrompt,
}

// GetPromptByMode は、指定されたモードに対応するプロンプト文字列を返すのだ。
func GetPromptByMode(mode string) (string, error) {
	content, ok := modeTemplates[mode]
	if !ok {
		supported := slices.Collect(maps.Keys(modeTemplates))
		slices.Sort(supported)

		return "", fmt.Errorf("サポートされていないモード: '%s'。サポートされているモードは [%s] です",
			mode, strings.Join(supported, ", "))
	}

	if content == "" {
		return "", fmt.Errorf("モード '%s' に対応するプロンプトテンプレートが空なのだ。embed設定を確認してほしいのだ", mode)
	}

	return content, nil
}

// Templates は全モードのテンプレートの複製を返すのだ。
func Templates() map[string]string {
	return maps.Clone(modeTemplates)
}
