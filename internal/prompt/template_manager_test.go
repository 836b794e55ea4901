package prompt

import (
	"strings"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

func TestGetPromptByMode(t *testing.T) {
	for _, mode := range []string{prompts.ModeRoles, prompts.ModeFrames} {
		t.Run(mode, func(t *testing.T) {
			content, err := GetPromptByMode(mode)
			if err != nil {
				t.Fatalf("GetPromptByMode(%q) error = %v", mode, err)
			}
			if strings.TrimSpace(content) == "" {
				t.Error("テンプレートが空です")
			}
		})
	}

	t.Run("未対応のモードはエラー", func(t *testing.T) {
		_, err := GetPromptByMode("webtoon")
		if err == nil || !strings.Contains(err.Error(), "frames, roles") {
			t.Errorf("GetPromptByMode() error = %v", err)
		}
	})
}

func TestTemplates_ReturnsCopy(t *testing.T) {
	tpl := Templates()
	tpl[prompts.ModeRoles] = "上書き"
	if got, _ := GetPromptByMode(prompts.ModeRoles); got == "上書き" {
		t.Error("Templates() の変更が内部状態に影響しました")
	}
}
