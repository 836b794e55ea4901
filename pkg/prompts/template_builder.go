package prompts

import (
	"fmt"
	"strings"
	"text/template"
)

const (
	// ModeRoles は台本から角色を抽出するシステムプロンプトです。
	ModeRoles = "roles"
	// ModeFrames は台本を分鏡に分割するシステムプロンプトです。
	ModeFrames = "frames"
)

// PromptBuilder は、スクリプト解析用プロンプトを構築する契約です。
type PromptBuilder interface {
	Build(mode string, data TemplateData) (string, error)
}

// TextPromptBuilder はモードごとのテンプレートを保持し、実行します。
type TextPromptBuilder struct {
	templates map[string]*template.Template
}

// NewTextPromptBuilder はモード名とテンプレート本文の組から TextPromptBuilder を初期化します。
func NewTextPromptBuilder(sources map[string]string) (*TextPromptBuilder, error) {
	parsedTemplates := make(map[string]*template.Template, len(sources))
	for mode, content := range sources {
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' の読み込みに失敗しました: 内容が空です", mode)
		}

		tmpl, err := template.New(mode).Option("missingkey=error").Parse(content)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		parsedTemplates[mode] = tmpl
	}

	return &TextPromptBuilder{
		templates: parsedTemplates,
	}, nil
}

// Build は、要求されたモードに応じて適切なテンプレートを実行します。
func (b *TextPromptBuilder) Build(mode string, data TemplateData) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		return "", fmt.Errorf("不明なモードです: '%s'", mode)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}

	return strings.TrimSpace(sb.String()), nil
}
