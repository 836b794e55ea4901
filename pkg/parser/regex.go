package parser

import "regexp"

var (
	// TitleRegex は "# タイトル" 形式のタイトル行をキャプチャします。
	TitleRegex = regexp.MustCompile(`^#\s+(.+)`)

	// SceneRegex は "## 场景 3" "## Scene 3" "## 3" 形式のフレーム区切り行を特定し、場号をキャプチャします。
	SceneRegex = regexp.MustCompile(`^##\s*(?:场景|場景|镜头|Scene|Shot)?\s*([0-9A-Za-z\-]*)`)

	// FieldRegex は "- key: value" 形式のフィールド行をキャプチャします。全角コロンも受け付けます。
	FieldRegex = regexp.MustCompile(`^\s*-\s*([\p{Han}a-zA-Z_]+)\s*[:：]\s*(.+)`)
)
