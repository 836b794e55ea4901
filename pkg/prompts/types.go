package prompts

// Prompt は1回の生成リクエストに使う指示文です。
type Prompt struct {
	// Text はユーザーメッセージとして送る本文です。StyleBlock も含みます。
	Text string
	// StyleBlock は画風指定部分だけを切り出したものです。システムメッセージにも流用されます。
	StyleBlock string
}

// TemplateData はスクリプト解析用テンプレートに渡すデータ構造です。
type TemplateData struct {
	Script      string
	AspectRatio string
	Style       string
	Roles       []string
}

// Attachments はフレーム生成時に本文の後ろへ添付するテキストと画像の並びです。
type Attachments struct {
	// CastLine は参照画像がどのキャラクターのものかを示す説明行です。
	CastLine string
	// AnchorLine は直前フレームを環境参照として使う場合の説明行です。
	AnchorLine string
	// Images は添付する画像 URI で、キャラクター参照の後に環境参照が続きます。
	Images []string
}

// TextParts は空でない説明行を順番に返します。
func (a Attachments) TextParts() []string {
	var parts []string
	if a.CastLine != "" {
		parts = append(parts, a.CastLine)
	}
	if a.AnchorLine != "" {
		parts = append(parts, a.AnchorLine)
	}
	return parts
}
