package imagegen

import (
	"strings"

	"github.com/sashabaranov/go-openai"
)

// StrictSystemInstruction は1回目の応答から画像を取り出せなかった場合に追加する指示です。
const StrictSystemInstruction = "重要: 你必须直接输出一张图片。不要输出任何文字说明、代码或链接以外的内容，只返回生成的图片。"

// Request は1回の画像生成に必要な入力です。
type Request struct {
	// System はシステムメッセージ（一貫性・画風の指示）です。
	System string
	// Texts はユーザーメッセージ内のテキストパーツで、画像より前に並びます。
	Texts []string
	// Images は参照画像の URI で、優先度の高い順に並べます。
	Images []string
	// AspectRatio は "16:9" 形式の画幅比です。空なら指定しません。
	AspectRatio string
	// PlaceholderText は画像が得られなかった場合の代替画像に描く文字列です。
	PlaceholderText string
}

type imageConfig struct {
	AspectRatio string `json:"aspect_ratio"`
}

// imageRequest は OpenAI 互換の chat/completions に画像出力を要求するボディです。
type imageRequest struct {
	Model       string                         `json:"model"`
	Modalities  []string                       `json:"modalities"`
	ImageConfig *imageConfig                   `json:"image_config,omitempty"`
	Messages    []openai.ChatCompletionMessage `json:"messages"`
}

// buildBody はシステムメッセージ1件とユーザーメッセージ1件からなるボディを組み立てます。
// ユーザーメッセージはテキストパーツの後に画像パーツが続きます。
func buildBody(model string, req Request, system string) imageRequest {
	parts := make([]openai.ChatMessagePart, 0, len(req.Texts)+len(req.Images))
	for _, text := range req.Texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: text,
		})
	}
	for _, uri := range req.Images {
		if strings.TrimSpace(uri) == "" {
			continue
		}
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: uri},
		})
	}

	body := imageRequest{
		Model:      model,
		Modalities: []string{"image", "text"},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}
	if ratio := strings.TrimSpace(req.AspectRatio); ratio != "" {
		body.ImageConfig = &imageConfig{AspectRatio: ratio}
	}
	return body
}

func strictSystem(system string) string {
	if strings.TrimSpace(system) == "" {
		return StrictSystemInstruction
	}
	return system + "\n\n" + StrictSystemInstruction
}
