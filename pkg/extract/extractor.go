// Package extract は、マルチモーダル生成 API の応答から画像参照（data URI または URL）を取り出します。
// プロバイダによって応答の形が揺れるため、既知の形から順に照合し、最初に見つかったものを採用します。
package extract

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

var (
	dataURIPattern  = regexp.MustCompile(`data:image/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/=_-]+`)
	markdownPattern = regexp.MustCompile(`!\[[^\]]*\]\(\s*([^)\s]+)\s*\)`)
	httpURLPattern  = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)
)

// ImageReference は生の応答 JSON から画像参照を探します。
// 不正な JSON や空の応答では ("", false) を返し、panic しません。
func ImageReference(raw []byte) (string, bool) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", false
	}
	return FromPayload(payload)
}

// FromPayload はデコード済みの応答全体（choices を含むオブジェクト）から画像参照を探します。
func FromPayload(payload any) (string, bool) {
	root, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}
	choices, ok := root["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	return FromMessage(choice["message"])
}

// FromMessage は choices[0].message 相当の値から画像参照を探します。
func FromMessage(message any) (ref string, found bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("画像参照の抽出中に panic を回収しました", "panic", r)
			ref, found = "", false
		}
	}()

	msg, ok := message.(map[string]any)
	if !ok {
		return "", false
	}
	for _, s := range shapesOf(msg) {
		for _, m := range matchers {
			if ref, ok := m(s); ok {
				return ref, true
			}
		}
	}
	return "", false
}

// shape はメッセージから取り出した応答形状の直和型です。
type shape interface{ isShape() }

type (
	// imageList は message.images のような構造化された画像一覧です。
	imageList []any
	// contentParts は type 付きパーツの配列としての content です。
	contentParts []any
	// plainText は文字列の content、またはパーツ内のテキストです。
	plainText string
)

func (imageList) isShape()    {}
func (contentParts) isShape() {}
func (plainText) isShape()    {}

// shapesOf は照合すべき形状を優先順に並べます。
// パーツ内のテキストは、全パーツの画像照合が終わった後に照合されます。
func shapesOf(msg map[string]any) []shape {
	var shapes []shape
	if images, ok := msg["images"].([]any); ok && len(images) > 0 {
		shapes = append(shapes, imageList(images))
	}
	switch content := msg["content"].(type) {
	case []any:
		shapes = append(shapes, contentParts(content))
		for _, p := range content {
			part, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := part["text"].(string); ok && text != "" {
				shapes = append(shapes, plainText(text))
			}
		}
	case string:
		if content != "" {
			shapes = append(shapes, plainText(content))
		}
	}
	return shapes
}

// matcher は1つの形状から画像参照を探します。対象外の形状には false を返します。
type matcher func(shape) (string, bool)

var matchers = []matcher{
	matchImageList,
	matchContentParts,
	matchText,
}

func matchImageList(s shape) (string, bool) {
	list, ok := s.(imageList)
	if !ok || len(list) == 0 {
		return "", false
	}
	entry, ok := list[0].(map[string]any)
	if !ok {
		if str, isStr := list[0].(string); isStr && str != "" {
			return str, true
		}
		return "", false
	}
	return urlField(entry)
}

func matchContentParts(s shape) (string, bool) {
	parts, ok := s.(contentParts)
	if !ok {
		return "", false
	}
	for _, p := range parts {
		part, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if ref, ok := matchPart(part); ok {
			return ref, true
		}
	}
	return "", false
}

// matchPart は1つのパーツを画像パーツとして解釈します。
func matchPart(part map[string]any) (string, bool) {
	typ, _ := part["type"].(string)
	switch typ {
	case "output_image", "image_url", "image":
		if ref, ok := urlField(part); ok {
			return ref, true
		}
	}
	for _, key := range []string{"data_uri", "dataUrl", "data_url"} {
		if v, ok := part[key].(string); ok && strings.HasPrefix(v, "data:") {
			return v, true
		}
	}
	for _, key := range []string{"b64_json", "image_base64", "data"} {
		if v, ok := part[key].(string); ok && v != "" {
			if strings.HasPrefix(v, "data:") {
				return v, true
			}
			return "data:image/png;base64," + v, true
		}
	}
	return "", false
}

// urlField は image_url.url / image_url（文字列）/ url の順に URL を探します。
func urlField(m map[string]any) (string, bool) {
	switch v := m["image_url"].(type) {
	case map[string]any:
		if u, ok := v["url"].(string); ok && u != "" {
			return u, true
		}
	case string:
		if v != "" {
			return v, true
		}
	}
	if u, ok := m["url"].(string); ok && u != "" {
		return u, true
	}
	return "", false
}

func matchText(s shape) (string, bool) {
	text, ok := s.(plainText)
	if !ok {
		return "", false
	}
	str := string(text)
	if m := dataURIPattern.FindString(str); m != "" {
		return m, true
	}
	if m := httpURLPattern.FindString(str); m != "" {
		return strings.TrimRight(m, ".,;:!?"), true
	}
	if m := markdownPattern.FindStringSubmatch(str); m != nil {
		return m[1], true
	}
	return "", false
}
