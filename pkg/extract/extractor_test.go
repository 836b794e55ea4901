package extract

import "testing"

const pngDataURI = "data:image/png;base64,iVBORw0KGgo="

func TestImageReference_ShapeIndependence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "images配列のimage_url.url",
			raw:  `{"choices":[{"message":{"images":[{"type":"image_url","image_url":{"url":"` + pngDataURI + `"}}]}}]}`,
			want: pngDataURI,
		},
		{
			name: "images配列のurlフィールド",
			raw:  `{"choices":[{"message":{"images":[{"url":"` + pngDataURI + `"}]}}]}`,
			want: pngDataURI,
		},
		{
			name: "output_imageパーツ",
			raw:  `{"choices":[{"message":{"content":[{"type":"text","text":"ok"},{"type":"output_image","image_url":"` + pngDataURI + `"}]}}]}`,
			want: pngDataURI,
		},
		{
			name: "b64_jsonパーツ",
			raw:  `{"choices":[{"message":{"content":[{"type":"image","b64_json":"iVBORw0KGgo="}]}}]}`,
			want: pngDataURI,
		},
		{
			name: "テキスト内のdata URI",
			raw:  `{"choices":[{"message":{"content":"here you go: ` + pngDataURI + ` enjoy"}}]}`,
			want: pngDataURI,
		},
		{
			name: "テキスト内の裸のURL",
			raw:  `{"choices":[{"message":{"content":"see https://cdn.example.com/a.png."}}]}`,
			want: "https://cdn.example.com/a.png",
		},
		{
			name: "Markdown画像リンク",
			raw:  `{"choices":[{"message":{"content":[{"type":"text","text":"![preview](https://cdn.example.com/b.png)"}]}}]}`,
			want: "https://cdn.example.com/b.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ImageReference([]byte(tt.raw))
			if !ok {
				t.Fatalf("画像参照が見つかりませんでした")
			}
			if got != tt.want {
				t.Errorf("期待値 %q, 実際の値 %q", tt.want, got)
			}
		})
	}
}

func TestImageReference_Priority(t *testing.T) {
	raw := `{"choices":[{"message":{
		"images":[{"image_url":{"url":"https://first.example.com/1.png"}}],
		"content":[{"type":"text","text":"https://text.example.com/3.png"},{"type":"image_url","image_url":{"url":"https://part.example.com/2.png"}}]
	}}]}`
	got, ok := ImageReference([]byte(raw))
	if !ok || got != "https://first.example.com/1.png" {
		t.Errorf("images 配列が優先されていません: %q", got)
	}

	raw = `{"choices":[{"message":{"content":[{"type":"text","text":"https://text.example.com/3.png"},{"type":"image_url","image_url":{"url":"https://part.example.com/2.png"}}]}}]}`
	got, _ = ImageReference([]byte(raw))
	if got != "https://part.example.com/2.png" {
		t.Errorf("画像パーツがテキストより優先されていません: %q", got)
	}
}

func TestImageReference_NotFound(t *testing.T) {
	inputs := map[string]string{
		"空オブジェクト":       `{}`,
		"null":          `null`,
		"不正なJSON":       `{"choices":`,
		"空のimagesと内容なし": `{"choices":[{"message":{"images":[]}}]}`,
		"画像のないテキスト":     `{"choices":[{"message":{"content":"抱歉，我无法生成图片"}}]}`,
		"choicesが文字列":   `{"choices":"oops"}`,
		"messageが配列":    `{"choices":[{"message":[1,2]}]}`,
	}
	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			if got, ok := ImageReference([]byte(raw)); ok {
				t.Errorf("見つからないはずが %q が返りました", got)
			}
		})
	}
}

func TestFromMessage_NonMap(t *testing.T) {
	if _, ok := FromMessage(nil); ok {
		t.Error("nil で見つかったと判定されました")
	}
	if _, ok := FromMessage("text"); ok {
		t.Error("文字列メッセージで見つかったと判定されました")
	}
}
