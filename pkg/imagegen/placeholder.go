package imagegen

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
)

// DefaultPlaceholderText はプレースホルダー画像に描く既定の文字列です。
const DefaultPlaceholderText = "预览图"

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="512" height="512">` +
	`<defs><linearGradient id="g" x1="0" y1="0" x2="1" y2="1">` +
	`<stop offset="0" stop-color="#1e293b"/><stop offset="1" stop-color="#0f172a"/>` +
	`</linearGradient></defs>` +
	`<rect width="100%%" height="100%%" fill="url(#g)"/>` +
	`<text x="50%%" y="50%%" dominant-baseline="middle" text-anchor="middle" fill="#ffffff" font-size="44" font-family="Inter, system-ui">%s</text>` +
	`</svg>`

// PlaceholderImage は文字列入りの SVG プレースホルダーを data URI で返します。
func PlaceholderImage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = DefaultPlaceholderText
	}
	svg := fmt.Sprintf(placeholderSVG, html.EscapeString(text))
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
