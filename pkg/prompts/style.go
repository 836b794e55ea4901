package prompts

import (
	"fmt"
	"strings"
)

// StyleID は画風プリセットの識別子です。
type StyleID int

const (
	StyleRealistic StyleID = iota // 既定
	StyleCinematic
	StyleAnime
	StyleWatercolor
	StyleInkComic
	Style3D
)

// DefaultStyle はラベルが認識できない場合に使われるプリセットです。
const DefaultStyle = StyleRealistic

// StylePreset は画風ごとの肯定指示と回避リストです。
type StylePreset struct {
	Label    string
	Positive []string
	Avoid    []string
}

// presets は全ての StyleID を網羅します。
var presets = map[StyleID]StylePreset{
	StyleRealistic: {
		Label:    "写实摄影",
		Positive: []string{"真实摄影质感", "自然光影与真实材质", "电影级构图，画面清晰锐利"},
		Avoid:    []string{"卡通化", "动漫风格", "过度磨皮", "畸形肢体", "文字与水印"},
	},
	StyleCinematic: {
		Label:    "电影感",
		Positive: []string{"电影镜头质感", "胶片色调与颗粒", "浅景深与戏剧化布光"},
		Avoid:    []string{"平淡打光", "廉价棚拍感", "畸形肢体", "文字与水印"},
	},
	StyleAnime: {
		Label:    "日系动漫",
		Positive: []string{"日式动画风格", "干净线稿与赛璐璐上色", "鲜明饱和的色彩"},
		Avoid:    []string{"写实照片", "3D渲染", "崩坏的五官", "文字与水印"},
	},
	StyleWatercolor: {
		Label:    "水彩",
		Positive: []string{"水彩手绘质感", "柔和晕染与纸张纹理", "通透清新的色调"},
		Avoid:    []string{"硬边数码描线", "高饱和荧光色", "写实照片", "文字与水印"},
	},
	StyleInkComic: {
		Label:    "黑白漫画",
		Positive: []string{"黑白线稿漫画", "网点与排线阴影", "强烈的明暗对比"},
		Avoid:    []string{"彩色上色", "写实照片", "模糊线条", "对白气泡与文字"},
	},
	Style3D: {
		Label:    "3D动画",
		Positive: []string{"三维动画渲染", "柔和全局光照", "精致的材质与体积感"},
		Avoid:    []string{"二维平涂", "写实照片", "低多边形瑕疵", "文字与水印"},
	},
}

// styleAliases は UI 表記などのラベルを StyleID に対応付けます。
var styleAliases = map[string]StyleID{
	"写实":         StyleRealistic,
	"写实摄影":       StyleRealistic,
	"realistic":  StyleRealistic,
	"电影":         StyleCinematic,
	"电影感":        StyleCinematic,
	"cinematic":  StyleCinematic,
	"动漫":         StyleAnime,
	"日系动漫":       StyleAnime,
	"anime":      StyleAnime,
	"水彩":         StyleWatercolor,
	"watercolor": StyleWatercolor,
	"漫画":         StyleInkComic,
	"黑白漫画":       StyleInkComic,
	"ink":        StyleInkComic,
	"comic":      StyleInkComic,
	"3d":         Style3D,
	"3d动画":       Style3D,
}

// Preset は StyleID に対応するプリセットを返します。範囲外の値は既定プリセットになります。
func Preset(id StyleID) StylePreset {
	if p, ok := presets[id]; ok {
		return p
	}
	return presets[DefaultStyle]
}

// ParseStyle はラベルを StyleID に変換します。
// 認識できない場合は DefaultStyle と false を返すので、呼び出し側で置き換えをログに残してください。
func ParseStyle(label string) (StyleID, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	if id, ok := styleAliases[key]; ok {
		return id, true
	}
	return DefaultStyle, false
}

// String はプリセットのラベルを返します。
func (id StyleID) String() string {
	return Preset(id).Label
}

// StyleBlock は画風指定ブロックを組み立てます。
func StyleBlock(id StyleID) string {
	p := Preset(id)
	var sb strings.Builder
	sb.WriteString("【风格设定】\n")
	fmt.Fprintf(&sb, "- 风格: %s\n", p.Label)
	if len(p.Positive) > 0 {
		fmt.Fprintf(&sb, "- 要点: %s\n", strings.Join(p.Positive, "；"))
	}
	if len(p.Avoid) > 0 {
		fmt.Fprintf(&sb, "- 避免: %s\n", strings.Join(p.Avoid, "；"))
	}
	return strings.TrimRight(sb.String(), "\n")
}
