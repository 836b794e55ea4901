package prompts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

var (
	// nonVisualPattern は外見記述に紛れ込みやすい性格・経歴系の語彙です。
	nonVisualPattern = regexp.MustCompile(`性格|背景|经历|故事|心理|情感|独居|工作|职业`)
	sentenceSplitter = regexp.MustCompile(`[,，。]`)
)

// ageQualifiers のいずれかを含む年齢表記には単位を付け足しません。
var ageQualifiers = []string{"岁", "左右", "中年", "青年", "老年", "少年", "多岁"}

// CharacterConstraints はキャラクター参照図の固定要件です。
const CharacterConstraints = `【生成要求】
- 只生成一个人物肖像
- 角度: 正面或3/4侧面肖像
- 重点: 清晰的面部特征和整体形象
- 背景: 简洁纯色或虚化背景`

// ComposeCharacterPrompt はキャラクター参照図用のプロンプトを組み立てます。
// 外見ブロックは Desc のみを情報源とし、Desc が空の場合に限り Traits を参考特徴として使います。
func ComposeCharacterPrompt(c domain.Character, style StyleID) Prompt {
	styleBlock := StyleBlock(style)

	var sections []string
	sections = append(sections, "生成角色参考图: "+subjectLine(c))

	if appearance := VisualAppearance(c.Desc); appearance != "" {
		sections = append(sections, "【外观特征】\n"+appearance)
	} else if strings.TrimSpace(c.Desc) == "" && strings.TrimSpace(c.Traits) != "" {
		sections = append(sections, "【参考特征】\n"+strings.TrimSpace(c.Traits))
	}

	sections = append(sections, styleBlock, CharacterConstraints)

	return Prompt{
		Text:       strings.Join(sections, "\n\n"),
		StyleBlock: styleBlock,
	}
}

// VisualAppearance は外見記述から非視覚的な文を取り除いて返します。
// 該当語彙を含まなければ入力をそのまま返します。
func VisualAppearance(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" || !nonVisualPattern.MatchString(desc) {
		return desc
	}
	var kept []string
	for _, s := range sentenceSplitter.Split(desc, -1) {
		s = strings.TrimSpace(s)
		if s == "" || nonVisualPattern.MatchString(s) {
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, "，")
}

// NormalizeAge は単位のない年齢表記に "岁" を付けます。
func NormalizeAge(age string) string {
	age = strings.TrimSpace(age)
	if age == "" {
		return ""
	}
	for _, q := range ageQualifiers {
		if strings.Contains(age, q) {
			return age
		}
	}
	return age + "岁"
}

// subjectLine は "名前, 国籍, 性別, 年齢" を組み立てます。性別が其他の場合は省きます。
func subjectLine(c domain.Character) string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = "角色"
	}
	parts := append([]string{name}, profileDetails(c)...)
	return strings.Join(parts, ", ")
}

// profileDetails は国籍・性別・年齢のうち値のあるものを順に返します。
func profileDetails(c domain.Character) []string {
	details := []string{c.EffectiveNationality()}
	if c.Gender != "" && c.Gender != domain.GenderOther {
		details = append(details, string(c.Gender))
	}
	if age := NormalizeAge(c.Age); age != "" {
		details = append(details, age)
	}
	return details
}

// castLine はフレームプロンプト内の1キャラクター分の説明行です。
func castLine(c domain.Character) string {
	line := fmt.Sprintf("- %s（%s）", c.Name, strings.Join(profileDetails(c), "，"))
	if appearance := VisualAppearance(c.Desc); appearance != "" {
		line += "：" + appearance
	}
	return line
}
