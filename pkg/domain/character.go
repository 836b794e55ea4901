package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Gender はキャラクターの性別を表す列挙値です。
type Gender string

const (
	GenderMale   Gender = "男"
	GenderFemale Gender = "女"
	GenderOther  Gender = "其他"
)

// DefaultNationality は国籍が未入力のときに使うフォールバック値です。
const DefaultNationality = "中国"

// Character はストーリーボードに登場するキャラクターの定義を保持します。
type Character struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Desc            string   `json:"desc"` // 外見の記述（髪型・服装・体型など）
	Age             string   `json:"age"`  // "28" や "30岁左右" などの自由記述
	Gender          Gender   `json:"gender"`
	Nationality     string   `json:"nationality,omitempty"`
	Traits          string   `json:"traits"` // カンマ区切りの性格タグ
	Backstory       string   `json:"backstory"`
	StyleTags       []string `json:"styleTags"`
	ImageURL        string   `json:"imageUrl,omitempty"` // 一貫性保持のためのメイン参照画像
	ReferenceImages []string `json:"referenceImages,omitempty"`
}

// UnmarshalJSON は性別ラベルを正規化しながらデコードします。
func (c *Character) UnmarshalJSON(data []byte) error {
	type alias Character
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Character(raw)
	c.Gender = ParseGender(string(raw.Gender))
	return nil
}

// ParseGender は日本語・中国語・英語の性別ラベルを Gender に変換します。
// 認識できないラベルは GenderOther になります。
func ParseGender(label string) Gender {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "男", "male", "m", "man", "男性":
		return GenderMale
	case "女", "female", "f", "woman", "女性":
		return GenderFemale
	default:
		return GenderOther
	}
}

// String はキャラクターの情報を文字列で返します。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

// EffectiveNationality は空の場合に DefaultNationality を返します。
func (c Character) EffectiveNationality() string {
	if n := strings.TrimSpace(c.Nationality); n != "" {
		return n
	}
	return DefaultNationality
}

// HasReference はメインまたは補助の参照画像を1枚以上持つかを返します。
func (c Character) HasReference() bool {
	if strings.TrimSpace(c.ImageURL) != "" {
		return true
	}
	for _, ref := range c.ReferenceImages {
		if strings.TrimSpace(ref) != "" {
			return true
		}
	}
	return false
}

// EnsureName は名前が空のとき "角色N" を割り当てます。index は0始まりです。
func (c *Character) EnsureName(index int) {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = fmt.Sprintf("角色%d", index+1)
	}
}

// Cast は名前で検索できるキャラクター一覧です。順序は保持されます。
type Cast []Character

// Find は名前が完全一致するキャラクターを返します。
func (cs Cast) Find(name string) (*Character, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	for i := range cs {
		if cs[i].Name == name {
			return &cs[i], true
		}
	}
	return nil, false
}

// Names はキャラクター名を登録順に返します。
func (cs Cast) Names() []string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name)
	}
	return names
}

// MissingReferences は参照画像を1枚も持たないキャラクターを返します。
func (cs Cast) MissingReferences() []Character {
	var missing []Character
	for _, c := range cs {
		if !c.HasReference() {
			missing = append(missing, c)
		}
	}
	return missing
}
