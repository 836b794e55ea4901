package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RawRecord は LLM が返した JSON オブジェクトをそのまま保持する型です。
// フィールド名の揺れを吸収するために map で受け取ります。
type RawRecord map[string]any

// NormalizeRoles は LLM の役割抽出結果を Character のスライスに正規化します。
// 別名フィールドを許容し、欠けている値は既定値で補います。
func NormalizeRoles(records []RawRecord) []Character {
	out := make([]Character, 0, len(records))
	for i, r := range records {
		c := Character{
			ID:              uuid.NewString(),
			Name:            r.str("name", "role"),
			Desc:            r.str("desc", "summary", "description"),
			Age:             r.str("age", "age_years"),
			Gender:          GenderOther,
			Nationality:     r.str("nationality", "country"),
			Traits:          r.joined("traits", "attributes", "features"),
			Backstory:       r.str("backstory", "background", "bio"),
			StyleTags:       r.list("styleTags", "styles", "tags"),
			ReferenceImages: []string{},
		}
		if g := r.str("gender", "sex"); g != "" {
			c.Gender = ParseGender(g)
		}
		c.EnsureName(i)
		out = append(out, c)
	}
	return out
}

// NormalizeFrames は LLM の分鏡結果を StoryboardFrame のスライスに正規化します。
func NormalizeFrames(records []RawRecord) []StoryboardFrame {
	out := make([]StoryboardFrame, 0, len(records))
	for i, r := range records {
		f := StoryboardFrame{
			ID:             uuid.NewString(),
			Scene:          r.str("scene", "scene_number"),
			Shot:           r.str("shot", "shot_size", "shot_type"),
			Character:      r.joined("character", "characters"),
			CameraAngle:    r.str("cameraAngle", "angle"),
			CameraMovement: r.str("cameraMovement", "movement", "camera_move"),
			Content:        r.str("content", "description", "visual"),
			Dialogue:       r.str("dialogue", "lines", "audio"),
			Duration:       r.number("duration", "time", "seconds"),
			ImageURL:       r.str("imageUrl", "image_url"),
		}
		if f.Scene == "" {
			f.Scene = strconv.Itoa(i + 1)
		}
		if f.Shot == "" {
			f.Shot = ShotMedium
		}
		if f.CameraAngle == "" {
			f.CameraAngle = AngleLevel
		}
		if f.CameraMovement == "" {
			f.CameraMovement = MoveStatic
		}
		if f.Content == "" {
			f.Content = ContentPlaceholder
		}
		if f.Duration <= 0 {
			f.Duration = DefaultDuration
		}
		out = append(out, f)
	}
	return out
}

// value はキー候補を順に調べ、最初の「空でない」値を返します。
func (r RawRecord) value(keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) == "" {
				continue
			}
		case []any:
			if len(t) == 0 {
				continue
			}
		case float64:
			if t == 0 {
				continue
			}
		case bool:
			if !t {
				continue
			}
		}
		return v, true
	}
	return nil, false
}

func (r RawRecord) str(keys ...string) string {
	v, ok := r.value(keys...)
	if !ok {
		return ""
	}
	return scalarString(v)
}

// joined は配列ならカンマで連結し、それ以外は文字列として返します。
func (r RawRecord) joined(keys ...string) string {
	v, ok := r.value(keys...)
	if !ok {
		return ""
	}
	if arr, isArr := v.([]any); isArr {
		parts := make([]string, 0, len(arr))
		for _, a := range arr {
			parts = append(parts, scalarString(a))
		}
		return strings.Join(parts, ",")
	}
	return scalarString(v)
}

// list は配列をそのまま、文字列ならカンマ分割してスライスにします。
func (r RawRecord) list(keys ...string) []string {
	v, ok := r.value(keys...)
	if !ok {
		return []string{}
	}
	if arr, isArr := v.([]any); isArr {
		out := make([]string, 0, len(arr))
		for _, a := range arr {
			if s := strings.TrimSpace(scalarString(a)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s, isStr := v.(string); isStr {
		out := []string{}
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return []string{}
}

func (r RawRecord) number(keys ...string) float64 {
	v, ok := r.value(keys...)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
