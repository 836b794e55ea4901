package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// CollectReferenceImages はフレームに登場するキャラクターの参照画像を集めます。
// 名前の並び順を保ち、各キャラクター内ではメイン画像の後に補助画像が続きます。
// cast に存在しない名前や空の URI は読み飛ばします。
func CollectReferenceImages(f domain.StoryboardFrame, cast domain.Cast) []string {
	var refs []string
	for _, name := range f.CharacterNames() {
		refs = append(refs, characterImages(cast, name)...)
	}
	return refs
}

func characterImages(cast domain.Cast, name string) []string {
	c, ok := cast.Find(name)
	if !ok {
		return nil
	}
	var images []string
	if u := strings.TrimSpace(c.ImageURL); u != "" {
		images = append(images, u)
	}
	for _, ref := range c.ReferenceImages {
		if u := strings.TrimSpace(ref); u != "" {
			images = append(images, u)
		}
	}
	return images
}

// FrameAttachments はフレーム生成時の添付一式を組み立てます。
// 参照画像は CollectReferenceImages の順に並べ、
// previous が同じ場景で画像を持つ場合はその画像を環境参照として最後に添付します。
func FrameAttachments(f domain.StoryboardFrame, cast domain.Cast, previous *domain.StoryboardFrame) Attachments {
	att := Attachments{
		Images:   CollectReferenceImages(f, cast),
		CastLine: referenceCastLine(f, cast),
	}

	if previous != nil && previous.HasImage() &&
		strings.TrimSpace(previous.Scene) != "" && strings.TrimSpace(previous.Scene) == strings.TrimSpace(f.Scene) {
		att.Images = append(att.Images, strings.TrimSpace(previous.ImageURL))
		att.AnchorLine = fmt.Sprintf("环境参考: 第%d张图为同一场景的上一镜头画面，请沿用其环境、光线与色调，人物动作以本镜头描述为准。", len(att.Images))
	}
	return att
}

// referenceCastLine は参照画像の何枚目がどの角色かを説明する行です。番号は CollectReferenceImages の並びと一致します。
func referenceCastLine(f domain.StoryboardFrame, cast domain.Cast) string {
	var (
		labels []string
		next   = 1
	)
	for _, name := range f.CharacterNames() {
		n := len(characterImages(cast, name))
		if n == 0 {
			continue
		}
		labels = append(labels, fmt.Sprintf("%s「%s」", imageRange(next, next+n-1), name))
		next += n
	}
	if len(labels) == 0 {
		return ""
	}
	return "参考图说明: " + strings.Join(labels, "，") + "，请保持对应角色的外观一致。"
}

func imageRange(from, to int) string {
	if from == to {
		return fmt.Sprintf("第%d张为", from)
	}
	return fmt.Sprintf("第%d-%d张为", from, to)
}
