package domain

import "strings"

// DefaultAspectRatio はプロジェクト作成時の画幅比です。
const DefaultAspectRatio = "16:9"

// Project は台本・キャスト・分鏡をまとめた保存単位です。
type Project struct {
	Script      string            `json:"script"`
	Characters  Cast              `json:"characters"`
	Frames      []StoryboardFrame `json:"frames"`
	Style       string            `json:"style,omitempty"`       // スタイルのラベル（UI 表記）
	AspectRatio string            `json:"aspectRatio,omitempty"` // "W:H"
}

// PendingFrames は画像が未設定のフレームを元の順序で返します。
func (p *Project) PendingFrames() []StoryboardFrame {
	var pending []StoryboardFrame
	for _, f := range p.Frames {
		if !f.HasImage() {
			pending = append(pending, f)
		}
	}
	return pending
}

// PendingCharacters は参照画像が未設定のキャラクターを返します。
func (p *Project) PendingCharacters() []Character {
	return p.Characters.MissingReferences()
}

// Ratio は画幅比を返します。未設定なら DefaultAspectRatio です。
func (p *Project) Ratio() string {
	if r := strings.TrimSpace(p.AspectRatio); r != "" {
		return r
	}
	return DefaultAspectRatio
}

// FrameIndex は ID に一致するフレームの位置を返します。見つからなければ -1 です。
func (p *Project) FrameIndex(id string) int {
	for i, f := range p.Frames {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// CharacterIndex は ID に一致するキャラクターの位置を返します。
func (p *Project) CharacterIndex(id string) int {
	for i, c := range p.Characters {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// PreviousFrame は index の直前のフレームを返します。先頭なら false です。
func (p *Project) PreviousFrame(index int) (StoryboardFrame, bool) {
	if index <= 0 || index > len(p.Frames) {
		return StoryboardFrame{}, false
	}
	return p.Frames[index-1], true
}
