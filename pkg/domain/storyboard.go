package domain

import "strings"

// 景別（ショットサイズ）
const (
	ShotCloseUp     = "特写"
	ShotMediumClose = "近景"
	ShotMedium      = "中景"
	ShotWide        = "全景"
	ShotExtremeWide = "远景"
)

// 機位角度
const (
	AngleLevel   = "平视"
	AngleHigh    = "俯视"
	AngleLow     = "仰视"
	AngleOblique = "倾斜"
)

// 運鏡
const (
	MoveStatic  = "固定"
	MovePushIn  = "推进"
	MovePullOut = "拉远"
	MoveFollow  = "跟随"
	MovePan     = "摇镜"
	MoveCrane   = "升降"
)

const (
	// DefaultDuration は秒数が不正なフレームに与える長さです。
	DefaultDuration = 3.0
	// ContentPlaceholder は画面描写が空のフレームに入れる案内文です。
	ContentPlaceholder = "(点击编辑画面描述)"
)

// StoryboardFrame は1ショット分の分鏡データです。
type StoryboardFrame struct {
	ID             string  `json:"id"`
	Scene          string  `json:"scene"`
	Shot           string  `json:"shot"`
	Character      string  `json:"character"` // カンマ区切りのキャラクター名
	CameraAngle    string  `json:"cameraAngle"`
	CameraMovement string  `json:"cameraMovement"`
	Content        string  `json:"content"`
	Dialogue       string  `json:"dialogue"`
	Duration       float64 `json:"duration"`
	ImageURL       string  `json:"imageUrl,omitempty"`
}

// CharacterNames は Character フィールドを分割し、順序を保ったまま空要素を除いて返します。
func (f StoryboardFrame) CharacterNames() []string {
	return SplitNames(f.Character)
}

// HasImage はプレビュー画像が設定済みかを返します。
func (f StoryboardFrame) HasImage() bool {
	return strings.TrimSpace(f.ImageURL) != ""
}

// SplitNames は "甲, 乙,，丙" のようなカンマ区切り文字列を名前のスライスにします。
// 全角カンマも区切りとして扱います。
func SplitNames(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' })
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := strings.TrimSpace(f); n != "" {
			names = append(names, n)
		}
	}
	return names
}
