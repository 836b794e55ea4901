package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/imagegen"
)

// Generator は1件の画像生成を担います。imagegen.Client が実装します。
type Generator interface {
	Generate(ctx context.Context, req imagegen.Request) imagegen.Outcome
}

// Unit は一括生成の1単位（フレームやキャラクター）です。
type Unit interface {
	ID() string
	Label() string
	// Request は生成リクエストを組み立てます。直前の単位の反映結果を読めるよう、実行直前に呼ばれます。
	Request() imagegen.Request
}

// Observer は処理中の単位を外部（UI や CLI の進捗表示）へ通知します。
type Observer interface {
	MarkInFlight(id string)
	ClearInFlight(id string)
}

// Applier は成功した単位の画像を共有状態へ反映します。
type Applier interface {
	ApplyImage(ctx context.Context, id, uri string) error
}

// ApplierFunc は関数を Applier として扱うためのアダプターです。
type ApplierFunc func(ctx context.Context, id, uri string) error

func (f ApplierFunc) ApplyImage(ctx context.Context, id, uri string) error { return f(ctx, id, uri) }

// Job は固定のリクエストを持つ汎用の Unit 実装です。
type Job struct {
	JobID   string
	Name    string
	Build   func() imagegen.Request
	Payload imagegen.Request
}

func (j Job) ID() string    { return j.JobID }
func (j Job) Label() string { return j.Name }

// Request は Build が設定されていればそれを呼び、なければ Payload を返します。
func (j Job) Request() imagegen.Request {
	if j.Build != nil {
		return j.Build()
	}
	return j.Payload
}

// State は Runner の状態です。
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Failure は失敗した単位の記録です。
type Failure struct {
	ID      string
	Label   string
	Kind    imagegen.ErrorKind
	Message string
}

// Summary は一括生成の結果です。
type Summary struct {
	Total        int
	Attempted    int
	Succeeded    int // プレースホルダーを含む
	Placeholders int
	Failed       int
	Stopped      bool
	Failures     []Failure
}

// Report は利用者向けの1行サマリーを返します。
func (s Summary) Report() string {
	if s.Stopped {
		return fmt.Sprintf("生成を中断しました: 成功 %d 件 / 失敗 %d 件（全 %d 件中 %d 件を処理）",
			s.Succeeded, s.Failed, s.Total, s.Attempted)
	}
	msg := fmt.Sprintf("一括生成が完了しました: 成功 %d 件 / 失敗 %d 件", s.Succeeded, s.Failed)
	if s.Placeholders > 0 {
		msg += fmt.Sprintf("（うちプレースホルダー %d 件）", s.Placeholders)
	}
	return msg
}

// FailureDetails は失敗の内訳を複数行で返します。
func (s Summary) FailureDetails() string {
	lines := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		lines = append(lines, fmt.Sprintf("- %s: %s", f.Label, f.Message))
	}
	return strings.Join(lines, "\n")
}
