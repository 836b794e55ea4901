// Package batch は、画像生成を1件ずつ順番に実行し、途中停止に対応する一括処理を提供します。
// プロバイダのレート制限を考慮し、同時に処理する単位は常に1件です。
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/imagegen"
)

// DefaultInterval は単位間に挟む待機時間です。
const DefaultInterval = time.Second

// ErrAlreadyRunning は実行中の Runner に Run を呼んだ場合に返されます。
var ErrAlreadyRunning = errors.New("一括生成はすでに実行中です")

// Runner は単位を入力順に1件ずつ生成します。
type Runner struct {
	generator Generator
	applier   Applier
	observer  Observer
	interval  time.Duration
	sleep     func(time.Duration)

	mu            sync.Mutex
	state         State
	stopRequested bool
	cancelCurrent context.CancelFunc
}

// NewRunner は Runner を初期化します。observer は nil でも構いません。
func NewRunner(generator Generator, applier Applier, observer Observer, interval time.Duration) *Runner {
	if interval < 0 {
		interval = 0
	}
	return &Runner{
		generator: generator,
		applier:   applier,
		observer:  observer,
		interval:  interval,
		sleep:     time.Sleep,
	}
}

// State は現在の状態を返します。
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Stop は停止を要求します。処理中の単位のコンテキストをキャンセルし、以降の単位は開始しません。
// 実行中でなければ何もせず false を返します。
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning {
		return false
	}
	r.state = StateStopping
	r.stopRequested = true
	if r.cancelCurrent != nil {
		r.cancelCurrent()
	}
	return true
}

// Run は units を入力順に処理します。
// 個々の失敗は Summary に集計されて処理は続行し、中断（Stop または ctx のキャンセル）でのみ早期終了します。
// 単位間には固定の待機を挟みますが、この待機自体は停止要求で打ち切られません。
func (r *Runner) Run(ctx context.Context, units []Unit) (Summary, error) {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return Summary{}, ErrAlreadyRunning
	}
	r.state = StateRunning
	r.stopRequested = false
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.state = StateIdle
		r.cancelCurrent = nil
		r.mu.Unlock()
	}()

	summary := Summary{Total: len(units)}
	slog.InfoContext(ctx, "一括生成を開始します", "units", len(units), "interval", r.interval)

	for i, u := range units {
		if r.stopping() || ctx.Err() != nil {
			summary.Stopped = true
			break
		}

		summary.Attempted++
		out := r.runUnit(ctx, u)

		switch {
		case out.Aborted():
			summary.Stopped = true
			slog.InfoContext(ctx, "停止要求により中断しました", "id", u.ID(), "label", u.Label())
		case out.Success():
			summary.Succeeded++
			if out.Kind == imagegen.OutcomePlaceholder {
				summary.Placeholders++
			}
			slog.InfoContext(ctx, "生成に成功しました", "id", u.ID(), "label", u.Label(), "kind", out.Kind, "attempts", out.Attempts)
		default:
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{ID: u.ID(), Label: u.Label(), Kind: out.ErrorKind, Message: out.Message})
			slog.WarnContext(ctx, "生成に失敗しました", "id", u.ID(), "label", u.Label(), "error_kind", out.ErrorKind, "message", out.Message, "error", out.Err)
		}

		if summary.Stopped {
			break
		}
		if i < len(units)-1 && r.interval > 0 {
			r.sleep(r.interval)
		}
	}

	if r.stopping() {
		summary.Stopped = true
	}
	slog.InfoContext(ctx, "一括生成を終了しました",
		"succeeded", summary.Succeeded, "failed", summary.Failed, "placeholders", summary.Placeholders, "stopped", summary.Stopped)
	return summary, nil
}

// runUnit は1単位を処理します。処理中マーカーは結果にかかわらず必ず外します。
func (r *Runner) runUnit(ctx context.Context, u Unit) (out imagegen.Outcome) {
	unitCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelCurrent = cancel
	if r.stopRequested {
		// ループの確認と登録の間に Stop された場合
		cancel()
	}
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.MarkInFlight(u.ID())
	}
	defer func() {
		if p := recover(); p != nil {
			out = imagegen.Outcome{
				Kind:      imagegen.OutcomeFailed,
				ErrorKind: imagegen.ErrorKindRequest,
				Message:   "予期しないエラーが発生しました",
				Err:       fmt.Errorf("panic: %v", p),
			}
		}
		if r.observer != nil {
			r.observer.ClearInFlight(u.ID())
		}
		r.mu.Lock()
		r.cancelCurrent = nil
		r.mu.Unlock()
		cancel()
	}()

	out = r.generator.Generate(unitCtx, u.Request())
	if !out.Success() {
		return out
	}
	if err := unitCtx.Err(); err != nil || r.stopping() {
		// 停止要求の後に届いた画像は反映しない
		if err == nil {
			err = context.Canceled
		}
		slog.DebugContext(ctx, "停止要求の後に届いた生成結果を破棄します", "id", u.ID())
		return imagegen.Outcome{
			Kind:      imagegen.OutcomeAborted,
			ErrorKind: imagegen.ErrorKindAborted,
			Message:   "停止要求により結果を破棄しました",
			Err:       err,
		}
	}
	// 反映には単位のコンテキストではなく一括処理のコンテキストを渡す
	if err := r.applier.ApplyImage(ctx, u.ID(), out.ImageURI); err != nil {
		return imagegen.Outcome{
			Kind:      imagegen.OutcomeFailed,
			ErrorKind: imagegen.ErrorKindRequest,
			Message:   "画像の反映に失敗しました",
			Err:       fmt.Errorf("画像の反映に失敗 (id=%s): %w", u.ID(), err),
		}
	}
	return out
}

func (r *Runner) stopping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopRequested
}
