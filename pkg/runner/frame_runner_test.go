package runner

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/batch"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/imagegen"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

type fakeGenerator struct {
	mu   sync.Mutex
	reqs []imagegen.Request
	next func(n int) imagegen.Outcome
}

func (g *fakeGenerator) Generate(_ context.Context, req imagegen.Request) imagegen.Outcome {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	n := len(g.reqs)
	g.mu.Unlock()
	return g.next(n)
}

type mapStore struct {
	mu   sync.Mutex
	data map[string]string
	seq  int
}

func (s *mapStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", asset.ErrNotFound
	}
	return v, nil
}

func (s *mapStore) Put(_ context.Context, _ string, dataURI string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	key := "k" + strings.Repeat("x", s.seq)
	s.data[key] = dataURI
	return key, nil
}

func testProject() *domain.Project {
	return &domain.Project{
		AspectRatio: "9:16",
		Characters: domain.Cast{
			{ID: "c1", Name: "老王", Gender: domain.GenderMale, Age: "50", Desc: "灰白短发", ImageURL: "cache:wang", ReferenceImages: []string{"https://x/wang-side.png"}},
			{ID: "c2", Name: "小李", Gender: domain.GenderFemale, Desc: "马尾辫"},
		},
		Frames: []domain.StoryboardFrame{
			{ID: "f1", Scene: "1", Shot: domain.ShotWide, Character: "老王", Content: "雨夜走廊"},
			{ID: "f2", Scene: "1", Shot: domain.ShotCloseUp, Character: "老王,小李", Content: "老王回头"},
			{ID: "f3", Scene: "2", Shot: domain.ShotMedium, Content: "空房间", ImageURL: "https://x/done.png"},
		},
	}
}

type fixture struct {
	project *domain.Project
	store   *mapStore
	gen     *fakeGenerator
	applier *ProjectApplier
	runner  *FrameRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &mapStore{data: map[string]string{"wang": "data:image/png;base64,V0FORw=="}}
	gen := &fakeGenerator{next: func(n int) imagegen.Outcome {
		return imagegen.Outcome{Kind: imagegen.OutcomeSuccess, ImageURI: "data:image/png;base64,R0VO" + strings.Repeat("A", n), Attempts: 1}
	}}
	project := testProject()
	resolver := asset.NewResolver(store, "", time.Minute)
	applier := NewProjectApplier(project, store, resolver)
	b := batch.NewRunner(gen, applier, nil, 0)
	return &fixture{
		project: project,
		store:   store,
		gen:     gen,
		applier: applier,
		runner:  NewFrameRunner(applier, b, resolver, prompts.StyleCinematic),
	}
}

func TestFrameRunner_Run(t *testing.T) {
	fx := newFixture(t)

	summary, err := fx.runner.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Succeeded != 2 || summary.Failed != 0 {
		t.Errorf("想定外のサマリーです: %+v", summary)
	}

	t.Run("画像のないフレームだけが対象になること", func(t *testing.T) {
		if len(fx.gen.reqs) != 2 {
			t.Fatalf("生成回数 = %d, want 2", len(fx.gen.reqs))
		}
	})

	t.Run("生成画像はキャッシュ参照として反映されること", func(t *testing.T) {
		for _, f := range fx.project.Frames[:2] {
			key, ok := asset.CacheKey(f.ImageURL)
			if !ok {
				t.Fatalf("キャッシュ参照になっていません: %q", f.ImageURL)
			}
			if _, err := fx.store.Get(context.Background(), key); err != nil {
				t.Errorf("キャッシュに保存されていません: %v", err)
			}
		}
		if fx.project.Frames[2].ImageURL != "https://x/done.png" {
			t.Errorf("既存の画像が書き換えられています: %q", fx.project.Frames[2].ImageURL)
		}
	})

	t.Run("1件目は参照画像を解決して添付すること", func(t *testing.T) {
		req := fx.gen.reqs[0]
		want := []string{"data:image/png;base64,V0FORw==", "https://x/wang-side.png"}
		if diff := cmp.Diff(want, req.Images); diff != "" {
			t.Errorf("Images mismatch (-want +got):\n%s", diff)
		}
		if req.AspectRatio != "9:16" {
			t.Errorf("AspectRatio = %q", req.AspectRatio)
		}
		if !strings.Contains(req.System, FrameSystemPrompt) || !strings.Contains(req.System, "电影感") {
			t.Errorf("システムメッセージに画風が含まれていません: %q", req.System)
		}
	})

	t.Run("同じ場景の2件目は直前の生成結果を環境参照にすること", func(t *testing.T) {
		req := fx.gen.reqs[1]
		if len(req.Images) != 3 {
			t.Fatalf("添付画像 = %d, want 3: %v", len(req.Images), req.Images)
		}
		if req.Images[2] != "data:image/png;base64,R0VOA" {
			t.Errorf("環境参照が直前フレームの画像ではありません: %q", req.Images[2])
		}
		texts := strings.Join(req.Texts, "\n")
		if !strings.Contains(texts, "环境参考: 第3张图") || !strings.Contains(texts, "第1-2张为「老王」") {
			t.Errorf("添付の説明行が想定と異なります:\n%s", texts)
		}
	})
}

func TestFrameRunner_RunWithIDsRegenerates(t *testing.T) {
	fx := newFixture(t)

	summary, err := fx.runner.Run(context.Background(), []string{"f3", "missing"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Total != 1 || summary.Succeeded != 1 {
		t.Errorf("想定外のサマリーです: %+v", summary)
	}
	if !strings.HasPrefix(fx.project.Frames[2].ImageURL, asset.CacheScheme) {
		t.Errorf("指定フレームが再生成されていません: %q", fx.project.Frames[2].ImageURL)
	}
}

func TestFrameRunner_MissingReferences(t *testing.T) {
	fx := newFixture(t)
	if diff := cmp.Diff([]string{"小李"}, fx.runner.MissingReferences(nil)); diff != "" {
		t.Errorf("MissingReferences() mismatch (-want +got):\n%s", diff)
	}
	if got := fx.runner.MissingReferences([]string{"f1"}); len(got) != 0 {
		t.Errorf("f1 には参照画像のないキャラクターはいません: %v", got)
	}
}

func TestFrameRunner_Run_WarnsMissingReferencesOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	fx := newFixture(t)
	if _, err := fx.runner.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if n := strings.Count(buf.String(), "参照画像のないキャラクターがいます"); n != 1 {
		t.Errorf("参照画像の警告回数: 期待値 1, 実際の値 %d\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "characters=小李") {
		t.Errorf("警告に対象のキャラクターが含まれていません:\n%s", buf.String())
	}
}

func TestFrameRunner_NothingPending(t *testing.T) {
	fx := newFixture(t)
	for i := range fx.project.Frames {
		fx.project.Frames[i].ImageURL = "https://x/done.png"
	}
	summary, err := fx.runner.Run(context.Background(), nil)
	if err != nil || summary.Total != 0 || len(fx.gen.reqs) != 0 {
		t.Errorf("対象がないのに生成されました: %+v, %v", summary, err)
	}
}

func TestDesignRunner_Run(t *testing.T) {
	fx := newFixture(t)
	b := batch.NewRunner(fx.gen, fx.applier, nil, 0)
	dr := NewDesignRunner(fx.applier, b, asset.NewResolver(fx.store, "", time.Minute), prompts.StyleAnime)

	summary, err := dr.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Total != 1 || summary.Succeeded != 1 {
		t.Errorf("参照画像のないキャラクターだけが対象になっていません: %+v", summary)
	}

	req := fx.gen.reqs[0]
	if !strings.HasPrefix(req.Texts[0], "生成角色参考图: 小李, 中国, 女") {
		t.Errorf("キャラクタープロンプトが想定と異なります: %q", req.Texts[0])
	}
	if req.AspectRatio != CharacterAspectRatio || req.PlaceholderText != "小李" {
		t.Errorf("リクエストが想定と異なります: %+v", req)
	}
	if !strings.HasPrefix(fx.project.Characters[1].ImageURL, asset.CacheScheme) {
		t.Errorf("参照画像が反映されていません: %q", fx.project.Characters[1].ImageURL)
	}
}

func TestDesignRunner_RunByName(t *testing.T) {
	fx := newFixture(t)
	b := batch.NewRunner(fx.gen, fx.applier, nil, 0)
	dr := NewDesignRunner(fx.applier, b, nil, prompts.StyleRealistic)

	if units := dr.Units(context.Background(), []string{"老王"}); len(units) != 1 || units[0].ID() != "c1" {
		t.Errorf("名前指定で対象を選べていません: %v", units)
	}
}

func TestProjectApplier_UnknownID(t *testing.T) {
	a := NewProjectApplier(testProject(), nil, nil)
	if err := a.ApplyImage(context.Background(), "nope", "https://x/a.png"); err == nil {
		t.Error("存在しない ID への反映がエラーになっていません")
	}
	if err := a.ApplyImage(context.Background(), "c2", "https://x/li.png"); err != nil {
		t.Errorf("ApplyImage() error = %v", err)
	}
}

// ctxSaver は Put に渡されたコンテキストを検査する ImageSaver です。
type ctxSaver struct{ got context.Context }

func (s *ctxSaver) Put(ctx context.Context, _ string, _ string) (string, error) {
	s.got = ctx
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "saved", nil
}

type traceKey struct{}

func TestProjectApplier_PassesContextToSaver(t *testing.T) {
	t.Run("呼び出し元のコンテキストで保存すること", func(t *testing.T) {
		saver := &ctxSaver{}
		a := NewProjectApplier(testProject(), saver, nil)
		ctx := context.WithValue(context.Background(), traceKey{}, "run-1")

		if err := a.ApplyImage(ctx, "f1", "data:image/png;base64,QUJD"); err != nil {
			t.Fatalf("ApplyImage() error = %v", err)
		}
		if saver.got == nil || saver.got.Value(traceKey{}) != "run-1" {
			t.Error("保存に呼び出し元のコンテキストが渡されていません")
		}
	})

	t.Run("キャンセル済みなら反映しないこと", func(t *testing.T) {
		project := testProject()
		a := NewProjectApplier(project, &ctxSaver{}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := a.ApplyImage(ctx, "f1", "data:image/png;base64,QUJD"); err == nil {
			t.Error("キャンセル済みのコンテキストでエラーになっていません")
		}
		if project.Frames[0].ImageURL != "" {
			t.Errorf("保存に失敗したのに反映されています: %q", project.Frames[0].ImageURL)
		}
	})
}
