package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func TestProjectParser_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "project.json")
	p := NewProjectParser()

	project := &domain.Project{
		Script:      "雨夜。",
		Style:       "电影感",
		AspectRatio: "9:16",
		Characters:  domain.Cast{{ID: "c1", Name: "老王", Gender: domain.GenderMale, ImageURL: "cache:abc"}},
		Frames:      []domain.StoryboardFrame{{ID: "f1", Scene: "1", Shot: domain.ShotWide, Duration: 4}},
	}
	if err := p.Save(ctx, path, project); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := p.ParseFromPath(ctx, path)
	if err != nil {
		t.Fatalf("ParseFromPath() error = %v", err)
	}
	if diff := cmp.Diff(project, got); diff != "" {
		t.Errorf("保存と読み込みで内容が変わりました (-want +got):\n%s", diff)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("一時ファイルが残っています: %v", entries)
	}
}

func TestProjectParser_MissingFile(t *testing.T) {
	got, err := NewProjectParser().ParseFromPath(context.Background(), filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("ParseFromPath() error = %v", err)
	}
	if got.Ratio() != domain.DefaultAspectRatio || len(got.Frames) != 0 {
		t.Errorf("新規プロジェクトが想定と異なります: %+v", got)
	}
}

func TestProjectParser_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewProjectParser().ParseFromPath(context.Background(), path); err == nil {
		t.Error("壊れた JSON でエラーになっていません")
	}
}

func TestMarkdownParser_Parse(t *testing.T) {
	input := `# 雨夜来客

前言は無視されます。

## 场景 1
- 景别: 全景
- character: 老王, 小李
- content: 雨夜的公寓走廊
- duration: 5
- image: frames/1.png
- mood: 压抑

## Scene 2
- shot: 特写
- 画面：老王回头
- image: https://cdn.example.com/2.png

##
- dialogue: 谁？
`
	board, err := NewMarkdownParser().Parse("https://example.com/boards/rain.md?v=1", input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if board.Title != "雨夜来客" {
		t.Errorf("Title = %q", board.Title)
	}
	if len(board.Frames) != 3 {
		t.Fatalf("len(Frames) = %d, want 3", len(board.Frames))
	}

	type view struct {
		Scene, Shot, Character, Content, Dialogue, ImageURL string
		Duration                                            float64
	}
	var got []view
	for _, f := range board.Frames {
		got = append(got, view{f.Scene, f.Shot, f.Character, f.Content, f.Dialogue, f.ImageURL, f.Duration})
	}
	want := []view{
		{"1", "全景", "老王,小李", "雨夜的公寓走廊", "", "https://example.com/boards/frames/1.png", 5},
		{"2", "特写", "", "老王回头", "", "https://cdn.example.com/2.png", domain.DefaultDuration},
		{"3", domain.ShotMedium, "", domain.ContentPlaceholder, "谁？", "", domain.DefaultDuration},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Frames mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_Empty(t *testing.T) {
	if _, err := NewMarkdownParser().Parse("", "# 只有标题\n正文"); err == nil {
		t.Error("分鏡のない Markdown でエラーになっていません")
	}
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://example.com/a/b/plot.md", "https://example.com/a/b/"},
		{"https://example.com/plot.md", "https://example.com/"},
		{"boards/rain.md", "boards" + string(filepath.Separator)},
		{"rain.md", ""},
		{"s3://bucket/rain.md", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := resolveBaseURL(tt.in); got != tt.want {
				t.Errorf("resolveBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
