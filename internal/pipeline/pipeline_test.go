package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func TestMergeCast(t *testing.T) {
	existing := domain.Cast{
		{ID: "c1", Name: "老王", ImageURL: "cache:abc", ReferenceImages: []string{"ref/wang.png"}},
		{ID: "c2", Name: "小李"},
	}
	extracted := domain.Cast{
		{ID: "n1", Name: "老王", Desc: "五十岁，穿夹克"},
		{ID: "n2", Name: "阿梅"},
	}

	got := MergeCast(existing, extracted)

	want := domain.Cast{
		{ID: "c1", Name: "老王", Desc: "五十岁，穿夹克", ImageURL: "cache:abc", ReferenceImages: []string{"ref/wang.png"}},
		{ID: "n2", Name: "阿梅"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeCast() mismatch (-want +got):\n%s", diff)
	}
	if existing[0].Desc != "" {
		t.Error("既存のキャストが書き換えられました")
	}
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.txt")
	if err := os.WriteFile(path, []byte("第一场 雨夜"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("ファイルを読み込めること", func(t *testing.T) {
		got, err := readInput(path)
		if err != nil || got != "第一场 雨夜" {
			t.Errorf("readInput() = %q, %v", got, err)
		}
	})

	t.Run("存在しないファイルはエラー", func(t *testing.T) {
		if _, err := readInput(filepath.Join(t.TempDir(), "none.txt")); err == nil {
			t.Error("エラーが返されませんでした")
		}
	})

	t.Run("'-' は標準入力から読み込むこと", func(t *testing.T) {
		stdin, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		prev := os.Stdin
		os.Stdin = stdin
		t.Cleanup(func() {
			os.Stdin = prev
			stdin.Close()
		})

		got, err := readInput("-")
		if err != nil || got != "第一场 雨夜" {
			t.Errorf("readInput(\"-\") = %q, %v", got, err)
		}
	})
}

func TestLoadScript_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.txt")
	if err := os.WriteFile(path, []byte("新しい台本"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := loadScript(path, &domain.Project{Script: "保存済み"})
	if err != nil || got != "新しい台本" {
		t.Errorf("loadScript() = %q, %v", got, err)
	}
}
