package cmd

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shouni/go-storyboard-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
)

func TestRootCmd_Flags(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		clibase.Flags = clibase.GlobalFlags{}
		opts = config.GenerateOptions{}
	})

	root := clibase.NewRootCmd(appName, addAppFlags, preRunAppE)
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--verbose", "--project", "work/demo.json", "-s", "水彩"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	t.Run("clibase の --verbose でデバッグログが有効になること", func(t *testing.T) {
		if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			t.Error("デバッグレベルが有効になっていません")
		}
	})

	t.Run("アプリ固有のフラグが opts に入ること", func(t *testing.T) {
		if opts.ProjectFile != "work/demo.json" || opts.Style != "水彩" {
			t.Errorf("opts = %+v", opts)
		}
	})

	t.Run("説明文がアプリのものに差し替わること", func(t *testing.T) {
		if root.Use != appName || root.Short == "" || !root.SilenceUsage {
			t.Errorf("root = Use:%q Short:%q SilenceUsage:%v", root.Use, root.Short, root.SilenceUsage)
		}
	})
}

func TestLogLevel(t *testing.T) {
	if logLevel(false) != slog.LevelInfo || logLevel(true) != slog.LevelDebug {
		t.Errorf("logLevel() = %v / %v", logLevel(false), logLevel(true))
	}
}
