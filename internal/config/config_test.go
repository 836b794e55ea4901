package config

import (
	"testing"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/config"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv(config.EnvModel, "env/text-model")
	t.Setenv(config.EnvStyle, "水彩")

	t.Run("フラグ未指定なら環境変数の値が残ること", func(t *testing.T) {
		cfg := LoadConfig(GenerateOptions{ProjectFile: "p.json"})
		if cfg.TextModel != "env/text-model" || cfg.Style != "水彩" {
			t.Errorf("LoadConfig() = %+v", cfg.Config)
		}
		if cfg.BatchInterval != config.DefaultBatchInterval {
			t.Errorf("BatchInterval = %v", cfg.BatchInterval)
		}
		if cfg.Options.ProjectFile != "p.json" {
			t.Errorf("Options が保持されていません: %+v", cfg.Options)
		}
	})

	t.Run("フラグが環境変数より優先されること", func(t *testing.T) {
		cfg := LoadConfig(GenerateOptions{
			TextModel:   "flag/model",
			Style:       "anime",
			AspectRatio: "9:16",
			Interval:    3 * time.Second,
			CacheDB:     "tmp/cache.db",
		})
		if cfg.TextModel != "flag/model" || cfg.Style != "anime" || cfg.AspectRatio != "9:16" {
			t.Errorf("LoadConfig() = %+v", cfg.Config)
		}
		if cfg.BatchInterval != 3*time.Second || cfg.CacheDB != "tmp/cache.db" {
			t.Errorf("LoadConfig() = %+v", cfg.Config)
		}
	})
}
