package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFromEnv(t *testing.T) {
	t.Run("未設定の場合はデフォルト値になること", func(t *testing.T) {
		for _, k := range []string{EnvBaseURL, EnvModel, EnvImageModel, EnvBatchInterval, EnvStyle, EnvCacheDB} {
			t.Setenv(k, "")
		}
		cfg := LoadFromEnv()
		def := DefaultConfig()
		if cfg.TextBaseURL != def.TextBaseURL || cfg.BatchInterval != def.BatchInterval || cfg.Style != def.Style {
			t.Errorf("デフォルト値になっていません: %+v", cfg)
		}
	})

	t.Run("環境変数の値が反映されること", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "https://llm.example.com/v1")
		t.Setenv(EnvAPIKey, "sk-text")
		t.Setenv(EnvBatchInterval, "250ms")
		t.Setenv(EnvRateInterval, "2s")
		t.Setenv(EnvAspectRatio, "9:16")

		cfg := LoadFromEnv()
		if cfg.TextBaseURL != "https://llm.example.com/v1" || cfg.TextAPIKey != "sk-text" {
			t.Errorf("接続先が反映されていません: %+v", cfg)
		}
		if cfg.BatchInterval != 250*time.Millisecond || cfg.RateInterval != 2*time.Second {
			t.Errorf("時間指定が反映されていません: %v %v", cfg.BatchInterval, cfg.RateInterval)
		}
		if cfg.AspectRatio != "9:16" {
			t.Errorf("AspectRatio = %q", cfg.AspectRatio)
		}
	})

	t.Run("不正な時間指定はデフォルト値になること", func(t *testing.T) {
		t.Setenv(EnvRequestTimeout, "soon")
		if got := LoadFromEnv().RequestTimeout; got != DefaultRequestTimeout {
			t.Errorf("RequestTimeout = %v, want %v", got, DefaultRequestTimeout)
		}
	})
}

func TestImageEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want Endpoint
	}{
		{
			name: "画像側が未設定ならテキスト側を引き継ぐこと",
			cfg:  Config{TextBaseURL: "https://a/v1", TextModel: "text", TextAPIKey: "k"},
			want: Endpoint{BaseURL: "https://a/v1", Model: "text", APIKey: "k"},
		},
		{
			name: "項目ごとに上書きできること",
			cfg:  Config{TextBaseURL: "https://a/v1", TextModel: "text", TextAPIKey: "k", ImageModel: "img", ImageAPIKey: " "},
			want: Endpoint{BaseURL: "https://a/v1", Model: "img", APIKey: "k"},
		},
		{
			name: "どちらのモデルも未設定なら画像用の既定モデルになること",
			cfg:  Config{TextBaseURL: "https://a/v1", TextAPIKey: "k"},
			want: Endpoint{BaseURL: "https://a/v1", Model: DefaultImageModel, APIKey: "k"},
		},
		{
			name: "既定のテキストモデルは画像側に引き継がないこと",
			cfg:  DefaultConfig(),
			want: Endpoint{BaseURL: DefaultBaseURL, Model: DefaultImageModel},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.cfg.ImageEndpoint()); diff != "" {
				t.Errorf("ImageEndpoint() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestImageEndpoint_FromEnv(t *testing.T) {
	t.Run("テキストモデルだけ指定すると画像生成にも使われること", func(t *testing.T) {
		t.Setenv(EnvModel, "vendor/custom-multimodal")
		t.Setenv(EnvImageModel, "")

		if got := LoadFromEnv().ImageEndpoint().Model; got != "vendor/custom-multimodal" {
			t.Errorf("ImageEndpoint().Model = %q, want %q", got, "vendor/custom-multimodal")
		}
	})

	t.Run("画像モデルの指定が優先されること", func(t *testing.T) {
		t.Setenv(EnvModel, "vendor/custom-multimodal")
		t.Setenv(EnvImageModel, "vendor/painter")

		if got := LoadFromEnv().ImageEndpoint().Model; got != "vendor/painter" {
			t.Errorf("ImageEndpoint().Model = %q, want %q", got, "vendor/painter")
		}
	})

	t.Run("どちらも未設定なら画像用の既定モデルになること", func(t *testing.T) {
		t.Setenv(EnvModel, "")
		t.Setenv(EnvImageModel, "")

		if got := LoadFromEnv().ImageEndpoint().Model; got != DefaultImageModel {
			t.Errorf("ImageEndpoint().Model = %q, want %q", got, DefaultImageModel)
		}
	})
}
