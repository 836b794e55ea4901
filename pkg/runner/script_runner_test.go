package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

type chatRecorder struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (r *chatRecorder) last() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[len(r.bodies)-1]
}

// newChatServer は content を assistant の応答として返す OpenAI 互換サーバーを起動します。
func newChatServer(t *testing.T, content string) (*httptest.Server, *chatRecorder) {
	t.Helper()
	rec := &chatRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		rec.mu.Lock()
		rec.bodies = append(rec.bodies, body)
		rec.mu.Unlock()

		encoded, _ := json.Marshal(content)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`, encoded)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestScriptRunner(t *testing.T, baseURL string) *ScriptRunner {
	t.Helper()
	pb, err := prompts.NewTextPromptBuilder(map[string]string{
		prompts.ModeRoles:  "提取角色",
		prompts.ModeFrames: "比例 {{.AspectRatio}} 风格 {{.Style}}{{range .Roles}} [{{.}}]{{end}}",
	})
	if err != nil {
		t.Fatal(err)
	}
	httpClient := httpkit.New(5*time.Second, httpkit.WithMaxRetries(0), httpkit.WithSkipNetworkValidation(true))
	client := NewChatClient(config.Endpoint{BaseURL: baseURL + "/v1/", Model: "m", APIKey: "sk"}, httpClient)
	return NewScriptRunner("m", client, pb)
}

func TestScriptRunner_ExtractRoles(t *testing.T) {
	content := `{"roles":[{"role":"老王","sex":"male","age":"50","summary":"灰白短发，穿旧夹克"},{"name":"","gender":"女"}]}`
	srv, rec := newChatServer(t, content)
	sr := newTestScriptRunner(t, srv.URL)

	cast, err := sr.ExtractRoles(context.Background(), "老王推开门。")
	if err != nil {
		t.Fatalf("ExtractRoles() error = %v", err)
	}

	t.Run("別名フィールドが正規化されること", func(t *testing.T) {
		if len(cast) != 2 {
			t.Fatalf("len = %d, want 2", len(cast))
		}
		if cast[0].Name != "老王" || cast[0].Gender != domain.GenderMale || cast[0].Desc != "灰白短发，穿旧夹克" {
			t.Errorf("1人目が想定と異なります: %+v", cast[0])
		}
		if cast[1].Name != "角色2" || cast[1].ID == "" {
			t.Errorf("2人目の既定値が想定と異なります: %+v", cast[1])
		}
	})

	t.Run("リクエストの形式が正しいこと", func(t *testing.T) {
		body := rec.last()
		if temp, _ := body["temperature"].(float64); temp < 0.19 || temp > 0.21 {
			t.Errorf("temperature = %v, want 0.2", body["temperature"])
		}
		format, _ := body["response_format"].(map[string]any)
		if format["type"] != "json_object" {
			t.Errorf("response_format = %v", body["response_format"])
		}
		msgs, _ := body["messages"].([]any)
		if len(msgs) != 2 {
			t.Fatalf("messages = %d, want 2", len(msgs))
		}
		user, _ := msgs[1].(map[string]any)
		if content, _ := user["content"].(string); !strings.HasSuffix(content, "老王推开门。") {
			t.Errorf("ユーザーメッセージに台本が含まれていません: %q", content)
		}
	})
}

func TestScriptRunner_SplitStoryboard(t *testing.T) {
	content := "好的，分镜如下：\n```json\n{\"frames\":[{\"scene_number\":1,\"shot_size\":\"近景\",\"characters\":[\"王\",\"路人\"],\"description\":\"老王站在门口\",\"seconds\":\"5\"},{\"content\":\"\"}]}\n```"
	srv, rec := newChatServer(t, content)
	sr := newTestScriptRunner(t, srv.URL)
	cast := domain.Cast{{ID: "c1", Name: "老王"}}

	frames, err := sr.SplitStoryboard(context.Background(), "剧本", "9:16", "电影感", cast)
	if err != nil {
		t.Fatalf("SplitStoryboard() error = %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("len = %d, want 2", len(frames))
	}

	got := []string{frames[0].Scene, frames[0].Shot, frames[0].Character, frames[0].Content, frames[1].Scene, frames[1].Content}
	want := []string{"1", "近景", "老王", "老王站在门口", "2", domain.ContentPlaceholder}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("分鏡の正規化結果 mismatch (-want +got):\n%s", diff)
	}
	if frames[0].Duration != 5 || frames[1].Duration != domain.DefaultDuration {
		t.Errorf("Duration = %v, %v", frames[0].Duration, frames[1].Duration)
	}

	msgs, _ := rec.last()["messages"].([]any)
	system, _ := msgs[0].(map[string]any)
	if s, _ := system["content"].(string); s != "比例 9:16 风格 电影感 [老王]" {
		t.Errorf("システムプロンプトにテンプレート値が反映されていません: %q", s)
	}
}

func TestScriptRunner_EmptyScript(t *testing.T) {
	sr := NewScriptRunner("m", nil, nil)
	if _, err := sr.ExtractRoles(context.Background(), "  "); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("ExtractRoles() error = %v, want ErrEmptyScript", err)
	}
	if _, err := sr.SplitStoryboard(context.Background(), "", "", "", nil); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("SplitStoryboard() error = %v, want ErrEmptyScript", err)
	}
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "素のJSONオブジェクト", raw: `{"roles":[{"name":"a"},{"name":"b"}]}`, want: 2},
		{name: "前後に説明文がある", raw: "结果如下 {\"roles\":[{\"name\":\"a\"}]} 以上", want: 1},
		{name: "トップレベルの配列", raw: `[{"name":"a"},"skip",{"name":"b"}]`, want: 2},
		{name: "別名キー", raw: `{"characters":[{"name":"a"}]}`, want: 1},
		{name: "キーが無い", raw: `{"items":[]}`, wantErr: true},
		{name: "JSONではない", raw: "无法完成", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRecords(tt.raw, "roles", "characters")
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeRecords() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}
