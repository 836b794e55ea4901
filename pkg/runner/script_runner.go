package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

const (
	scriptTemperature = 0.2

	rolesUserPrefix  = "请从以下剧本中提取所有角色信息:\n\n"
	framesUserPrefix = "请根据以下剧本拆分分镜:\n\n"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// ErrEmptyScript は台本が空の場合に返されます。
var ErrEmptyScript = errors.New("台本が空です")

// ChatCompleter はテキスト生成の呼び出し口です。*openai.Client が実装します。
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewChatClient は OpenAI 互換エンドポイント向けのクライアントを生成します。
// 送信は httpClient（通常は画像生成と共有する httpkit.Client）が担います。
func NewChatClient(ep config.Endpoint, httpClient httpkit.Doer) *openai.Client {
	cc := openai.DefaultConfig(ep.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(ep.BaseURL), "/"); base != "" {
		cc.BaseURL = strings.TrimSuffix(base, "/chat/completions")
	}
	cc.HTTPClient = httpClient
	return openai.NewClientWithConfig(cc)
}

// ScriptRunner は台本から角色の抽出と分鏡の分割を行います。
type ScriptRunner struct {
	model         string
	client        ChatCompleter
	promptBuilder prompts.PromptBuilder
}

// NewScriptRunner は依存関係（ビルダーを含む）を注入して初期化します。
func NewScriptRunner(model string, client ChatCompleter, pb prompts.PromptBuilder) *ScriptRunner {
	return &ScriptRunner{
		model:         model,
		client:        client,
		promptBuilder: pb,
	}
}

// ExtractRoles は台本に登場する角色を抽出し、正規化して返します。
func (sr *ScriptRunner) ExtractRoles(ctx context.Context, script string) (domain.Cast, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}

	system, err := sr.promptBuilder.Build(prompts.ModeRoles, prompts.TemplateData{Script: script})
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	slog.InfoContext(ctx, "ScriptRunner: 角色を抽出しています", "model", sr.model, "script_len", len([]rune(script)))
	raw, err := sr.complete(ctx, system, rolesUserPrefix+script)
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords(raw, "roles", "characters")
	if err != nil {
		return nil, err
	}
	cast := domain.Cast(domain.NormalizeRoles(records))
	slog.InfoContext(ctx, "ScriptRunner: 角色の抽出が完了しました", "count", len(cast))
	return cast, nil
}

// SplitStoryboard は台本を分鏡に分割します。登場人物名は cast の名前に寄せます。
func (sr *ScriptRunner) SplitStoryboard(ctx context.Context, script, ratio, style string, cast domain.Cast) ([]domain.StoryboardFrame, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}
	if strings.TrimSpace(ratio) == "" {
		ratio = domain.DefaultAspectRatio
	}

	data := prompts.TemplateData{
		Script:      script,
		AspectRatio: ratio,
		Style:       style,
		Roles:       cast.Names(),
	}
	system, err := sr.promptBuilder.Build(prompts.ModeFrames, data)
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	slog.InfoContext(ctx, "ScriptRunner: 分鏡に分割しています", "model", sr.model, "roles", len(data.Roles))
	raw, err := sr.complete(ctx, system, framesUserPrefix+script)
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords(raw, "frames", "storyboard", "shots")
	if err != nil {
		return nil, err
	}
	frames := domain.NormalizeFrames(records)
	if len(cast) > 0 {
		domain.ReconcileFrameCast(frames, cast)
	}
	slog.InfoContext(ctx, "ScriptRunner: 分鏡の分割が完了しました", "count", len(frames))
	return frames, nil
}

func (sr *ScriptRunner) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := sr.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       sr.model,
		Temperature: scriptTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("テキスト生成 API の呼び出しに失敗しました: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("テキスト生成 API の応答に choices がありません")
	}
	return resp.Choices[0].Message.Content, nil
}

// decodeRecords は応答から JSON を取り出し、keys のいずれかにある配列をレコードとして返します。
// 応答全体が配列の場合はそれをそのまま使います。
func decodeRecords(raw string, keys ...string) ([]domain.RawRecord, error) {
	rawJSON := extractJSON(raw)

	var decoded any
	if err := json.Unmarshal([]byte(rawJSON), &decoded); err != nil {
		return nil, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}

	var items []any
	switch v := decoded.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, k := range keys {
			if list, ok := v[k].([]any); ok {
				items = list
				break
			}
		}
		if items == nil {
			return nil, fmt.Errorf("AIからの応答に %s が含まれていません (応答抜粋: %q)", strings.Join(keys, "/"), truncateString(raw, 200))
		}
	default:
		return nil, fmt.Errorf("AIからの応答が JSON オブジェクトではありません (応答抜粋: %q)", truncateString(raw, 200))
	}

	records := make([]domain.RawRecord, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, domain.RawRecord(m))
		}
	}
	return records, nil
}

// extractJSON はコードブロック、最外の {...}、応答全体の順に JSON 部分を探します。
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}
	if strings.HasPrefix(raw, "[") {
		return raw
	}
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first != -1 && last > first {
		return raw[first : last+1]
	}
	return raw
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
