package workflow

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/imagegen"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/runner"
)

// BuildScriptRunner は、台本解析を担当する Runner を作成します。
func (m *Manager) BuildScriptRunner() (ScriptRunner, error) {
	if m.chatClient == nil {
		client, err := initializeChatClient(m.cfg, m.httpClient)
		if err != nil {
			return nil, err
		}
		m.chatClient = client
	}
	return runner.NewScriptRunner(m.cfg.TextModel, m.chatClient, m.scriptPrompt), nil
}

// BuildDesignRunner は、キャラクター参照画像の生成を担当する Runner を作成します。
func (m *Manager) BuildDesignRunner() (DesignRunner, error) {
	if err := m.requireImage(); err != nil {
		return nil, err
	}
	return runner.NewDesignRunner(m.applier, m.batch, m.resolver, m.style), nil
}

// BuildFrameRunner は、分鏡画像の一括生成を担当する Runner を作成します。
func (m *Manager) BuildFrameRunner() (FrameRunner, error) {
	if err := m.requireImage(); err != nil {
		return nil, err
	}
	return runner.NewFrameRunner(m.applier, m.batch, m.resolver, m.style), nil
}

// BuildPublishRunner は、分鏡の書き出しを担当する Runner を作成します。
// writer が nil の場合はローカルファイルに書き出します。
func (m *Manager) BuildPublishRunner(writer publisher.OutputWriter) PublishRunner {
	if writer == nil {
		writer = publisher.LocalWriter{}
	}
	return runner.NewPublishRunner(m.applier, publisher.NewStoryboardPublisher(writer, m.resolver))
}

func (m *Manager) requireImage() error {
	if m.batch == nil {
		return fmt.Errorf("画像生成の接続先が設定されていません (%s / %s): %w",
			config.EnvImageAPIKey, config.EnvAPIKey, imagegen.ErrMissingEndpoint)
	}
	return nil
}
