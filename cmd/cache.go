package cmd

import (
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// cacheCmd は、生成画像のキャッシュを管理するのだ。
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "生成画像のキャッシュを管理するのだ。",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "キャッシュの画像をすべて消すのだ。",
	Long: `キャッシュの画像をすべて消すのだ。
プロジェクトに残った cache: 参照は解決できなくなるので、その画像は生成し直しになるのだよ。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ExecuteCacheClear(cmd.Context(), loadConfig())
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "キャッシュの件数と容量を表示するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ExecuteCacheStats(cmd.Context(), loadConfig())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheStatsCmd)
}
