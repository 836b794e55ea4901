package cmd

import (
	"log/slog"
	"os"

	"github.com/shouni/go-storyboard-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

const appName = "storyboard"

// opts は全サブコマンドで共有するフラグの値なのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
// --verbose（-V）は clibase が持っているので、ここでは足さないのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.Short = "台本から分鏡（ストーリーボード）を作るツールなのだ。"
	rootCmd.Long = `台本から角色を抽出し、分鏡に分割して、各フレームのプレビュー画像を生成するのだ。
作業内容はプロジェクトファイル（JSON）に保存されるので、工程ごとに分けて実行できるのだよ。`
	rootCmd.SilenceUsage = true

	// --- 入出力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ProjectFile, "project", "p", config.DefaultProjectFile, "プロジェクトファイルのパスなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.CacheDB, "cache-db", "", "生成画像を保存する SQLite のパスなのだ（未指定なら環境変数か既定値）。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.TextModel, "model", "", "台本解析に使うモデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使うモデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", 0, "1リクエストあたりのタイムアウトなのだ。")

	// --- 見た目の設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Style, "style", "s", "", "画風のラベルなのだ（写实 / 电影感 / 动漫 / 水彩 / 漫画 / 3D）。")
	rootCmd.PersistentFlags().StringVarP(&opts.AspectRatio, "aspect-ratio", "r", "", "画幅比なのだ（例: 16:9）。")
}

// preRunAppE は、コマンド実行前にログの設定を行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(clibase.Flags.Verbose)})))
	return nil
}

// logLevel は --verbose が付いていればデバッグログまで出すのだ。
func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		appName,
		addAppFlags,
		preRunAppE,
		rolesCmd,
		splitCmd,
		characterCmd,
		framesCmd,
		importCmd,
		exportCmd,
		cacheCmd,
	)
}

// loadConfig は環境変数とフラグから設定を組み立てるのだ。
func loadConfig() *config.Config {
	return config.LoadConfig(opts)
}
