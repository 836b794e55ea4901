package cmd

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// rolesCmd は、台本から角色を抽出してプロジェクトに保存するのだ。
var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "台本から角色（キャラクター）を抽出するのだ。",
	Long: `台本を解析して登場する角色の名前・外見・性格などを抽出し、プロジェクトのキャストを更新するのだ。
同じ名前の角色がすでにいれば、その ID と参照画像は引き継ぐのだよ。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pipeline.ExecuteRoles(cmd.Context(), loadConfig()); err != nil {
			return fmt.Errorf("角色の抽出中にエラーが発生したのだ: %w", err)
		}
		return nil
	},
}

// splitCmd は、台本を分鏡フレームに分割するのだ。
var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "台本を分鏡フレームに分割するのだ。",
	Long: `台本を景別・机位・运镜・画面内容・台词などを持つ分鏡フレームに分割するのだ。
プロジェクトのキャストがあれば、フレームに登場する角色名をキャストの名前に揃えるのだよ。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pipeline.ExecuteSplit(cmd.Context(), loadConfig()); err != nil {
			return fmt.Errorf("分鏡の分割中にエラーが発生したのだ: %w", err)
		}
		return nil
	},
}

// importCmd は、Markdown 形式の分鏡台本を取り込むのだ。
var importCmd = &cobra.Command{
	Use:   "import <markdown>",
	Short: "Markdown の分鏡台本をプロジェクトに取り込むのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pipeline.ExecuteImport(cmd.Context(), loadConfig(), args[0]); err != nil {
			return fmt.Errorf("Markdownの取り込み中にエラーが発生したのだ: %w", err)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{rolesCmd, splitCmd} {
		c.Flags().StringVarP(&opts.ScriptFile, "script-file", "f", "", "台本ファイルのパスなのだ（'-'で標準入力、未指定ならプロジェクトに保存済みの台本）。")
	}
}

var (
	exportDir   string
	exportTitle string
)

// exportCmd は、分鏡を Markdown と画像ファイルに書き出すのだ。
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "分鏡を Markdown と画像ファイルに書き出すのだ。",
	Long: `分鏡を import で読み戻せる Markdown と、画像ファイル（images/ 以下）に書き出すのだ。
キャッシュにしか無い画像もファイルになるので、他の人に渡すときに便利なのだよ。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pipeline.ExecuteExport(cmd.Context(), loadConfig(), exportDir, exportTitle); err != nil {
			return fmt.Errorf("分鏡の書き出し中にエラーが発生したのだ: %w", err)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "output-dir", "o", "output", "書き出し先のディレクトリなのだ。")
	exportCmd.Flags().StringVarP(&exportTitle, "title", "t", "", "Markdown のタイトルなのだ（未指定ならプロジェクトファイル名）。")
}
