package cmd

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// characterCmd は、キャラクターの参照画像を生成するのだ。
var characterCmd = &cobra.Command{
	Use:   "character [id or name...]",
	Short: "キャラクターの参照画像（定妆照）を生成するのだ。",
	Long: `指定したキャラクターの参照画像を生成するのだ。
引数を省略すると、参照画像をまだ持っていないキャラクター全員が対象になるのだよ。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pipeline.ExecuteCharacter(cmd.Context(), loadConfig(), args); err != nil {
			return fmt.Errorf("参照画像の生成中にエラーが発生したのだ: %w", err)
		}
		return nil
	},
}

// framesCmd は、分鏡フレームのプレビュー画像を一括生成するのだ。
var framesCmd = &cobra.Command{
	Use:   "frames [frame-id...]",
	Short: "分鏡フレームのプレビュー画像を一括生成するのだ。",
	Long: `画像を持たないフレームを順番に生成するのだ。ID を指定するとそのフレームだけを作り直すのだよ。
Ctrl-C を押すと生成中の1枚を取り消して止まり、それまでの結果はプロジェクトに保存されるのだ。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pipeline.ExecuteFrames(cmd.Context(), loadConfig(), args); err != nil {
			return fmt.Errorf("プレビュー画像の生成中にエラーが発生したのだ: %w", err)
		}
		return nil
	},
}

func init() {
	framesCmd.Flags().DurationVar(&opts.Interval, "interval", 0, "フレームごとの待ち時間なのだ（未指定なら環境変数か既定値）。")
}
