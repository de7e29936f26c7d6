package cmd

import (
	"AriaVault/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动AriaVault服务器",
	Long:  `启动AriaVault音频目录的HTTP服务器，提供上传、播放列表和签名播放URL服务`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
