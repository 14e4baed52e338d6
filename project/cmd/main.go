package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version はビルド時に -ldflags "-X main.version=..." で上書きします
var version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:          "dingbot",
		Short:        "DingTalk ロボットと Vertex AI Gemini を中継するボット",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(sendCmd())
	root.AddCommand(askCmd())
	root.AddCommand(signCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "バージョンを表示",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}
