package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sulitulab/dingding-gemini-chatbot/project/service"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "対話形式で質問し、回答をロボットに送信",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			if _, err := a.robotURL(); err != nil {
				return err
			}
			if err := a.model.Init(ctx); err != nil {
				return err
			}

			fmt.Fprintln(out, "メッセージを入力すると AI の回答をロボットに送信します")
			fmt.Fprintln(out, "'quit' または 'exit' で終了、'test' でテストメッセージを送信")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}

				input := strings.TrimSpace(scanner.Text())
				switch strings.ToLower(input) {
				case "":
					continue
				case "quit", "exit":
					return nil
				case "test":
					err := a.sendToRobot(ctx, &service.ReplyRequest{Text: a.replies.TestPrefix + "这是一条测试消息！"})
					printSendResult(cmd, err)
					continue
				}

				result := a.relay.Ask(ctx, input)
				fmt.Fprintf(out, "AI: %s\n", result.Text)

				err := a.sendToRobot(ctx, &service.ReplyRequest{Text: a.replies.FormatChat(input, result.Text)})
				printSendResult(cmd, err)
			}

			return scanner.Err()
		},
	}
}

func printSendResult(cmd *cobra.Command, err error) {
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "送信失敗: %v\n", err)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), "送信成功")
}
