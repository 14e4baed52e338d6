package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sulitulab/dingding-gemini-chatbot/project/service"
)

func sendCmd() *cobra.Command {
	var (
		atUsers   []string
		atMobiles []string
		atAll     bool
	)

	cmd := &cobra.Command{
		Use:   "send [text]",
		Short: "ロボットにテキストメッセージを送信",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("送信するテキストが空です")
			}

			err = a.sendToRobot(ctx, &service.ReplyRequest{
				Text:      text,
				AtUserIDs: atUsers,
				AtMobiles: atMobiles,
				AtAll:     atAll,
			})
			printSendResult(cmd, err)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&atUsers, "at-user", nil, "メンションするユーザーID")
	cmd.Flags().StringSliceVar(&atMobiles, "at-mobile", nil, "メンションする電話番号")
	cmd.Flags().BoolVar(&atAll, "at-all", false, "全員をメンション")
	return cmd
}
