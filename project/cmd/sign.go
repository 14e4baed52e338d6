package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/httpsec"
)

func signCmd() *cobra.Command {
	var (
		secret    string
		timestamp int64
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "webhook 検証用の timestamp と sign ヘッダーを出力",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("DINGTALK_WEBHOOK_SECRET")
			}
			if secret == "" {
				return errors.New("--secret または DINGTALK_WEBHOOK_SECRET が必要です")
			}
			if timestamp == 0 {
				timestamp = time.Now().UnixMilli()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "timestamp: %d\n", timestamp)
			fmt.Fprintf(out, "sign: %s\n", httpsec.SignDingTalk(secret, timestamp))
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "署名シークレット（省略時は DINGTALK_WEBHOOK_SECRET）")
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "ミリ秒のUnix時刻（省略時は現在時刻）")
	return cmd
}
