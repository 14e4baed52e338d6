package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
)

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "AI に質問して回答を表示",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			if err := a.model.Init(ctx); err != nil {
				return err
			}

			result := a.relay.Ask(ctx, strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)

			if result.Outcome != domain.GenerationOK {
				return errors.Errorf("ask: 回答を取得できませんでした (outcome=%s)", result.Outcome)
			}
			return nil
		},
	}
}
