package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sulitulab/dingding-gemini-chatbot/project/handler"
)

func serveCmd() *cobra.Command {
	var allowDegraded bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Webhook サーバーを起動",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			logger := a.logger

			// AI クライアントを初期化（失敗時は起動しない）
			if err := a.model.Init(ctx); err != nil {
				if !allowDegraded {
					logger.Error().Err(err).Msg("Vertex AIクライアント初期化失敗")
					return err
				}
				logger.Warn().Err(err).Msg("Vertex AIクライアント未初期化のまま起動します")
			}

			// HTTP ハンドラーを設定
			opts := handler.NewOptions(a.cfg, version, a.replies.TestPrefix)
			router := handler.NewRouter(opts, a.relay, a.robot, logger)

			srv := &http.Server{
				Addr:         ":" + a.cfg.Port,
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: a.cfg.RequestTimeout + 5*time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().
					Str("port", a.cfg.Port).
					Str("model", a.cfg.Vertex.Model).
					Bool("debug", a.cfg.Debug).
					Msg("サーバー起動")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				logger.Error().Err(err).Msg("サーバー起動失敗")
				return err
			case <-quit:
			}

			logger.Info().Msg("サーバー停止中...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("強制停止")
				return err
			}

			logger.Info().Msg("サーバー停止")
			return nil
		},
	}

	cmd.Flags().BoolVar(&allowDegraded, "allow-degraded", false, "AI クライアントの初期化に失敗しても起動する")
	return cmd
}
