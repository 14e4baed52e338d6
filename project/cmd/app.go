package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/config"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/dingtalk"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/logging"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/secret"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/vertex"
	"github.com/sulitulab/dingding-gemini-chatbot/project/service"
)

// app は各コマンドで共有する依存関係です
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	replies domain.Replies
	model   *vertex.Client
	robot   *dingtalk.Client
	relay   service.RelayService
}

// newApp は設定を読み込み、依存関係を組み立てます。AI クライアントは未初期化です
func newApp(ctx context.Context) (*app, error) {
	// 1. .env を読み込む（なければ環境変数のみ）
	_ = godotenv.Load()

	// 2. 設定を読み込む
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, errors.Wrap(err, "設定読み込み失敗")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "設定が不正です")
	}

	logger := logging.New(cfg.LogLevel, cfg.Debug)

	// 3. Secret Manager からシークレットを補完
	if cfg.SecretManagerProject != "" {
		secretMgr, err := secret.NewManager(ctx, cfg.SecretManagerProject)
		if err != nil {
			return nil, err
		}
		defer secretMgr.Close()

		if err := cfg.ResolveSecrets(ctx, secretMgr); err != nil {
			return nil, err
		}
	}

	// 4. 文言
	replies, err := config.LoadReplies(cfg.MessagesConfigPath)
	if err != nil {
		return nil, err
	}

	// 5. ポート実装
	model := vertex.NewClient(vertex.Config{
		ProjectID: cfg.Vertex.ProjectID,
		Location:  cfg.Vertex.Location,
		Model:     cfg.Vertex.Model,
		Endpoint:  cfg.Vertex.Endpoint,
		Timeout:   cfg.AITimeout,
	}, replies, logger)
	robot := dingtalk.NewClient(cfg.DispatchTimeout, logger)

	// 6. サービス層
	relay := service.NewRelayService(service.Options{
		MaxReplyLength: cfg.MaxReplyLength,
		OutboundSecret: cfg.DingTalk.Secret,
	}, replies, model, robot, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		replies: replies,
		model:   model,
		robot:   robot,
		relay:   relay,
	}, nil
}

// robotURL はカスタムロボットの送信URLを返します。アクセストークン未設定はエラー
func (a *app) robotURL() (string, error) {
	if a.cfg.DingTalk.AccessToken == "" {
		return "", errors.New("DINGTALK_ACCESS_TOKEN が未設定です (https://oapi.dingtalk.com/robot/send?access_token=... の値)")
	}
	return dingtalk.RobotURL(a.cfg.DingTalk.AccessToken), nil
}

// sendToRobot はロボットにテキストを送信します
func (a *app) sendToRobot(ctx context.Context, req *service.ReplyRequest) error {
	url, err := a.robotURL()
	if err != nil {
		return err
	}
	req.DestinationURL = url
	req.Secret = a.cfg.DingTalk.Secret
	return a.robot.Send(ctx, req)
}
