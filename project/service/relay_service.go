package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
)

// RelayService は DingTalk メッセージを AI に中継し、回答を返信するサービスです
type RelayService interface {
	// HandleMessage は検証済みのテキストメッセージを処理します
	// 質問が空の場合は案内文を送信して OutcomeHelp を返します
	// AI クライアントが未初期化の場合は案内を送信した上で domain.ErrServiceUnavailable を返します
	// 返信送信の失敗はログに記録するのみで、エラーとしては返しません
	HandleMessage(ctx context.Context, msg *domain.InboundMessage) (RelayOutcome, error)

	// Ask は質問を正規化せずにそのまま AI に渡し、結果を返します（動作確認用）
	Ask(ctx context.Context, question string) domain.GenerationResult

	// ModelReady は AI クライアントが利用可能かを返します
	ModelReady() bool
}

// relayService は RelayService の実装です
type relayService struct {
	opts    Options
	replies domain.Replies
	model   ModelPort
	reply   ReplyPort
	logger  zerolog.Logger
}

// NewRelayService は RelayService のインスタンスを作成します
func NewRelayService(
	opts Options,
	replies domain.Replies,
	model ModelPort,
	reply ReplyPort,
	logger zerolog.Logger,
) RelayService {
	if opts.MaxReplyLength <= 0 {
		opts.MaxReplyLength = DefaultMaxReplyLength
	}
	return &relayService{
		opts:    opts,
		replies: replies.WithDefaults(),
		model:   model,
		reply:   reply,
		logger:  logger,
	}
}

// HandleMessage は 正規化 → (案内 | 生成) → 切り詰め → 返信 を行います
func (rs *relayService) HandleMessage(ctx context.Context, msg *domain.InboundMessage) (RelayOutcome, error) {
	if msg == nil {
		return "", errors.Wrap(domain.ErrInvalid, "HandleMessage: メッセージがnilです")
	}
	if !msg.IsText() {
		return OutcomeIgnored, nil
	}
	if err := msg.Validate(); err != nil {
		return "", errors.Wrap(err, "HandleMessage: メッセージ検証失敗")
	}

	logger := rs.logger.With().
		Str("conversation_id", msg.ConversationID).
		Str("sender", msg.SenderDisplayName).
		Logger()

	// 質問を抽出
	question := NormalizeQuestion(msg.RawContent)
	if question == "" {
		logger.Info().Msg("メッセージ内容が空のため案内を送信")
		rs.dispatch(ctx, logger, &ReplyRequest{
			DestinationURL: msg.ReplyTargetURL,
			Text:           rs.replies.Help,
			Secret:         rs.opts.OutboundSecret,
		})
		return OutcomeHelp, nil
	}

	// AI クライアント未初期化
	if !rs.model.Ready() {
		logger.Error().Msg("AIクライアント未初期化")
		rs.dispatch(ctx, logger, &ReplyRequest{
			DestinationURL: msg.ReplyTargetURL,
			Text:           rs.replies.Unavailable,
			Secret:         rs.opts.OutboundSecret,
		})
		return OutcomeUnavailable, domain.ErrServiceUnavailable
	}

	// 回答を生成
	logger.Info().Str("question", question).Msg("質問を処理")
	start := time.Now()
	result := rs.model.Generate(ctx, question)
	logger.Info().
		Str("outcome", string(result.Outcome)).
		Bool("degraded", result.Degraded()).
		Dur("elapsed", time.Since(start)).
		Msg("AI応答取得")

	// 長すぎる回答を切り詰め
	text := TruncateText(result.Text, rs.opts.MaxReplyLength)

	// 送信者と @ された参加者をメンション
	rs.dispatch(ctx, logger, &ReplyRequest{
		DestinationURL: msg.ReplyTargetURL,
		Text:           text,
		AtUserIDs:      MentionTargets(msg),
		Secret:         rs.opts.OutboundSecret,
	})

	return OutcomeReplied, nil
}

// Ask は質問をそのまま AI に渡します
func (rs *relayService) Ask(ctx context.Context, question string) domain.GenerationResult {
	result := rs.model.Generate(ctx, question)
	result.Text = TruncateText(result.Text, rs.opts.MaxReplyLength)
	return result
}

// ModelReady は AI クライアントが利用可能かを返します
func (rs *relayService) ModelReady() bool {
	return rs.model.Ready()
}

// dispatch は返信を送信し、結果をログに記録します（失敗しても呼び出し元には返さない）
func (rs *relayService) dispatch(ctx context.Context, logger zerolog.Logger, req *ReplyRequest) {
	if err := rs.reply.Send(ctx, req); err != nil {
		logger.Error().Err(err).Msg("返信送信失敗")
		return
	}
	logger.Info().Int("mentions", len(req.AtUserIDs)).Msg("返信送信成功")
}
