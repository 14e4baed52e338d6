package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
	"github.com/sulitulab/dingding-gemini-chatbot/project/dto"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/httpsec"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/metrics"
	"github.com/sulitulab/dingding-gemini-chatbot/project/service"
)

// WebhookHandler は DingTalk ロボットの Outgoing コールバックを処理します
type WebhookHandler struct {
	webhookSecret   string
	signatureMaxAge time.Duration
	requestTimeout  time.Duration
	relayService    service.RelayService
	logger          zerolog.Logger
	now             func() time.Time
}

// NewWebhookHandler は webhook ハンドラーを作成します
func NewWebhookHandler(opts Options, relayService service.RelayService, logger zerolog.Logger) *WebhookHandler {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if opts.WebhookSecret == "" {
		logger.Warn().Msg("DINGTALK_WEBHOOK_SECRET が未設定のため署名検証を行いません")
	}
	return &WebhookHandler{
		webhookSecret:   opts.WebhookSecret,
		signatureMaxAge: opts.SignatureMaxAge,
		requestTimeout:  timeout,
		relayService:    relayService,
		logger:          logger,
		now:             time.Now,
	}
}

// ServeHTTP は DingTalk メッセージ受信エンドポイントです
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()

	// リクエスト本体を読み込む
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Warn().Err(err).Msg("リクエスト本体の読み込み失敗")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.finish(w, http.StatusRequestEntityTooLarge, "invalid", ErrorResponse{Error: msgBodyTooLarge})
			return
		}
		h.finish(w, http.StatusBadRequest, "invalid", ErrorResponse{Error: msgBadRequest})
		return
	}
	defer r.Body.Close()

	// 署名検証
	timestamp := r.Header.Get("timestamp")
	sign := r.Header.Get("sign")
	if !httpsec.VerifyDingTalkSignature(timestamp, h.webhookSecret, sign) {
		logger.Warn().Str("timestamp", timestamp).Msg("署名検証失敗")
		h.finish(w, http.StatusUnauthorized, "unauthorized", ErrorResponse{Error: msgSignatureFailed})
		return
	}
	if h.webhookSecret != "" && h.signatureMaxAge > 0 {
		if err := httpsec.CheckTimestampFreshness(timestamp, h.now(), h.signatureMaxAge); err != nil {
			logger.Warn().Err(err).Msg("署名の有効期限切れ")
			h.finish(w, http.StatusUnauthorized, "unauthorized", ErrorResponse{Error: msgSignatureFailed})
			return
		}
	}

	// JSON パース（null も不正として扱う）
	var req *dto.DingTalkMessage
	if err := json.Unmarshal(body, &req); err != nil || req == nil {
		logger.Warn().Err(err).Msg("JSON パース失敗")
		h.finish(w, http.StatusBadRequest, "invalid", ErrorResponse{Error: msgBadRequest})
		return
	}

	logger.Info().
		Str("msgtype", req.MsgType).
		Str("sender", req.SenderNick).
		Str("conversation_id", req.ConversationID).
		Msg("メッセージ受信")

	// 送信者への応答とは独立に処理を完了させる
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.requestTimeout)
	defer cancel()

	outcome, err := h.relayService.HandleMessage(ctx, req.ToDomain())
	switch {
	case err == nil:
		h.finish(w, http.StatusOK, string(outcome), WebhookResponse{Success: true})
	case errors.Is(err, domain.ErrInvalid):
		logger.Warn().Err(err).Msg("メッセージ検証失敗")
		h.finish(w, http.StatusBadRequest, "invalid", ErrorResponse{Error: msgMissingWebhook})
	case errors.Is(err, domain.ErrServiceUnavailable):
		h.finish(w, http.StatusServiceUnavailable, string(service.OutcomeUnavailable), ErrorResponse{Error: msgUnavailable})
	default:
		logger.Error().Err(err).Msg("メッセージ処理エラー")
		h.finish(w, http.StatusInternalServerError, "error", ErrorResponse{Error: msgInternal})
	}
}

func (h *WebhookHandler) finish(w http.ResponseWriter, status int, outcome string, v interface{}) {
	metrics.WebhookOutcomes.WithLabelValues(outcome).Inc()
	writeJSON(w, status, v)
}
