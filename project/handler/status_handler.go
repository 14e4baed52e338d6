package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sulitulab/dingding-gemini-chatbot/project/service"
)

// StatusHandler はヘルスチェック・設定情報・動作確認のエンドポイントを提供します
type StatusHandler struct {
	opts         Options
	relayService service.RelayService
	robot        service.ReplyPort
	logger       zerolog.Logger
	now          func() time.Time
}

// NewStatusHandler はステータスハンドラーを作成します
// robot は /test?send=true でロボットに送信する場合に使います
func NewStatusHandler(opts Options, relayService service.RelayService, robot service.ReplyPort, logger zerolog.Logger) *StatusHandler {
	return &StatusHandler{
		opts:         opts,
		relayService: relayService,
		robot:        robot,
		logger:       logger,
		now:          time.Now,
	}
}

// HealthResponse は /health のレスポンスです
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Version   string         `json:"version"`
	Model     string         `json:"model"`
	Services  HealthServices `json:"services"`
}

// HealthServices は依存サービスごとの状態です
type HealthServices struct {
	DingTalk string `json:"dingtalk"`
	Gemini   string `json:"gemini"`
}

// InfoResponse は /info のレスポンスです
type InfoResponse struct {
	ProjectID string `json:"project_id"`
	Location  string `json:"location"`
	Model     string `json:"model"`
	Version   string `json:"version"`
	Debug     bool   `json:"debug"`
}

// TestResponse は /test のレスポンスです
type TestResponse struct {
	Question   string `json:"question"`
	Response   string `json:"response"`
	Outcome    string `json:"outcome"`
	SendStatus string `json:"send_status,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// Health はプロセスが応答可能かを返します。AI 未初期化でも 200 を返します
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().Format(time.RFC3339),
		Version:   h.opts.Version,
		Model:     h.opts.Model,
		Services: HealthServices{
			DingTalk: "ready",
			Gemini:   "ready",
		},
	}
	if h.opts.WebhookSecret == "" {
		resp.Services.DingTalk = "unverified"
	}
	if !h.relayService.ModelReady() {
		resp.Status = "degraded"
		resp.Services.Gemini = "not_ready"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Info は公開しても問題のない設定値を返します
func (h *StatusHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		ProjectID: h.opts.ProjectID,
		Location:  h.opts.Location,
		Model:     h.opts.Model,
		Version:   h.opts.Version,
		Debug:     h.opts.Debug,
	})
}

// Test は q の質問をそのまま AI に渡して結果を返します
// send=true の場合はロボットにも送信します
func (h *StatusHandler) Test(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("q")
	if question == "" {
		question = "你好"
	}

	if !h.relayService.ModelReady() {
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	result := h.relayService.Ask(ctx, question)
	resp := TestResponse{
		Question:  question,
		Response:  result.Text,
		Outcome:   string(result.Outcome),
		Timestamp: h.now().Format(time.RFC3339),
	}

	if r.URL.Query().Get("send") == "true" {
		resp.SendStatus = h.sendToRobot(ctx, result.Text)
	}

	writeJSON(w, http.StatusOK, resp)
}

// sendToRobot はロボットに動作確認メッセージを送り、結果を文字列で返します
func (h *StatusHandler) sendToRobot(ctx context.Context, text string) string {
	if h.opts.RobotURL == "" || h.robot == nil {
		return "dingtalk_not_ready"
	}
	err := h.robot.Send(ctx, &service.ReplyRequest{
		DestinationURL: h.opts.RobotURL,
		Text:           h.opts.TestPrefix + text,
		Secret:         h.opts.OutboundSecret,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("テストメッセージ送信失敗")
		return "failed"
	}
	return "success"
}

func (h *StatusHandler) timeout() time.Duration {
	if h.opts.RequestTimeout > 0 {
		return h.opts.RequestTimeout
	}
	return 30 * time.Second
}
