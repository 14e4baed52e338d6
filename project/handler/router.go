package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/config"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/dingtalk"
	"github.com/sulitulab/dingding-gemini-chatbot/project/service"
)

// DefaultMaxBodyBytes は受信ボディの既定の上限です
const DefaultMaxBodyBytes = 1 << 20

// Options は HTTP 層の設定です
type Options struct {
	Version string
	Debug   bool

	// 受信
	WebhookSecret   string
	SignatureMaxAge time.Duration
	RequestTimeout  time.Duration
	MaxBodyBytes    int64

	// /info, /health 表示用
	ProjectID string
	Location  string
	Model     string

	// /test?send=true の送信先（アクセストークン未設定なら空）
	RobotURL       string
	OutboundSecret string
	TestPrefix     string
}

// NewOptions は設定から HTTP 層の設定を作ります
func NewOptions(cfg *config.Config, version, testPrefix string) Options {
	opts := Options{
		Version:         version,
		Debug:           cfg.Debug,
		WebhookSecret:   cfg.DingTalk.WebhookSecret,
		SignatureMaxAge: cfg.SignatureMaxAge,
		RequestTimeout:  cfg.RequestTimeout,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		ProjectID:       cfg.Vertex.ProjectID,
		Location:        cfg.Vertex.Location,
		Model:           cfg.Vertex.Model,
		OutboundSecret:  cfg.DingTalk.Secret,
		TestPrefix:      testPrefix,
	}
	if cfg.DingTalk.AccessToken != "" {
		opts.RobotURL = dingtalk.RobotURL(cfg.DingTalk.AccessToken)
	}
	return opts
}

// NewRouter は HTTP ルーターを作成します
func NewRouter(opts Options, relayService service.RelayService, robot service.ReplyPort, logger zerolog.Logger) *chi.Mux {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(MaxBodySize(opts.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllow)
	})

	// DingTalk メッセージ受信
	r.Method(http.MethodPost, "/webhook", NewWebhookHandler(opts, relayService, logger))

	// ステータス
	status := NewStatusHandler(opts, relayService, robot, logger)
	r.Get("/health", status.Health)
	r.Get("/info", status.Info)
	if opts.Debug {
		r.Get("/test", status.Test)
	}

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())

	return r
}
