package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
)

// Secret Manager 上のシークレット名
const (
	SecretNameWebhookSecret = "dingtalk-webhook-secret"
	SecretNameSecret        = "dingtalk-secret"
)

// Config は環境変数から読み込まれるアプリケーション設定を表します
type Config struct {
	// 基本設定
	Port     string
	Debug    bool
	LogLevel string

	// DingTalk設定
	DingTalk DingTalkConfig

	// Vertex AI設定
	Vertex VertexConfig

	// タイムアウト設定
	RequestTimeout  time.Duration
	AITimeout       time.Duration
	DispatchTimeout time.Duration

	// SignatureMaxAge は受信署名の timestamp 許容幅。0 の場合は検査しない
	SignatureMaxAge time.Duration

	// MaxReplyLength は返信本文の最大文字数
	MaxReplyLength int

	// SecretManagerProject が設定されている場合、空のシークレットを Secret Manager から補完
	SecretManagerProject string

	// MessagesConfigPath は文言上書き用 YAML のパス
	MessagesConfigPath string
}

// DingTalkConfig は DingTalk 関連の設定です
type DingTalkConfig struct {
	// WebhookSecret は受信署名の検証用。空の場合は検証しない
	WebhookSecret string

	// Secret は返信送信時の加签用。空の場合は署名しない
	Secret string

	// AccessToken はカスタムロボットのアクセストークン（CLI・動作確認用）
	AccessToken string
}

// VertexConfig は Vertex AI 関連の設定です
type VertexConfig struct {
	ProjectID string
	Location  string
	Model     string
	Endpoint  string
}

// SecretGetter はシークレット取得のインターフェースです
type SecretGetter interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// LoadFromEnv は環境変数から設定を読み込みます
// 数値・期間の形式が不正な場合は *ConfigError を返します
func LoadFromEnv() (*Config, error) {
	requestTimeout, err := durationEnv("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := durationEnv("AI_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	dispatchTimeout, err := durationEnv("DISPATCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	signatureMaxAge, err := durationEnv("SIGNATURE_MAX_AGE", 0)
	if err != nil {
		return nil, err
	}
	maxReplyLength, err := intEnv("MAX_REPLY_LENGTH", 2000)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Debug:    boolEnv("DEBUG"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DingTalk: DingTalkConfig{
			WebhookSecret: os.Getenv("DINGTALK_WEBHOOK_SECRET"),
			Secret:        os.Getenv("DINGTALK_SECRET"),
			AccessToken:   os.Getenv("DINGTALK_ACCESS_TOKEN"),
		},

		Vertex: VertexConfig{
			ProjectID: os.Getenv("GCP_PROJECT_ID"),
			Location:  getEnv("GCP_LOCATION", "us-central1"),
			Model:     getEnv("MODEL_NAME", "gemini-2.5-flash"),
			Endpoint:  os.Getenv("VERTEX_ENDPOINT"),
		},

		RequestTimeout:  requestTimeout,
		AITimeout:       aiTimeout,
		DispatchTimeout: dispatchTimeout,
		SignatureMaxAge: signatureMaxAge,
		MaxReplyLength:  maxReplyLength,

		SecretManagerProject: os.Getenv("SECRET_MANAGER_PROJECT"),
		MessagesConfigPath:   os.Getenv("MESSAGES_CONFIG_PATH"),
	}, nil
}

// Validate は設定値の整合性を検証します
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return &ConfigError{Field: "PORT", Message: "must be a valid port number"}
	}
	if c.Vertex.Model == "" {
		return &ConfigError{Field: "MODEL_NAME", Message: "required"}
	}
	if c.Vertex.Location == "" {
		return &ConfigError{Field: "GCP_LOCATION", Message: "required"}
	}
	if c.MaxReplyLength <= 0 {
		return &ConfigError{Field: "MAX_REPLY_LENGTH", Message: "must be positive"}
	}
	if c.RequestTimeout <= 0 || c.AITimeout <= 0 || c.DispatchTimeout <= 0 {
		return &ConfigError{Field: "REQUEST_TIMEOUT/AI_TIMEOUT/DISPATCH_TIMEOUT", Message: "must be positive"}
	}
	return nil
}

// ResolveSecrets は環境変数で未設定のシークレットを Secret Manager から補完します
// シークレットが存在しない場合は空のまま（署名なし）とします
func (c *Config) ResolveSecrets(ctx context.Context, getter SecretGetter) error {
	targets := []struct {
		name  string
		value *string
	}{
		{SecretNameWebhookSecret, &c.DingTalk.WebhookSecret},
		{SecretNameSecret, &c.DingTalk.Secret},
	}

	for _, t := range targets {
		if *t.value != "" {
			continue
		}
		v, err := getter.GetSecret(ctx, t.name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return fmt.Errorf("config: シークレット取得失敗 (name=%s): %w", t.name, err)
		}
		*t.value = v
	}
	return nil
}

// ConfigError は設定エラーを表します
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// getEnv は環境変数を取得し、未設定の場合は既定値を返します
func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

// durationEnv は "15s" 形式、または秒数の整数を受け付けます
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	d, err := ParseDuration(v)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: "invalid duration: " + v}
	}
	return d, nil
}

// ParseDuration は Go の期間表記または秒数の整数を解析します
func ParseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("config: 負の期間です (%s)", v)
		}
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: 期間の解析失敗 (%s): %w", v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: 負の期間です (%s)", v)
	}
	return d, nil
}
