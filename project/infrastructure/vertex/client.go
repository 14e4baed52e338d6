package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/metrics"
)

// cloudPlatformScope は Vertex AI 呼び出しに必要な OAuth2 スコープです
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// DefaultTimeout は生成呼び出し1回あたりの既定タイムアウトです
const DefaultTimeout = 15 * time.Second

// errBlocked は安全性フィルタで回答が得られなかったことを表します
var errBlocked = errors.New("vertex: 安全性フィルタによりブロックされました")

// Config は Vertex AI クライアントの設定です
type Config struct {
	ProjectID string
	Location  string
	Model     string

	// Endpoint は API のベースURL（スキーム+ホスト）の上書き。空ならロケーションから決定
	Endpoint string

	Timeout time.Duration
}

// session は初期化済みの接続情報です
type session struct {
	tokens *tokenCache
	url    string
}

// Client は service.ModelPort の Vertex AI (Gemini) 実装です
// Init が成功するまでは Uninitialized で、通信を行いません
type Client struct {
	cfg        Config
	replies    domain.Replies
	httpClient *http.Client
	logger     zerolog.Logger

	session atomic.Pointer[session]
}

// NewClient は未初期化の Vertex AI クライアントを作成します
func NewClient(cfg Config, replies domain.Replies, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:        cfg,
		replies:    replies.WithDefaults(),
		httpClient: &http.Client{},
		logger:     logger.With().Str("component", "vertex").Logger(),
	}
}

// Init は Application Default Credentials を読み込み、クライアントを Ready にします
// プロジェクトIDが未設定の場合は認証情報のプロジェクトを使います
func (c *Client) Init(ctx context.Context) error {
	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return errors.Wrap(err, "vertex: 認証情報の読み込み失敗")
	}
	if c.cfg.ProjectID == "" {
		c.cfg.ProjectID = creds.ProjectID
	}
	return c.InitWithTokenSource(ctx, creds.TokenSource)
}

// InitWithTokenSource は任意のトークンソースでクライアントを Ready にします
// 初回トークンをここで取得し、失敗した場合は Uninitialized のままです
func (c *Client) InitWithTokenSource(ctx context.Context, ts oauth2.TokenSource) error {
	if c.Ready() {
		return nil
	}
	if c.cfg.ProjectID == "" {
		return errors.Wrap(domain.ErrInvalid, "vertex: プロジェクトIDが未設定です")
	}
	if c.cfg.Model == "" {
		return errors.Wrap(domain.ErrInvalid, "vertex: モデル名が未設定です")
	}

	tokens := newTokenCache(ts)
	if _, err := tokens.AccessToken(ctx); err != nil {
		return errors.Wrap(err, "vertex: 初期化失敗")
	}

	s := &session{
		tokens: tokens,
		url:    GenerateContentURL(c.cfg.Endpoint, c.cfg.ProjectID, c.cfg.Location, c.cfg.Model),
	}
	if c.session.CompareAndSwap(nil, s) {
		c.logger.Info().
			Str("project", c.cfg.ProjectID).
			Str("location", c.cfg.Location).
			Str("model", c.cfg.Model).
			Msg("Vertex AIクライアント初期化完了")
	}
	return nil
}

// Ready はクライアントが初期化済みかを返します
func (c *Client) Ready() bool {
	return c.session.Load() != nil
}

// Generate は prompt に対する回答を生成します
// 失敗はすべてフォールバック文言を含む結果として返し、再試行はしません
func (c *Client) Generate(ctx context.Context, prompt string) domain.GenerationResult {
	start := time.Now()

	s := c.session.Load()
	if s == nil {
		c.logger.Warn().Msg("未初期化のため生成をスキップ")
		return c.finish(domain.GenerationResult{Text: c.replies.Unavailable, Outcome: domain.GenerationNotReady}, start)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	text, err := c.generateContent(ctx, s, prompt)
	if err != nil {
		c.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("生成失敗")
		return c.finish(domain.GenerationResult{Text: c.replies.Unavailable, Outcome: domain.GenerationUnavailable}, start)
	}
	if text == "" {
		c.logger.Warn().Msg("生成結果が空です")
		return c.finish(domain.GenerationResult{Text: c.replies.CannotProcess, Outcome: domain.GenerationEmpty}, start)
	}

	return c.finish(domain.GenerationResult{Text: text, Outcome: domain.GenerationOK}, start)
}

func (c *Client) finish(result domain.GenerationResult, start time.Time) domain.GenerationResult {
	metrics.ObserveGeneration(string(result.Outcome), time.Since(start))
	return result
}

// generateContent は generateContent API を1回呼び出し、最初の候補の本文を返します
func (c *Client) generateContent(ctx context.Context, s *session, prompt string) (string, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(newGenerateContentRequest(prompt, domain.DefaultGenerationConfig()))
	if err != nil {
		return "", errors.Wrap(err, "vertex: リクエスト JSON 化失敗")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "vertex: リクエスト作成失敗")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "vertex: リクエスト送信失敗 (model=%s)", c.cfg.Model)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", errors.Errorf("vertex: API エラー (status=%d, code=%s): %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return "", errors.Errorf("vertex: API エラー (status=%d): %s", resp.StatusCode, string(raw))
	}

	var out generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "vertex: レスポンス解析失敗")
	}

	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", errors.Wrapf(errBlocked, "blockReason=%s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}

	first := out.Candidates[0]
	text := firstText(first.Content.Parts)
	if text == "" && first.FinishReason == "SAFETY" {
		return "", errors.Wrapf(errBlocked, "finishReason=%s", first.FinishReason)
	}
	return text, nil
}

// firstText は最初のパートのテキストを返します。後続のパートは参照しません
func firstText(parts []part) string {
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[0].Text)
}

// GenerateContentURL は generateContent API の URL を組み立てます
// base が空の場合はロケーションのエンドポイントを使い、"global" はリージョンなしのホストになります
func GenerateContentURL(base, projectID, location, model string) string {
	if location == "" {
		location = "us-central1"
	}
	if base == "" {
		if location == "global" {
			base = "https://aiplatform.googleapis.com"
		} else {
			base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", location)
		}
	}
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		strings.TrimRight(base, "/"), projectID, location, model)
}
