package dingtalk

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
	"github.com/sulitulab/dingding-gemini-chatbot/project/dto"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/httpsec"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/metrics"
	"github.com/sulitulab/dingding-gemini-chatbot/project/service"
)

// RobotSendURL はカスタムロボットの送信APIです
const RobotSendURL = "https://oapi.dingtalk.com/robot/send"

// DefaultTimeout は送信1回あたりの既定タイムアウトです
const DefaultTimeout = 10 * time.Second

// Client は service.ReplyPort の DingTalk 実装です
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient は DingTalk 送信クライアントを作成します
func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger.With().Str("component", "dingtalk").Logger(),
		now:        time.Now,
	}
}

// Send はテキストメッセージを1回だけ送信します
// 失敗時は *domain.DispatchError を返します
func (c *Client) Send(ctx context.Context, req *service.ReplyRequest) error {
	err := c.send(ctx, req)
	metrics.ObserveDispatch(err)
	return err
}

func (c *Client) send(ctx context.Context, req *service.ReplyRequest) error {
	n, err := BuildNotification(req, c.now())
	if err != nil {
		return &domain.DispatchError{Code: -1, Message: err.Error()}
	}

	body, err := json.Marshal(NewRobotTextMessage(n))
	if err != nil {
		return &domain.DispatchError{Code: -1, Message: "JSON 化失敗: " + err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.DestinationURL, bytes.NewReader(body))
	if err != nil {
		return &domain.DispatchError{Code: -1, Message: "リクエスト作成失敗: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &domain.DispatchError{Code: -1, Message: "リクエスト送信失敗: " + err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return &domain.DispatchError{StatusCode: resp.StatusCode, Code: -1, Message: "レスポンス読み込み失敗: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.DispatchError{StatusCode: resp.StatusCode, Code: -1, Message: string(raw)}
	}

	var out dto.RobotResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return &domain.DispatchError{StatusCode: resp.StatusCode, Code: -1, Message: "レスポンス解析失敗: " + err.Error()}
	}
	if out.ErrCode != 0 {
		return &domain.DispatchError{StatusCode: resp.StatusCode, Code: out.ErrCode, Message: out.ErrMsg}
	}

	c.logger.Debug().Int("mentions", len(req.AtUserIDs)).Msg("メッセージ送信成功")
	return nil
}

// BuildNotification は送信要求から送信内容を組み立てます
// Secret がある場合は now のミリ秒で署名し、timestamp と sign を URL クエリの末尾に追加します
func BuildNotification(req *service.ReplyRequest, now time.Time) (*domain.OutboundNotification, error) {
	if req == nil {
		return nil, errors.Wrap(domain.ErrInvalid, "dingtalk: 送信要求がnilです")
	}

	u, err := url.Parse(req.DestinationURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(domain.ErrInvalid, "dingtalk: 送信先URLが不正です (url=%s)", req.DestinationURL)
	}

	n := &domain.OutboundNotification{Text: req.Text}

	if req.Secret != "" {
		ts := now.UnixMilli()
		sig := &domain.Signature{Timestamp: ts, HMAC: httpsec.SignDingTalk(req.Secret, ts)}

		// 既存のクエリ（sessionWebhook の session など）は再エンコードせずそのまま残す
		signQuery := url.Values{
			"timestamp": {strconv.FormatInt(sig.Timestamp, 10)},
			"sign":      {sig.HMAC},
		}.Encode()
		if u.RawQuery == "" {
			u.RawQuery = signQuery
		} else {
			u.RawQuery += "&" + signQuery
		}

		n.Signature = sig
	}
	n.DestinationURL = u.String()

	mention := domain.Mention{
		UserIDs:       req.AtUserIDs,
		MobileNumbers: req.AtMobiles,
		MentionAll:    req.AtAll,
	}
	if !mention.IsEmpty() {
		n.Mention = &mention
	}

	return n, nil
}

// NewRobotTextMessage は送信内容をロボット送信APIのボディに変換します
func NewRobotTextMessage(n *domain.OutboundNotification) *dto.RobotTextMessage {
	msg := &dto.RobotTextMessage{
		MsgType: "text",
		Text:    dto.RobotText{Content: n.Text},
	}
	if n.Mention != nil {
		msg.At = &dto.RobotAt{
			AtUserIDs: n.Mention.UserIDs,
			AtMobiles: n.Mention.MobileNumbers,
			IsAtAll:   n.Mention.MentionAll,
		}
	}
	return msg
}

// RobotURL はアクセストークンからカスタムロボットの送信URLを組み立てます
func RobotURL(accessToken string) string {
	return RobotSendURL + "?" + url.Values{"access_token": {accessToken}}.Encode()
}
