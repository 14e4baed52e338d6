package domain

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// MessageType は受信メッセージの種別です
type MessageType string

const (
	// MessageTypeText はテキストメッセージ
	MessageTypeText MessageType = "text"

	// MessageTypeOther はテキスト以外（画像・リッチテキストなど）。処理対象外
	MessageTypeOther MessageType = "other"
)

// MentionedUser は受信メッセージ内で @ された参加者です
type MentionedUser struct {
	// ExternalID は DingTalk 上のユーザーID (dingtalkId)
	ExternalID string
}

// 受信した DingTalk メッセージ（1リクエストにつき1つ、生成後は不変）
type InboundMessage struct {
	// MessageType はメッセージ種別
	MessageType MessageType

	// RawContent は text.content の生テキスト。空文字もあり得ます
	RawContent string

	// SenderID は送信者の staffId。取得できない場合は空
	SenderID string

	// SenderDisplayName は送信者の表示名（ログ用）
	SenderDisplayName string

	// MentionedUsers はメッセージ内で @ された参加者（受信順）
	MentionedUsers []MentionedUser

	// ChatbotUserID はこのロボット自身のID。返信時のメンション対象から除外します
	ChatbotUserID string

	// ConversationID は会話ID（ログ用）
	ConversationID string

	// ReplyTargetURL は返信先の sessionWebhook
	ReplyTargetURL string
}

// Validate は返信送信前に必要な項目を検証します
// ReplyTargetURL は空でない絶対URLである必要があります
func (m InboundMessage) Validate() error {
	target := strings.TrimSpace(m.ReplyTargetURL)
	if target == "" {
		return errors.Wrap(ErrInvalid, "sessionWebhookは必須項目です")
	}
	u, err := url.Parse(target)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.Wrapf(ErrInvalid, "sessionWebhookが絶対URLではありません (url=%s)", target)
	}
	return nil
}

// IsText はテキストメッセージかどうかを返します
func (m InboundMessage) IsText() bool {
	return m.MessageType == MessageTypeText
}

// Mention は返信時のメンション指定です
type Mention struct {
	UserIDs       []string
	MobileNumbers []string
	MentionAll    bool
}

// IsEmpty はメンション指定が何もないかを返します
func (m Mention) IsEmpty() bool {
	return len(m.UserIDs) == 0 && len(m.MobileNumbers) == 0 && !m.MentionAll
}

// Signature は送信URLに付与する加签情報です
type Signature struct {
	// Timestamp はミリ秒単位のUnix時刻
	Timestamp int64

	// HMAC は base64 エンコード済みの署名（URLエンコード前）
	HMAC string
}

// 返信1件分の送信内容。HTTP 呼び出し完了後に破棄されます
type OutboundNotification struct {
	// DestinationURL は署名クエリ付与後の送信先URL
	DestinationURL string

	// Signature は加签が設定されている場合のみ非nil
	Signature *Signature

	// Text は本文
	Text string

	// Mention は nil の場合 "at" オブジェクトを送信しません
	Mention *Mention
}
