package dto

import "github.com/sulitulab/dingding-gemini-chatbot/project/domain"

// DingTalkMessage は DingTalk ロボットの Outgoing コールバックのリクエストボディです
type DingTalkMessage struct {
	MsgType          string         `json:"msgtype"`
	Text             DingTalkText   `json:"text"`
	MsgID            string         `json:"msgId,omitempty"`
	CreateAt         int64          `json:"createAt,omitempty"`
	ConversationID   string         `json:"conversationId,omitempty"`
	ConversationType string         `json:"conversationType,omitempty"` // "1": 単聊, "2": 群聊
	SenderID         string         `json:"senderId,omitempty"`
	SenderNick       string         `json:"senderNick,omitempty"`
	SenderStaffID    string         `json:"senderStaffId,omitempty"`
	ChatbotUserID    string         `json:"chatbotUserId,omitempty"`
	AtUsers          []DingTalkUser `json:"atUsers,omitempty"`
	SessionWebhook   string         `json:"sessionWebhook"`

	// SessionWebhookExpiredTime は sessionWebhook の有効期限（ミリ秒）
	SessionWebhookExpiredTime int64 `json:"sessionWebhookExpiredTime,omitempty"`
}

// DingTalkText はテキストメッセージの本文です
type DingTalkText struct {
	Content string `json:"content"`
}

// DingTalkUser は @ されたユーザーです
type DingTalkUser struct {
	DingTalkID string `json:"dingtalkId"`
	StaffID    string `json:"staffId,omitempty"`
}

// ToDomain はリクエストボディをドメインのメッセージに変換します
func (m *DingTalkMessage) ToDomain() *domain.InboundMessage {
	msgType := domain.MessageTypeOther
	if m.MsgType == string(domain.MessageTypeText) {
		msgType = domain.MessageTypeText
	}

	users := make([]domain.MentionedUser, 0, len(m.AtUsers))
	for _, u := range m.AtUsers {
		users = append(users, domain.MentionedUser{ExternalID: u.DingTalkID})
	}

	return &domain.InboundMessage{
		MessageType:       msgType,
		RawContent:        m.Text.Content,
		SenderID:          m.SenderStaffID,
		SenderDisplayName: m.SenderNick,
		MentionedUsers:    users,
		ChatbotUserID:     m.ChatbotUserID,
		ConversationID:    m.ConversationID,
		ReplyTargetURL:    m.SessionWebhook,
	}
}
