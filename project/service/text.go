package service

import (
	"regexp"
	"strings"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
)

// mentionPattern は "@名前" 形式のメンション（直後の空白を含む）にマッチします
// 表示名は日本語・中国語などを含むため Unicode の文字・数字を対象にします
// 先頭の連続した "@" も名前と一緒に除去するため、1回の置換で新たなメンションは生じません
var mentionPattern = regexp.MustCompile(`@+[\p{L}\p{N}_]+\s*`)

// ellipsis は切り詰め時に付与するマーカーです
const ellipsis = "..."

// NormalizeQuestion は受信テキストからメンションを除去し、空白を正規化します
// 結果が空文字の場合は質問なしとして扱います
func NormalizeQuestion(raw string) string {
	cleaned := mentionPattern.ReplaceAllString(raw, "")

	// 連続する空白を1つにまとめ、前後の空白を除去
	return strings.Join(strings.Fields(cleaned), " ")
}

// TruncateText は text を最大 maxLen 文字（rune 単位）に切り詰めます
// 超過する場合は maxLen-3 文字に "..." を付与し、結果は maxLen 文字以内になります
func TruncateText(text string, maxLen int) string {
	if maxLen <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	if maxLen <= len(ellipsis) {
		return ellipsis[:maxLen]
	}

	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// MentionTargets は返信時にメンションするユーザーIDを返します
// 送信者を先頭に、メッセージ内で @ された参加者を受信順に追加します
// 重複とロボット自身のIDは除外します
func MentionTargets(msg *domain.InboundMessage) []string {
	seen := make(map[string]bool)
	var result []string

	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}
		// Bot除外
		if msg.ChatbotUserID != "" && id == msg.ChatbotUserID {
			return
		}
		seen[id] = true
		result = append(result, id)
	}

	add(msg.SenderID)
	for _, u := range msg.MentionedUsers {
		add(u.ExternalID)
	}

	return result
}
