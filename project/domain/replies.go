package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Replies はユーザーに表示する固定文言です
// MESSAGES_CONFIG_PATH の YAML で上書きできます
type Replies struct {
	// Help は @ のみで質問が空だった場合の案内
	Help string `yaml:"help"`

	// Unavailable は AI 呼び出し失敗・未初期化時のフォールバック
	Unavailable string `yaml:"unavailable"`

	// CannotProcess は AI が空の応答を返した場合のフォールバック
	CannotProcess string `yaml:"cannot_process"`

	// ChatTemplate は chat コマンドでロボットに送る本文（質問, 回答の順に埋め込み）
	ChatTemplate string `yaml:"chat_template"`

	// TestPrefix は動作確認用メッセージの接頭辞
	TestPrefix string `yaml:"test_prefix"`
}

// DefaultReplies は既定の文言を返します
func DefaultReplies() Replies {
	return Replies{
		Help:          "您好！我是AI助手，请问有什么可以帮助您的吗？",
		Unavailable:   "抱歉，AI服务暂时不可用，请稍后再试。",
		CannotProcess: "抱歉，我无法处理这个问题，请换个方式提问。",
		ChatTemplate:  "🤖 AI助手回复：\n\n问题：%s\n\n回答：%s",
		TestPrefix:    "🧪 测试消息: ",
	}
}

// WithDefaults は空の項目を既定値で埋めた Replies を返します
func (r Replies) WithDefaults() Replies {
	def := DefaultReplies()
	if r.Help == "" {
		r.Help = def.Help
	}
	if r.Unavailable == "" {
		r.Unavailable = def.Unavailable
	}
	if r.CannotProcess == "" {
		r.CannotProcess = def.CannotProcess
	}
	if r.ChatTemplate == "" {
		r.ChatTemplate = def.ChatTemplate
	}
	if r.TestPrefix == "" {
		r.TestPrefix = def.TestPrefix
	}
	return r
}

// Validate は ChatTemplate が質問と回答を埋め込む "%s" をちょうど2つだけ含むかを検証します
func (r Replies) Validate() error {
	verbs := strings.Count(strings.ReplaceAll(r.ChatTemplate, "%%", ""), "%")
	if verbs != 2 || strings.Count(r.ChatTemplate, "%s") != 2 {
		return errors.Wrapf(ErrInvalid, "chat_template には %%s をちょうど2つ含めてください (template=%q)", r.ChatTemplate)
	}
	return nil
}

// FormatChat は ChatTemplate に質問と回答を埋め込みます
func (r Replies) FormatChat(question, answer string) string {
	return fmt.Sprintf(r.ChatTemplate, question, answer)
}
