package service

import (
	"context"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
)

// ModelPort は生成AIモデル呼び出しのポートです
type ModelPort interface {
	// Ready はクライアントが初期化済みかを返します
	Ready() bool

	// Generate は prompt に対する回答を生成します
	// 失敗時もエラーは返さず、フォールバック文言を含む結果を返します
	// 未初期化の場合は通信を行わず domain.GenerationNotReady を返します
	Generate(ctx context.Context, prompt string) domain.GenerationResult
}

// ReplyPort は DingTalk への返信送信のポートです
type ReplyPort interface {
	// Send はメッセージを送信します
	// 失敗時は *domain.DispatchError を返します
	Send(ctx context.Context, req *ReplyRequest) error
}
