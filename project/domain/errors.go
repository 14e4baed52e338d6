package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ドメインエラー定義
var (
	// ErrInvalid は不正な値が設定された場合のエラー
	ErrInvalid = errors.New("ドメイン: 不正な値です")

	// ErrNotFound は要求されたリソースが見つからない場合のエラー
	ErrNotFound = errors.New("ドメイン: リソースが見つかりません")

	// ErrServiceUnavailable は AI クライアントが未初期化の場合のエラー
	ErrServiceUnavailable = errors.New("ドメイン: AIサービスが利用できません")
)

// DispatchError は返信送信の失敗を表します
// 呼び出し側はログに記録するのみで、送信者には返しません
type DispatchError struct {
	// StatusCode は HTTP ステータス。通信自体が失敗した場合は 0
	StatusCode int

	// Code は DingTalk の errcode。取得できない場合は -1
	Code int

	// Message は errmsg またはエラー内容
	Message string
}

func (e *DispatchError) Error() string {
	if e.StatusCode != 0 && e.StatusCode/100 != 2 {
		return fmt.Sprintf("dingtalk: 送信失敗 (status=%d, errcode=%d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("dingtalk: 送信失敗 (errcode=%d): %s", e.Code, e.Message)
}
