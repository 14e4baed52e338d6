package service

// ReplyRequest は返信1件の送信要求を表します
type ReplyRequest struct {
	// DestinationURL は送信先（sessionWebhook またはロボットのURL）
	DestinationURL string

	// Text は本文
	Text string

	// AtUserIDs はメンション対象のユーザーID
	AtUserIDs []string

	// AtMobiles はメンション対象の電話番号
	AtMobiles []string

	// AtAll は全員メンション
	AtAll bool

	// Secret は加签用のシークレット。空の場合は署名しません
	Secret string
}

// RelayOutcome はメッセージ処理の終端状態です
type RelayOutcome string

const (
	// OutcomeIgnored はテキスト以外のため無視した
	OutcomeIgnored RelayOutcome = "ignored"

	// OutcomeHelp は質問が空のため案内文を送った
	OutcomeHelp RelayOutcome = "help"

	// OutcomeReplied は回答（フォールバック含む）を送った
	OutcomeReplied RelayOutcome = "replied"

	// OutcomeUnavailable はAIクライアント未初期化のため回答できなかった
	OutcomeUnavailable RelayOutcome = "unavailable"
)

// Options はリレーサービスの設定です
type Options struct {
	// MaxReplyLength は返信本文の最大文字数（rune 単位）
	MaxReplyLength int

	// OutboundSecret は返信送信時の加签シークレット
	OutboundSecret string
}

// DefaultMaxReplyLength は返信本文の既定の最大文字数です
const DefaultMaxReplyLength = 2000
