package domain

// GenerationOutcome は生成呼び出しの結果種別です
type GenerationOutcome string

const (
	// GenerationOK はモデルが本文を返した
	GenerationOK GenerationOutcome = "ok"

	// GenerationEmpty は呼び出しは成功したが本文が空だった
	GenerationEmpty GenerationOutcome = "empty"

	// GenerationUnavailable は呼び出し自体が失敗した（認証・通信・タイムアウト・安全性ブロックなど）
	GenerationUnavailable GenerationOutcome = "unavailable"

	// GenerationNotReady はクライアント未初期化のため呼び出しを行わなかった
	GenerationNotReady GenerationOutcome = "not_ready"
)

// GenerationResult は生成結果です
// Text は常にそのまま返信に使える文字列で、劣化時はフォールバック文言が入ります
type GenerationResult struct {
	Text    string
	Outcome GenerationOutcome
}

// Degraded はフォールバック文言に置き換わっているかを返します
func (r GenerationResult) Degraded() bool {
	return r.Outcome != GenerationOK
}

// HarmBlockThreshold は安全性フィルタのしきい値です
type HarmBlockThreshold string

// BlockMediumAndAbove は中程度以上の有害性をブロックします
const BlockMediumAndAbove HarmBlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"

// SafetySetting はカテゴリ別の安全性設定です
type SafetySetting struct {
	Category  string
	Threshold HarmBlockThreshold
}

// GenerationConfig は生成時のデコード設定と安全性ポリシーです
// 呼び出しごとに DefaultGenerationConfig から作り直します
type GenerationConfig struct {
	Temperature      float64
	TopP             float64
	TopK             int
	MaxOutputTokens  int
	ResponseMIMEType string
	SafetySettings   []SafetySetting
}

// DefaultGenerationConfig は固定のデコード設定を返します
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:      0.3,
		TopP:             0.8,
		TopK:             40,
		MaxOutputTokens:  1000,
		ResponseMIMEType: "text/plain",
		SafetySettings: []SafetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: BlockMediumAndAbove},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: BlockMediumAndAbove},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: BlockMediumAndAbove},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: BlockMediumAndAbove},
		},
	}
}
