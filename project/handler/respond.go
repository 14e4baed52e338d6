package handler

import (
	"encoding/json"
	"net/http"
)

// レスポンスのエラーメッセージ
const (
	msgSignatureFailed = "签名验证失败"
	msgBadRequest      = "请求格式错误"
	msgMissingWebhook  = "缺少有效的sessionWebhook"
	msgUnavailable     = "AI服务暂时不可用"
	msgInternal        = "内部服务器错误"
	msgNotFound        = "接口不存在"
	msgMethodNotAllow  = "请求方法不允许"
	msgBodyTooLarge    = "请求体过大"
)

// WebhookResponse は webhook 処理成功時のレスポンスです
type WebhookResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse はエラー時のレスポンスです
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON は v を JSON で書き出します
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError はエラーレスポンスを書き出します
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
