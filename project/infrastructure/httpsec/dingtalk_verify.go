package httpsec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// VerifyDingTalkSignature は DingTalk からのリクエストの署名を検証します
// リクエストの timestamp ヘッダと sign ヘッダを確認します
// secret が空の場合は検証を行わず true を返します（署名なし運用を明示的に許可する設定）
// タイムスタンプの鮮度は確認しません。必要な場合は CheckTimestampFreshness を併用します
func VerifyDingTalkSignature(timestamp, secret, sign string) bool {
	if secret == "" {
		return true
	}

	// DingTalk署名: base64(HMAC-SHA256("<timestamp>\n<secret>", secret))
	expected := computeSignature(secret, timestamp)

	// 定時間比較（タイミング攻撃対策）
	return hmac.Equal([]byte(expected), []byte(sign))
}

// SignDingTalk は送信用の署名を計算します（URLエンコード前の base64 文字列）
func SignDingTalk(secret string, timestampMillis int64) string {
	return computeSignature(secret, strconv.FormatInt(timestampMillis, 10))
}

// CheckTimestampFreshness は timestamp ヘッダ（ミリ秒）が maxAge 以内かを確認します
// maxAge が 0 以下の場合は常に nil を返します
func CheckTimestampFreshness(timestamp string, now time.Time, maxAge time.Duration) error {
	if maxAge <= 0 {
		return nil
	}

	ms, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp format: %w", err)
	}

	diff := now.Sub(time.UnixMilli(ms))
	if abs(diff) > maxAge {
		return fmt.Errorf("request timestamp too old: now=%d, ts=%d", now.UnixMilli(), ms)
	}

	return nil
}

// computeSignature は DingTalk 署名を計算します
func computeSignature(secret, timestamp string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp + "\n" + secret))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// abs は絶対値を計算します
func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
