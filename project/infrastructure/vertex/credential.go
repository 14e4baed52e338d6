package vertex

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// tokenExpiryDelta はトークン期限の何秒前から更新対象とするかです
const tokenExpiryDelta = time.Minute

// tokenCache は OAuth2 アクセストークンをプロセス内で共有します
// 読み取りは RWMutex、更新は singleflight で同時に1回だけ行います
type tokenCache struct {
	src   oauth2.TokenSource
	group singleflight.Group
	now   func() time.Time

	mu  sync.RWMutex
	tok *oauth2.Token
}

func newTokenCache(src oauth2.TokenSource) *tokenCache {
	return &tokenCache{src: src, now: time.Now}
}

// AccessToken は有効なアクセストークンを返します
// 期限切れ間近の場合は更新してから返します
func (c *tokenCache) AccessToken(ctx context.Context) (string, error) {
	if tok := c.cached(); tok != nil {
		return tok.AccessToken, nil
	}

	ch := c.group.DoChan("token", func() (interface{}, error) {
		// 待っている間に他のリクエストが更新済みの場合
		if tok := c.cached(); tok != nil {
			return tok, nil
		}

		tok, err := c.src.Token()
		if err != nil {
			return nil, errors.Wrap(err, "vertex: アクセストークン取得失敗")
		}
		if tok.AccessToken == "" {
			return nil, errors.New("vertex: アクセストークンが空です")
		}

		c.mu.Lock()
		c.tok = tok
		c.mu.Unlock()
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "vertex: トークン更新待ち中断")
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(*oauth2.Token).AccessToken, nil
	}
}

// cached は有効期限内のトークンを返します。なければ nil
func (c *tokenCache) cached() *oauth2.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.tok == nil || c.tok.AccessToken == "" {
		return nil
	}
	if !c.tok.Expiry.IsZero() && !c.now().Add(tokenExpiryDelta).Before(c.tok.Expiry) {
		return nil
	}
	return c.tok
}
