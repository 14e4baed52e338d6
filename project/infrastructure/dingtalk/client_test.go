package dingtalk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
	"github.com/sulitulab/dingding-gemini-chatbot/project/infrastructure/httpsec"
	"github.com/sulitulab/dingding-gemini-chatbot/project/service"
)

func TestBuildNotification_Signed(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	n, err := BuildNotification(&service.ReplyRequest{
		DestinationURL: "https://oapi.dingtalk.com/robot/send?access_token=abc",
		Text:           "hi",
		Secret:         "SECxxxx",
	}, now)
	require.NoError(t, err)

	require.NotNil(t, n.Signature)
	assert.Equal(t, int64(1700000000000), n.Signature.Timestamp)
	assert.Equal(t, httpsec.SignDingTalk("SECxxxx", 1700000000000), n.Signature.HMAC)

	u, err := url.Parse(n.DestinationURL)
	require.NoError(t, err)
	assert.Equal(t, "abc", u.Query().Get("access_token"))
	assert.Equal(t, "1700000000000", u.Query().Get("timestamp"))
	assert.Equal(t, n.Signature.HMAC, u.Query().Get("sign"))
	assert.Contains(t, u.RawQuery, "sign="+url.QueryEscape(n.Signature.HMAC))

	assert.Nil(t, n.Mention)
}

func TestBuildNotification_SignedKeepsExistingQuery(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	dest := "https://oapi.dingtalk.com/robot/sendBySession?session=ab+c/d;e"

	n, err := BuildNotification(&service.ReplyRequest{
		DestinationURL: dest,
		Text:           "hi",
		Secret:         "SECxxxx",
	}, now)
	require.NoError(t, err)

	want := dest + "&" + url.Values{
		"timestamp": {"1700000000000"},
		"sign":      {n.Signature.HMAC},
	}.Encode()
	assert.Equal(t, want, n.DestinationURL)
}

func TestBuildNotification_SignedWithoutQuery(t *testing.T) {
	n, err := BuildNotification(&service.ReplyRequest{
		DestinationURL: "https://example.com/hook",
		Text:           "hi",
		Secret:         "SECxxxx",
	}, time.UnixMilli(1))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/hook?sign="+url.QueryEscape(n.Signature.HMAC)+"&timestamp=1", n.DestinationURL)
}

func TestBuildNotification_Unsigned(t *testing.T) {
	dest := "https://oapi.dingtalk.com/robot/sendBySession?session=xyz"
	n, err := BuildNotification(&service.ReplyRequest{
		DestinationURL: dest,
		Text:           "hi",
		AtUserIDs:      []string{"u1"},
	}, time.Now())
	require.NoError(t, err)

	assert.Nil(t, n.Signature)
	assert.Equal(t, dest, n.DestinationURL)
	require.NotNil(t, n.Mention)
	assert.Equal(t, []string{"u1"}, n.Mention.UserIDs)
}

func TestBuildNotification_InvalidURL(t *testing.T) {
	for _, dest := range []string{"", "not a url", "/relative/path"} {
		_, err := BuildNotification(&service.ReplyRequest{DestinationURL: dest}, time.Now())
		assert.True(t, errors.Is(err, domain.ErrInvalid), "dest=%q", dest)
	}
}

func TestSend_Body(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second, zerolog.Nop())
	err := c.Send(context.Background(), &service.ReplyRequest{
		DestinationURL: srv.URL,
		Text:           "4",
		AtUserIDs:      []string{"staff-1", "u2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "text", got["msgtype"])
	assert.Equal(t, "4", got["text"].(map[string]interface{})["content"])
	at := got["at"].(map[string]interface{})
	assert.Equal(t, []interface{}{"staff-1", "u2"}, at["atUserIds"])
	assert.Equal(t, false, at["isAtAll"])
}

func TestSend_OmitsAtWithoutMentions(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second, zerolog.Nop())
	require.NoError(t, c.Send(context.Background(), &service.ReplyRequest{DestinationURL: srv.URL, Text: "help"}))

	_, ok := got["at"]
	assert.False(t, ok)
}

func TestSend_SignedQuery(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second, zerolog.Nop())
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	require.NoError(t, c.Send(context.Background(), &service.ReplyRequest{
		DestinationURL: srv.URL + "/robot/send?access_token=tok",
		Text:           "hi",
		Secret:         "SECxxxx",
	}))

	assert.Equal(t, "tok", query.Get("access_token"))
	assert.Equal(t, "1700000000000", query.Get("timestamp"))
	assert.True(t, httpsec.VerifyDingTalkSignature(query.Get("timestamp"), "SECxxxx", query.Get("sign")))
}

func TestSend_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantCode   int
	}{
		{name: "errcode", status: http.StatusOK, body: `{"errcode":310000,"errmsg":"sign not match"}`, wantStatus: http.StatusOK, wantCode: 310000},
		{name: "非2xx", status: http.StatusBadGateway, body: "bad gateway", wantStatus: http.StatusBadGateway, wantCode: -1},
		{name: "不正なJSON", status: http.StatusOK, body: "<html>", wantStatus: http.StatusOK, wantCode: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(time.Second, zerolog.Nop())
			err := c.Send(context.Background(), &service.ReplyRequest{DestinationURL: srv.URL, Text: "x"})
			require.Error(t, err)

			var de *domain.DispatchError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.wantStatus, de.StatusCode)
			assert.Equal(t, tt.wantCode, de.Code)
		})
	}
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(50*time.Millisecond, zerolog.Nop())
	err := c.Send(context.Background(), &service.ReplyRequest{DestinationURL: srv.URL, Text: "x"})

	var de *domain.DispatchError
	require.True(t, errors.As(err, &de))
	assert.Zero(t, de.StatusCode)
}

func TestRobotURL(t *testing.T) {
	assert.Equal(t, "https://oapi.dingtalk.com/robot/send?access_token=abc%2B1", RobotURL("abc+1"))
}
