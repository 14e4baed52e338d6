package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
)

type fakeModel struct {
	ready   bool
	result  domain.GenerationResult
	mu      sync.Mutex
	prompts []string
}

func (m *fakeModel) Ready() bool { return m.ready }

func (m *fakeModel) Generate(_ context.Context, prompt string) domain.GenerationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if !m.ready {
		return domain.GenerationResult{Outcome: domain.GenerationNotReady}
	}
	return m.result
}

type fakeReply struct {
	err  error
	mu   sync.Mutex
	sent []*ReplyRequest
}

func (r *fakeReply) Send(_ context.Context, req *ReplyRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, req)
	return r.err
}

func newTextMessage(content string) *domain.InboundMessage {
	return &domain.InboundMessage{
		MessageType:       domain.MessageTypeText,
		RawContent:        content,
		SenderID:          "staff-1",
		SenderDisplayName: "张三",
		ChatbotUserID:     "bot-1",
		ConversationID:    "cid-1",
		ReplyTargetURL:    "https://oapi.dingtalk.com/robot/sendBySession?session=abc",
	}
}

func TestHandleMessage_Replied(t *testing.T) {
	model := &fakeModel{ready: true, result: domain.GenerationResult{Text: "4", Outcome: domain.GenerationOK}}
	reply := &fakeReply{}
	svc := NewRelayService(Options{OutboundSecret: "SECout"}, domain.DefaultReplies(), model, reply, zerolog.Nop())

	msg := newTextMessage("@bot what is 2+2")
	msg.MentionedUsers = []domain.MentionedUser{{ExternalID: "bot-1"}, {ExternalID: "u2"}}

	outcome, err := svc.HandleMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplied, outcome)

	require.Len(t, model.prompts, 1)
	assert.Equal(t, "what is 2+2", model.prompts[0])

	require.Len(t, reply.sent, 1)
	sent := reply.sent[0]
	assert.Equal(t, msg.ReplyTargetURL, sent.DestinationURL)
	assert.Equal(t, "4", sent.Text)
	assert.Equal(t, []string{"staff-1", "u2"}, sent.AtUserIDs)
	assert.Equal(t, "SECout", sent.Secret)
}

func TestHandleMessage_Help(t *testing.T) {
	model := &fakeModel{ready: true}
	reply := &fakeReply{}
	svc := NewRelayService(Options{}, domain.DefaultReplies(), model, reply, zerolog.Nop())

	outcome, err := svc.HandleMessage(context.Background(), newTextMessage("@bot   "))
	require.NoError(t, err)
	assert.Equal(t, OutcomeHelp, outcome)

	assert.Empty(t, model.prompts, "案内時は生成しない")
	require.Len(t, reply.sent, 1)
	assert.Equal(t, domain.DefaultReplies().Help, reply.sent[0].Text)
	assert.Empty(t, reply.sent[0].AtUserIDs)
}

func TestHandleMessage_Ignored(t *testing.T) {
	model := &fakeModel{ready: true}
	reply := &fakeReply{}
	svc := NewRelayService(Options{}, domain.DefaultReplies(), model, reply, zerolog.Nop())

	msg := newTextMessage("hello")
	msg.MessageType = domain.MessageTypeOther

	outcome, err := svc.HandleMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, model.prompts)
	assert.Empty(t, reply.sent)
}

func TestHandleMessage_NotReady(t *testing.T) {
	model := &fakeModel{ready: false}
	reply := &fakeReply{}
	svc := NewRelayService(Options{}, domain.DefaultReplies(), model, reply, zerolog.Nop())

	outcome, err := svc.HandleMessage(context.Background(), newTextMessage("hello"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	assert.Equal(t, OutcomeUnavailable, outcome)

	assert.Empty(t, model.prompts)
	require.Len(t, reply.sent, 1)
	assert.Equal(t, domain.DefaultReplies().Unavailable, reply.sent[0].Text)
}

func TestHandleMessage_InvalidMessage(t *testing.T) {
	svc := NewRelayService(Options{}, domain.DefaultReplies(), &fakeModel{ready: true}, &fakeReply{}, zerolog.Nop())

	_, err := svc.HandleMessage(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalid))

	msg := newTextMessage("hello")
	msg.ReplyTargetURL = ""
	_, err = svc.HandleMessage(context.Background(), msg)
	assert.True(t, errors.Is(err, domain.ErrInvalid))
}

func TestHandleMessage_DispatchFailureIsSwallowed(t *testing.T) {
	model := &fakeModel{ready: true, result: domain.GenerationResult{Text: "ok", Outcome: domain.GenerationOK}}
	reply := &fakeReply{err: &domain.DispatchError{Code: 310000, Message: "sign not match"}}
	svc := NewRelayService(Options{}, domain.DefaultReplies(), model, reply, zerolog.Nop())

	outcome, err := svc.HandleMessage(context.Background(), newTextMessage("hello"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplied, outcome)
	assert.Len(t, reply.sent, 1)
}

func TestHandleMessage_FallbackTextIsSent(t *testing.T) {
	replies := domain.DefaultReplies()
	model := &fakeModel{ready: true, result: domain.GenerationResult{Text: replies.CannotProcess, Outcome: domain.GenerationEmpty}}
	reply := &fakeReply{}
	svc := NewRelayService(Options{}, replies, model, reply, zerolog.Nop())

	outcome, err := svc.HandleMessage(context.Background(), newTextMessage("hello"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplied, outcome)
	require.Len(t, reply.sent, 1)
	assert.Equal(t, replies.CannotProcess, reply.sent[0].Text)
}

func TestHandleMessage_TruncatesLongAnswer(t *testing.T) {
	model := &fakeModel{ready: true, result: domain.GenerationResult{Text: strings.Repeat("答", 50), Outcome: domain.GenerationOK}}
	reply := &fakeReply{}
	svc := NewRelayService(Options{MaxReplyLength: 20}, domain.DefaultReplies(), model, reply, zerolog.Nop())

	_, err := svc.HandleMessage(context.Background(), newTextMessage("long"))
	require.NoError(t, err)
	require.Len(t, reply.sent, 1)
	assert.Equal(t, 20, utf8.RuneCountInString(reply.sent[0].Text))
	assert.True(t, strings.HasSuffix(reply.sent[0].Text, "..."))
}

func TestAsk(t *testing.T) {
	model := &fakeModel{ready: true, result: domain.GenerationResult{Text: "你好", Outcome: domain.GenerationOK}}
	svc := NewRelayService(Options{}, domain.DefaultReplies(), model, &fakeReply{}, zerolog.Nop())

	result := svc.Ask(context.Background(), "@keep 你好")
	assert.Equal(t, "你好", result.Text)
	require.Len(t, model.prompts, 1)
	assert.Equal(t, "@keep 你好", model.prompts[0])
	assert.True(t, svc.ModelReady())
}
